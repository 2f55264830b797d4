package command

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParse_SimpleCommand(t *testing.T) {
	inv, err := Parse("ping -c 5 8.8.8.8")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []string{"ping", "-c", "5", "8.8.8.8"}
	if !reflect.DeepEqual(inv.Argv, want) {
		t.Errorf("Argv = %q, want %q", inv.Argv, want)
	}
	if !reflect.DeepEqual(inv.Tokens, want) {
		t.Errorf("Tokens = %q, want %q", inv.Tokens, want)
	}
	if inv.Shell {
		t.Error("Shell = true, want false for a simple command")
	}
	if inv.Line != "ping -c 5 8.8.8.8" {
		t.Errorf("Line = %q", inv.Line)
	}
}

func TestParse_QuotesAndEscapes(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{`echo "hello world"`, []string{"echo", "hello world"}},
		{`echo 'it'\''s'`, []string{"echo", "it's"}},
		{`echo a\ b c`, []string{"echo", "a b", "c"}},
		{`printf '%s\n' "$((1+2))"`, []string{"printf", `%s\n`, "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			inv, err := Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(inv.Argv, tt.want) {
				t.Errorf("Argv = %q, want %q", inv.Argv, tt.want)
			}
		})
	}
}

func TestParse_ShellConstructs(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantTokens []string
	}{
		{"pipeline", "ls -la | wc -l", []string{"ls", "-la", "wc", "-l"}},
		{"and list", "true && echo ok", []string{"true", "echo", "ok"}},
		{"sequence", "echo a; echo b", []string{"echo", "a", "echo", "b"}},
		{"redirect", "echo hi > /tmp/out", []string{"/tmp/out", "echo", "hi"}},
		{"assignment", "FOO=bar env", []string{"bar", "env"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !inv.Shell {
				t.Error("Shell = false, want true")
			}
			if inv.Argv != nil {
				t.Errorf("Argv = %q, want nil for shell invocations", inv.Argv)
			}
			if !reflect.DeepEqual(inv.Tokens, tt.wantTokens) {
				t.Errorf("Tokens = %q, want %q", inv.Tokens, tt.wantTokens)
			}
		})
	}
}

func TestParse_FailsClosed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"unterminated quote", "echo 'oops"},
		{"command substitution", "echo $(whoami)"},
		{"backticks", "echo `id`"},
		{"subshell", "(cd / && ls)"},
		{"background", "sleep 100 &"},
		{"if clause", "if true; then echo y; fi"},
		{"heredoc", "cat <<EOF\nhi\nEOF"},
		{"nul byte", "echo a\x00b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.line); err == nil {
				t.Errorf("Parse(%q) error = nil, want error", tt.line)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, line := range []string{"", "   ", "# only a comment"} {
		_, err := Parse(line)
		if !errors.Is(err, ErrEmpty) {
			t.Errorf("Parse(%q) error = %v, want ErrEmpty", line, err)
		}
	}
}

func TestFromArgs(t *testing.T) {
	inv, err := FromArgs([]string{"python3", "visualiser.py", "1"})
	if err != nil {
		t.Fatalf("FromArgs() error = %v", err)
	}
	if inv.Shell {
		t.Error("Shell = true, want false")
	}
	if inv.Line != "python3 visualiser.py 1" {
		t.Errorf("Line = %q, want %q", inv.Line, "python3 visualiser.py 1")
	}
	if !reflect.DeepEqual(inv.Tokens, inv.Argv) {
		t.Errorf("Tokens = %q, want Argv %q", inv.Tokens, inv.Argv)
	}
}

func TestFromArgs_QuotesForDisplay(t *testing.T) {
	inv, err := FromArgs([]string{"echo", "hello world"})
	if err != nil {
		t.Fatalf("FromArgs() error = %v", err)
	}
	if !strings.HasPrefix(inv.Line, "echo ") || !strings.Contains(inv.Line, "hello world") {
		t.Errorf("Line = %q", inv.Line)
	}
	if inv.Line == "echo hello world" {
		t.Error("argument with a space was not quoted")
	}
	// The quoted line must round-trip through the tokenizer.
	back, err := Parse(inv.Line)
	if err != nil {
		t.Fatalf("Parse(Line) error = %v", err)
	}
	if !reflect.DeepEqual(back.Argv, inv.Argv) {
		t.Errorf("round trip Argv = %q, want %q", back.Argv, inv.Argv)
	}
}

func TestFromArgs_Errors(t *testing.T) {
	if _, err := FromArgs(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("FromArgs(nil) error = %v, want ErrEmpty", err)
	}
	if _, err := FromArgs([]string{"echo", "a\x00b"}); err == nil {
		t.Error("FromArgs with NUL byte: error = nil, want error")
	}
}

func TestFromArgs_CopiesInput(t *testing.T) {
	args := []string{"echo", "a"}
	inv, err := FromArgs(args)
	if err != nil {
		t.Fatalf("FromArgs() error = %v", err)
	}
	args[1] = "mutated"
	if inv.Argv[1] != "a" || inv.Tokens[1] != "a" {
		t.Error("invocation shares storage with caller's slice")
	}
}
