// Package command models the concrete invocations that allow-listed
// identifiers resolve to, and tokenizes them with shell word-splitting rules.
package command

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// ErrEmpty is returned when an invocation has no command words.
var ErrEmpty = errors.New("empty command")

// Invocation is a fully tokenized command ready to hand to a backend.
//
// When Shell is false the invocation is a single simple command and Argv is
// the literal argument vector to execute without a shell. When Shell is true
// the line needs a shell (pipelines, lists, redirections) and Argv is nil.
// Tokens always holds every expanded word of every simple command in the line,
// which is what deny-list checks run against.
type Invocation struct {
	Name   string
	Line   string
	Argv   []string
	Shell  bool
	Tokens []string
}

// String returns the command line as it would be typed.
func (inv Invocation) String() string {
	return inv.Line
}

// Parse tokenizes a shell command line.
//
// Quotes and escapes are honoured and comments are dropped. Anything that
// cannot be expanded statically (command or process substitution, subshells,
// control flow, background jobs, heredocs) is an error, so callers that treat
// a parse error as a rejection fail closed.
func Parse(line string) (Invocation, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Invocation{}, ErrEmpty
	}
	if strings.ContainsRune(line, 0) {
		return Invocation{}, fmt.Errorf("parse %q: command contains NUL byte", line)
	}

	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangPOSIX))
	f, err := parser.Parse(strings.NewReader(line), "")
	if err != nil {
		return Invocation{}, fmt.Errorf("parse %q: %w", line, err)
	}
	if len(f.Stmts) == 0 {
		return Invocation{}, ErrEmpty
	}

	t := &tokenizer{
		cfg: &expand.Config{Env: expand.ListEnviron(os.Environ()...)},
	}
	for _, st := range f.Stmts {
		if err := t.stmt(st); err != nil {
			return Invocation{}, fmt.Errorf("parse %q: %w", line, err)
		}
	}
	if len(t.tokens) == 0 {
		return Invocation{}, ErrEmpty
	}

	inv := Invocation{Line: line, Tokens: t.tokens}
	if len(f.Stmts) == 1 && t.calls == 1 && !t.shell {
		inv.Argv = t.argv
	} else {
		inv.Shell = true
	}
	return inv, nil
}

// FromArgs builds an invocation from a literal argument vector.
// The line form is reconstructed with POSIX quoting for display and
// pattern checks; it is never handed to a shell.
func FromArgs(args []string) (Invocation, error) {
	if len(args) == 0 || args[0] == "" {
		return Invocation{}, ErrEmpty
	}

	quoted := make([]string, len(args))
	for i, arg := range args {
		q, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			return Invocation{}, fmt.Errorf("argument %d: %w", i, err)
		}
		quoted[i] = q
	}

	argv := make([]string, len(args))
	copy(argv, args)
	tokens := make([]string, len(args))
	copy(tokens, args)

	return Invocation{
		Line:   strings.Join(quoted, " "),
		Argv:   argv,
		Tokens: tokens,
	}, nil
}

// tokenizer walks a parsed shell file collecting expanded words.
type tokenizer struct {
	cfg    *expand.Config
	tokens []string
	argv   []string // words of the first simple command
	calls  int
	shell  bool
}

func (t *tokenizer) stmt(st *syntax.Stmt) error {
	if st.Background || st.Coprocess {
		return errors.New("background jobs are not supported")
	}
	if st.Negated {
		t.shell = true
	}
	for _, r := range st.Redirs {
		if r.Hdoc != nil {
			return errors.New("heredocs are not supported")
		}
		t.shell = true
		if r.Word == nil {
			continue
		}
		target, err := expand.Literal(t.cfg, r.Word)
		if err != nil {
			return err
		}
		t.tokens = append(t.tokens, target)
	}
	if st.Cmd == nil {
		return nil
	}

	switch cmd := st.Cmd.(type) {
	case *syntax.CallExpr:
		return t.call(cmd)
	case *syntax.BinaryCmd:
		t.shell = true
		if err := t.stmt(cmd.X); err != nil {
			return err
		}
		return t.stmt(cmd.Y)
	default:
		return fmt.Errorf("unsupported shell construct %T", cmd)
	}
}

func (t *tokenizer) call(cmd *syntax.CallExpr) error {
	for _, as := range cmd.Assigns {
		t.shell = true
		if as.Value == nil {
			continue
		}
		v, err := expand.Literal(t.cfg, as.Value)
		if err != nil {
			return err
		}
		t.tokens = append(t.tokens, v)
	}
	if len(cmd.Args) == 0 {
		return nil
	}

	fields, err := expand.Fields(t.cfg, cmd.Args...)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		// e.g. an unset variable expanding to nothing
		t.shell = true
		return nil
	}
	t.calls++
	if t.calls == 1 {
		t.argv = fields
	}
	t.tokens = append(t.tokens, fields...)
	return nil
}
