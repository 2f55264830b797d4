package policy

import (
	"path"
	"regexp"
	"strings"

	"github.com/xdg/termrelay/internal/command"
)

// DenyList rejects invocations that contain forbidden tokens.
//
// Two checks run and either one rejects: an exact comparison against every
// expanded token (and its base name, so /bin/rm matches rm), and a whole-word
// regular expression over the untokenized command line.
type DenyList struct {
	tokens  map[string]struct{}
	pattern *regexp.Regexp
}

// NewDenyList creates a DenyList from forbidden tokens.
// Blank entries are ignored.
func NewDenyList(tokens []string) *DenyList {
	d := &DenyList{tokens: make(map[string]struct{}, len(tokens))}

	alts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if _, dup := d.tokens[tok]; dup {
			continue
		}
		d.tokens[tok] = struct{}{}
		alts = append(alts, regexp.QuoteMeta(tok))
	}
	if len(alts) > 0 {
		d.pattern = regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)\b`)
	}
	return d
}

// Check reports whether inv contains a forbidden token.
// It returns the offending token when it does.
func (d *DenyList) Check(inv command.Invocation) (string, bool) {
	if d == nil || len(d.tokens) == 0 {
		return "", false
	}

	for _, tok := range inv.Tokens {
		if _, ok := d.tokens[tok]; ok {
			return tok, true
		}
		if base := path.Base(tok); base != tok {
			if _, ok := d.tokens[base]; ok {
				return base, true
			}
		}
	}

	if m := d.pattern.FindString(inv.Line); m != "" {
		return m, true
	}
	return "", false
}

// Len returns the number of forbidden tokens.
func (d *DenyList) Len() int {
	if d == nil {
		return 0
	}
	return len(d.tokens)
}
