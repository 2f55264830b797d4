package policy

import (
	"errors"
	"strings"

	"github.com/xdg/termrelay/internal/clog"
)

// Validator resolves request text to an invocation using an allow-list and
// a deny-list. Both lists are read-only, so one Validator serves all requests.
type Validator struct {
	allow *AllowList
	deny  *DenyList
}

// NewValidator creates a Validator. A nil deny-list disables deny checks;
// a nil allow-list rejects everything.
func NewValidator(allow *AllowList, deny *DenyList) *Validator {
	return &Validator{allow: allow, deny: deny}
}

// AllowList returns the validator's allow-list.
func (v *Validator) AllowList() *AllowList {
	return v.allow
}

// Validate decides what to do with the request text.
func (v *Validator) Validate(text string) Decision {
	text = strings.TrimSpace(text)
	if text == "" {
		return Decision{Outcome: Empty}
	}

	inv, err := v.allow.Lookup(text)
	if err != nil {
		reason := "unknown command"
		if !errors.Is(err, ErrUnknownCommand) {
			reason = "invocation cannot be tokenized"
		}
		clog.Debug("policy: reject %q: %v", text, err)
		return Decision{Outcome: Rejected, Name: text, Reason: reason}
	}

	if tok, denied := v.deny.Check(inv); denied {
		clog.Warn("policy: allow-listed command %q resolves to %q which contains deny-listed token %q", text, inv.Line, tok)
		return Decision{Outcome: Rejected, Name: text, Reason: "deny-listed token " + tok}
	}

	return Decision{Outcome: Resolved, Name: text, Invocation: inv}
}
