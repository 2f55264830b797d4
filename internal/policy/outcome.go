// Package policy decides whether a requested command identifier may run.
//
// Identifiers are looked up in a closed allow-list and the invocation they
// resolve to is checked against a deny-list of forbidden tokens. Nothing the
// caller sends is ever executed directly: only the fixed invocation stored for
// a matched identifier can be resolved.
package policy

import "github.com/xdg/termrelay/internal/command"

// Outcome is the result of validating a command identifier.
type Outcome int

const (
	// Rejected means the identifier is unknown or its invocation failed
	// deny-list or tokenization checks. It is the zero value so that an
	// uninitialized Decision never resolves.
	Rejected Outcome = iota
	// Empty means the request text was blank.
	Empty
	// Resolved means the identifier maps to an invocation that passed all checks.
	Resolved
)

// String returns the string representation of an Outcome.
func (o Outcome) String() string {
	switch o {
	case Rejected:
		return "rejected"
	case Empty:
		return "empty"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Decision is the outcome of validating one request.
type Decision struct {
	Outcome    Outcome
	Name       string             // the identifier as requested (trimmed)
	Invocation command.Invocation // set only when Outcome is Resolved
	Reason     string             // set only when Outcome is Rejected
}
