package policy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/xdg/termrelay/internal/clog"
	"github.com/xdg/termrelay/internal/command"
	"github.com/xdg/termrelay/internal/config"
)

// ErrUnknownCommand is returned by Lookup for identifiers not in the allow-list.
var ErrUnknownCommand = errors.New("command not in allow-list")

// allowEntry holds a tokenized invocation, or the reason it could not be tokenized.
type allowEntry struct {
	inv command.Invocation
	err error
}

// AllowList maps external identifiers to fixed invocations.
// It is built once and never mutated, so it is safe for concurrent use.
type AllowList struct {
	entries map[string]allowEntry
}

// NewAllowList creates an AllowList from identifier → shell line pairs.
func NewAllowList(lines map[string]string) *AllowList {
	a := &AllowList{entries: make(map[string]allowEntry, len(lines))}
	for name, line := range lines {
		a.add(name, func() (command.Invocation, error) { return command.Parse(line) })
	}
	return a
}

// NewAllowListFromConfig creates an AllowList from configured command entries.
// Entries with Args become literal argument vectors; entries with Run are
// tokenized as shell lines. Entries that fail to tokenize are kept so that
// lookups report them as rejected rather than unknown.
func NewAllowListFromConfig(entries []config.CommandEntry) *AllowList {
	a := &AllowList{entries: make(map[string]allowEntry, len(entries))}
	for _, e := range entries {
		if len(e.Args) > 0 {
			a.add(e.Name, func() (command.Invocation, error) { return command.FromArgs(e.Args) })
		} else {
			a.add(e.Name, func() (command.Invocation, error) { return command.Parse(e.Run) })
		}
	}
	return a
}

func (a *AllowList) add(name string, build func() (command.Invocation, error)) {
	if name == "" {
		return
	}
	inv, err := build()
	if err != nil {
		clog.Warn("allow-list entry %q cannot be tokenized, it will always be rejected: %v", name, err)
		a.entries[name] = allowEntry{err: err}
		return
	}
	inv.Name = name
	a.entries[name] = allowEntry{inv: inv}
}

// Lookup returns the invocation for an identifier. The identifier is matched
// verbatim. It returns ErrUnknownCommand when the identifier is not listed,
// and a tokenization error when the listed invocation could not be parsed.
func (a *AllowList) Lookup(name string) (command.Invocation, error) {
	if a == nil {
		return command.Invocation{}, ErrUnknownCommand
	}
	e, ok := a.entries[name]
	if !ok {
		return command.Invocation{}, ErrUnknownCommand
	}
	if e.err != nil {
		return command.Invocation{}, fmt.Errorf("tokenize %q: %w", name, e.err)
	}
	return e.inv, nil
}

// Names returns the allow-listed identifiers in sorted order.
func (a *AllowList) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.entries))
	for name := range a.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of allow-listed identifiers.
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.entries)
}
