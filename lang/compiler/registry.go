package compiler

import (
	"github.com/dolthub/swiss"
	"github.com/mna/dbi/lang/token"
)

// Command describes a host-registered foreign command (spec §4.7). Arity is
// the number of required arguments; -1 means "any positive count" (spec
// §4.3).
type Command struct {
	Name  string
	Arity int
	Help  string
}

// Registry holds the insertion-ordered list of host-registered foreign
// commands, with a swiss-table index for O(1) name lookup during
// compilation (see SPEC_FULL.md, DOMAIN STACK). It is built once on a
// Program before compilation begins and is immutable afterwards (spec
// §4.7: "Register a host command on a program object, before the program
// has been compiled").
type Registry struct {
	commands []Command
	byName   *swiss.Map[string, int]
}

// NewRegistry returns an empty command registry.
func NewRegistry() *Registry {
	return &Registry{byName: swiss.NewMap[string, int](8)}
}

// Register adds a new foreign command. It returns an error if the name is
// not uppercase ASCII, is already registered, or shadows a built-in keyword.
func (r *Registry) Register(name string, arity int, help string) error {
	if !isValidCommandName(name) {
		return &RegisterError{Name: name, Reason: "command name must be uppercase ASCII letters"}
	}
	if _, ok := token.Lookup(name); ok {
		return &RegisterError{Name: name, Reason: "name shadows a built-in command"}
	}
	if _, ok := r.byName.Get(name); ok {
		return &RegisterError{Name: name, Reason: "command already registered"}
	}
	if arity < -1 {
		return &RegisterError{Name: name, Reason: "arity must be >= -1"}
	}
	idx := len(r.commands)
	r.commands = append(r.commands, Command{Name: name, Arity: arity, Help: help})
	r.byName.Put(name, idx)
	return nil
}

// Lookup returns the registered command and its table index for name, or
// ok=false if no such command is registered.
func (r *Registry) Lookup(name string) (cmd Command, idx int, ok bool) {
	idx, ok = r.byName.Get(name)
	if !ok {
		return Command{}, 0, false
	}
	return r.commands[idx], idx, true
}

// At returns the command registered at table index idx.
func (r *Registry) At(idx int) Command { return r.commands[idx] }

// Len returns the number of registered foreign commands.
func (r *Registry) Len() int { return len(r.commands) }

func isValidCommandName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// RegisterError reports why a command registration was rejected.
type RegisterError struct {
	Name   string
	Reason string
}

func (e *RegisterError) Error() string {
	return "cannot register command " + e.Name + ": " + e.Reason
}
