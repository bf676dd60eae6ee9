package types

import "fmt"

// VarRef is a reference to one of the 26 single-letter global variables (A-Z,
// encoded as 0-25). It is the only Value variant that is never stored
// directly in a variable cell: any opcode that reads a stack value resolves
// a VarRef through the variable cells first (spec §3 invariants).
type VarRef uint8

var _ Value = VarRef(0)

// MaxVars is the number of addressable variable letters (A-Z).
const MaxVars = 26

func (v VarRef) String() string { return string(rune('A' + v)) }
func (v VarRef) Type() string   { return "var" }

// VarRefFromLetter converts an upper-case letter 'A'..'Z' to a VarRef. The
// caller must have already validated the letter.
func VarRefFromLetter(letter byte) VarRef {
	if letter < 'A' || letter > 'Z' {
		panic(fmt.Sprintf("types: invalid variable letter %q", letter))
	}
	return VarRef(letter - 'A')
}
