package compiler

import (
	"fmt"

	"github.com/mna/dbi/lang/types"
)

// Default resource limits (spec §4.3). Each can be overridden per Compiler
// instance; a value of 0 falls back to these defaults.
const (
	DefaultMaxPoolSize   = 64
	DefaultMaxCodeSize   = 64
	DefaultMaxLineLength = 256
	// MaxPoolIndex is the hard ceiling imposed by the one-byte pool operand
	// encoding (spec §3: "capacity <= 256").
	MaxPoolIndex = 256
)

// Statement is one compiled source line (spec §3): its line number, the
// original source text (for LIST/SAVE), a frozen constant pool and a
// bytecode buffer. A Statement with Line == 0 is a transient immediate
// statement, never inserted into a Store.
type Statement struct {
	Line   int
	Source string
	Pool   []types.Value
	Code   []byte

	maxPool int
	maxCode int
}

// NewStatement creates an empty Statement ready for emission, with the given
// resource limits. A limit of 0 uses the package default.
func NewStatement(line int, source string, maxPool, maxCode int) *Statement {
	if maxPool <= 0 {
		maxPool = DefaultMaxPoolSize
	}
	if maxPool > MaxPoolIndex {
		maxPool = MaxPoolIndex
	}
	if maxCode <= 0 {
		maxCode = DefaultMaxCodeSize
	}
	return &Statement{
		Line:    line,
		Source:  source,
		maxPool: maxPool,
		maxCode: maxCode,
	}
}

// AddConstant appends v to the constant pool and returns its index. It
// returns ok=false if the pool is already at capacity (spec §4.3: "each
// statement's constant pool size <= 64" is a compile error).
func (s *Statement) AddConstant(v types.Value) (idx byte, ok bool) {
	if len(s.Pool) >= s.maxPool {
		return 0, false
	}
	s.Pool = append(s.Pool, v)
	return byte(len(s.Pool) - 1), true
}

// Emit appends op and its operand bytes to the code buffer, returning the
// byte offset at which op was written. It returns ok=false if the buffer
// would exceed its capacity (spec §4.3: bytecode full is a compile error).
func (s *Statement) Emit(op Opcode, operands ...byte) (offset int, ok bool) {
	n := 1 + len(operands)
	if len(s.Code)+n > s.maxCode {
		return 0, false
	}
	offset = len(s.Code)
	s.Code = append(s.Code, byte(op))
	s.Code = append(s.Code, operands...)
	return offset, true
}

// PatchByte overwrites a single byte in the code buffer. The IF statement's
// forward jump target is not patched through it: compileIf rewrites the
// reserved constant-pool slot instead.
func (s *Statement) PatchByte(offset int, b byte) {
	s.Code[offset] = b
}

// Disassemble returns a human-readable listing of the statement's bytecode,
// useful for debugging and tests.
func (s *Statement) Disassemble() string {
	var out string
	pc := 0
	for pc < len(s.Code) {
		op := Opcode(s.Code[pc])
		if hasInlineOperand(op) && pc+1 < len(s.Code) {
			out += fmt.Sprintf("%04d %-8s %d\n", pc, op, s.Code[pc+1])
			pc += 2
		} else if op == INPUT && pc+1 < len(s.Code) {
			n := int(s.Code[pc+1])
			out += fmt.Sprintf("%04d %-8s n=%d\n", pc, op, n)
			pc += 2 + n
		} else {
			out += fmt.Sprintf("%04d %-8s\n", pc, op)
			pc++
		}
	}
	return out
}
