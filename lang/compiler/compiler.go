// Package compiler implements the single-pass recursive-descent compiler
// described in spec §4.2-§4.3: a Shunting-Yard expression compiler and a
// per-statement bytecode emitter, operating one source line at a time.
package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/dbi/lang/scanner"
	"github.com/mna/dbi/lang/token"
	"github.com/mna/dbi/lang/types"
)

// Default resource limits not already defined in statement.go.
const (
	DefaultMaxLines          = 10000
	DefaultMaxOperatorStack  = 128
)

// CompileError is a single compile-time diagnostic, associated with the
// source line being compiled (0 for an immediate statement, spec §4.8).
type CompileError struct {
	Line int
	Msg  string
}

func (e *CompileError) Error() string { return e.Msg }

// Limits bounds the resources a single compiled Statement may consume (spec
// §4.3). Zero fields fall back to the package defaults.
type Limits struct {
	MaxPoolSize      int
	MaxCodeSize      int
	MaxLineLength    int
	MaxLines         int
	MaxOperatorStack int
}

func (l Limits) withDefaults() Limits {
	if l.MaxPoolSize <= 0 {
		l.MaxPoolSize = DefaultMaxPoolSize
	}
	if l.MaxCodeSize <= 0 {
		l.MaxCodeSize = DefaultMaxCodeSize
	}
	if l.MaxLineLength <= 0 {
		l.MaxLineLength = DefaultMaxLineLength
	}
	if l.MaxLines <= 0 {
		l.MaxLines = DefaultMaxLines
	}
	if l.MaxOperatorStack <= 0 {
		l.MaxOperatorStack = DefaultMaxOperatorStack
	}
	return l
}

// Compiler compiles BASIC source lines into Statements, resolving
// host-registered foreign command names against Registry.
type Compiler struct {
	Registry *Registry
	Limits   Limits
}

// NewCompiler returns a Compiler bound to reg (which may be empty, but not
// nil) using the given limits (zero fields use package defaults).
func NewCompiler(reg *Registry, limits Limits) *Compiler {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Compiler{Registry: reg, Limits: limits.withDefaults()}
}

// CompileLine compiles a single source line, including its optional leading
// line number. It returns (nil, nil) for a blank line or a '#' comment line
// (spec §4.1: "ignored entirely"), in which case the caller should not touch
// the statement store. A non-nil Statement with Line == 0 denotes an
// immediate command.
func (c *Compiler) CompileLine(source string) (*Statement, error) {
	if len(source) > c.Limits.MaxLineLength {
		lineNo, _, _ := parseLineNumber(strings.TrimLeft(source, " \t"), c.Limits.MaxLines)
		return nil, &CompileError{Line: lineNo, Msg: fmt.Sprintf("line too long (%d bytes, max %d)", len(source), c.Limits.MaxLineLength)}
	}

	trimmed := strings.TrimLeft(source, " \t")
	if trimmed == "" {
		return nil, nil
	}
	if trimmed[0] == '#' {
		return nil, nil
	}

	lineNo, rest, err := parseLineNumber(trimmed, c.Limits.MaxLines)
	if err != nil {
		return nil, err
	}

	stmt := NewStatement(lineNo, source, c.Limits.MaxPoolSize, c.Limits.MaxCodeSize)
	p := newParser(c, rest, lineNo)
	if err := p.compileLine(stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

// CompileInputStatement compiles a comma-separated list of len(vars)
// expressions read by the INPUT opcode into a transient statement of the
// form `<e1> LET v1 ... <en> LET vn` (spec §4.5, §9: "The INPUT opcode
// compiles user input on the fly").
func (c *Compiler) CompileInputStatement(lineNo int, vars []types.VarRef, raw string) (*Statement, error) {
	stmt := NewStatement(0, raw, c.Limits.MaxPoolSize, c.Limits.MaxCodeSize)
	p := newParser(c, raw, lineNo)
	for i, v := range vars {
		if i > 0 {
			if p.tok != token.COMMA {
				return nil, p.errorf("expected %d comma-separated values, got %q", len(vars), p.remainder())
			}
			p.next()
		}
		if err := p.compileExpr(stmt); err != nil {
			return nil, err
		}
		if _, ok := stmt.Emit(LET, byte(v)); !ok {
			return nil, p.errorf("bytecode buffer full")
		}
	}
	if p.tok != token.EOF {
		return nil, p.errorf("unexpected trailing input %q", p.remainder())
	}
	return stmt, nil
}

// parseLineNumber parses an optional leading decimal line number (spec
// §4.1). It returns lineNo == 0 when none is present (an immediate
// command), and the remainder of the line after the number and any
// following whitespace.
func parseLineNumber(s string, maxLines int) (lineNo int, rest string, err error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, s, nil
	}
	n, convErr := strconv.Atoi(s[:i])
	if convErr != nil || n < 1 || n > maxLines-1 {
		return 0, "", &CompileError{Msg: fmt.Sprintf("line number out of range: %s", s[:i])}
	}
	rest = strings.TrimLeft(s[i:], " \t")
	return n, rest, nil
}

// parser holds the mutable state of a single-line compile.
type parser struct {
	c      *Compiler
	sc     scanner.Scanner
	src    []byte
	lineNo int

	tok  token.Token
	val  token.Value
	errs []string

	lastCommand string // name of the most recently dispatched command, for diagnostics
}

func newParser(c *Compiler, src string, lineNo int) *parser {
	p := &parser{c: c, src: []byte(src), lineNo: lineNo}
	p.sc.Init(p.src, func(off int, msg string) {
		p.errs = append(p.errs, msg)
	})
	p.next()
	return p
}

func (p *parser) next() {
	p.tok = p.sc.Scan(&p.val)
}

func (p *parser) remainder() string {
	return string(p.src[p.sc.Offset():])
}

func (p *parser) errorf(format string, args ...any) *CompileError {
	return &CompileError{Line: p.lineNo, Msg: fmt.Sprintf(format, args...)}
}

// compileLine compiles the `:`-separated chain of statements making up one
// line into stmt's single shared bytecode buffer (spec §3, §4.3).
func (p *parser) compileLine(stmt *Statement) error {
	for {
		if len(p.errs) > 0 {
			return &CompileError{Line: p.lineNo, Msg: p.errs[0]}
		}
		terminal, err := p.compileStatement(stmt)
		if err != nil {
			return err
		}
		if len(p.errs) > 0 {
			return &CompileError{Line: p.lineNo, Msg: p.errs[0]}
		}
		if terminal {
			if p.tok != token.EOF {
				return p.errorf("%s must be the last statement on the line", p.lastCommand)
			}
			return nil
		}
		if p.tok == token.EOF {
			return nil
		}
		if p.tok != token.COLON {
			return p.errorf("expected ':' or end of line, got %s", p.tok)
		}
		p.next()
	}
}
