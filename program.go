// Package dbi embeds the BASIC compiler and virtual machine described by
// this repository's lang/ packages behind a small host-facing API: build a
// Program (optionally registering host commands), then drive it with one or
// more Runtimes (spec §4.7, §6).
package dbi

import (
	"errors"
	"os"
	"strings"

	"github.com/mna/dbi/lang/compiler"
	"github.com/mna/dbi/lang/machine"
	"github.com/mna/dbi/lang/program"
)

// Limits bundles the compiler and machine resource limits a Program and the
// Runtimes executing it are constructed with. Zero fields fall back to each
// subsystem's own defaults.
type Limits struct {
	Compiler      compiler.Limits
	Machine       machine.Limits
	MaxErrorLines int
}

// Program is a compiled BASIC program: its line-indexed statement store and
// its table of host-registered foreign commands (spec §4.7). A Program may
// be compiled from multiple sources over its lifetime; later compilations
// append to, or overwrite by line number, the same store.
type Program struct {
	Limits Limits

	store     *program.Store
	registry  *compiler.Registry
	compiler  *compiler.Compiler
	callbacks []machine.ForeignFunc
	errs      *ErrorBuffer
}

// NewProgram returns an empty, uncompiled Program.
func NewProgram(limits Limits) *Program {
	reg := compiler.NewRegistry()
	return &Program{
		Limits:   limits,
		store:    program.NewStore(),
		registry: reg,
		compiler: compiler.NewCompiler(reg, limits.Compiler),
		errs:     newErrorBuffer(limits.MaxErrorLines),
	}
}

// RegisterCommand registers a host-implemented foreign command, callable
// from BASIC source by name (spec §4.7). It must be called before any
// source referencing that name is compiled. arity is the required argument
// count, or -1 to accept any positive count.
func (p *Program) RegisterCommand(name string, arity int, help string, fn machine.ForeignFunc) error {
	if err := p.registry.Register(name, arity, help); err != nil {
		return err
	}
	p.callbacks = append(p.callbacks, fn)
	return nil
}

// CompileString compiles src line by line, inserting each numbered
// statement into the store (replacing any prior statement at that line). An
// unnumbered (immediate) line appearing in bulk source has no REPL prompt to
// execute it against and is silently skipped; use Runtime.Feed to compile
// and immediately execute a single interactive line. It returns the first
// compile error encountered, after recording every diagnostic produced into
// the program's error buffer (spec §4.8).
func (p *Program) CompileString(src string) error {
	p.errs.Reset()
	return p.compileLines(strings.Split(src, "\n"))
}

// CompileFile reads path and compiles it the same way as CompileString.
func (p *Program) CompileFile(path string) error {
	p.errs.Reset()
	data, err := os.ReadFile(path)
	if err != nil {
		p.errs.add(0, err.Error())
		return err
	}
	return p.compileLines(strings.Split(string(data), "\n"))
}

func (p *Program) compileLines(lines []string) error {
	var firstErr error
	for _, line := range lines {
		stmt, err := p.compiler.CompileLine(line)
		if err != nil {
			p.recordCompileError(err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if stmt == nil || stmt.Line == 0 {
			continue
		}
		p.store.Insert(stmt)
	}
	return firstErr
}

func (p *Program) recordCompileError(err error) {
	var cerr *compiler.CompileError
	if errors.As(err, &cerr) {
		p.errs.add(cerr.Line, cerr.Msg)
		return
	}
	p.errs.add(0, err.Error())
}

// Errors returns the diagnostics accumulated by the most recent compile or
// run, joined by newlines (spec §4.8).
func (p *Program) Errors() string { return p.errs.String() }

// HasErrors reports whether any diagnostic is currently recorded.
func (p *Program) HasErrors() bool { return p.errs.Len() > 0 }

// Line returns the original source text stored at lineno, if any (the
// `get_line` embedding symbol, spec §6): the same text LIST/SAVE emit for
// that line, for hosts that want to inspect a stored line directly.
func (p *Program) Line(lineno int) (string, bool) {
	stmt, ok := p.store.Get(lineno)
	if !ok {
		return "", false
	}
	return stmt.Source, true
}

// Lines returns the stored line numbers in ascending order.
func (p *Program) Lines() []int { return p.store.Lines() }

// Listing returns the stored program exactly as SAVE/LIST would emit it:
// each statement's original source text, in ascending line order, one per
// line (spec §6).
func (p *Program) Listing() string {
	var b strings.Builder
	for _, line := range p.store.Lines() {
		stmt, ok := p.store.Get(line)
		if !ok {
			continue
		}
		b.WriteString(stmt.Source)
		b.WriteByte('\n')
	}
	return b.String()
}

// SaveFile writes the program's Listing to path (the host-facing equivalent
// of the SAVE opcode, usable without going through a Runtime).
func (p *Program) SaveFile(path string) error {
	return os.WriteFile(path, []byte(p.Listing()), 0o644)
}
