package dbi

import (
	"context"
	"errors"
	"io"

	"github.com/mna/dbi/lang/machine"
	"github.com/mna/dbi/lang/types"
)

// RunStatus is the outcome of a Runtime.Run or Runtime.Feed call.
type RunStatus = machine.RunStatus

// Outcome-status values, re-exported from lang/machine so embedding callers
// need not import it directly.
const (
	Finished = machine.Finished
	Yielded  = machine.Yielded
	Failed   = machine.Failed
)

// Reason explains why an Outcome's Status is Yielded.
type Reason = machine.Reason

const (
	ReasonNone    = machine.ReasonNone
	ReasonLoad    = machine.ReasonLoad
	ReasonForeign = machine.ReasonForeign
)

// Status is the outcome a ForeignFunc reports back to the dispatch loop.
type Status = machine.Status

// Status values a ForeignFunc reports back to the dispatch loop.
const (
	StatusGood  = machine.StatusGood
	StatusYield = machine.StatusYield
	StatusError = machine.StatusError
)

// ForeignFunc is a host-registered command callback; see
// Program.RegisterCommand.
type ForeignFunc = machine.ForeignFunc

// Outcome reports the result of running or resuming a Runtime.
type Outcome struct {
	Status   RunStatus
	Reason   Reason
	Filename string // set when Reason == ReasonLoad
	Err      error  // set when Status == Failed
}

// Runtime executes a Program (spec §4.7). Its variable cells and GOSUB call
// stack persist across calls to Run/Feed, so a yielded Runtime can be
// resumed by calling Run again.
type Runtime struct {
	prog *Program
	m    *machine.Runtime
}

// NewRuntime returns a Runtime bound to p. p may be shared by multiple
// Runtimes (spec §5: "the program object is treated as immutable after
// compilation and may be read concurrently"), but a single Runtime must not
// be driven from more than one goroutine at a time.
func NewRuntime(p *Program) *Runtime {
	return &Runtime{prog: p, m: machine.NewRuntime(p.compiler, p.Limits.Machine)}
}

// SetStdout redirects PRINT/LIST output for this runtime. The default is
// os.Stdout.
func (rt *Runtime) SetStdout(w io.Writer) { rt.m.Stdout = w }

// SetStdin redirects INPUT's source for this runtime. The default is
// os.Stdin.
func (rt *Runtime) SetStdin(r io.Reader) { rt.m.Stdin = r }

// SetContext attaches an arbitrary host value to the runtime, retrievable
// from foreign-command callbacks via Context.
func (rt *Runtime) SetContext(v any) { rt.m.SetContext(v) }

// Context returns the value last set with SetContext, or nil.
func (rt *Runtime) Context() any { return rt.m.Context() }

// Argc returns the number of arguments passed to the foreign command
// currently executing. Valid only from within a ForeignFunc.
func (rt *Runtime) Argc() int { return rt.m.Argc() }

// Arg returns the i'th argument (0-based) passed to the foreign command
// currently executing. Valid only from within a ForeignFunc.
func (rt *Runtime) Arg(i int) types.Value { return rt.m.Arg(i) }

// GetVar returns the current value of variable letter (A-Z, case-folded).
func (rt *Runtime) GetVar(letter byte) types.Value {
	return rt.m.GetVar(types.VarRefFromLetter(upper(letter)))
}

// SetVar assigns val to variable letter (A-Z, case-folded).
func (rt *Runtime) SetVar(letter byte, val types.Value) {
	rt.m.SetVar(types.VarRefFromLetter(upper(letter)), val)
}

// RuntimeError formats a failure message for the foreign command currently
// executing; the callback must return StatusError immediately afterward. The
// formatted message is not kept: the error buffer records "foreign command
// failed" at the current line, whatever text was passed here.
func (rt *Runtime) RuntimeError(format string, args ...any) { rt.m.RuntimeError(format, args...) }

// Pending reports whether the runtime is suspended mid-program awaiting a
// resuming call to Run.
func (rt *Runtime) Pending() bool { return rt.m.Pending() }

// Run resumes execution of rt.prog's stored program: from wherever a prior
// Yielded Outcome left off, or from the first stored statement on the first
// call (spec §4.7, the `run(runtime, program)` embedding symbol).
func (rt *Runtime) Run(ctx context.Context) Outcome {
	rt.prog.errs.Reset()
	res := rt.m.Run(ctx, rt.prog.store, rt.prog.callbacks)
	rt.record(res)
	return Outcome{Status: res.Status, Reason: res.Reason, Filename: res.Filename, Err: res.Err}
}

// Feed compiles and dispatches one REPL input line (spec §4.6): a numbered
// line replaces the stored statement at that line number and nothing
// executes; an unnumbered line is compiled as an immediate statement and
// run right away (and, if it transfers control into the stored program via
// GOTO/GOSUB/RUN, execution continues there in the same call).
func (rt *Runtime) Feed(ctx context.Context, source string) Outcome {
	rt.prog.errs.Reset()
	stmt, err := rt.prog.compiler.CompileLine(source)
	if err != nil {
		rt.prog.recordCompileError(err)
		return Outcome{Status: Failed, Err: err}
	}
	if stmt == nil {
		return Outcome{Status: Finished}
	}
	if stmt.Line != 0 {
		rt.prog.store.Insert(stmt)
		return Outcome{Status: Finished}
	}
	res := rt.m.RunImmediate(ctx, stmt, rt.prog.store, rt.prog.callbacks)
	rt.record(res)
	return Outcome{Status: res.Status, Reason: res.Reason, Filename: res.Filename, Err: res.Err}
}

func (rt *Runtime) record(res machine.Result) {
	if res.Status != Failed || res.Err == nil {
		return
	}
	var rerr *machine.RuntimeError
	if errors.As(res.Err, &rerr) {
		rt.prog.errs.add(rerr.Line, rerr.Msg)
		return
	}
	rt.prog.errs.add(0, res.Err.Error())
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
