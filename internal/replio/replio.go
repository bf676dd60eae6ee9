// Package replio drives a dbi.Program/dbi.Runtime pair from a stream of
// text lines: the interactive REPL, a loaded source file followed by a
// synthesized RUN, and the in-program LOAD statement's input-file swap
// (spec §4.6).
package replio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mna/dbi"
)

// MaxLineLength sizes the driver's read buffer (twice this many bytes). The
// driver does not enforce it: an oversized line is handed to the compiler,
// whose own line-length limit rejects it with a diagnostic that the driver
// prints.
const MaxLineLength = 256

// Driver feeds lines to a Runtime, one at a time, handling line-numbered
// storage, immediate execution, and the REPL-facing consequences of a
// Runtime.Feed outcome (yields, errors).
type Driver struct {
	Program *dbi.Program
	Runtime *dbi.Runtime
	Stdout  io.Writer
	Stderr  io.Writer

	// Prompt, when true, writes "> " to Stdout before each read (spec §6:
	// only when input is a terminal).
	Prompt bool
}

// New returns a Driver bound to prog/rt, writing prompts and diagnostics to
// stdout/stderr.
func New(prog *dbi.Program, rt *dbi.Runtime, stdout, stderr io.Writer) *Driver {
	return &Driver{Program: prog, Runtime: rt, Stdout: stdout, Stderr: stderr}
}

type lineSource struct {
	r      *bufio.Reader
	closer io.Closer
}

func newLineSource(r io.Reader) *lineSource {
	closer, _ := r.(io.Closer)
	return &lineSource{r: bufio.NewReaderSize(r, MaxLineLength*2), closer: closer}
}

func (ls *lineSource) close() {
	if ls.closer != nil {
		ls.closer.Close()
	}
}

// readLine returns the next newline-terminated line with its terminator
// stripped. Line-length enforcement happens downstream, in
// compiler.Compiler.CompileLine (spec §6), which already rejects a
// too-long line with a "line too long" diagnostic; this reader just hands
// it whatever bytes it finds up to the next newline, however many.
func (ls *lineSource) readLine() (line string, err error) {
	raw, err := ls.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if raw == "" && err == io.EOF {
		return "", io.EOF
	}
	return trimNewline(raw), nil
}

func trimNewline(s string) string {
	n := len(s)
	for n > 0 && (s[n-1] == '\n' || s[n-1] == '\r') {
		n--
	}
	return s[:n]
}

// LoadFile compiles path into the program's store without executing
// anything (spec §4.6's file-argument behavior, first half). Compile
// diagnostics, if any, are printed once in full and the first error is
// returned.
func (d *Driver) LoadFile(path string) error {
	if err := d.Program.CompileFile(path); err != nil {
		fmt.Fprint(d.Stderr, d.Program.Errors())
		return err
	}
	return nil
}

// RunFile loads path into the store, synthesizes RUN to execute it, prints
// any error output, then continues reading interactively from stdin (spec
// §4.6: "dbi <file>"). If the synthesized RUN itself yields on an OP_LOAD,
// that takes precedence over stdin, per Loop's swap rule.
func (d *Driver) RunFile(ctx context.Context, path string, stdin io.Reader) error {
	if err := d.LoadFile(path); err != nil {
		return err
	}
	outcome := d.Runtime.Feed(ctx, "RUN")
	d.report(outcome)
	if swapped := d.followLoad(outcome); swapped != nil {
		d.Prompt = false
		return d.loopFrom(ctx, swapped)
	}
	return d.Loop(ctx, stdin)
}

// Loop reads lines from r until EOF, feeding each one to the Runtime (spec
// §4.6). A line bearing a line number is stored silently; an unnumbered
// line executes immediately. A yielded OP_LOAD swaps the input source to
// the named file and continues reading from it; once that file reaches
// EOF the loop ends, matching the yield's one-shot "continue reading from
// it" contract rather than resuming the prior source.
func (d *Driver) Loop(ctx context.Context, r io.Reader) error {
	return d.loopFrom(ctx, newLineSource(r))
}

func (d *Driver) loopFrom(ctx context.Context, src *lineSource) error {
	defer src.close()

	for {
		if d.Prompt {
			fmt.Fprint(d.Stdout, "> ")
		}
		line, err := src.readLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		outcome := d.Runtime.Feed(ctx, line)
		d.report(outcome)
		if swapped := d.followLoad(outcome); swapped != nil {
			src.close()
			src = swapped
			d.Prompt = false
		}
	}
}

// followLoad opens outcome's Filename and returns a lineSource to continue
// reading from, if outcome reports a yielded OP_LOAD; otherwise nil.
func (d *Driver) followLoad(outcome dbi.Outcome) *lineSource {
	if outcome.Status != dbi.Yielded || outcome.Reason != dbi.ReasonLoad {
		return nil
	}
	f, err := os.Open(outcome.Filename)
	if err != nil {
		fmt.Fprintf(d.Stderr, "Error: %s\n", err)
		return nil
	}
	return newLineSource(f)
}

func (d *Driver) report(outcome dbi.Outcome) {
	if outcome.Status == dbi.Failed && d.Program.HasErrors() {
		fmt.Fprint(d.Stderr, d.Program.Errors())
	}
}
