package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/dbi"
	"github.com/mna/dbi/internal/replio"
)

const binName = "dbi"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<file>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<file>]
       %[1]s -h|--help
       %[1]s -v|--version

Line-numbered BASIC compiler and virtual machine.

With no arguments, %[1]s enters an interactive REPL reading from standard
input. With a bare <file> argument, the file is loaded, run, and %[1]s then
drops into the REPL. The <file> argument is required with -c and -e.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       -c                        Compile <file> only; exit status reflects
                                 success.
       -e                        Compile and execute <file>, then exit
                                 (no REPL).

More information on the %[1]s repository:
       https://github.com/mna/dbi
`, binName)
)

// Cmd is the dbi CLI's flag-bound command, mirroring the shape of the
// teacher's compiler-tool Cmd: flag-tagged boolean fields plus a slice of
// positional arguments, validated before Main dispatches to a handler.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`
	Compile bool `flag:"c"`
	Execute bool `flag:"e"`

	args []string
}

func (c *Cmd) SetArgs(args []string) { c.args = args }

func (c *Cmd) SetFlags(map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if c.Compile && c.Execute {
		return errors.New("-c and -e are mutually exclusive")
	}
	if (c.Compile || c.Execute) && len(c.args) != 1 {
		return fmt.Errorf("-c/-e require exactly one file argument")
	}
	if len(c.args) > 1 {
		return errors.New("at most one file argument may be given")
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.run(ctx, stdio); err != nil {
		// each path below prints its own diagnostics; just set the exit code
		return mainer.Failure
	}
	return mainer.Success
}

func (c *Cmd) run(ctx context.Context, stdio mainer.Stdio) error {
	limits, err := replio.LoadLimits()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
		return err
	}

	prog := dbi.NewProgram(limits)
	registerAuxCommands(prog)

	switch {
	case c.Compile:
		return compileOnly(prog, c.args[0], stdio)
	case c.Execute:
		return compileAndExecute(ctx, prog, c.args[0], stdio)
	case len(c.args) == 1:
		return loadThenREPL(ctx, prog, c.args[0], stdio)
	default:
		return enterREPL(ctx, prog, stdio)
	}
}
