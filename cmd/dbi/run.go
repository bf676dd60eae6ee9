package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/mna/mainer"

	"github.com/mna/dbi"
	"github.com/mna/dbi/internal/replio"
	"github.com/mna/dbi/lang/types"
)

const maxSleepSeconds = 60

// registerAuxCommands wires the host auxiliary commands that the original
// dialect's aux.c provided as thin OS-service wrappers, explicitly scoped
// out of the compiler/VM core (spec §1 Non-goals) but demonstrated here as
// external collaborators through the public dbi.RegisterCommand API.
func registerAuxCommands(prog *dbi.Program) {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	must(prog.RegisterCommand("SLEEP", 1, "SLEEP n: pause for n seconds", func(rt *dbi.Runtime) dbi.Status {
		secs, ok := rt.Arg(0).(types.Int)
		if !ok {
			rt.RuntimeError("SLEEP expects an integer argument")
			return dbi.StatusError
		}
		if secs < 0 || secs > maxSleepSeconds {
			rt.RuntimeError("SLEEP argument out of range (0-%d)", maxSleepSeconds)
			return dbi.StatusError
		}
		time.Sleep(time.Duration(secs) * time.Second)
		return dbi.StatusGood
	}))

	must(prog.RegisterCommand("SYSTEM", 1, "SYSTEM cmd$: run a shell command", func(rt *dbi.Runtime) dbi.Status {
		cmdStr, ok := rt.Arg(0).(types.String)
		if !ok {
			rt.RuntimeError("SYSTEM expects a string argument")
			return dbi.StatusError
		}
		cmd := exec.Command("/bin/sh", "-c", string(cmdStr))
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			rt.RuntimeError("SYSTEM failed: %s", err)
			return dbi.StatusError
		}
		return dbi.StatusGood
	}))

	must(prog.RegisterCommand("BEEP", 0, "BEEP: sound the terminal bell", func(rt *dbi.Runtime) dbi.Status {
		fmt.Fprint(os.Stdout, "\a")
		return dbi.StatusGood
	}))
}

func compileOnly(prog *dbi.Program, path string, stdio mainer.Stdio) error {
	if err := prog.CompileFile(path); err != nil {
		fmt.Fprint(stdio.Stderr, prog.Errors())
		return err
	}
	return nil
}

func compileAndExecute(ctx context.Context, prog *dbi.Program, path string, stdio mainer.Stdio) error {
	if err := prog.CompileFile(path); err != nil {
		fmt.Fprint(stdio.Stderr, prog.Errors())
		return err
	}

	rt := dbi.NewRuntime(prog)
	rt.SetStdout(stdio.Stdout)
	rt.SetStdin(stdio.Stdin)

	for {
		outcome := rt.Run(ctx)
		if outcome.Status == dbi.Failed {
			fmt.Fprint(stdio.Stderr, prog.Errors())
			return outcome.Err
		}
		if outcome.Status == dbi.Finished {
			return nil
		}
		// Yielded: a REPL-less batch run has nothing to feed OP_LOAD with
		// except the file it names, and no further interactive input; follow
		// the load and resume, or stop if the yield has no resolution here.
		if outcome.Reason != dbi.ReasonLoad {
			return nil
		}
		if err := prog.CompileFile(outcome.Filename); err != nil {
			fmt.Fprint(stdio.Stderr, prog.Errors())
			return err
		}
	}
}

func loadThenREPL(ctx context.Context, prog *dbi.Program, path string, stdio mainer.Stdio) error {
	rt := dbi.NewRuntime(prog)
	rt.SetStdout(stdio.Stdout)
	rt.SetStdin(stdio.Stdin)

	d := replio.New(prog, rt, stdio.Stdout, stdio.Stderr)
	d.Prompt = isTerminal(stdio.Stdin)
	return d.RunFile(ctx, path, stdio.Stdin)
}

func enterREPL(ctx context.Context, prog *dbi.Program, stdio mainer.Stdio) error {
	rt := dbi.NewRuntime(prog)
	rt.SetStdout(stdio.Stdout)
	rt.SetStdin(stdio.Stdin)

	d := replio.New(prog, rt, stdio.Stdout, stdio.Stderr)
	d.Prompt = isTerminal(stdio.Stdin)
	return d.Loop(ctx, stdio.Stdin)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
