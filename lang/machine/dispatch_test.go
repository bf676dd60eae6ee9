package machine_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mna/dbi/lang/compiler"
	"github.com/mna/dbi/lang/machine"
	"github.com/mna/dbi/lang/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadProgram compiles each of lines into the store, in order, using comp.
func loadProgram(t *testing.T, comp *compiler.Compiler, st *program.Store, lines ...string) {
	t.Helper()
	for _, src := range lines {
		stmt, err := comp.CompileLine(src)
		require.NoError(t, err)
		require.NotNil(t, stmt)
		st.Insert(stmt)
	}
}

func TestRunArithmeticPrint(t *testing.T) {
	comp := compiler.NewCompiler(compiler.NewRegistry(), compiler.Limits{})
	st := program.NewStore()
	loadProgram(t, comp, st, `10 PRINT 1 + 2 * 3`, `20 END`)

	var out bytes.Buffer
	rt := machine.NewRuntime(comp, machine.Limits{})
	rt.Stdout = &out
	res := rt.Run(context.Background(), st, nil)
	assert.Equal(t, machine.Finished, res.Status)
	assert.Equal(t, "7\n", out.String())
}

func TestRunIfGotoLoop(t *testing.T) {
	comp := compiler.NewCompiler(compiler.NewRegistry(), compiler.Limits{})
	st := program.NewStore()
	loadProgram(t, comp, st,
		`10 LET A = 0`,
		`20 LET A = A + 1`,
		`30 PRINT A`,
		`40 IF A < 3 THEN GOTO 20`,
		`50 END`,
	)

	var out bytes.Buffer
	rt := machine.NewRuntime(comp, machine.Limits{})
	rt.Stdout = &out
	res := rt.Run(context.Background(), st, nil)
	require.Equal(t, machine.Finished, res.Status)
	assert.Equal(t, "1\n2\n3\n", out.String())
}

func TestRunGosubReturn(t *testing.T) {
	comp := compiler.NewCompiler(compiler.NewRegistry(), compiler.Limits{})
	st := program.NewStore()
	loadProgram(t, comp, st,
		`10 GOSUB 100`,
		`20 PRINT 99`,
		`30 END`,
		`100 PRINT 1`,
		`110 RETURN`,
	)

	var out bytes.Buffer
	rt := machine.NewRuntime(comp, machine.Limits{})
	rt.Stdout = &out
	res := rt.Run(context.Background(), st, nil)
	require.Equal(t, machine.Finished, res.Status)
	assert.Equal(t, "1\n99\n", out.String())
}

func TestRunDivisionByZero(t *testing.T) {
	comp := compiler.NewCompiler(compiler.NewRegistry(), compiler.Limits{})
	st := program.NewStore()
	loadProgram(t, comp, st, `10 PRINT 1 / 0`)

	rt := machine.NewRuntime(comp, machine.Limits{})
	res := rt.Run(context.Background(), st, nil)
	require.Equal(t, machine.Failed, res.Status)
	assert.Contains(t, res.Err.Error(), "division by zero")
}

func TestRunForeignCommandYieldResume(t *testing.T) {
	reg := compiler.NewRegistry()
	require.NoError(t, reg.Register("ECHO", 1, ""))
	comp := compiler.NewCompiler(reg, compiler.Limits{})
	st := program.NewStore()
	loadProgram(t, comp, st,
		`10 ECHO 3`,
		`20 PRINT 0`,
		`30 END`,
	)

	var out bytes.Buffer
	var calls int
	callbacks := []machine.ForeignFunc{
		func(rt *machine.Runtime) machine.Status {
			calls++
			if calls == 1 {
				return machine.StatusYield
			}
			out.WriteString("echo:" + rt.Arg(0).String() + "\n")
			return machine.StatusGood
		},
	}

	rt := machine.NewRuntime(comp, machine.Limits{})
	rt.Stdout = &out

	res := rt.Run(context.Background(), st, callbacks)
	require.Equal(t, machine.Yielded, res.Status)
	assert.Equal(t, machine.ReasonForeign, res.Reason)

	res = rt.Run(context.Background(), st, callbacks)
	require.Equal(t, machine.Finished, res.Status)
	assert.Equal(t, "0\n", out.String())
}

func TestRunInputReadsVariable(t *testing.T) {
	comp := compiler.NewCompiler(compiler.NewRegistry(), compiler.Limits{})
	st := program.NewStore()
	loadProgram(t, comp, st, `10 INPUT A`, `20 PRINT A + 1`, `30 END`)

	in := strings.NewReader("41\n")
	var out bytes.Buffer
	rt := machine.NewRuntime(comp, machine.Limits{})
	rt.Stdin = in
	rt.Stdout = &out
	res := rt.Run(context.Background(), st, nil)
	require.Equal(t, machine.Finished, res.Status)
	assert.Equal(t, "42\n", out.String())
}

func TestRunClearFromStoredLineEndsExecution(t *testing.T) {
	comp := compiler.NewCompiler(compiler.NewRegistry(), compiler.Limits{})
	st := program.NewStore()
	loadProgram(t, comp, st, `10 CLEAR`, `20 PRINT 1`)

	rt := machine.NewRuntime(comp, machine.Limits{})
	res := rt.Run(context.Background(), st, nil)
	assert.Equal(t, machine.Finished, res.Status)
	assert.Equal(t, 0, st.Len())
}

func TestRunMaxStepsWatchdog(t *testing.T) {
	comp := compiler.NewCompiler(compiler.NewRegistry(), compiler.Limits{})
	st := program.NewStore()
	loadProgram(t, comp, st, `10 GOTO 10`)

	rt := machine.NewRuntime(comp, machine.Limits{MaxSteps: 100})
	res := rt.Run(context.Background(), st, nil)
	require.Equal(t, machine.Failed, res.Status)
	assert.Contains(t, res.Err.Error(), "too many iterations")
}
