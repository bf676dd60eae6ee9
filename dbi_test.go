package dbi_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"
	"github.com/mna/dbi"
	"github.com/mna/dbi/lang/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSource(t *testing.T, src string) (string, *dbi.Program) {
	t.Helper()
	prog := dbi.NewProgram(dbi.Limits{})
	require.NoError(t, prog.CompileString(src))

	var out bytes.Buffer
	rt := dbi.NewRuntime(prog)
	rt.SetStdout(&out)
	rt.Run(context.Background())
	return out.String(), prog
}

func TestArithmeticPrint(t *testing.T) {
	out, _ := runSource(t, "10 PRINT 1 + 2 * 3\n20 END\n")
	assert.Equal(t, "7\n", out)
}

func TestPrecedenceAndParens(t *testing.T) {
	out, _ := runSource(t, "10 PRINT (1+2)*3\n20 END\n")
	assert.Equal(t, "9\n", out)
}

func TestIfGotoLoop(t *testing.T) {
	out, _ := runSource(t, "10 LET A = 0\n20 LET A = A + 1\n30 IF A < 3 THEN GOTO 20\n40 PRINT A\n50 END\n")
	assert.Equal(t, "3\n", out)
}

func TestGosubReturn(t *testing.T) {
	out, _ := runSource(t, "10 GOSUB 100\n20 PRINT \"after\"\n30 END\n100 PRINT \"sub\"\n110 RETURN\n")
	assert.Equal(t, "sub\nafter\n", out)
}

func TestDivisionByZeroSurfacesAsError(t *testing.T) {
	_, prog := runSource(t, "10 PRINT 5 / 0\n20 END\n")
	assert.Contains(t, prog.Errors(), "Error at line 10: division by zero")
}

func TestForeignCommandYieldAndResume(t *testing.T) {
	prog := dbi.NewProgram(dbi.Limits{})

	var calls int
	require.NoError(t, prog.RegisterCommand("ECHO", 1, "", func(rt *dbi.Runtime) dbi.Status {
		calls++
		rt.SetContext(rt.Arg(0))
		return dbi.StatusYield
	}))
	require.NoError(t, prog.CompileString("10 ECHO 3\n20 PRINT \"done\"\n30 END\n"))

	var out bytes.Buffer
	rt := dbi.NewRuntime(prog)
	rt.SetStdout(&out)

	res := rt.Run(context.Background())
	require.Equal(t, dbi.Yielded, res.Status)
	require.Equal(t, dbi.ReasonForeign, res.Reason)
	assert.Equal(t, 1, calls)
	require.Equal(t, types.Int(3), rt.Context())

	res = rt.Run(context.Background())
	require.Equal(t, dbi.Finished, res.Status)
	assert.Equal(t, "done\n", out.String())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	src := "10 LET A = 1\n20 PRINT A\n30 END\n"
	prog := dbi.NewProgram(dbi.Limits{})
	require.NoError(t, prog.CompileString(src))

	dir := t.TempDir()
	path := filepath.Join(dir, "prog.bas")
	require.NoError(t, prog.SaveFile(path))

	original := prog.Listing()

	reloaded := dbi.NewProgram(dbi.Limits{})
	require.NoError(t, reloaded.CompileFile(path))
	roundTripped := reloaded.Listing()

	if patch := diff.Diff(original, roundTripped); patch != "" {
		t.Errorf("round-trip listing differs:\n%s", patch)
	}
}

func TestClearEmptiesStore(t *testing.T) {
	src := "10 PRINT 1\n20 PRINT 2\n"
	prog := dbi.NewProgram(dbi.Limits{})
	require.NoError(t, prog.CompileString(src))
	require.Equal(t, 2, len(prog.Lines()))

	rt := dbi.NewRuntime(prog)
	rt.Feed(context.Background(), "CLEAR")
	assert.Equal(t, 0, len(prog.Lines()))
}

func TestRegisterShadowBuiltinRejected(t *testing.T) {
	prog := dbi.NewProgram(dbi.Limits{})
	err := prog.RegisterCommand("PRINT", 1, "", func(*dbi.Runtime) dbi.Status { return dbi.StatusGood })
	assert.Error(t, err)
}
