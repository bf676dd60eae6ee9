package replio_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/dbi"
	"github.com/mna/dbi/internal/replio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDriver(stdout, stderr *bytes.Buffer) (*dbi.Program, *replio.Driver) {
	prog := dbi.NewProgram(dbi.Limits{})
	rt := dbi.NewRuntime(prog)
	rt.SetStdout(stdout)
	return prog, replio.New(prog, rt, stdout, stderr)
}

func TestLoopStoresNumberedLines(t *testing.T) {
	var stdout, stderr bytes.Buffer
	prog, d := newDriver(&stdout, &stderr)

	in := strings.NewReader("10 PRINT 1\n20 PRINT 2\nRUN\n")
	require.NoError(t, d.Loop(context.Background(), in))
	assert.Equal(t, "1\n2\n", stdout.String())
	assert.Equal(t, []int{10, 20}, prog.Lines())
}

func TestLoopExecutesImmediateLine(t *testing.T) {
	var stdout, stderr bytes.Buffer
	_, d := newDriver(&stdout, &stderr)

	in := strings.NewReader("PRINT 1 + 1\n")
	require.NoError(t, d.Loop(context.Background(), in))
	assert.Equal(t, "2\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestLoopReportsCompileError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	_, d := newDriver(&stdout, &stderr)

	in := strings.NewReader("PRINT +\n")
	require.NoError(t, d.Loop(context.Background(), in))
	assert.Contains(t, stderr.String(), "Error")
}

func TestRunFileSynthesizesRunThenContinuesOnStdin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.bas")
	require.NoError(t, os.WriteFile(path, []byte("10 PRINT \"hi\"\n20 END\n"), 0o600))

	var stdout, stderr bytes.Buffer
	_, d := newDriver(&stdout, &stderr)

	require.NoError(t, d.RunFile(context.Background(), path, strings.NewReader("PRINT \"again\"\n")))
	assert.Equal(t, "hi\nagain\n", stdout.String())
}

func TestLoopFollowsLoadYield(t *testing.T) {
	dir := t.TempDir()
	loaded := filepath.Join(dir, "loaded.bas")
	require.NoError(t, os.WriteFile(loaded, []byte("PRINT \"from file\"\n"), 0o600))

	var stdout, stderr bytes.Buffer
	_, d := newDriver(&stdout, &stderr)

	in := strings.NewReader("LOAD \"" + loaded + "\"\n")
	require.NoError(t, d.Loop(context.Background(), in))
	assert.Equal(t, "from file\n", stdout.String())
}
