package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(args []string, stdin string) (stdout, stderr string, code mainer.ExitCode) {
	var outBuf, errBuf bytes.Buffer
	stdio := mainer.Stdio{
		Stdin:  strings.NewReader(stdin),
		Stdout: &outBuf,
		Stderr: &errBuf,
	}
	c := Cmd{BuildVersion: "0.0.0", BuildDate: "2026-01-01"}
	code = c.Main(append([]string{binName}, args...), stdio)
	return outBuf.String(), errBuf.String(), code
}

func TestMainHelp(t *testing.T) {
	stdout, _, code := runCmd([]string{"-h"}, "")
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, stdout, "usage:")
}

func TestMainVersion(t *testing.T) {
	stdout, _, code := runCmd([]string{"-v"}, "")
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, stdout, "0.0.0")
}

func TestMainCompileOnly(t *testing.T) {
	path := writeTemp(t, "10 PRINT 1\n20 END\n")
	stdout, stderr, code := runCmd([]string{"-c", path}, "")
	assert.Equal(t, mainer.Success, code)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestMainCompileOnlyReportsError(t *testing.T) {
	path := writeTemp(t, "10 PRINT +\n")
	_, stderr, code := runCmd([]string{"-c", path}, "")
	assert.Equal(t, mainer.Failure, code)
	assert.Contains(t, stderr, "Error")
}

func TestMainExecute(t *testing.T) {
	path := writeTemp(t, "10 PRINT 1 + 2\n20 END\n")
	stdout, _, code := runCmd([]string{"-e", path}, "")
	assert.Equal(t, mainer.Success, code)
	assert.Equal(t, "3\n", stdout)
}

func TestMainBareFileEntersREPLAfterRun(t *testing.T) {
	path := writeTemp(t, "10 PRINT \"hi\"\n20 END\n")
	stdout, _, code := runCmd([]string{path}, "PRINT \"again\"\n")
	assert.Equal(t, mainer.Success, code)
	assert.Equal(t, "hi\nagain\n", stdout)
}

func TestMainNoArgsEntersREPLAndExitsOnEOF(t *testing.T) {
	stdout, stderr, code := runCmd(nil, "PRINT 5\n")
	assert.Equal(t, mainer.Success, code)
	assert.Equal(t, "5\n", stdout)
	assert.Empty(t, stderr)
}

func TestMainMutuallyExclusiveFlagsRejected(t *testing.T) {
	path := writeTemp(t, "10 END\n")
	_, stderr, code := runCmd([]string{"-c", "-e", path}, "")
	assert.Equal(t, mainer.InvalidArgs, code)
	assert.Contains(t, stderr, "invalid arguments")
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.bas")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
