package dbi_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/mna/dbi"
	"github.com/mna/dbi/internal/filetest"
	"github.com/stretchr/testify/require"
)

func TestGoldenPrograms(t *testing.T) {
	dir := filepath.Join("testdata", "golden")
	for _, fi := range filetest.SourceFiles(t, dir, ".bas") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			prog := dbi.NewProgram(dbi.Limits{})
			require.NoError(t, prog.CompileFile(filepath.Join(dir, fi.Name())))

			var out bytes.Buffer
			rt := dbi.NewRuntime(prog)
			rt.SetStdout(&out)

			res := rt.Run(context.Background())
			require.Equal(t, dbi.Finished, res.Status, "errors: %s", prog.Errors())

			filetest.DiffOutput(t, fi, out.String(), dir)
		})
	}
}
