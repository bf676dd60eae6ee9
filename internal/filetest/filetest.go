// Package filetest drives table tests over a directory of BASIC source
// fixtures, comparing each program's captured output against a golden file.
package filetest

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"
)

var updateAllGolden = flag.Bool("test.update-golden", false, "update all golden files instead of comparing against them")

// SourceFiles returns the list of files in dir with the given extension
// (e.g. ".bas"), sorted by file name.
func SourceFiles(t *testing.T, dir, ext string) []os.FileInfo {
	t.Helper()

	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}

	dents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	res := make([]os.FileInfo, 0, len(dents))
	for _, dent := range dents {
		if !dent.Type().IsRegular() {
			continue
		}
		if ext != "" && filepath.Ext(dent.Name()) != ext {
			continue
		}
		fi, err := dent.Info()
		if err != nil {
			t.Fatal(err)
		}
		res = append(res, fi)
	}
	return res
}

// DiffOutput validates that output matches the golden file fi.Name()+".want"
// in resultDir, updating it instead when -test.update-golden is set.
func DiffOutput(t *testing.T, fi os.FileInfo, output, resultDir string) {
	t.Helper()
	DiffCustom(t, fi, "output", ".want", output, resultDir)
}

// DiffErrors validates that output matches the golden file fi.Name()+".err"
// in resultDir, updating it instead when -test.update-golden is set.
func DiffErrors(t *testing.T, fi os.FileInfo, output, resultDir string) {
	t.Helper()
	DiffCustom(t, fi, "errors", ".err", output, resultDir)
}

// DiffCustom is the general form of DiffOutput/DiffErrors: label is used
// only in test failure messages, ext is the golden file's suffix.
func DiffCustom(t *testing.T, fi os.FileInfo, label, ext, output, resultDir string) {
	t.Helper()

	goldFile := filepath.Join(resultDir, fi.Name()+ext)
	if *updateAllGolden {
		if err := os.WriteFile(goldFile, []byte(output), 0o600); err != nil {
			t.Fatal(err)
		}
		return
	}

	wantb, err := os.ReadFile(goldFile)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	want := string(wantb)
	if testing.Verbose() {
		t.Logf("got %s:\n%s\n", label, output)
	}
	if patch := diff.Diff(want, output); patch != "" {
		if testing.Verbose() {
			t.Logf("want %s:\n%s\n", label, want)
		}
		t.Errorf("diff %s:\n%s\n", label, patch)
	}
}
