package machine

import (
	"fmt"
	"os"

	"github.com/mna/dbi/lang/program"
)

// listProgram writes the stored program's listing to stdout, one stored
// line's original source text per line, in ascending line-number order
// (spec §4.5, OP_LIST).
func (rt *Runtime) listProgram(st *program.Store) {
	for _, line := range st.Lines() {
		stmt, ok := st.Get(line)
		if !ok {
			continue
		}
		fmt.Fprintln(rt.stdout(), stmt.Source)
	}
}

// saveProgram writes the stored program's listing to path, in the same
// format LIST prints and LOAD can re-read back in (spec §4.5, OP_SAVE).
func saveProgram(st *program.Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, line := range st.Lines() {
		stmt, ok := st.Get(line)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintln(f, stmt.Source); err != nil {
			return err
		}
	}
	return nil
}
