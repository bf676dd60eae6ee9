// Package program implements the line-indexed statement store that backs a
// compiled BASIC program (spec §3, §4.4): a sparse map from line number to
// compiled Statement, with ordered traversal for LIST, RUN and the
// find-next(line) lookup used by RETURN and fall-through. GOTO and GOSUB
// targets are looked up by exact line number.
package program

import (
	"github.com/dolthub/swiss"
	"github.com/mna/dbi/lang/compiler"
	"golang.org/x/exp/slices"
)

// Store holds the stored (non-immediate) statements of a program, keyed by
// line number. It is not safe for concurrent use; callers drive it from a
// single goroutine, matching the cooperative yield/resume model (spec §5).
type Store struct {
	m *swiss.Map[int, *compiler.Statement]
}

// NewStore returns an empty statement store.
func NewStore() *Store {
	return &Store{m: swiss.NewMap[int, *compiler.Statement](64)}
}

// Insert stores stmt under its own line number, replacing any statement
// previously stored at that line (spec §4.1: "entering a line number that is
// already in use replaces the stored statement"). Insert panics if
// stmt.Line == 0, since immediate statements are never stored.
func (s *Store) Insert(stmt *compiler.Statement) {
	if stmt.Line == 0 {
		panic("program: cannot store an immediate statement")
	}
	s.m.Put(stmt.Line, stmt)
}

// Get returns the statement stored at exactly line, if any.
func (s *Store) Get(line int) (*compiler.Statement, bool) {
	return s.m.Get(line)
}

// Remove deletes the statement stored at line, if any.
func (s *Store) Remove(line int) {
	s.m.Delete(line)
}

// Clear empties the store (spec §4.5, OP_CLEAR).
func (s *Store) Clear() {
	s.m = swiss.NewMap[int, *compiler.Statement](64)
}

// Len returns the number of stored statements.
func (s *Store) Len() int { return s.m.Count() }

// Lines returns the stored line numbers in ascending order.
func (s *Store) Lines() []int {
	lines := make([]int, 0, s.m.Count())
	s.m.Iter(func(line int, _ *compiler.Statement) bool {
		lines = append(lines, line)
		return false
	})
	slices.Sort(lines)
	return lines
}

// First returns the statement stored at the lowest line number, used to
// implement OP_RUN (spec §4.5: "sets the instruction pointer to the first
// stored statement").
func (s *Store) First() (*compiler.Statement, bool) {
	lines := s.Lines()
	if len(lines) == 0 {
		return nil, false
	}
	stmt, _ := s.m.Get(lines[0])
	return stmt, true
}

// FindNext returns the statement stored at the smallest line number that is
// >= line (spec §4.4: "execution falls through to the next higher stored
// line number, not the next line textually"). It backs fall-through,
// RETURN and resumption after a yield; GOTO and GOSUB use Get instead.
func (s *Store) FindNext(line int) (*compiler.Statement, bool) {
	lines := s.Lines()
	idx, found := slices.BinarySearch(lines, line)
	if found {
		stmt, _ := s.m.Get(lines[idx])
		return stmt, true
	}
	if idx >= len(lines) {
		return nil, false
	}
	stmt, _ := s.m.Get(lines[idx])
	return stmt, true
}
