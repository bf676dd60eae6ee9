package program_test

import (
	"testing"

	"github.com/mna/dbi/lang/compiler"
	"github.com/mna/dbi/lang/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileLine(t *testing.T, src string) *compiler.Statement {
	t.Helper()
	c := compiler.NewCompiler(compiler.NewRegistry(), compiler.Limits{})
	stmt, err := c.CompileLine(src)
	require.NoError(t, err)
	require.NotNil(t, stmt)
	return stmt
}

func TestStoreInsertGet(t *testing.T) {
	s := program.NewStore()
	s.Insert(compileLine(t, "10 PRINT 1"))
	stmt, ok := s.Get(10)
	require.True(t, ok)
	assert.Equal(t, 10, stmt.Line)

	_, ok = s.Get(20)
	assert.False(t, ok)
}

func TestStoreReplace(t *testing.T) {
	s := program.NewStore()
	s.Insert(compileLine(t, "10 PRINT 1"))
	s.Insert(compileLine(t, "10 PRINT 2"))
	assert.Equal(t, 1, s.Len())
}

func TestStoreLinesSorted(t *testing.T) {
	s := program.NewStore()
	s.Insert(compileLine(t, "30 PRINT 3"))
	s.Insert(compileLine(t, "10 PRINT 1"))
	s.Insert(compileLine(t, "20 PRINT 2"))
	assert.Equal(t, []int{10, 20, 30}, s.Lines())
}

func TestStoreFindNext(t *testing.T) {
	s := program.NewStore()
	s.Insert(compileLine(t, "10 PRINT 1"))
	s.Insert(compileLine(t, "30 PRINT 3"))

	stmt, ok := s.FindNext(10)
	require.True(t, ok)
	assert.Equal(t, 10, stmt.Line)

	stmt, ok = s.FindNext(11)
	require.True(t, ok)
	assert.Equal(t, 30, stmt.Line)

	_, ok = s.FindNext(31)
	assert.False(t, ok)
}

func TestStoreFirst(t *testing.T) {
	s := program.NewStore()
	_, ok := s.First()
	assert.False(t, ok)

	s.Insert(compileLine(t, "20 PRINT 2"))
	s.Insert(compileLine(t, "10 PRINT 1"))
	stmt, ok := s.First()
	require.True(t, ok)
	assert.Equal(t, 10, stmt.Line)
}

func TestStoreClearAndRemove(t *testing.T) {
	s := program.NewStore()
	s.Insert(compileLine(t, "10 PRINT 1"))
	s.Insert(compileLine(t, "20 PRINT 2"))
	s.Remove(10)
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestStoreInsertImmediatePanics(t *testing.T) {
	s := program.NewStore()
	assert.Panics(t, func() {
		s.Insert(compileLine(t, "PRINT 1"))
	})
}
