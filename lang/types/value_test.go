package types_test

import (
	"testing"

	"github.com/mna/dbi/lang/types"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, types.KindInt, types.KindOf(types.Int(1)))
	assert.Equal(t, types.KindString, types.KindOf(types.String("x")))
	assert.Equal(t, types.KindVarRef, types.KindOf(types.VarRef(0)))
}

func TestVarRefFromLetter(t *testing.T) {
	assert.Equal(t, types.VarRef(0), types.VarRefFromLetter('A'))
	assert.Equal(t, types.VarRef(25), types.VarRefFromLetter('Z'))
	assert.Equal(t, "A", types.VarRef(0).String())
	assert.Equal(t, "Z", types.VarRef(25).String())
}

func TestVarRefFromLetterPanics(t *testing.T) {
	assert.Panics(t, func() { types.VarRefFromLetter('1') })
}

func TestIntString(t *testing.T) {
	assert.Equal(t, "42", types.Int(42).String())
	assert.Equal(t, "-1", types.Int(-1).String())
}

func TestStringQuoted(t *testing.T) {
	assert.Equal(t, `"foo"`, types.String("foo").Quoted())
	assert.Equal(t, "foo", types.String("foo").String())
}
