package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueTruthy(t *testing.T) {
	assert.False(t, Nil.Truthy())
	assert.False(t, Bool(false).Truthy())
	assert.True(t, Bool(true).Truthy())
	assert.True(t, Number(0).Truthy())
	assert.True(t, Number(-1).Truthy())
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Nil.Equal(Nil))
	assert.True(t, Number(1).Equal(Number(1)))
	assert.False(t, Number(1).Equal(Number(2)))
	assert.False(t, Number(1).Equal(Bool(true)))
	assert.True(t, Bool(true).Equal(Bool(true)))

	a := FromObj(&String{Chars: "hi"})
	b := FromObj(&String{Chars: "hi"})
	assert.False(t, a.Equal(b), "distinct String objects are not equal without interning")
	assert.True(t, a.Equal(a))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "nil", Nil.String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "false", Bool(false).String())
	assert.Equal(t, "3.5", Number(3.5).String())
	assert.Equal(t, "3", Number(3).String())
}

func TestValueTypeName(t *testing.T) {
	assert.Equal(t, "nil", Nil.TypeName())
	assert.Equal(t, "boolean", Bool(true).TypeName())
	assert.Equal(t, "number", Number(1).TypeName())
	assert.Equal(t, "string", FromObj(&String{Chars: "x"}).TypeName())
}
