package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkWriteAndLineAt(t *testing.T) {
	c := NewChunk()
	c.Write(byte(OpNil), 1)
	c.Write(byte(OpTrue), 1)
	c.Write(byte(OpPop), 2)
	c.Write(byte(OpReturn), 2)

	assert.Equal(t, 1, c.LineAt(0))
	assert.Equal(t, 1, c.LineAt(1))
	assert.Equal(t, 2, c.LineAt(2))
	assert.Equal(t, 2, c.LineAt(3))
}

func TestChunkAddConstant(t *testing.T) {
	c := NewChunk()
	idx := c.AddConstant(Number(42))
	assert.Equal(t, 0, idx)
	idx = c.AddConstant(Number(7))
	assert.Equal(t, 1, idx)
	assert.Equal(t, float64(42), c.Constants[0].AsNumber())
	assert.Equal(t, float64(7), c.Constants[1].AsNumber())
}
