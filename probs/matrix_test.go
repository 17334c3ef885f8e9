package probs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMatrixAllNaN(t *testing.T) {
	m := NewMatrix(3, 2)
	for i := 0; i < 3; i++ {
		assert.True(t, m.RowIsMissing(i))
	}
}

func TestSetAndAt(t *testing.T) {
	m := NewMatrix(2, 3)
	m.Set(1, 2, 0.5)
	assert.Equal(t, 0.5, m.At(1, 2))
	assert.False(t, m.RowIsMissing(1))
	assert.True(t, m.RowIsMissing(0))
}

func TestFillRowNaN(t *testing.T) {
	m := NewMatrix(2, 2)
	m.Set(0, 0, 1)
	m.Set(0, 1, 2)
	m.FillRowNaN(0)
	for _, v := range m.Row(0) {
		assert.True(t, math.IsNaN(v))
	}
}
