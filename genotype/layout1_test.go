package genotype

import (
	"math"
	"testing"

	"github.com/statgen/bgen/probs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout1RoundTrip(t *testing.T) {
	m := probs.NewMatrix(3, 3)
	m.Set(0, 0, 0.1)
	m.Set(0, 1, 0.8)
	m.Set(0, 2, 0.1)
	m.Set(1, 0, 1.0)
	m.Set(1, 1, 0.0)
	m.Set(1, 2, 0.0)
	// row 2 left all-NaN (missing)

	raw, err := EncodeLayout1(m)
	require.NoError(t, err)
	assert.Len(t, raw, 3*6)

	got, err := DecodeLayout1(raw, 3)
	require.NoError(t, err)

	assert.InDelta(t, 0.1, got.At(0, 0), 1.0/32768)
	assert.InDelta(t, 0.8, got.At(0, 1), 1.0/32768)
	assert.InDelta(t, 0.1, got.At(0, 2), 1.0/32768)
	assert.Equal(t, 1.0, got.At(1, 0))
	assert.True(t, got.RowIsMissing(2))
}

func TestLayout1MissingIsAllZero(t *testing.T) {
	m := probs.NewMatrix(1, 3)
	raw, err := EncodeLayout1(m)
	require.NoError(t, err)
	for _, b := range raw {
		assert.Equal(t, byte(0), b)
	}
	got, err := DecodeLayout1(raw, 1)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got.At(0, 0)))
}

func TestLayout1RejectsWrongLength(t *testing.T) {
	_, err := DecodeLayout1(make([]byte, 5), 1)
	require.Error(t, err)
}
