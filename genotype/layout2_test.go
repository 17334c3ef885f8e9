package genotype

import (
	"math"
	"testing"

	"github.com/statgen/bgen/probs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBiallelicDiploidMatrix(rows [][3]float64, missing []bool) probs.Matrix {
	m := probs.NewMatrix(len(rows), 3)
	for i, row := range rows {
		if missing[i] {
			continue
		}
		m.Set(i, 0, row[0])
		m.Set(i, 1, row[1])
		m.Set(i, 2, row[2])
	}
	return m
}

func TestLayout2UnphasedBiallelicDiploidRoundTrip(t *testing.T) {
	rows := [][3]float64{
		{0.1, 0.8, 0.1},
		{0.5, 0.25, 0.25},
		{0, 0, 0},
	}
	missing := []bool{false, false, true}
	m := buildBiallelicDiploidMatrix(rows, missing)

	in := EncodeLayout2Input{
		NAlleles: 2,
		Ploidy:   []uint8{2, 2, 2},
		Phased:   false,
		BitDepth: 16,
		Probs:    m,
	}
	raw, err := EncodeLayout2(in)
	require.NoError(t, err)

	h, got, err := DecodeLayout2(raw, 3)
	require.NoError(t, err)
	assert.Equal(t, uint8(16), h.BitDepth)
	assert.False(t, h.Phased)
	assert.Equal(t, 3, got.Width)

	tol := 1.0 / 65535
	assert.InDelta(t, 0.1, got.At(0, 0), tol)
	assert.InDelta(t, 0.8, got.At(0, 1), tol)
	assert.InDelta(t, 0.1, got.At(0, 2), tol)
	assert.InDelta(t, 0.5, got.At(1, 0), tol)
	assert.InDelta(t, 0.25, got.At(1, 1), tol)
	assert.InDelta(t, 0.25, got.At(1, 2), tol)
	assert.True(t, got.RowIsMissing(2))
}

func TestLayout2BitDepthOneAndThirtyTwo(t *testing.T) {
	for _, bd := range []uint8{1, 32} {
		m := probs.NewMatrix(1, 3)
		m.Set(0, 0, 1)
		m.Set(0, 1, 0)
		m.Set(0, 2, 0)
		in := EncodeLayout2Input{NAlleles: 2, Ploidy: []uint8{2}, BitDepth: bd, Probs: m}
		raw, err := EncodeLayout2(in)
		require.NoError(t, err, "bit depth %d", bd)
		_, got, err := DecodeLayout2(raw, 1)
		require.NoError(t, err, "bit depth %d", bd)
		assert.InDelta(t, 1.0, got.At(0, 0), 1.0/float64(uint64(1)<<bd-1))
	}
}

func TestLayout2MixedPloidyUnphasedMultiallelic(t *testing.T) {
	// K=3 alleles, samples with ploidy 1, 2, 3.
	k := 3
	ploidy := []uint8{1, 2, 3}
	widths := make([]int, len(ploidy))
	maxWidth := 0
	for i, p := range ploidy {
		widths[i] = UnphasedGenotypeCount(int(p), k)
		if widths[i] > maxWidth {
			maxWidth = widths[i]
		}
	}
	m := probs.NewMatrix(len(ploidy), maxWidth)
	for i, w := range widths {
		rem := 1.0
		for c := 0; c < w-1; c++ {
			v := rem / float64(w-c)
			m.Set(i, c, v)
			rem -= v
		}
		m.Set(i, w-1, rem)
	}

	in := EncodeLayout2Input{NAlleles: k, Ploidy: ploidy, BitDepth: 8, Probs: m}
	raw, err := EncodeLayout2(in)
	require.NoError(t, err)

	h, got, err := DecodeLayout2(raw, uint32(len(ploidy)))
	require.NoError(t, err)
	assert.Equal(t, maxWidth, got.Width)
	assert.Equal(t, ploidy, h.Ploidy)

	tol := 1.0 / 255
	for i, w := range widths {
		sum := 0.0
		for c := 0; c < w; c++ {
			v := got.At(i, c)
			require.False(t, math.IsNaN(v))
			sum += v
		}
		assert.InDelta(t, 1.0, sum, float64(w)*tol)
		for c := w; c < maxWidth; c++ {
			assert.True(t, math.IsNaN(got.At(i, c)))
		}
	}
}

func TestLayout2Phased(t *testing.T) {
	k := 2
	ploidy := []uint8{1, 2, 3, 3}
	maxPloidy := 3
	width := maxPloidy * k
	m := probs.NewMatrix(len(ploidy), width)
	for i, p := range ploidy {
		for hap := 0; hap < int(p); hap++ {
			m.Set(i, hap*k+0, 0.3)
			m.Set(i, hap*k+1, 0.7)
		}
	}

	in := EncodeLayout2Input{NAlleles: k, Ploidy: ploidy, Phased: true, BitDepth: 8, Probs: m}
	raw, err := EncodeLayout2(in)
	require.NoError(t, err)

	h, got, err := DecodeLayout2(raw, uint32(len(ploidy)))
	require.NoError(t, err)
	require.True(t, h.Phased)
	assert.Equal(t, width, got.Width)

	tol := 1.0 / 255
	for i, p := range ploidy {
		for hap := 0; hap < int(p); hap++ {
			assert.InDelta(t, 0.3, got.At(i, hap*k+0), tol)
			assert.InDelta(t, 0.7, got.At(i, hap*k+1), tol)
		}
		for hap := int(p); hap < maxPloidy; hap++ {
			assert.True(t, math.IsNaN(got.At(i, hap*k+0)))
		}
	}
}

func TestLayout2MinPloidyZero(t *testing.T) {
	k := 2
	ploidy := []uint8{0, 2}
	m := probs.NewMatrix(2, 3)
	m.Set(0, 0, 1) // only column used for ploidy-0 sample
	m.Set(1, 0, 0.4)
	m.Set(1, 1, 0.2)
	m.Set(1, 2, 0.4)

	in := EncodeLayout2Input{NAlleles: k, Ploidy: ploidy, BitDepth: 8, Probs: m}
	raw, err := EncodeLayout2(in)
	require.NoError(t, err)

	h, got, err := DecodeLayout2(raw, 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), h.MinPloidy)
	assert.InDelta(t, 1.0, got.At(0, 0), 1.0/255)
	assert.True(t, math.IsNaN(got.At(0, 1)))
}
