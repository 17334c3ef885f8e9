package genotype

import (
	"encoding/binary"
	"fmt"

	"github.com/statgen/bgen/probs"
)

// Layout1Scale is the fixed-point scale ("M") layout 1 uses: probabilities
// are stored as round(p * 32768) in a uint16.
const Layout1Scale = 32768

// DecodeLayout1 parses a decompressed layout-1 inner genotype block: for
// each of nSamples samples, three little-endian uint16 values (p_AA, p_AB,
// p_BB) scaled by Layout1Scale. A sample whose three raw values are all
// zero is considered missing and decodes to a NaN row.
func DecodeLayout1(raw []byte, nSamples int) (probs.Matrix, error) {
	const width = 3
	need := nSamples * width * 2
	if len(raw) != need {
		return probs.Matrix{}, fmt.Errorf("genotype: layout 1 block is %d bytes, want %d for %d samples", len(raw), need, nSamples)
	}

	m := probs.NewMatrix(nSamples, width)
	for i := 0; i < nSamples; i++ {
		off := i * width * 2
		u0 := binary.LittleEndian.Uint16(raw[off:])
		u1 := binary.LittleEndian.Uint16(raw[off+2:])
		u2 := binary.LittleEndian.Uint16(raw[off+4:])
		if u0 == 0 && u1 == 0 && u2 == 0 {
			continue // matrix row already NaN-filled
		}
		m.Set(i, 0, float64(u0)/Layout1Scale)
		m.Set(i, 1, float64(u1)/Layout1Scale)
		m.Set(i, 2, float64(u2)/Layout1Scale)
	}
	return m, nil
}

// EncodeLayout1 inverts DecodeLayout1: missing (all-NaN) rows are written
// as (0,0,0); other rows are scaled by Layout1Scale and rounded to the
// nearest uint16, clamped to the valid range.
func EncodeLayout1(m probs.Matrix) ([]byte, error) {
	if m.Width != 3 {
		return nil, fmt.Errorf("genotype: layout 1 requires width 3, got %d", m.Width)
	}
	out := make([]byte, m.NSamples*6)
	for i := 0; i < m.NSamples; i++ {
		off := i * 6
		if m.RowIsMissing(i) {
			continue // zero is the missing sentinel
		}
		row := m.Row(i)
		for j, p := range row {
			u := scaleToUint16(p)
			binary.LittleEndian.PutUint16(out[off+j*2:], u)
		}
	}
	return out, nil
}

func scaleToUint16(p float64) uint16 {
	v := p*Layout1Scale + 0.5
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v)
}
