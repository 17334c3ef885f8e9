package genotype

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/statgen/bgen/packedint"
	"github.com/statgen/bgen/probs"
)

const (
	missingBit = 0x80
	ploidyMask = 0x3f
	biallelic  = 2
	diploid    = 2
)

// Layout2Header is the parsed fixed-field prefix of a decompressed
// layout-2 inner genotype block, preceding the packed probability stream.
type Layout2Header struct {
	NSamples  uint32
	NAlleles  uint16
	MinPloidy uint8
	MaxPloidy uint8
	Ploidy    []uint8 // per-sample ploidy, missing bit already stripped
	Missing   []bool  // per-sample missing flag
	Phased    bool
	BitDepth  uint8
}

// DecodeLayout2 parses a decompressed layout-2 inner genotype block,
// returning its fixed-field header and the decoded n_samples x width
// probability matrix. headerNSamples is the file header's n_samples,
// checked against the block's own declared count.
func DecodeLayout2(raw []byte, headerNSamples uint32) (Layout2Header, probs.Matrix, error) {
	r := bytes.NewReader(raw)
	h, err := readLayout2Header(r, headerNSamples)
	if err != nil {
		return h, probs.Matrix{}, err
	}

	n := int(h.NSamples)
	k := int(h.NAlleles)

	counts := make([]int, n)
	width := 0
	if h.Phased {
		width = int(h.MaxPloidy) * k
		for i := 0; i < n; i++ {
			counts[i] = int(h.Ploidy[i]) * (k - 1)
		}
	} else {
		for i := 0; i < n; i++ {
			c := UnphasedGenotypeCount(int(h.Ploidy[i]), k)
			counts[i] = c - 1
			if c > width {
				width = c
			}
		}
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	remaining := make([]byte, r.Len())
	if _, err := io.ReadFull(r, remaining); err != nil {
		return h, probs.Matrix{}, fmt.Errorf("genotype: read packed probabilities: %w", err)
	}
	values, err := packedint.Unpack(remaining, int(h.BitDepth), total)
	if err != nil {
		return h, probs.Matrix{}, fmt.Errorf("genotype: unpack probabilities: %w", err)
	}

	m := probs.NewMatrix(n, width)
	scale := float64(uint64(1)<<uint(h.BitDepth) - 1)

	offset := 0
	if !h.Phased && biallelic == k && diploid == int(h.MinPloidy) && diploid == int(h.MaxPloidy) {
		decodeUnphasedBiallelicDiploidFast(m, h, values)
	} else if h.Phased {
		for i := 0; i < n; i++ {
			ploidy := int(h.Ploidy[i])
			c := counts[i]
			stored := values[offset : offset+c]
			offset += c
			if h.Missing[i] {
				m.FillRowNaN(i)
				continue
			}
			for hap := 0; hap < ploidy; hap++ {
				hapStored := stored[hap*(k-1) : (hap+1)*(k-1)]
				sum := uint32(0)
				for col, v := range hapStored {
					m.Set(i, hap*k+col, float64(v)/scale)
					sum += v
				}
				last := uint32(scale) - sum
				m.Set(i, hap*k+k-1, float64(last)/scale)
			}
		}
	} else {
		for i := 0; i < n; i++ {
			c := counts[i]
			stored := values[offset : offset+c]
			offset += c
			if h.Missing[i] {
				m.FillRowNaN(i)
				continue
			}
			sum := uint32(0)
			for col, v := range stored {
				m.Set(i, col, float64(v)/scale)
				sum += v
			}
			last := uint32(scale) - sum
			m.Set(i, c, float64(last)/scale)
			for col := c + 1; col < width; col++ {
				m.Set(i, col, math.NaN())
			}
		}
	}
	return h, m, nil
}

// decodeUnphasedBiallelicDiploidFast is the fast path required when every
// sample shares ploidy 2, biallelic, unphased genotypes: the stored/implicit
// shape (2 stored + 1 implicit, width 3) is constant, so the per-sample
// combinatorial lookup and branch that the general path performs is skipped
// in favor of fixed-stride slicing.
func decodeUnphasedBiallelicDiploidFast(m probs.Matrix, h Layout2Header, values []uint32) {
	scale := float64(uint64(1)<<uint(h.BitDepth) - 1)
	const stride = 2 // stored values per sample: C(2+1,1)-1 == 2
	for i := 0; i < int(h.NSamples); i++ {
		if h.Missing[i] {
			m.FillRowNaN(i)
			continue
		}
		v0 := values[i*stride]
		v1 := values[i*stride+1]
		m.Set(i, 0, float64(v0)/scale)
		m.Set(i, 1, float64(v1)/scale)
		m.Set(i, 2, float64(uint32(scale)-v0-v1)/scale)
	}
}

func readLayout2Header(r *bytes.Reader, headerNSamples uint32) (Layout2Header, error) {
	var h Layout2Header
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return h, fmt.Errorf("genotype: read n_samples: %w", err)
	}
	h.NSamples = binary.LittleEndian.Uint32(buf[:])
	if h.NSamples != headerNSamples {
		return h, fmt.Errorf("genotype: block declares %d samples, header declares %d", h.NSamples, headerNSamples)
	}

	var buf2 [2]byte
	if _, err := io.ReadFull(r, buf2[:]); err != nil {
		return h, fmt.Errorf("genotype: read n_alleles: %w", err)
	}
	h.NAlleles = binary.LittleEndian.Uint16(buf2[:])

	var pbuf [2]byte
	if _, err := io.ReadFull(r, pbuf[:]); err != nil {
		return h, fmt.Errorf("genotype: read min/max ploidy: %w", err)
	}
	h.MinPloidy = pbuf[0]
	h.MaxPloidy = pbuf[1]

	ploidyBytes := make([]byte, h.NSamples)
	if _, err := io.ReadFull(r, ploidyBytes); err != nil {
		return h, fmt.Errorf("genotype: read ploidy/missing bytes: %w", err)
	}
	h.Ploidy = make([]uint8, h.NSamples)
	h.Missing = make([]bool, h.NSamples)
	for i, b := range ploidyBytes {
		h.Ploidy[i] = b & ploidyMask
		h.Missing[i] = b&missingBit != 0
	}

	var flagBuf [2]byte
	if _, err := io.ReadFull(r, flagBuf[:]); err != nil {
		return h, fmt.Errorf("genotype: read phased/bit_depth: %w", err)
	}
	h.Phased = flagBuf[0] != 0
	h.BitDepth = flagBuf[1]
	if h.BitDepth < 1 || h.BitDepth > 32 {
		return h, fmt.Errorf("genotype: bit depth %d out of range [1,32]", h.BitDepth)
	}
	return h, nil
}

// EncodeLayout2Input bundles the per-variant inputs EncodeLayout2 needs to
// rebuild a layout-2 inner genotype block from a decoded probability
// matrix.
type EncodeLayout2Input struct {
	NAlleles int
	Ploidy   []uint8 // one entry per sample
	Phased   bool
	BitDepth uint8
	Probs    probs.Matrix // NSamples x width; a row is all-NaN iff missing
}

// EncodeLayout2 inverts DecodeLayout2: given ploidy, phasing, target bit
// depth and a decoded probability matrix, it reconstructs the layout-2
// inner genotype block bytes (uncompressed).
func EncodeLayout2(in EncodeLayout2Input) ([]byte, error) {
	if in.BitDepth < 1 || in.BitDepth > 32 {
		return nil, fmt.Errorf("genotype: bit depth %d out of range [1,32]", in.BitDepth)
	}
	n := in.Probs.NSamples
	if len(in.Ploidy) != n {
		return nil, fmt.Errorf("genotype: ploidy has %d entries, matrix has %d samples", len(in.Ploidy), n)
	}
	k := in.NAlleles
	scale := uint32(uint64(1)<<uint(in.BitDepth) - 1)

	var minPloidy, maxPloidy uint8 = 255, 0
	for _, p := range in.Ploidy {
		if p < minPloidy {
			minPloidy = p
		}
		if p > maxPloidy {
			maxPloidy = p
		}
	}
	if n == 0 {
		minPloidy, maxPloidy = 0, 0
	}

	ploidyBytes := make([]byte, n)
	var stored []uint32
	for i := 0; i < n; i++ {
		ploidy := in.Ploidy[i]
		missing := in.Probs.RowIsMissing(i)
		b := ploidy & ploidyMask
		if missing {
			b |= missingBit
		}
		ploidyBytes[i] = b

		if in.Phased {
			for hap := 0; hap < int(ploidy); hap++ {
				if missing {
					stored = append(stored, make([]uint32, k-1)...)
					continue
				}
				simplex := in.Probs.Row(i)[hap*k : hap*k+k]
				rounded := RoundSimplex(simplex, scale)
				stored = append(stored, rounded[:k-1]...)
			}
		} else {
			count := UnphasedGenotypeCount(int(ploidy), k)
			c := count - 1
			if missing {
				stored = append(stored, make([]uint32, c)...)
				continue
			}
			simplex := in.Probs.Row(i)[:count]
			rounded := RoundSimplex(simplex, scale)
			stored = append(stored, rounded[:c]...)
		}
	}

	packed, err := packedint.Pack(stored, int(in.BitDepth))
	if err != nil {
		return nil, fmt.Errorf("genotype: pack probabilities: %w", err)
	}

	var buf bytes.Buffer
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(n))
	buf.Write(u32[:])
	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], uint16(k))
	buf.Write(u16[:])
	buf.WriteByte(minPloidy)
	buf.WriteByte(maxPloidy)
	buf.Write(ploidyBytes)
	if in.Phased {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	buf.WriteByte(in.BitDepth)
	buf.Write(packed)
	return buf.Bytes(), nil
}
