package bgen

import (
	"path/filepath"
	"testing"

	"github.com/statgen/bgen/bgi"
	"github.com/statgen/bgen/probs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMultiVariantFile(t *testing.T, path string) []uint64 {
	t.Helper()
	w, err := Create(path, CreateOpts{
		NSamples:    2,
		Samples:     []string{"a", "b"},
		Compression: CompressionZlib,
		Layout:      Layout2,
	})
	require.NoError(t, err)

	variants := []struct {
		rsid string
		pos  uint32
	}{
		{"rs1", 100},
		{"rs2", 200},
		{"rs3", 300},
	}
	for _, v := range variants {
		d := Descriptor{VarID: "v_" + v.rsid, RSID: v.rsid, Chrom: "01", Position: v.pos, Alleles: [][]byte{[]byte("A"), []byte("G")}}
		mat := buildTwoSampleMatrix()
		require.NoError(t, w.AddVariant(d, mat, []uint8{2, 2}, false, 8))
	}
	require.NoError(t, w.Close())

	r, err := Open(path, OpenOpts{NoIndex: true})
	require.NoError(t, err)
	defer r.Close()

	var offsets []uint64
	for {
		v, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		offsets = append(offsets, v.FileOffset)
	}
	require.Len(t, offsets, 3)
	return offsets
}

func buildTwoSampleMatrix() probs.Matrix {
	m := probs.NewMatrix(2, 3)
	m.Set(0, 0, 0.2)
	m.Set(0, 1, 0.3)
	m.Set(0, 2, 0.5)
	m.Set(1, 0, 0.4)
	m.Set(1, 1, 0.4)
	m.Set(1, 2, 0.2)
	return m
}

func TestReaderAtOffsetAndFetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "multi.bgen")
	offsets := writeMultiVariantFile(t, path)

	idxPath := path + ".bgi"
	idx, err := bgi.Create(idxPath)
	require.NoError(t, err)
	rsids := []string{"rs1", "rs2", "rs3"}
	positions := []uint32{100, 200, 300}
	for i, off := range offsets {
		require.NoError(t, idx.Insert(bgi.Record{
			Chromosome: "01", Position: positions[i], RSID: rsids[i],
			Allele1: "A", Allele2: "G", FileStartPosition: off,
			SizeInBytes: 0, NumberOfAlleles: 2,
		}))
	}
	require.NoError(t, idx.Close())

	r, err := Open(path, OpenOpts{})
	require.NoError(t, err)
	defer r.Close()

	v, err := r.AtOffset(offsets[1])
	require.NoError(t, err)
	assert.Equal(t, "rs2", v.RSID)

	v2, err := r.WithRSID("rs3")
	require.NoError(t, err)
	assert.EqualValues(t, 300, v2.Position)

	v3, err := r.AtPosition(100)
	require.NoError(t, err)
	assert.Equal(t, "rs1", v3.RSID)

	start := uint32(150)
	stop := uint32(250)
	matches, err := r.Fetch("01", &start, &stop)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "rs2", matches[0].RSID)
}

func TestReaderNoIndexErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "noindex.bgen")
	writeMultiVariantFile(t, path)

	r, err := Open(path, OpenOpts{NoIndex: true})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.WithRSID("rs1")
	require.ErrorIs(t, err, ErrNoIndex)
}

func TestVariantProbabilitiesFailsAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "closed.bgen")
	writeTestFile(t, path)

	r, err := Open(path, OpenOpts{NoIndex: true})
	require.NoError(t, err)
	v, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, r.Close())

	_, err = v.Probabilities()
	require.ErrorIs(t, err, ErrReaderClosed)
}

func TestAddVariantDirectCopiesRawBytes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bgen")
	writeTestFile(t, src)

	r, err := Open(src, OpenOpts{NoIndex: true})
	require.NoError(t, err)
	defer r.Close()
	v, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)

	dst := filepath.Join(dir, "dst.bgen")
	w, err := Create(dst, CreateOpts{NSamples: 3, Samples: []string{"a", "b", "c"}, Compression: CompressionZstd, Layout: Layout2})
	require.NoError(t, err)
	require.NoError(t, w.AddVariantDirect(v))
	require.NoError(t, w.Close())

	r2, err := Open(dst, OpenOpts{NoIndex: true})
	require.NoError(t, err)
	defer r2.Close()
	v2, ok, err := r2.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, v.VarID, v2.VarID)
	assert.Equal(t, v.RSID, v2.RSID)
}

func TestDropSamples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drop.bgen")
	writeTestFile(t, path)

	r, err := Open(path, OpenOpts{NoIndex: true})
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, r.DropSamples([]bool{false, true, false}))

	v, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	m, err := v.Probabilities()
	require.NoError(t, err)
	assert.Equal(t, 2, m.NSamples)
}
