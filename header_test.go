package bgen

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		NVariants:    3,
		NSamples:     5,
		Metadata:     []byte("hello"),
		Compression:  CompressionZlib,
		Layout:       Layout2,
		HasSampleIDs: true,
	}
	h.HeaderLength = uint32(minHeaderLength + len(h.Metadata))
	h.OffsetToFirstVariant = h.HeaderLength

	var buf bytes.Buffer
	require.NoError(t, writeHeader(&buf, h))

	got, err := readHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, h.NVariants, got.NVariants)
	assert.Equal(t, h.NSamples, got.NSamples)
	assert.Equal(t, h.Metadata, got.Metadata)
	assert.Equal(t, h.Compression, got.Compression)
	assert.Equal(t, h.Layout, got.Layout)
	assert.True(t, got.HasSampleIDs)
}

func TestHeaderRejectsBadMagic(t *testing.T) {
	h := Header{HeaderLength: minHeaderLength, Layout: Layout2}
	var buf bytes.Buffer
	require.NoError(t, writeHeader(&buf, h))
	b := buf.Bytes()
	b[16] = 'x' // corrupt magic byte
	_, err := readHeader(bytes.NewReader(b))
	require.Error(t, err)
}

func TestHeaderRejectsZstdWithLayout1(t *testing.T) {
	h := Header{HeaderLength: minHeaderLength, Layout: Layout1, Compression: CompressionZstd}
	var buf bytes.Buffer
	require.NoError(t, writeHeader(&buf, h))
	_, err := readHeader(&buf)
	require.Error(t, err)
}
