package bgen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplesBlockRoundTrip(t *testing.T) {
	ids := []string{"a", "bb", "ccc"}
	var buf bytes.Buffer
	require.NoError(t, writeSamplesBlock(&buf, ids))
	assert.EqualValues(t, samplesBlockLength(ids), buf.Len())

	got, err := readSamplesBlock(&buf, 3)
	require.NoError(t, err)
	assert.Equal(t, ids, got)
}

func TestSamplesBlockRejectsCountMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSamplesBlock(&buf, []string{"a", "b"}))
	_, err := readSamplesBlock(&buf, 3)
	require.ErrorIs(t, err, ErrSampleCountMismatch)
}

func TestReadSampleIDFileOrdinalColumn(t *testing.T) {
	content := "ID_1 ID_2\n0 0\n1 sampleA\n2 sampleB\n"
	ids, err := readSampleIDFile(strings.NewReader(content), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"sampleA", "sampleB"}, ids)
}

func TestReadSampleIDFileBareColumn(t *testing.T) {
	content := "ID\n0\nsampleA\nsampleB\n"
	ids, err := readSampleIDFile(strings.NewReader(content), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"sampleA", "sampleB"}, ids)
}

func TestDefaultSampleIDs(t *testing.T) {
	assert.Equal(t, []string{"0", "1", "2"}, defaultSampleIDs(3))
}
