package bgen

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// readSamplesBlock parses the optional samples block that follows the
// header when HasSampleIDs is set. It verifies that the block's declared
// length equals the bytes its entries occupy and that its per-sample count
// matches nSamples; newReader then checks that length against the expected
// byte range (offsetToFirstVariant - headerLength).
func readSamplesBlock(r io.Reader, nSamples uint32) ([]string, error) {
	br := binaryReader{r: r}
	blockLength := br.readUint32()
	n := br.readUint32()
	if br.err != nil {
		return nil, errors.Wrap(br.err, "bgen: read samples block header")
	}
	if n != nSamples {
		return nil, errors.Wrapf(ErrSampleCountMismatch, "samples block declares %d, header declares %d", n, nSamples)
	}

	samples := make([]string, n)
	consumed := uint32(8)
	for i := range samples {
		length := br.readUint16()
		id := string(br.readN(int(length)))
		if br.err != nil {
			return nil, errors.Wrapf(br.err, "bgen: read sample %d", i)
		}
		samples[i] = id
		consumed += 2 + uint32(length)
	}
	if consumed != blockLength {
		return nil, errors.Errorf("bgen: samples block declares length %d, consumed %d", blockLength, consumed)
	}
	return samples, nil
}

// samplesBlockLength returns the on-disk byte length of the samples block
// that writeSamplesBlock would emit for the given ids.
func samplesBlockLength(ids []string) uint32 {
	n := uint32(8)
	for _, id := range ids {
		n += 2 + uint32(len(id))
	}
	return n
}

func writeSamplesBlock(w io.Writer, ids []string) error {
	bw := binaryWriter{w: w}
	bw.writeUint32(samplesBlockLength(ids))
	bw.writeUint32(uint32(len(ids)))
	for _, id := range ids {
		bw.writeString16(id)
	}
	return bw.err
}

// readSampleIDFile parses a companion .sample file: line 1 holds column
// headers, line 2 holds column types, and each remaining line holds one
// sample, with the identifier in column 1 unless column 1 is a bare row
// ordinal, in which case the identifier is column 2.
func readSampleIDFile(r io.Reader, nSamples uint32) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, errors.Wrap(ErrTruncated, "bgen: .sample file missing header line")
	}
	if !scanner.Scan() {
		return nil, errors.Wrap(ErrTruncated, "bgen: .sample file missing type line")
	}

	var ids []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		idCol := 0
		if _, err := strconv.Atoi(fields[0]); err == nil && len(fields) > 1 {
			idCol = 1
		}
		ids = append(ids, fields[idCol])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "bgen: scan .sample file")
	}
	if uint32(len(ids)) != nSamples {
		return nil, errors.Wrapf(ErrSampleCountMismatch, ".sample file has %d rows, header declares %d", len(ids), nSamples)
	}
	return ids, nil
}

// defaultSampleIDs returns the fallback "0".."n-1" identifiers used when
// neither an internal samples block nor a companion .sample file is
// available.
func defaultSampleIDs(n uint32) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = strconv.Itoa(i)
	}
	return ids
}
