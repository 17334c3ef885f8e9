package bgen

import (
	"io"

	"github.com/pkg/errors"
)

// readGenotypeBlockRaw reads the (possibly compressed) genotype block that
// follows a variant's descriptor, returning the declared uncompressed
// length and the raw (still compressed, if applicable) payload bytes.
//
// Layout 2 records its own uncompressed length; layout 1 does not; its
// uncompressed length is always 6*n_samples (see Header.Compression /
// Header.Layout semantics in §4.2 of the design).
func readGenotypeBlockRaw(r io.Reader, h Header) (uncompressedLen uint32, payload []byte, err error) {
	br := binaryReader{r: r}

	if h.Layout == Layout2 {
		uncompressedLen = br.readUint32()
		if br.err != nil {
			return 0, nil, errors.Wrap(br.err, "bgen: read uncompressed_length")
		}
	} else {
		uncompressedLen = 6 * h.NSamples
	}

	if h.Compression == CompressionNone {
		payload = br.readN(int(uncompressedLen))
	} else {
		compressedLen := br.readUint32()
		if br.err != nil {
			return 0, nil, errors.Wrap(br.err, "bgen: read compressed_length")
		}
		payload = br.readN(int(compressedLen))
	}
	if br.err != nil {
		return 0, nil, errors.Wrap(br.err, "bgen: read genotype block payload")
	}
	return uncompressedLen, payload, nil
}

// genotypeBlockByteLen returns the number of on-disk bytes
// readGenotypeBlockRaw would consume for the given layout/compression and
// payload length, without reading anything. It is used to advance the
// reader's cursor analytically rather than by tracking physical reads
// through a buffered reader (whose read-ahead would otherwise desync the
// reported offsets).
func genotypeBlockByteLen(h Header, payloadLen int) int {
	n := payloadLen
	if h.Layout == Layout2 {
		n += 4 // uncompressed_length
	}
	if h.Compression != CompressionNone {
		n += 4 // compressed_length
	}
	return n
}

// decodeGenotypeBlockPayload decompresses payload (compressedLen bytes, or
// already-plain if compression is none) into a buffer of uncompressedLen
// bytes.
func decodeGenotypeBlockPayload(h Header, uncompressedLen uint32, payload []byte) ([]byte, error) {
	c, err := codecFor(h.Compression)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, uncompressedLen)
	if err := c.decompress(dst, payload); err != nil {
		return nil, err
	}
	return dst, nil
}

// writeGenotypeBlock compresses inner (if required) and writes it in the
// on-disk genotype block format for h.Layout/h.Compression.
func writeGenotypeBlock(w io.Writer, h Header, inner []byte) error {
	bw := binaryWriter{w: w}
	if h.Layout == Layout2 {
		bw.writeUint32(uint32(len(inner)))
	}
	if h.Compression == CompressionNone {
		bw.write(inner)
		return bw.err
	}
	c, err := codecFor(h.Compression)
	if err != nil {
		return err
	}
	compressed := c.compress(inner)
	bw.writeUint32(uint32(len(compressed)))
	bw.write(compressed)
	return bw.err
}
