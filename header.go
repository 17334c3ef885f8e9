package bgen

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Compression identifies the compression regime used for genotype blocks,
// keyed from bits 0..1 of the header flags.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionZlib Compression = 1
	CompressionZstd Compression = 2
)

// Layout identifies the genotype block format, keyed from bits 2..5 of the
// header flags.
type Layout uint8

const (
	Layout1 Layout = 1
	Layout2 Layout = 2
)

const (
	minHeaderLength = 20

	flagCompressionMask = 0x3
	flagLayoutMask      = 0x3c
	flagLayoutShift     = 2
	flagHasSampleIDs    = 1 << 31
)

var bgenMagic = [4]byte{'b', 'g', 'e', 'n'}

// Header is the fixed metadata block at the start of every BGEN file.
type Header struct {
	OffsetToFirstVariant uint32
	HeaderLength         uint32
	NVariants            uint32
	NSamples             uint32
	Metadata             []byte

	Compression  Compression
	Layout       Layout
	HasSampleIDs bool
}

// readHeader parses the fixed header fields from r, which must be
// positioned at the start of the file (byte 0).
func readHeader(r io.Reader) (Header, error) {
	var h Header

	var buf [4]byte
	if err := readFull(r, buf[:]); err != nil {
		return h, errors.Wrap(err, "bgen: read offset_to_first_variant")
	}
	h.OffsetToFirstVariant = binary.LittleEndian.Uint32(buf[:])

	if err := readFull(r, buf[:]); err != nil {
		return h, errors.Wrap(err, "bgen: read header_length")
	}
	h.HeaderLength = binary.LittleEndian.Uint32(buf[:])
	if h.HeaderLength < minHeaderLength {
		return h, errors.Errorf("bgen: header_length %d below minimum %d", h.HeaderLength, minHeaderLength)
	}

	if err := readFull(r, buf[:]); err != nil {
		return h, errors.Wrap(err, "bgen: read n_variants")
	}
	h.NVariants = binary.LittleEndian.Uint32(buf[:])

	if err := readFull(r, buf[:]); err != nil {
		return h, errors.Wrap(err, "bgen: read n_samples")
	}
	h.NSamples = binary.LittleEndian.Uint32(buf[:])

	var magic [4]byte
	if err := readFull(r, magic[:]); err != nil {
		return h, errors.Wrap(err, "bgen: read magic")
	}
	if magic != bgenMagic && magic != [4]byte{0, 0, 0, 0} {
		return h, errors.Wrapf(ErrBadMagic, "got %q", magic[:])
	}

	metaLen := int(h.HeaderLength) - minHeaderLength
	h.Metadata = make([]byte, metaLen)
	if metaLen > 0 {
		if err := readFull(r, h.Metadata); err != nil {
			return h, errors.Wrap(err, "bgen: read metadata")
		}
	}

	if err := readFull(r, buf[:]); err != nil {
		return h, errors.Wrap(err, "bgen: read flags")
	}
	flags := binary.LittleEndian.Uint32(buf[:])

	h.Compression = Compression(flags & flagCompressionMask)
	if h.Compression != CompressionNone && h.Compression != CompressionZlib && h.Compression != CompressionZstd {
		return h, errors.Wrapf(ErrUnsupportedVersion, "compression=%d", h.Compression)
	}

	h.Layout = Layout((flags & flagLayoutMask) >> flagLayoutShift)
	if h.Layout != Layout1 && h.Layout != Layout2 {
		return h, errors.Wrapf(ErrUnsupportedVersion, "layout=%d", h.Layout)
	}

	if h.Layout == Layout1 && h.Compression == CompressionZstd {
		return h, errors.Wrapf(ErrUnsupportedVersion, "zstd compression is not valid with layout 1")
	}

	h.HasSampleIDs = flags&flagHasSampleIDs != 0
	return h, nil
}

// flags packs Compression/Layout/HasSampleIDs back into the header flags
// word.
func (h Header) flags() uint32 {
	f := uint32(h.Compression) & flagCompressionMask
	f |= (uint32(h.Layout) << flagLayoutShift) & flagLayoutMask
	if h.HasSampleIDs {
		f |= flagHasSampleIDs
	}
	return f
}

// writeHeader emits h in the fixed BGEN header format.
func writeHeader(w io.Writer, h Header) error {
	bw := binaryWriter{w: w}
	bw.writeUint32(h.OffsetToFirstVariant)
	bw.writeUint32(h.HeaderLength)
	bw.writeUint32(h.NVariants)
	bw.writeUint32(h.NSamples)
	bw.write(bgenMagic[:])
	if len(h.Metadata) > 0 {
		bw.write(h.Metadata)
	}
	bw.writeUint32(h.flags())
	return bw.err
}

// readFull reads exactly len(buf) bytes from r, translating io.EOF and
// io.ErrUnexpectedEOF into ErrTruncated.
func readFull(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return err
}
