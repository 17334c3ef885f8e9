package bgen

import "github.com/pkg/errors"

// Sentinel errors for the error kinds in the BGEN error model. Callers
// should use errors.Is against these values; internal call sites wrap them
// with errors.Wrap/Wrapf to attach context.
var (
	// ErrBadMagic is returned when the header's magic field is neither
	// "bgen" nor four zero bytes.
	ErrBadMagic = errors.New("bgen: bad magic")

	// ErrUnsupportedVersion is returned when the header flags declare a
	// layout outside {1, 2} or a compression outside {0, 1, 2}.
	ErrUnsupportedVersion = errors.New("bgen: unsupported layout or compression")

	// ErrTruncated is returned when EOF is reached before a declared
	// length is satisfied.
	ErrTruncated = errors.New("bgen: truncated file")

	// ErrDecompression is returned when a zlib/zstd payload fails to
	// decompress, or decompresses to an unexpected length.
	ErrDecompression = errors.New("bgen: decompression error")

	// ErrPack names the pack/unpack error kind: a bit depth out of [1, 32],
	// an integer exceeding its bit depth, or inconsistent row lengths. The
	// genotype and packedint packages report these conditions with their
	// own error values, which this package returns without wrapping them in
	// ErrPack, so errors.Is(err, ErrPack) does not match them.
	ErrPack = errors.New("bgen: pack/unpack error")

	// ErrSampleCountMismatch is returned when an inner genotype block's
	// sample count disagrees with the header, or a .sample file's row
	// count disagrees with n_samples.
	ErrSampleCountMismatch = errors.New("bgen: sample count mismatch")

	// ErrNoIndex is returned by index-backed queries when no .bgi is open.
	ErrNoIndex = errors.New("bgen: no index open")

	// ErrNotFound is returned by exact-match queries with zero results.
	ErrNotFound = errors.New("bgen: not found")

	// ErrAmbiguous is returned by exact-match queries with more than one
	// result.
	ErrAmbiguous = errors.New("bgen: ambiguous match")

	// ErrNotSeekable is returned when a random-access operation is
	// attempted on a streamed, non-seekable source.
	ErrNotSeekable = errors.New("bgen: source is not seekable")

	// ErrReaderClosed is returned by Reader.Next and Reader.AtOffset after
	// Close, and by Variant.Probabilities (when nothing is cached) and
	// Variant.RawBytes once the owning Reader is closed. Index-backed
	// lookups do not check for Close: after it they fail with the index's
	// own error, or ErrNoIndex when no index was open.
	ErrReaderClosed = errors.New("bgen: reader is closed")

	// ErrWriterClosed is returned by any Writer operation after Close.
	ErrWriterClosed = errors.New("bgen: writer is closed")

	// ErrIncompatibleOptions is returned at Writer creation when zstd
	// compression is requested together with layout 1.
	ErrIncompatibleOptions = errors.New("bgen: zstd compression is incompatible with layout 1")
)
