package bgen

import (
	"bytes"
	"io"

	kzlib "github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// codec decompresses and compresses a single genotype block payload for one
// compression regime. Unlike encoding/bgzf's multi-block streaming writer,
// a BGEN genotype block is always one opaque blob, so codec operates on
// whole buffers rather than an io.Writer stream.
type codec interface {
	decompress(dst []byte, src []byte) error
	compress(src []byte) []byte
}

type noneCodec struct{}

func (noneCodec) decompress(dst, src []byte) error {
	if len(dst) != len(src) {
		return errors.Wrapf(ErrDecompression, "uncompressed length mismatch: want %d got %d", len(dst), len(src))
	}
	copy(dst, src)
	return nil
}

func (noneCodec) compress(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	return out
}

type zlibCodec struct{}

func (zlibCodec) decompress(dst, src []byte) error {
	zr, err := kzlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return errors.Wrap(ErrDecompression, err.Error())
	}
	defer zr.Close()
	n, err := io.ReadFull(zr, dst)
	if err != nil && err != io.ErrUnexpectedEOF {
		return errors.Wrap(ErrDecompression, err.Error())
	}
	if n != len(dst) {
		return errors.Wrapf(ErrDecompression, "zlib: decompressed %d bytes, want %d", n, len(dst))
	}
	// Confirm there is no trailing data beyond dst's length.
	var extra [1]byte
	if _, err := io.ReadFull(zr, extra[:]); err != io.EOF {
		return errors.Wrap(ErrDecompression, "zlib: trailing data after declared length")
	}
	return nil
}

func (zlibCodec) compress(src []byte) []byte {
	var buf bytes.Buffer
	zw := kzlib.NewWriter(&buf)
	_, _ = zw.Write(src)
	_ = zw.Close()
	return buf.Bytes()
}

type zstdCodec struct{}

func (zstdCodec) decompress(dst, src []byte) error {
	zr, err := zstd.NewReader(nil)
	if err != nil {
		return errors.Wrap(ErrDecompression, err.Error())
	}
	defer zr.Close()
	out, err := zr.DecodeAll(src, make([]byte, 0, len(dst)))
	if err != nil {
		return errors.Wrap(ErrDecompression, err.Error())
	}
	if len(out) != len(dst) {
		return errors.Wrapf(ErrDecompression, "zstd: decompressed %d bytes, want %d", len(out), len(dst))
	}
	copy(dst, out)
	return nil
}

func (zstdCodec) compress(src []byte) []byte {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		// zstd.NewWriter(nil) with default options never errors in practice;
		// fall back to returning the uncompressed payload rather than panicking.
		return src
	}
	defer enc.Close()
	return enc.EncodeAll(src, make([]byte, 0, len(src)))
}

// codecFor selects the codec implementation for a header's compression
// field.
func codecFor(c Compression) (codec, error) {
	switch c {
	case CompressionNone:
		return noneCodec{}, nil
	case CompressionZlib:
		return zlibCodec{}, nil
	case CompressionZstd:
		return zstdCodec{}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedVersion, "compression=%d", c)
	}
}
