package bgen

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/statgen/bgen/genotype"
	"github.com/statgen/bgen/probs"
)

// CreateOpts customizes Create/CreateWriter.
type CreateOpts struct {
	NSamples    uint32
	Samples     []string // 0 or NSamples entries
	Compression Compression
	Layout      Layout
	Metadata    []byte
}

// withDefaults fills in the one option whose zero value isn't already a
// meaningful explicit choice: Layout. CompressionNone is itself a valid
// explicit request for no compression, so it is never silently promoted;
// callers wanting zstd (the spec's nominal default) set it explicitly.
func (o CreateOpts) withDefaults() CreateOpts {
	if o.Layout == 0 {
		o.Layout = Layout2
	}
	return o
}

// Writer appends variants to a BGEN file, rewriting the n_variants header
// field when closed. A Writer is not safe for concurrent use.
type Writer struct {
	w          io.WriteSeeker
	closer     io.Closer
	header     Header
	nVariants  uint32
	nVarOffset int64
	closed     bool
}

// Create creates a new BGEN file at path with the given options,
// truncating any existing file.
func Create(path string, opts CreateOpts) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "bgen: create")
	}
	w, err := CreateWriter(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// CreateWriter writes a BGEN file to w, which must support Seek so Close
// can rewrite the n_variants field.
func CreateWriter(w io.WriteSeeker, opts CreateOpts) (*Writer, error) {
	opts = opts.withDefaults()
	if opts.Layout == Layout1 && opts.Compression == CompressionZstd {
		return nil, ErrIncompatibleOptions
	}
	if len(opts.Samples) != 0 && uint32(len(opts.Samples)) != opts.NSamples {
		return nil, errors.Errorf("bgen: samples has %d entries, n_samples is %d", len(opts.Samples), opts.NSamples)
	}

	hasSamples := len(opts.Samples) > 0
	h := Header{
		HeaderLength: uint32(minHeaderLength + len(opts.Metadata)),
		NSamples:     opts.NSamples,
		Metadata:     opts.Metadata,
		Compression:  opts.Compression,
		Layout:       opts.Layout,
		HasSampleIDs: hasSamples,
	}
	samplesLen := uint32(0)
	if hasSamples {
		samplesLen = samplesBlockLength(opts.Samples)
	}
	h.OffsetToFirstVariant = h.HeaderLength + samplesLen

	if err := writeHeader(w, h); err != nil {
		return nil, err
	}
	if hasSamples {
		if err := writeSamplesBlock(w, opts.Samples); err != nil {
			return nil, err
		}
	}

	return &Writer{w: w, header: h, nVarOffset: 8}, nil
}

// AddVariant encodes and appends a variant built from a descriptor and a
// decoded probability matrix. ploidy defaults to all-2 and bitDepth to 8
// when layout 2 is in use; layout 1 ignores ploidy/phased/bitDepth and
// always emits fixed diploid unphased triplets at bit depth 16.
func (w *Writer) AddVariant(d Descriptor, m probs.Matrix, ploidy []uint8, phased bool, bitDepth uint8) error {
	if w.closed {
		return ErrWriterClosed
	}
	if m.NSamples != int(w.header.NSamples) {
		return errors.Wrapf(ErrSampleCountMismatch, "variant has %d sample rows, writer has %d samples", m.NSamples, w.header.NSamples)
	}

	if err := writeDescriptor(w.w, d, w.header.Layout, w.header.NSamples); err != nil {
		return err
	}

	var inner []byte
	var err error
	if w.header.Layout == Layout1 {
		inner, err = genotype.EncodeLayout1(m)
	} else {
		if ploidy == nil {
			ploidy = constantPloidy(m.NSamples, 2)
		}
		if bitDepth == 0 {
			bitDepth = 8
		}
		inner, err = genotype.EncodeLayout2(genotype.EncodeLayout2Input{
			NAlleles: len(d.Alleles),
			Ploidy:   ploidy,
			Phased:   phased,
			BitDepth: bitDepth,
			Probs:    m,
		})
	}
	if err != nil {
		return err
	}

	if err := writeGenotypeBlock(w.w, w.header, inner); err != nil {
		return err
	}
	w.nVariants++
	return nil
}

// AddVariantDirect copies a variant's raw encoded bytes verbatim from its
// source reader, bypassing decode and re-encode. It requires v to come
// from a still-open, seekable Reader and its descriptor's sample/layout
// shape to be compatible with this writer's header (same layout and
// sample count).
func (w *Writer) AddVariantDirect(v *Variant) error {
	if w.closed {
		return ErrWriterClosed
	}
	if v.header.Layout != w.header.Layout {
		return errors.Errorf("bgen: cannot copy a layout %d variant into a layout %d file", v.header.Layout, w.header.Layout)
	}
	if v.header.NSamples != w.header.NSamples {
		return errors.Wrapf(ErrSampleCountMismatch, "variant has %d samples, writer has %d samples", v.header.NSamples, w.header.NSamples)
	}
	raw, err := v.RawBytes()
	if err != nil {
		return err
	}
	if _, err := w.w.Write(raw); err != nil {
		return errors.Wrap(err, "bgen: write raw variant")
	}
	w.nVariants++
	return nil
}

// Close rewrites the n_variants header field and closes the underlying
// writer, if Create opened it. Close is idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if _, err := w.w.Seek(w.nVarOffset, io.SeekStart); err != nil {
		return errors.Wrap(err, "bgen: seek to n_variants")
	}
	var buf bytes.Buffer
	bw := binaryWriter{w: &buf}
	bw.writeUint32(w.nVariants)
	if bw.err != nil {
		return bw.err
	}
	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "bgen: rewrite n_variants")
	}

	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
