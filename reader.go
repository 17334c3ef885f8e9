package bgen

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"v.io/x/lib/vlog"

	"github.com/statgen/bgen/bgi"
	"github.com/statgen/bgen/genotype"
	"github.com/statgen/bgen/probs"
)

// OpenOpts customizes Open/OpenReader/OpenStream.
type OpenOpts struct {
	// SamplePath, if set, names a companion .sample file to read sample
	// identifiers from when the BGEN file itself carries none.
	SamplePath string
	// IndexPath overrides the default "<path>.bgi" companion index
	// location. Ignored by OpenStream.
	IndexPath string
	// NoIndex disables the automatic sibling .bgi lookup that Open
	// performs.
	NoIndex bool
}

// Reader provides sequential and random access to a BGEN file's variants.
// A Reader is not safe for concurrent use.
type Reader struct {
	src     *source
	header  Header
	samples []string

	firstVariantOffset int64
	pos                int64

	index    *bgi.Index
	dropMask []bool

	closed bool
}

// Open opens the BGEN file at path. If opts.NoIndex is false and a
// sibling file at path+".bgi" (or opts.IndexPath) exists, it is opened
// automatically.
func Open(path string, opts OpenOpts) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "bgen: open")
	}
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "bgen: stat")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "bgen: seek")
	}

	r, err := newReader(&source{ra: f, size: size, seekable: true, closer: f}, opts)
	if err != nil {
		f.Close()
		return nil, err
	}

	indexPath := opts.IndexPath
	if indexPath == "" {
		indexPath = path + ".bgi"
	}
	if !opts.NoIndex {
		if _, statErr := os.Stat(indexPath); statErr == nil {
			idx, idxErr := bgi.Open(indexPath)
			if idxErr != nil {
				vlog.Errorf("bgen: found sibling index %s but failed to open it: %v", indexPath, idxErr)
			} else {
				r.index = idx
			}
		}
	}
	return r, nil
}

// OpenReader opens a BGEN source over an io.ReaderAt of known size,
// enabling random access without a filesystem path (e.g. an in-memory
// buffer, or a handle with its own lifecycle).
func OpenReader(ra io.ReaderAt, size int64, opts OpenOpts) (*Reader, error) {
	return newReader(&source{ra: ra, size: size, seekable: true}, opts)
}

// OpenStream opens a BGEN source over a forward-only io.Reader. Random
// access is unavailable and returns ErrNotSeekable; no index is opened, so
// index-backed lookups return ErrNoIndex. Sequential iteration via Next
// works normally.
func OpenStream(r io.Reader, opts OpenOpts) (*Reader, error) {
	return newReader(&source{stream: bufio.NewReader(r), seekable: false, closer: readCloser(r)}, opts)
}

func readCloser(r io.Reader) io.Closer {
	if c, ok := r.(io.Closer); ok {
		return c
	}
	return nil
}

func newReader(src *source, opts OpenOpts) (*Reader, error) {
	r := &Reader{src: src}

	var headerSrc io.Reader
	if src.seekable {
		headerSrc = src.at(0)
	} else {
		headerSrc = src.stream
	}

	h, err := readHeader(headerSrc)
	if err != nil {
		src.close()
		return nil, err
	}
	r.header = h
	r.pos = 4 + int64(h.HeaderLength)

	if h.HasSampleIDs {
		samples, err := readSamplesBlock(headerSrc, h.NSamples)
		if err != nil {
			src.close()
			return nil, err
		}
		if blockLen := samplesBlockLength(samples); h.HeaderLength+blockLen != h.OffsetToFirstVariant {
			src.close()
			return nil, errors.Errorf("bgen: samples block length %d does not match offset_to_first_variant %d minus header_length %d", blockLen, h.OffsetToFirstVariant, h.HeaderLength)
		}
		r.samples = samples
		r.pos += int64(samplesBlockLength(samples))
	} else if opts.SamplePath != "" {
		sf, err := os.Open(opts.SamplePath)
		if err != nil {
			src.close()
			return nil, errors.Wrap(err, "bgen: open sample file")
		}
		defer sf.Close()
		samples, err := readSampleIDFile(sf, h.NSamples)
		if err != nil {
			src.close()
			return nil, err
		}
		r.samples = samples
	} else {
		r.samples = defaultSampleIDs(h.NSamples)
	}

	r.firstVariantOffset = 4 + int64(h.OffsetToFirstVariant)
	r.seekTo(r.firstVariantOffset)
	return r, nil
}

func (r *Reader) seekTo(offset int64) {
	r.pos = offset
}

// Samples returns the reader's sample identifiers, in file order.
func (r *Reader) Samples() []string {
	out := make([]string, len(r.samples))
	copy(out, r.samples)
	return out
}

// Header returns a copy of the file's parsed header.
func (r *Reader) Header() Header {
	h := r.header
	h.Metadata = append([]byte(nil), r.header.Metadata...)
	return h
}

// Len returns the header's declared variant count.
func (r *Reader) Len() uint32 { return r.header.NVariants }

// DropSamples marks samples as masked; mask must have one entry per
// sample. Subsequent Variant.Probabilities calls return a matrix
// containing only the unmasked rows, in their original relative order.
func (r *Reader) DropSamples(mask []bool) error {
	if len(mask) != len(r.samples) {
		return errors.Errorf("bgen: drop mask has %d entries, reader has %d samples", len(mask), len(r.samples))
	}
	r.dropMask = append([]bool(nil), mask...)
	return nil
}

// ResetCursor repositions sequential iteration to the first variant. It
// requires a seekable source, since a streamed source cannot rewind.
func (r *Reader) ResetCursor() error {
	if !r.src.seekable {
		return ErrNotSeekable
	}
	r.seekTo(r.firstVariantOffset)
	return nil
}

// Next reads and returns the next variant from the current cursor
// position, advancing the cursor past it. It returns (nil, false, nil)
// at end of file.
func (r *Reader) Next() (*Variant, bool, error) {
	if r.closed {
		return nil, false, ErrReaderClosed
	}
	var cur *bufio.Reader
	if r.src.seekable {
		cur = r.src.at(r.pos)
	} else {
		cur = r.src.stream
	}
	return r.parseVariant(cur, r.pos, true)
}

// AtOffset performs random access to the variant whose descriptor begins
// at the given absolute file offset. It requires a seekable source.
func (r *Reader) AtOffset(offset uint64) (*Variant, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}
	if !r.src.seekable {
		return nil, ErrNotSeekable
	}
	v, ok, err := r.parseVariant(r.src.at(int64(offset)), int64(offset), true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrap(ErrTruncated, "bgen: offset has no variant")
	}
	return v, nil
}

// WithRSID performs an index-backed lookup by exact rsid match.
func (r *Reader) WithRSID(rsid string) (*Variant, error) {
	if r.index == nil {
		return nil, ErrNoIndex
	}
	off, err := r.index.ByRSID(rsid)
	if err != nil {
		return nil, translateIndexErr(err)
	}
	return r.AtOffset(off)
}

// AtPosition performs an index-backed lookup by exact position match.
func (r *Reader) AtPosition(pos uint32) (*Variant, error) {
	if r.index == nil {
		return nil, ErrNoIndex
	}
	off, err := r.index.ByPosition(pos)
	if err != nil {
		return nil, translateIndexErr(err)
	}
	return r.AtOffset(off)
}

// Fetch performs an index-backed range scan over chromosome and the
// optional inclusive [start, stop] position bounds, returning matching
// variants in index order.
func (r *Reader) Fetch(chrom string, start, stop *uint32) ([]*Variant, error) {
	if r.index == nil {
		return nil, ErrNoIndex
	}
	recs, err := r.index.Range(chrom, start, stop)
	if err != nil {
		return nil, errors.Wrap(err, "bgen: fetch")
	}
	out := make([]*Variant, 0, len(recs))
	for _, rec := range recs {
		v, err := r.AtOffset(rec.FileStartPosition)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func translateIndexErr(err error) error {
	switch errors.Cause(err) {
	case bgi.ErrNotFound:
		return ErrNotFound
	case bgi.ErrAmbiguous:
		return ErrAmbiguous
	default:
		return err
	}
}

// parseVariant parses one variant record from cur, which must be
// positioned at offset (a real file offset for a seekable source, or a
// purely bookkeeping stream position otherwise). When advance is true,
// the reader's persistent cursor is repositioned past the record; for a
// seekable source that lets AtOffset-driven reads double as a new
// iteration start point, since a subsequent Next naturally continues
// from wherever random access last landed.
func (r *Reader) parseVariant(cur *bufio.Reader, offset int64, advance bool) (*Variant, bool, error) {
	if _, err := cur.Peek(1); err != nil {
		if err == io.EOF {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "bgen: peek next variant")
	}

	desc, err := readDescriptor(cur, r.header.Layout, r.header.NSamples)
	if err != nil {
		return nil, false, err
	}
	descLen := descriptorLength(desc, r.header.Layout)

	uncompressedLen, payload, err := readGenotypeBlockRaw(cur, r.header)
	if err != nil {
		return nil, false, err
	}
	blockLen := genotypeBlockByteLen(r.header, len(payload))

	next := offset + int64(descLen) + int64(blockLen)
	v := &Variant{
		VarID:             desc.VarID,
		RSID:              desc.RSID,
		Chrom:             desc.Chrom,
		Position:          desc.Position,
		Alleles:           desc.Alleles,
		FileOffset:        uint64(offset),
		NextVariantOffset: uint64(next),
		reader:            r,
		header:            r.header,
		rawPayload:        payload,
		uncompressedLen:   uncompressedLen,
	}

	if advance {
		r.seekTo(next)
	}
	return v, true, nil
}

// Close releases the underlying source and companion index, if any.
// Variants already returned remain usable for their materialised fields.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	if r.index != nil {
		if e := r.index.Close(); e != nil {
			err = e
		}
	}
	if e := r.src.close(); e != nil && err == nil {
		err = e
	}
	return err
}

// Variant describes one variant record: its identifying descriptor, its
// file location, and (lazily) its decoded probability matrix.
type Variant struct {
	VarID, RSID, Chrom string
	Position           uint32
	Alleles            [][]byte

	FileOffset        uint64
	NextVariantOffset uint64

	// Ploidy, Phased and BitDepth are populated by the first call to
	// Probabilities, since layout 1 records carry no explicit ploidy or
	// bit depth (they are implied: ploidy 2, unphased, bit depth 16).
	Ploidy   []uint8
	Phased   bool
	BitDepth uint8

	reader          *Reader
	header          Header
	rawPayload      []byte
	uncompressedLen uint32

	cached *probs.Matrix
}

// Probabilities returns the n_samples x width probability matrix for
// this variant, decoding it on first access and caching the result.
// After the owning Reader is closed, the first call fails with
// ErrReaderClosed; a previously cached matrix remains readable.
func (v *Variant) Probabilities() (probs.Matrix, error) {
	if v.cached != nil {
		return *v.cached, nil
	}
	if v.reader == nil || v.reader.closed {
		return probs.Matrix{}, ErrReaderClosed
	}

	inner, err := decodeGenotypeBlockPayload(v.header, v.uncompressedLen, v.rawPayload)
	if err != nil {
		return probs.Matrix{}, err
	}

	var m probs.Matrix
	if v.header.Layout == Layout1 {
		m, err = genotype.DecodeLayout1(inner, int(v.header.NSamples))
		if err != nil {
			return probs.Matrix{}, err
		}
		v.Ploidy = constantPloidy(int(v.header.NSamples), 2)
		v.Phased = false
		v.BitDepth = 16
	} else {
		if len(inner) >= 4 {
			if n := binary.LittleEndian.Uint32(inner); n != v.header.NSamples {
				return probs.Matrix{}, errors.Wrapf(ErrSampleCountMismatch, "genotype block declares %d samples, header declares %d", n, v.header.NSamples)
			}
		}
		var lh genotype.Layout2Header
		lh, m, err = genotype.DecodeLayout2(inner, v.header.NSamples)
		if err != nil {
			return probs.Matrix{}, err
		}
		v.Ploidy = lh.Ploidy
		v.Phased = lh.Phased
		v.BitDepth = lh.BitDepth
	}

	if v.reader.dropMask != nil {
		m = applyDropMask(m, v.reader.dropMask)
	}

	v.cached = &m
	return m, nil
}

// AltDosage returns the per-sample alt-allele dosage derived from this
// variant's probability matrix.
func (v *Variant) AltDosage() ([]float64, error) {
	m, err := v.Probabilities()
	if err != nil {
		return nil, err
	}
	return AltDosage(m, v.Ploidy, v.Phased), nil
}

// MinorAlleleDosage returns the per-sample minor-allele dosage derived
// from this variant's probability matrix.
func (v *Variant) MinorAlleleDosage() ([]float64, error) {
	m, err := v.Probabilities()
	if err != nil {
		return nil, err
	}
	return MinorAlleleDosage(m), nil
}

// RawBytes returns the exact on-disk bytes spanning [FileOffset,
// NextVariantOffset) for this variant, for lossless copy-through by
// Writer.AddVariantDirect. It requires the owning reader to still be
// open.
func (v *Variant) RawBytes() ([]byte, error) {
	if v.reader == nil || v.reader.closed {
		return nil, ErrReaderClosed
	}
	if !v.reader.src.seekable {
		return nil, ErrNotSeekable
	}
	n := int(v.NextVariantOffset - v.FileOffset)
	buf := make([]byte, n)
	sr := io.NewSectionReader(v.reader.src.ra, int64(v.FileOffset), int64(n))
	if _, err := io.ReadFull(sr, buf); err != nil {
		return nil, errors.Wrap(err, "bgen: read raw variant bytes")
	}
	return buf, nil
}

func constantPloidy(n, p int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = uint8(p)
	}
	return out
}

func applyDropMask(m probs.Matrix, mask []bool) probs.Matrix {
	kept := 0
	for _, drop := range mask {
		if !drop {
			kept++
		}
	}
	out := probs.NewMatrix(kept, m.Width)
	row := 0
	for i := 0; i < m.NSamples; i++ {
		if mask[i] {
			continue
		}
		if m.RowIsMissing(i) {
			row++
			continue
		}
		copy(out.Row(row), m.Row(i))
		row++
	}
	return out
}

