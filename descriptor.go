package bgen

import (
	"io"

	"github.com/pkg/errors"
)

// Descriptor is the textual identification that precedes every variant's
// genotype block: identifier, chromosome, position, and allele sequences.
type Descriptor struct {
	VarID    string
	RSID     string
	Chrom    string
	Position uint32
	Alleles  [][]byte
}

// readDescriptor parses a variant descriptor. In layout 1 the record opens
// with a redundant sample count that must match the header, and the allele
// count is implicitly 2; in layout 2 the allele count is explicit.
func readDescriptor(r io.Reader, layout Layout, headerNSamples uint32) (Descriptor, error) {
	br := binaryReader{r: r}

	if layout == Layout1 {
		n := br.readUint32()
		if br.err != nil {
			return Descriptor{}, errors.Wrap(br.err, "bgen: read descriptor sample count")
		}
		if n != headerNSamples {
			return Descriptor{}, errors.Wrapf(ErrSampleCountMismatch, "descriptor declares %d samples, header declares %d", n, headerNSamples)
		}
	}

	d := Descriptor{
		VarID: br.readString16(),
		RSID:  br.readString16(),
		Chrom: br.readString16(),
	}
	d.Position = br.readUint32()
	if br.err != nil {
		return Descriptor{}, errors.Wrap(br.err, "bgen: read descriptor fields")
	}

	nAlleles := 2
	if layout == Layout2 {
		nAlleles = int(br.readUint16())
		if br.err != nil {
			return Descriptor{}, errors.Wrap(br.err, "bgen: read descriptor allele count")
		}
		if nAlleles < 1 {
			return Descriptor{}, errors.Errorf("bgen: descriptor declares %d alleles", nAlleles)
		}
	}

	d.Alleles = make([][]byte, nAlleles)
	for i := range d.Alleles {
		d.Alleles[i] = br.readString32()
		if br.err != nil {
			return Descriptor{}, errors.Wrapf(br.err, "bgen: read allele %d", i)
		}
	}
	return d, nil
}

// descriptorLength returns the number of bytes writeDescriptor would emit
// for d under the given layout, without writing anything.
func descriptorLength(d Descriptor, layout Layout) int {
	n := 0
	if layout == Layout1 {
		n += 4
	}
	n += 2 + len(d.VarID)
	n += 2 + len(d.RSID)
	n += 2 + len(d.Chrom)
	n += 4 // position
	if layout == Layout2 {
		n += 2 // n_alleles
	}
	for _, a := range d.Alleles {
		n += 4 + len(a)
	}
	return n
}

// writeDescriptor emits d's on-disk representation for the given layout.
func writeDescriptor(w io.Writer, d Descriptor, layout Layout, headerNSamples uint32) error {
	if layout == Layout1 && len(d.Alleles) != 2 {
		return errors.Errorf("bgen: layout 1 requires exactly 2 alleles, got %d", len(d.Alleles))
	}

	bw := binaryWriter{w: w}
	if layout == Layout1 {
		bw.writeUint32(headerNSamples)
	}
	bw.writeString16(d.VarID)
	bw.writeString16(d.RSID)
	bw.writeString16(d.Chrom)
	bw.writeUint32(d.Position)
	if layout == Layout2 {
		bw.writeUint16(uint16(len(d.Alleles)))
	}
	for _, a := range d.Alleles {
		bw.writeString32(a)
	}
	return bw.err
}
