package bgen

import (
	"encoding/binary"
	"io"
)

// binaryWriter accumulates little-endian field writes to w, latching the
// first error encountered so call sites can chain writes without checking
// each one individually.
type binaryWriter struct {
	w   io.Writer
	buf [4]byte
	n   int64
	err error
}

func (bw *binaryWriter) write(p []byte) {
	if bw.err != nil {
		return
	}
	n, err := bw.w.Write(p)
	bw.n += int64(n)
	bw.err = err
}

func (bw *binaryWriter) writeUint8(v uint8) {
	bw.buf[0] = v
	bw.write(bw.buf[:1])
}

func (bw *binaryWriter) writeUint16(v uint16) {
	binary.LittleEndian.PutUint16(bw.buf[:2], v)
	bw.write(bw.buf[:2])
}

func (bw *binaryWriter) writeUint32(v uint32) {
	binary.LittleEndian.PutUint32(bw.buf[:4], v)
	bw.write(bw.buf[:4])
}

// writeString16 writes a uint16-length-prefixed UTF-8 string.
func (bw *binaryWriter) writeString16(s string) {
	bw.writeUint16(uint16(len(s)))
	bw.write([]byte(s))
}

// writeString32 writes a uint32-length-prefixed byte string.
func (bw *binaryWriter) writeString32(s []byte) {
	bw.writeUint32(uint32(len(s)))
	bw.write(s)
}

// binaryReader is the read-side counterpart of binaryWriter: it reads
// little-endian fields from r and latches the first error.
type binaryReader struct {
	r   io.Reader
	buf [4]byte
	err error
}

func (br *binaryReader) readN(n int) []byte {
	if br.err != nil {
		return nil
	}
	p := make([]byte, n)
	br.err = readFull(br.r, p)
	return p
}

func (br *binaryReader) readUint8() uint8 {
	if br.err != nil {
		return 0
	}
	br.err = readFull(br.r, br.buf[:1])
	return br.buf[0]
}

func (br *binaryReader) readUint16() uint16 {
	if br.err != nil {
		return 0
	}
	br.err = readFull(br.r, br.buf[:2])
	return binary.LittleEndian.Uint16(br.buf[:2])
}

func (br *binaryReader) readUint32() uint32 {
	if br.err != nil {
		return 0
	}
	br.err = readFull(br.r, br.buf[:4])
	return binary.LittleEndian.Uint32(br.buf[:4])
}

// readString16 reads a uint16-length-prefixed UTF-8 string.
func (br *binaryReader) readString16() string {
	n := br.readUint16()
	return string(br.readN(int(n)))
}

// readString32 reads a uint32-length-prefixed byte string.
func (br *binaryReader) readString32() []byte {
	n := br.readUint32()
	return br.readN(int(n))
}
