package bgen

import (
	"bufio"
	"io"
)

// source abstracts over a seekable (io.ReaderAt-backed) or a forward-only
// streaming byte source, so Reader can offer random access when the
// underlying data supports it and degrade gracefully (ErrNotSeekable on
// offset-based operations) when it doesn't.
type source struct {
	ra       io.ReaderAt
	size     int64
	seekable bool
	stream   *bufio.Reader // set instead of ra when !seekable
	closer   io.Closer
}

// at returns a buffered reader over the source starting at the given
// absolute byte offset. Only valid for seekable sources.
func (s *source) at(offset int64) *bufio.Reader {
	return bufio.NewReader(io.NewSectionReader(s.ra, offset, s.size-offset))
}

func (s *source) close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
