package seekable_stream_go

import (
	"fmt"
	"io"
)

// Cursor adapts a Stream to io.ReadWriteSeeker.
//
// Unlike Stream.Read, Cursor.Read returns whatever fresh data is available,
// up to len(p), and io.EOF once nothing is left. Writes stay all or nothing.
type Cursor struct {
	stream    *Stream
	autoClean bool
}

// NewCursor wraps stream. With autoClean set, the stale region is cleaned
// after every read, which makes the consumed bytes unreachable by Seek.
func NewCursor(stream *Stream, autoClean bool) *Cursor {
	return &Cursor{stream: stream, autoClean: autoClean}
}

// Read implements io.Reader.
func (c *Cursor) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := c.stream.Stat().FreshSize
	if n == 0 {
		if c.stream.closed {
			return 0, ErrClosed
		}
		return 0, io.EOF
	}
	if n > len(p) {
		n = len(p)
	}

	if err := c.stream.Read(p[:n], c.autoClean); err != nil {
		return 0, err
	}

	return n, nil
}

// Write implements io.Writer.
func (c *Cursor) Write(p []byte) (int, error) {
	if err := c.stream.Write(p); err != nil {
		return 0, err
	}

	return len(p), nil
}

// Seek implements io.Seeker. Offsets are relative to the first stale byte and
// the returned position is the new seek offset.
func (c *Cursor) Seek(offset int64, whence int) (int64, error) {
	var w Whence
	switch whence {
	case io.SeekStart:
		w = SeekSet
	case io.SeekCurrent:
		w = SeekCur
	case io.SeekEnd:
		w = SeekEnd
	default:
		return int64(c.stream.Stat().SeekOffset), fmt.Errorf("%w: %d", ErrBadWhence, whence)
	}

	if err := c.stream.Seek(offset, w); err != nil {
		return int64(c.stream.Stat().SeekOffset), err
	}

	return int64(c.stream.Stat().SeekOffset), nil
}
