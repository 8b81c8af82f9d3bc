package seekable_stream_go

import (
	"context"
	"errors"
	"io"
)

// SeekableStreamInterface defines the public API of a seekable stream.
//
// The used region of the stream is split by the seek offset into a stale part
// (already read) and a fresh part (not yet read). Offsets passed to Seek are
// measured from the first stale byte; Clean discards the stale part and makes
// its bytes available to Write again.
//
// Notes on semantics:
//   - Write and WriteZeros append all bytes or none; a request larger than the
//     free space returns ErrNoSpace.
//   - Read and Skip consume all requested fresh bytes or none; a request larger
//     than the fresh part returns ErrNoData.
//   - Seek only repartitions the used region. It never moves data and never
//     frees space.
//   - Zero sized reads and writes succeed without touching any state.
//
// Implementations are not safe for concurrent use; see LockingStream.
type SeekableStreamInterface interface {
	Stat() Stat
	Clean() error
	Read(p []byte, cleanup bool) error
	Skip(n int, cleanup bool) error
	Write(p []byte) error
	WriteZeros(n int) error
	Seek(offset int64, whence Whence) error
	Close() error
}

// LockingStreamInterface is the blocking, mutex guarded counterpart of
// SeekableStreamInterface.
//
// Read, Skip, Write and WriteZeros block until the request can be served;
// Seek and Clean never block. All methods are safe for concurrent use.
type LockingStreamInterface interface {
	Stat() Stat
	Clean() error
	Read(ctx context.Context, p []byte, cleanup bool) error
	Skip(ctx context.Context, n int, cleanup bool) error
	Write(ctx context.Context, p []byte) error
	WriteZeros(ctx context.Context, n int) error
	Seek(offset int64, whence Whence) error
	WaitFresh(ctx context.Context, n int) bool
	Close() error
}

var _ SeekableStreamInterface = &Stream{}
var _ LockingStreamInterface = &LockingStream{}
var _ io.ReadWriteSeeker = &Cursor{}

const (
	// MinCapacity is the smallest capacity honoured by New.
	MinCapacity = 128

	// DefaultCapacity is used when no capacity, or one below MinCapacity, is
	// requested.
	DefaultCapacity = 1024
)

// Whence selects the reference point of Seek.
type Whence int

const (
	// SeekSet seeks relative to the first byte of the used region.
	SeekSet Whence = iota

	// SeekCur seeks relative to the current seek offset.
	SeekCur

	// SeekEnd seeks relative to the end of the used region.
	SeekEnd
)

func (w Whence) String() string {
	switch w {
	case SeekSet:
		return "set"
	case SeekCur:
		return "cur"
	case SeekEnd:
		return "end"
	}
	return "unknown"
}

// Stat is a point in time snapshot of a stream's bookkeeping.
type Stat struct {
	Capacity   int `yaml:"capacity"`
	UsedSize   int `yaml:"used"`
	StaleSize  int `yaml:"stale"`
	FreshSize  int `yaml:"fresh"`
	FreeSize   int `yaml:"free"`
	SeekOffset int `yaml:"seek_offset"`
}

var (
	// ErrNoMemory indicates the backing storage could not be allocated.
	ErrNoMemory = errors.New("seekablestream: cannot allocate backing storage")

	// ErrNoSpace indicates a write larger than the free space.
	ErrNoSpace = errors.New("seekablestream: not enough free space")

	// ErrNoData indicates a read larger than the fresh data.
	ErrNoData = errors.New("seekablestream: not enough fresh data")

	// ErrBadOffset indicates a seek target outside [0, used size].
	ErrBadOffset = errors.New("seekablestream: seek offset out of range")

	// ErrBadWhence is returned by Cursor.Seek for an unknown whence.
	ErrBadWhence = errors.New("seekablestream: invalid whence")

	// ErrClosed is returned by every operation on a closed stream.
	ErrClosed = errors.New("seekablestream: stream is closed")
)
