package seekable_stream_go

import (
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"
)

// Stream is a fixed capacity seekable byte stream backed by a ring buffer.
//
// Layout of the backing storage:
//
//	┌──────┬─────────┬─────────┬──────┬────────┐
//	│ free │  stale  │  fresh  │ free │ unused │
//	└──────┴─────────┴─────────┴──────┴────────┘
//	       ^head     ^head+seekOffset ^tail
//
// The storage is one byte larger than the capacity, rounded up to a multiple
// of 8, so that a full ring never has head == tail.
type Stream struct {
	capacity  int
	allocSize int

	usedSize  int
	staleSize int
	freshSize int
	freeSize  int

	data []byte

	headIndex  int
	tailIndex  int
	seekOffset int

	closed bool
	logger *zap.Logger
}

// Calculates capacity + 1 rounded up to the next multiple of 8.
func allocationSize(capacity int) (int, bool) {
	if capacity < 0 || capacity > math.MaxInt-8 {
		return 0, false
	}

	return ((capacity >> 3) + 1) << 3, true
}

func allocate(size int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, ErrNoMemory
		}
	}()

	return make([]byte, size), nil
}

// New creates an empty stream. A nil conf selects DefaultCapacity.
func New(conf *Config, opts ...Option) (*Stream, error) {
	o := newOptions(opts)

	capacity := conf.capacity()
	if conf != nil && int(conf.Capacity) != capacity {
		o.logger.Debug("using default capacity",
			zap.Int("requested", int(conf.Capacity)),
			zap.Int("minimum", MinCapacity),
			zap.Int("capacity", capacity))
	}

	allocSize, ok := allocationSize(capacity)
	if !ok {
		o.logger.Debug("capacity too large", zap.Int("capacity", capacity))
		return nil, ErrNoMemory
	}

	data, err := allocate(allocSize)
	if err != nil {
		o.logger.Debug("allocation failed", zap.Int("size", allocSize), zap.Error(err))
		return nil, err
	}

	return &Stream{
		capacity:  capacity,
		allocSize: allocSize,
		freeSize:  capacity,
		data:      data,
		logger:    o.logger,
	}, nil
}

// Close releases the backing storage. Subsequent operations return ErrClosed.
func (stream *Stream) Close() error {
	stream.closed = true
	stream.data = nil

	return nil
}

// Stat returns a snapshot of the stream's bookkeeping. A closed stream reports
// a zero Stat.
func (stream *Stream) Stat() Stat {
	if stream.closed {
		return Stat{}
	}

	return Stat{
		Capacity:   stream.capacity,
		UsedSize:   stream.usedSize,
		StaleSize:  stream.staleSize,
		FreshSize:  stream.freshSize,
		FreeSize:   stream.freeSize,
		SeekOffset: stream.seekOffset,
	}
}

// Clean discards the stale region and returns its bytes to the free space.
func (stream *Stream) Clean() error {
	if stream.closed {
		return ErrClosed
	}

	stream.clean()

	return nil
}

func (stream *Stream) clean() {
	staleSize := stream.staleSize
	if staleSize == 0 {
		return
	}

	stream.headIndex = (stream.headIndex + staleSize) % stream.allocSize

	stream.usedSize -= staleSize
	stream.staleSize = 0
	stream.freeSize += staleSize
	stream.seekOffset = 0
}

// Read copies len(p) fresh bytes into p and advances the seek offset. If
// cleanup is set the stale region is cleaned afterwards.
func (stream *Stream) Read(p []byte, cleanup bool) error {
	return stream.read(p, len(p), cleanup)
}

// Skip advances the seek offset over n fresh bytes without copying them.
func (stream *Stream) Skip(n int, cleanup bool) error {
	if n < 0 {
		panic(fmt.Sprintf("seekablestream: negative skip size %d", n))
	}

	return stream.read(nil, n, cleanup)
}

// A nil p skips the bytes.
func (stream *Stream) read(p []byte, size int, cleanup bool) error {
	if stream.closed {
		return ErrClosed
	}

	if size == 0 {
		return nil
	}

	if stream.freshSize < size {
		stream.logger.Debug("read rejected",
			zap.Int("size", size),
			zap.Int("fresh", stream.freshSize),
			zap.Error(ErrNoData))
		return ErrNoData
	}

	if p != nil {
		start := (stream.headIndex + stream.seekOffset) % stream.allocSize

		if stream.allocSize-start >= size {
			copy(p, stream.data[start:start+size])
		} else {
			firstPart := copy(p, stream.data[start:])
			copy(p[firstPart:size], stream.data[:size-firstPart])
		}
	}

	stream.seekOffset += size
	stream.staleSize += size
	stream.freshSize -= size

	if cleanup {
		stream.clean()
	}

	return nil
}

// Write appends p to the stream. Either all of p is written or, when the free
// space is too small, nothing is and ErrNoSpace is returned.
func (stream *Stream) Write(p []byte) error {
	return stream.write(p, len(p))
}

// WriteZeros appends n zero bytes.
func (stream *Stream) WriteZeros(n int) error {
	if n < 0 {
		panic(fmt.Sprintf("seekablestream: negative write size %d", n))
	}

	return stream.write(nil, n)
}

// A nil p writes zeros.
func (stream *Stream) write(p []byte, size int) error {
	if stream.closed {
		return ErrClosed
	}

	if size == 0 {
		return nil
	}

	if stream.freeSize < size {
		stream.logger.Debug("write rejected",
			zap.Int("size", size),
			zap.Int("free", stream.freeSize),
			zap.Error(ErrNoSpace))
		return ErrNoSpace
	}

	tail := stream.tailIndex
	if stream.allocSize-tail >= size {
		if p != nil {
			copy(stream.data[tail:tail+size], p)
		} else {
			clear(stream.data[tail : tail+size])
		}
		stream.tailIndex = (tail + size) % stream.allocSize
	} else {
		firstPart := stream.allocSize - tail
		secondPart := size - firstPart

		if p != nil {
			copy(stream.data[tail:], p[:firstPart])
			copy(stream.data[:secondPart], p[firstPart:])
		} else {
			clear(stream.data[tail:])
			clear(stream.data[:secondPart])
		}
		stream.tailIndex = secondPart
	}

	stream.commit(size)

	return nil
}

// commit accounts size bytes that were just placed at the tail.
func (stream *Stream) commit(size int) {
	stream.usedSize += size
	stream.freshSize += size
	stream.freeSize -= size
}

// Fill reads from r directly into the free region of the stream and returns
// the number of bytes added. It stops after the free space is exhausted or
// after the first short read. Errors from r, including io.EOF, are returned
// as is together with the bytes accepted before them.
//
// Fill returns ErrNoSpace if the stream has no free space.
func (stream *Stream) Fill(r io.Reader) (int, error) {
	if stream.closed {
		return 0, ErrClosed
	}

	if stream.freeSize == 0 {
		return 0, ErrNoSpace
	}

	total := 0
	for stream.freeSize > 0 {
		start := stream.tailIndex
		end := start + stream.freeSize
		if end > stream.allocSize {
			end = stream.allocSize
		}

		n, err := r.Read(stream.data[start:end])
		if n < 0 || n > end-start {
			return total, fmt.Errorf("seekablestream: invalid read count %d", n)
		}

		stream.tailIndex = (start + n) % stream.allocSize
		stream.commit(n)
		total += n

		if err != nil {
			return total, err
		}
		if n < end-start {
			break
		}
	}

	return total, nil
}

// Seek moves the seek offset. The target must lie within [0, used size];
// otherwise ErrBadOffset is returned and nothing changes.
func (stream *Stream) Seek(offset int64, whence Whence) error {
	if stream.closed {
		return ErrClosed
	}

	var base int64
	switch whence {
	case SeekSet:
		base = 0
	case SeekCur:
		base = int64(stream.seekOffset)
	case SeekEnd:
		base = int64(stream.usedSize)
	default:
		panic(fmt.Sprintf("seekablestream: invalid whence %d", int(whence)))
	}

	// base is never negative, so only positive offsets can overflow.
	if offset > 0 && base > math.MaxInt64-offset {
		return stream.rejectSeek(offset, whence)
	}

	target := base + offset
	if target < 0 || target > int64(stream.usedSize) {
		return stream.rejectSeek(offset, whence)
	}

	if int(target) == stream.seekOffset {
		return nil
	}

	stream.seekOffset = int(target)
	stream.staleSize = int(target)
	stream.freshSize = stream.usedSize - stream.staleSize

	return nil
}

func (stream *Stream) rejectSeek(offset int64, whence Whence) error {
	stream.logger.Debug("seek rejected",
		zap.Int64("offset", offset),
		zap.Stringer("whence", whence),
		zap.Int("used", stream.usedSize),
		zap.Error(ErrBadOffset))

	return ErrBadOffset
}
