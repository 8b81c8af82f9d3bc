package seekable_stream_go

import (
	"context"
	"sync"
	"sync/atomic"
)

// LockingStream serializes access to a Stream with a mutex and lets readers
// and writers block until enough fresh data or free space is available.
type LockingStream struct {
	stream *Stream
	mu     sync.Mutex

	// changed is closed and replaced on every state change.
	changed chan struct{}

	closed atomic.Bool
}

// NewLockingStream creates a stream guarded by a mutex.
func NewLockingStream(conf *Config, opts ...Option) (*LockingStream, error) {
	stream, err := New(conf, opts...)
	if err != nil {
		return nil, err
	}

	return &LockingStream{
		stream:  stream,
		changed: make(chan struct{}),
	}, nil
}

// Must be called with mu held.
func (ls *LockingStream) broadcast() {
	close(ls.changed)
	ls.changed = make(chan struct{})
}

// acquire blocks until ready reports true and returns with mu held. On error
// mu is not held.
func (ls *LockingStream) acquire(ctx context.Context, ready func(Stat) bool) error {
	for {
		ls.mu.Lock()

		if ls.closed.Load() {
			ls.mu.Unlock()
			return ErrClosed
		}

		if ready(ls.stream.Stat()) {
			return nil
		}

		changed := ls.changed
		ls.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// Stat returns a snapshot of the stream's bookkeeping.
func (ls *LockingStream) Stat() Stat {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	return ls.stream.Stat()
}

// Write blocks until len(p) bytes are free, then appends p. Requests larger
// than the capacity fail immediately with ErrNoSpace.
func (ls *LockingStream) Write(ctx context.Context, p []byte) error {
	return ls.write(ctx, len(p), func() error {
		return ls.stream.Write(p)
	})
}

// WriteZeros blocks until n bytes are free, then appends n zero bytes.
func (ls *LockingStream) WriteZeros(ctx context.Context, n int) error {
	return ls.write(ctx, n, func() error {
		return ls.stream.WriteZeros(n)
	})
}

func (ls *LockingStream) write(ctx context.Context, size int, do func() error) error {
	if size > ls.stream.capacity {
		return ErrNoSpace
	}

	err := ls.acquire(ctx, func(stat Stat) bool {
		return stat.FreeSize >= size
	})
	if err != nil {
		return err
	}
	defer ls.mu.Unlock()

	if err := do(); err != nil {
		return err
	}
	if size > 0 {
		ls.broadcast()
	}

	return nil
}

// Read blocks until len(p) fresh bytes are available, then reads them.
// Requests larger than the capacity fail immediately with ErrNoData.
func (ls *LockingStream) Read(ctx context.Context, p []byte, cleanup bool) error {
	return ls.read(ctx, len(p), func() error {
		return ls.stream.Read(p, cleanup)
	})
}

// Skip blocks until n fresh bytes are available, then moves past them.
func (ls *LockingStream) Skip(ctx context.Context, n int, cleanup bool) error {
	return ls.read(ctx, n, func() error {
		return ls.stream.Skip(n, cleanup)
	})
}

func (ls *LockingStream) read(ctx context.Context, size int, do func() error) error {
	if size > ls.stream.capacity {
		return ErrNoData
	}

	err := ls.acquire(ctx, func(stat Stat) bool {
		return stat.FreshSize >= size
	})
	if err != nil {
		return err
	}
	defer ls.mu.Unlock()

	if err := do(); err != nil {
		return err
	}
	if size > 0 {
		ls.broadcast()
	}

	return nil
}

// Seek moves the seek offset without blocking.
func (ls *LockingStream) Seek(offset int64, whence Whence) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.stream.Seek(offset, whence); err != nil {
		return err
	}
	ls.broadcast()

	return nil
}

// Clean discards the stale region and wakes blocked writers.
func (ls *LockingStream) Clean() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.stream.Clean(); err != nil {
		return err
	}
	ls.broadcast()

	return nil
}

// WaitFresh waits until at least n fresh bytes are available. It returns false
// if ctx is done, the stream is closed, or n exceeds the capacity.
func (ls *LockingStream) WaitFresh(ctx context.Context, n int) bool {
	if n > ls.stream.capacity {
		return false
	}

	err := ls.acquire(ctx, func(stat Stat) bool {
		return stat.FreshSize >= n
	})
	if err != nil {
		return false
	}
	ls.mu.Unlock()

	return true
}

// Close releases the stream and wakes every blocked caller.
func (ls *LockingStream) Close() error {
	ls.closed.Store(true)

	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.broadcast()

	return ls.stream.Close()
}
