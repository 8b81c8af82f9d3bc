package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sstm "github.com/sushydev/seekable_stream_go"
)

func TestCollector(t *testing.T) {
	stream, err := sstm.New(nil)
	require.NoError(t, err)
	require.NoError(t, stream.Write(make([]byte, 100)))
	require.NoError(t, stream.Skip(40, false))

	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(NewCollector("decoder", stream)))

	expected := `
# HELP seekable_stream_capacity_bytes Usable size of the stream in bytes
# TYPE seekable_stream_capacity_bytes gauge
seekable_stream_capacity_bytes{stream="decoder"} 1024
# HELP seekable_stream_fresh_bytes Bytes written but not yet read
# TYPE seekable_stream_fresh_bytes gauge
seekable_stream_fresh_bytes{stream="decoder"} 60
# HELP seekable_stream_free_bytes Bytes available for writing
# TYPE seekable_stream_free_bytes gauge
seekable_stream_free_bytes{stream="decoder"} 924
# HELP seekable_stream_seek_offset_bytes Current read position relative to the first stale byte
# TYPE seekable_stream_seek_offset_bytes gauge
seekable_stream_seek_offset_bytes{stream="decoder"} 40
# HELP seekable_stream_stale_bytes Bytes already read but not yet cleaned
# TYPE seekable_stream_stale_bytes gauge
seekable_stream_stale_bytes{stream="decoder"} 40
# HELP seekable_stream_used_bytes Bytes held by the stream, stale and fresh
# TYPE seekable_stream_used_bytes gauge
seekable_stream_used_bytes{stream="decoder"} 100
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected)))

	require.NoError(t, stream.Clean())
	expected = `
# HELP seekable_stream_used_bytes Bytes held by the stream, stale and fresh
# TYPE seekable_stream_used_bytes gauge
seekable_stream_used_bytes{stream="decoder"} 60
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "seekable_stream_used_bytes"))
}

func TestCollectorLockingStream(t *testing.T) {
	ls, err := sstm.NewLockingStream(&sstm.Config{Capacity: 256})
	require.NoError(t, err)
	defer ls.Close()

	c := NewCollector("locked", ls)
	assert.Equal(t, 6, testutil.CollectAndCount(c))

	require.NoError(t, ls.Write(context.Background(), []byte("abc")))
	expected := `
# HELP seekable_stream_fresh_bytes Bytes written but not yet read
# TYPE seekable_stream_fresh_bytes gauge
seekable_stream_fresh_bytes{stream="locked"} 3
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "seekable_stream_fresh_bytes"))
}

func TestRegisterTwiceWithSameName(t *testing.T) {
	stream, err := sstm.New(nil)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(NewCollector("a", stream)))
	require.NoError(t, registry.Register(NewCollector("b", stream)))

	err = registry.Register(NewCollector("a", stream))
	var already prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &already)
}
