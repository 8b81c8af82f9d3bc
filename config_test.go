package seekable_stream_go

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseByteSize(t *testing.T) {
	tab := []struct {
		in   string
		want ByteSize
	}{
		{"1024", 1024},
		{"4KiB", 4096},
		{"2 kB", 2000},
		{"1MiB", 1 << 20},
	}

	for _, tc := range tab {
		got, err := ParseByteSize(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseByteSize("lots")
	assert.Error(t, err)
}

func TestConfigYAML(t *testing.T) {
	t.Run("Integer And Humanized", func(t *testing.T) {
		var conf Config
		require.NoError(t, yaml.Unmarshal([]byte("capacity: 2048\n"), &conf))
		assert.Equal(t, ByteSize(2048), conf.Capacity)

		require.NoError(t, yaml.Unmarshal([]byte("capacity: 8KiB\n"), &conf))
		assert.Equal(t, ByteSize(8192), conf.Capacity)
	})

	t.Run("Invalid", func(t *testing.T) {
		var conf Config
		assert.Error(t, yaml.Unmarshal([]byte("capacity: plenty\n"), &conf))
		assert.Error(t, yaml.Unmarshal([]byte("capacity: [1, 2]\n"), &conf))
	})

	t.Run("Round Trip", func(t *testing.T) {
		out, err := yaml.Marshal(&Config{Capacity: 4096})
		require.NoError(t, err)
		assert.Equal(t, "capacity: 4096\n", string(out))
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capacity: 4KiB\n"), 0600))

	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4096, conf.capacity())

	stream, err := New(conf)
	require.NoError(t, err)
	assert.Equal(t, 4096, stream.Stat().Capacity)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigCapacity(t *testing.T) {
	var conf *Config
	assert.Equal(t, DefaultCapacity, conf.capacity())
	assert.Equal(t, DefaultCapacity, (&Config{}).capacity())
	assert.Equal(t, DefaultCapacity, (&Config{Capacity: MinCapacity - 1}).capacity())
	assert.Equal(t, MinCapacity, (&Config{Capacity: MinCapacity}).capacity())
	assert.Equal(t, "4.0 KiB", ByteSize(4096).String())
}
