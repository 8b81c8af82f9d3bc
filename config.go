package seekable_stream_go

import (
	"fmt"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config configures a new stream. A nil *Config is valid and selects
// DefaultCapacity.
type Config struct {
	// Capacity is the number of usable bytes. Values below MinCapacity fall
	// back to DefaultCapacity.
	Capacity ByteSize `yaml:"capacity"`
}

// ByteSize is a size in bytes that can be written either as an integer or as
// a human readable string such as "4KiB" or "2 kB".
type ByteSize int

// ParseByteSize parses an integer or humanized byte size.
func ParseByteSize(s string) (ByteSize, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	if n > math.MaxInt {
		return 0, fmt.Errorf("byte size %q out of range", s)
	}
	return ByteSize(n), nil
}

func (b ByteSize) String() string {
	if b < 0 {
		return fmt.Sprintf("%d B", int(b))
	}
	return humanize.IBytes(uint64(b))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: byte size must be a scalar", value.Line)
	}

	var n int
	if err := value.Decode(&n); err == nil {
		*b = ByteSize(n)
		return nil
	}

	parsed, err := ParseByteSize(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*b = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (b ByteSize) MarshalYAML() (interface{}, error) {
	return int(b), nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var conf Config
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &conf, nil
}

// capacity resolves the effective capacity.
func (conf *Config) capacity() int {
	if conf == nil || conf.Capacity < MinCapacity {
		return DefaultCapacity
	}
	return int(conf.Capacity)
}

// Option configures optional behaviour of a stream.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for debug output. Rejected operations and
// capacity fallbacks are logged at debug level.
//
// A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
