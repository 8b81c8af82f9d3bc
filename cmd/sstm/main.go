package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	sstm "github.com/sushydev/seekable_stream_go"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	capacity   string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	var flags globalFlags

	rootCommand := &cobra.Command{
		Use:          "sstm",
		Short:        "Drive a fixed capacity seekable byte stream",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCommand.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "",
		"YAML configuration file")
	rootCommand.PersistentFlags().StringVar(&flags.capacity, "capacity", "",
		`stream capacity, eg. "4KiB"; overrides the configuration file`)
	rootCommand.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info",
		"one of DEBUG, INFO, WARN, ERROR")

	rootCommand.AddCommand(
		genRunCmd(&flags),
		genPipeCmd(&flags),
	)
	return rootCommand
}

// newLogger builds a console logger writing to w.
func (flags *globalFlags) newLogger(w io.Writer) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(flags.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", flags.logLevel, err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core), nil
}

// streamConfig merges the configuration file and the --capacity flag.
func (flags *globalFlags) streamConfig() (*sstm.Config, error) {
	conf := &sstm.Config{}

	if flags.configPath != "" {
		loaded, err := sstm.LoadConfig(flags.configPath)
		if err != nil {
			return nil, err
		}
		conf = loaded
	}

	if flags.capacity != "" {
		size, err := sstm.ParseByteSize(flags.capacity)
		if err != nil {
			return nil, fmt.Errorf("invalid --capacity: %w", err)
		}
		conf.Capacity = size
	}

	return conf, nil
}

// setup resolves the logger and creates the stream used by a subcommand.
func (flags *globalFlags) setup(cmd *cobra.Command) (*zap.Logger, *sstm.Stream, error) {
	logger, err := flags.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	conf, err := flags.streamConfig()
	if err != nil {
		return nil, nil, err
	}

	stream, err := sstm.New(conf, sstm.WithLogger(logger.Named("stream")))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create stream: %w", err)
	}

	logger.Debug("stream created", zap.Stringer("capacity", sstm.ByteSize(stream.Stat().Capacity)))
	return logger, stream, nil
}
