package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	sstm "github.com/sushydev/seekable_stream_go"
	"github.com/sushydev/seekable_stream_go/metrics"
)

func genPipeCmd(flags *globalFlags) *cobra.Command {
	var (
		chunk       int
		dumpMetrics bool
	)

	pipeCmd := &cobra.Command{
		Use:   "pipe",
		Short: "Copy stdin to stdout through a seekable stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, stream, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer stream.Close()

			n, err := pipe(stream, cmd.InOrStdin(), cmd.OutOrStdout(), chunk)
			if err != nil {
				logger.Error("pipe failed", zap.Int64("copied", n), zap.Error(err))
				return err
			}

			stat := stream.Stat()
			logger.Info("pipe finished", zap.String("copied", humanize.IBytes(uint64(n))))
			logger.Debug("final stream state",
				zap.Int("used", stat.UsedSize),
				zap.Int("free", stat.FreeSize),
				zap.Int("capacity", stat.Capacity))

			if dumpMetrics {
				return writeMetrics(cmd.ErrOrStderr(), stream)
			}
			return nil
		},
	}

	pipeCmd.Flags().IntVar(&chunk, "chunk", 512, "bytes moved from the stream to stdout per write")
	pipeCmd.Flags().BoolVar(&dumpMetrics, "metrics", false, "print the final stream gauges to stderr in Prometheus text format")
	return pipeCmd
}

// pipe alternates between filling stream from r and draining it into w in
// chunks of at most chunk bytes, until r is exhausted and the stream is empty.
func pipe(stream *sstm.Stream, r io.Reader, w io.Writer, chunk int) (int64, error) {
	if chunk <= 0 {
		return 0, fmt.Errorf("chunk size must be positive, got %d", chunk)
	}

	cursor := sstm.NewCursor(stream, true)
	buf := make([]byte, chunk)

	var total int64
	drained := false
	for {
		if !drained && stream.Stat().FreeSize > 0 {
			_, err := stream.Fill(r)
			switch {
			case errors.Is(err, io.EOF):
				drained = true
			case err != nil:
				return total, fmt.Errorf("failed to read input: %w", err)
			}
		}

		n, err := cursor.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return total, fmt.Errorf("failed to write output: %w", err)
			}
			total += int64(n)
		}

		switch {
		case errors.Is(err, io.EOF):
			if drained {
				return total, nil
			}
		case err != nil:
			return total, err
		}
	}
}

func writeMetrics(w io.Writer, stream *sstm.Stream) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(metrics.NewCollector("pipe", stream)); err != nil {
		return err
	}

	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}
