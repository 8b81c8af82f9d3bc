package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sushydev/seekable_stream_go/internal/script"
)

func genRunCmd(flags *globalFlags) *cobra.Command {
	short := "Run an operation script against a new stream"
	return &cobra.Command{
		Use:   "run <script>",
		Short: short,
		Long: short + `.
Each line of the script is one of: write <data>, zeros <n>, read <n> [clean],
skip <n> [clean], seek set|cur|end <offset>, clean, stat. Use "-" to read the
script from stdin. The outcome of every operation is printed as YAML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open script: %w", err)
				}
				defer f.Close()
				r = f
			}

			ops, err := script.Parse(r)
			if err != nil {
				return err
			}

			logger, stream, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer stream.Close()

			results := script.Run(stream, ops)

			failed := 0
			for _, res := range results {
				if res.Error != "" {
					failed++
				}
			}
			logger.Info("script finished", zap.Int("ops", len(results)), zap.Int("failed", failed))

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(results); err != nil {
				return fmt.Errorf("failed to encode results: %w", err)
			}
			return enc.Close()
		},
	}
}
