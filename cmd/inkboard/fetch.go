package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"inkboard.dev/board/internal/appconf"
	"inkboard.dev/board/internal/artifact"
	"inkboard.dev/board/internal/logging"
)

func newFetchCommand(opts *rootOptions) *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the departure boards and write the artifact",
		Long: "Fetch every configured station board, merge the departures and write the artifact.\n" +
			"Upstream failures never fail the run: placeholder departures are written instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd, func(c *appconf.Config) {
				if cmd.Flags().Changed("output") {
					c.Output = output
				}
				if cmd.Flags().Changed("format") {
					c.Format = format
				}
			})
			if err != nil {
				return err
			}

			application, err := opts.newApplication(cfg)
			if err != nil {
				return err
			}
			logger := application.Logger

			b, _ := application.Fetcher.Board(cmd.Context())

			if err := artifact.Write(cfg.Output, b, cfg.OutputFormat()); err != nil {
				logging.LogError(logger, "failed to write artifact", err, slog.String("path", cfg.Output))
				return err
			}
			logging.LogOperation(logger, "artifact_written",
				slog.String("path", cfg.Output),
				slog.String("format", cfg.OutputFormat()),
				slog.Int("departures", len(b.Departures)),
				slog.Bool("fallback", b.Fallback))

			if cfg.MetricsTextfile != "" {
				if err := application.Metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
					logging.LogError(logger, "failed to write metrics textfile", err,
						slog.String("path", cfg.MetricsTextfile))
					return err
				}
			}

			status := "live"
			if b.Fallback {
				status = "fallback"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s with %d departures (%s)\n", cfg.Output, len(b.Departures), status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "artifact path (default from config)")
	cmd.Flags().StringVar(&format, "format", "", "artifact format: js or json (default inferred from the output path)")
	return cmd
}
