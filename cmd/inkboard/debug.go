package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"inkboard.dev/board/internal/board"
)

func newDebugCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Fetch each source and dump what was kept, without writing the artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			application, err := opts.newApplication(cfg)
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ref := application.Clock.Now().In(loc).Add(cfg.Lookahead())
			dumper := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}

			for _, src := range board.SourcesFromConfig(cfg.Sources) {
				report, deps := application.Fetcher.FetchSource(cmd.Context(), src, ref)
				_, _ = fmt.Fprintf(out, "== %s\n", src.Label)
				dumper.Fdump(out, report)
				dumper.Fdump(out, deps)
			}
			return nil
		},
	}
}
