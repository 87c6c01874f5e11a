package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"inkboard.dev/board/internal/app"
	"inkboard.dev/board/internal/appconf"
	"inkboard.dev/board/internal/clock"
	"inkboard.dev/board/internal/logging"
)

type rootOptions struct {
	configPath string
	verbose    bool
	env        string
	stderr     io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stderr: stderr}

	root := &cobra.Command{
		Use:          "inkboard",
		Short:        "Build the departure board for the e-ink display",
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a JSON config file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&opts.env, "env", "", "environment: development, test or production")

	root.AddCommand(
		newFetchCommand(opts),
		newServeCommand(opts),
		newDebugCommand(opts),
	)
	return root
}

// loadConfig applies, in order, defaults, the config file and flags.
func (o *rootOptions) loadConfig(cmd *cobra.Command, override func(*appconf.Config)) (appconf.Config, error) {
	cfg := appconf.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = appconf.LoadFromFile(o.configPath); err != nil {
			return appconf.Config{}, err
		}
	}

	if cmd.Flags().Changed("env") {
		env, err := appconf.ParseEnvironment(o.env)
		if err != nil {
			return appconf.Config{}, fmt.Errorf("--env: %w", err)
		}
		cfg.Env = env
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = o.verbose
	}
	if override != nil {
		override(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return appconf.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newApplication builds the shared dependencies. The clock honours
// clock.FakeTimeEnvVar so runs can be replayed at a fixed instant.
func (o *rootOptions) newApplication(cfg appconf.Config) (*app.Application, error) {
	logger := logging.NewLogger(o.stderr, cfg.Env == appconf.Production, cfg.Verbose)
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logger, clock.NewEnvironmentClock(clock.FakeTimeEnvVar, "", loc))
}
