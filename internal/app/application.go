package app

import (
	"log/slog"

	"inkboard.dev/board/internal/appconf"
	"inkboard.dev/board/internal/board"
	"inkboard.dev/board/internal/clock"
	"inkboard.dev/board/internal/metrics"
)

// Application holds the dependencies shared by the CLI commands, the HTTP
// handlers and their middleware.
type Application struct {
	Config  appconf.Config
	Logger  *slog.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics
	Fetcher *board.Fetcher
}

// New wires an Application from cfg. Clock and logger may be nil, in which
// case the real clock and slog.Default are used.
func New(cfg appconf.Config, logger *slog.Logger, clk clock.Clock) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}

	m := metrics.New()

	fetcherCfg, err := board.ConfigFromApp(cfg)
	if err != nil {
		return nil, err
	}
	fetcherCfg.Clock = clk
	fetcherCfg.Metrics = m
	fetcherCfg.Logger = logger

	return &Application{
		Config:  cfg,
		Logger:  logger,
		Clock:   clk,
		Metrics: m,
		Fetcher: board.NewFetcher(fetcherCfg),
	}, nil
}
