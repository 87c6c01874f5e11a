// Package board builds the departure board: it fetches the configured
// station boards, extracts departures from their markup, ranks them, and
// substitutes a synthetic board when nothing usable came back.
package board

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"inkboard.dev/board/internal/appconf"
	"inkboard.dev/board/internal/clock"
	"inkboard.dev/board/internal/logging"
	"inkboard.dev/board/internal/metrics"
	"inkboard.dev/board/internal/models"
)

// Config wires a Fetcher. Zero values fall back to the defaults noted.
type Config struct {
	BaseURL   string
	UserAgent string
	Station   string
	Sources   []Source
	// Timeout bounds each request; default 10s.
	Timeout time.Duration
	// Lookahead shifts the board's reference time past now; default none.
	Lookahead time.Duration
	// MaxDepartures caps the result; default 8.
	MaxDepartures int
	// Location is the board's local time zone; default time.Local.
	Location *time.Location
	// Shapes are the row layouts to recognize; default DefaultShapes.
	Shapes []RowShape

	Clock      clock.Clock
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// ConfigFromApp derives a Fetcher config from the application config.
func ConfigFromApp(cfg appconf.Config) (Config, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Config{}, err
	}
	return Config{
		BaseURL:       cfg.BaseURL,
		UserAgent:     cfg.UserAgent,
		Station:       cfg.Station,
		Sources:       SourcesFromConfig(cfg.Sources),
		Timeout:       cfg.Timeout(),
		Lookahead:     cfg.Lookahead(),
		MaxDepartures: cfg.MaxDepartures,
		Location:      loc,
	}, nil
}

// Fetcher produces departure boards. Each Fetch is independent.
type Fetcher struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func NewFetcher(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxDepartures <= 0 || cfg.MaxDepartures > appconf.MaxDepartures {
		cfg.MaxDepartures = appconf.MaxDepartures
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if len(cfg.Shapes) == 0 {
		cfg.Shapes = DefaultShapes
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}

	client := cfg.HTTPClient
	if client == nil {
		client = newHTTPClient(cfg.Timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		cfg:    cfg,
		client: client,
		logger: logger.With(slog.String("component", "board_fetcher")),
	}
}

// SourceReport describes what one source contributed to a run.
type SourceReport struct {
	Label     string
	URL       string
	Err       error
	Duration  time.Duration
	Rows      int
	Kept      int
	Discarded map[DiscardReason]int
}

// Result is the outcome of one Fetch.
type Result struct {
	Now        time.Time
	Reference  time.Time
	Departures []models.Departure
	Sources    []SourceReport
	Fallback   bool
}

// Fetch queries every source once, in order, and returns at most
// MaxDepartures departures. It never fails: unreachable sources are skipped
// and an empty pool is replaced by the synthetic board.
func (f *Fetcher) Fetch(ctx context.Context) Result {
	logger := f.logger.With(slog.String("run_id", uuid.NewString()))
	ctx = logging.WithLogger(ctx, logger)

	now := f.cfg.Clock.Now().In(f.cfg.Location)
	ref := now.Add(f.cfg.Lookahead)

	result := Result{Now: now, Reference: ref}

	var pool []models.Departure
	for _, src := range f.cfg.Sources {
		report, deps := f.FetchSource(ctx, src, ref)
		result.Sources = append(result.Sources, report)
		pool = append(pool, deps...)
	}

	if len(pool) == 0 {
		logging.LogOperation(logger, "no_departures_using_fallback",
			slog.Int("sources", len(f.cfg.Sources)))
		result.Departures = Fallback(now)
		result.Fallback = true
	} else {
		result.Departures = Rank(pool, now, f.cfg.MaxDepartures)
	}

	f.cfg.Metrics.ObserveRun(len(result.Departures), result.Fallback, now)
	logging.LogOperation(logger, "board_built",
		slog.Int("pool", len(pool)),
		slog.Int("departures", len(result.Departures)),
		slog.Bool("fallback", result.Fallback))

	return result
}

// FetchSource fetches and extracts a single source for reference time ref.
// Failures are reported in the SourceReport, never returned.
func (f *Fetcher) FetchSource(ctx context.Context, src Source, ref time.Time) (SourceReport, []models.Departure) {
	logger := logging.FromContext(ctx).With(slog.String("source", src.Label))
	report := SourceReport{Label: src.Label, URL: src.URL(f.cfg.BaseURL, ref)}

	start := time.Now()
	doc, err := fetchDocument(ctx, f.client, report.URL, f.cfg.UserAgent, logger)
	report.Duration = time.Since(start)
	if err != nil {
		report.Err = err
		f.cfg.Metrics.ObserveFetch(src.Label, metrics.OutcomeError, report.Duration)
		attrs := []slog.Attr{slog.Duration("duration", report.Duration)}
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			attrs = append(attrs, slog.Int("status", statusErr.StatusCode))
		}
		logging.LogError(logger, "source fetch failed, skipping", err, attrs...)
		return report, nil
	}

	extraction := Extract(doc, src.Label, f.cfg.Shapes)
	report.Rows = extraction.Rows
	report.Kept = len(extraction.Departures)
	report.Discarded = extraction.Discarded

	outcome := metrics.OutcomeOK
	if report.Kept == 0 {
		outcome = metrics.OutcomeEmpty
	}
	f.cfg.Metrics.ObserveFetch(src.Label, outcome, report.Duration)
	for reason, n := range extraction.Discarded {
		f.cfg.Metrics.AddDiscarded(src.Label, string(reason), n)
	}

	logger.Debug("source extracted",
		slog.Int("rows", report.Rows),
		slog.Int("kept", report.Kept),
		slog.Any("discarded", report.Discarded))

	return report, extraction.Departures
}

// Board runs Fetch and wraps the result as the output artifact.
func (f *Fetcher) Board(ctx context.Context) (models.Board, Result) {
	result := f.Fetch(ctx)
	departures := result.Departures
	if departures == nil {
		departures = []models.Departure{}
	}
	return models.Board{
		Updated:    result.Now,
		Station:    f.cfg.Station,
		Departures: departures,
		Fallback:   result.Fallback,
	}, result
}
