// Package restapi serves the most recent board artifact to display clients.
// It does not fetch: the artifact is written by separate fetch runs.
package restapi

import (
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"inkboard.dev/board/internal/app"
	"inkboard.dev/board/internal/appconf"
)

// compressMinSize is lower than the gzhttp default so that full boards,
// which sit close to 1KiB, are compressed.
const compressMinSize = 256

type RestAPI struct {
	*app.Application
	rateLimiter   *RateLimitMiddleware
	staleDetector *StaleDetector
}

func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application:   app,
		rateLimiter:   NewRateLimitMiddleware(app.Config.Serve.RateLimit, time.Second, app.Clock),
		staleDetector: NewStaleDetector(app.Config.StaleAfter()),
	}
}

// SetRoutes registers the board, health and metrics endpoints.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	cacheSeconds := api.Config.Serve.CacheSeconds

	mux.Handle("GET /trains-data.js", CacheControlMiddleware(cacheSeconds, api.boardHandler(appconf.FormatJS)))
	mux.Handle("GET /departures.json", CacheControlMiddleware(cacheSeconds, api.boardHandler(appconf.FormatJSON)))
	mux.Handle("GET /healthz", CacheControlMiddleware(0, http.HandlerFunc(api.healthHandler)))

	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}
}

// Handler wraps next in the serving middleware. From the outside in: request
// id, request logging, metrics, rate limiting, compression.
func (api *RestAPI) Handler(next http.Handler) (http.Handler, error) {
	compress, err := gzhttp.NewWrapper(gzhttp.MinSize(compressMinSize))
	if err != nil {
		return nil, err
	}

	var h http.Handler = compress(next)
	h = api.rateLimiter.Handler()(h)
	h = MetricsHandler(api.Metrics)(h)
	h = NewRequestLoggingMiddleware(api.Logger)(h)
	h = RequestIDMiddleware(h)
	return h, nil
}

// Shutdown stops background work started by NewRestAPI.
func (api *RestAPI) Shutdown() {
	api.rateLimiter.Stop()
}
