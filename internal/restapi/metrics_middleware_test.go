package restapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"inkboard.dev/board/internal/appconf"
	"inkboard.dev/board/internal/metrics"
)

func TestMetricsHandler_NilMetrics(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	MetricsHandler(nil)(inner).ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsHandler_UsesRoutePattern(t *testing.T) {
	m := metrics.New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /departures.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})
	handler := MetricsHandler(m)(mux)

	for _, path := range []string{"/departures.json", "/departures.json?x=1", "/nope"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "GET /departures.json", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestMetricsHandler_VariousStatusCodes(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"NotFound", http.StatusNotFound},
		{"TooManyRequests", http.StatusTooManyRequests},
		{"ServiceUnavailable", http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.New()
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			})

			rec := httptest.NewRecorder()
			MetricsHandler(m)(inner).ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

			assert.Equal(t, tc.statusCode, rec.Code)
			assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestsTotal))
		})
	}
}

func TestStatusRecorder_KeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	w := newStatusRecorder(rec)

	_, _ = w.Write([]byte("implicit 200"))
	w.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusOK, w.statusCode)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	b := testBoard()
	env := createTestApi(t, &b, func(c *appconf.Config) { c.Serve.RateLimit = 0 })
	server := env.server(t)

	resp := get(t, server.URL+"/trains-data.js")
	_, _ = io.Copy(io.Discard, resp.Body)

	want := `inkboard_http_requests_total{method="GET",path="GET /trains-data.js",status="200"} 1`
	// the counter is bumped after the response is flushed
	assert.Eventually(t, func() bool {
		resp, err := http.Get(server.URL + "/metrics")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(resp.Body)
		return err == nil && resp.StatusCode == http.StatusOK && strings.Contains(string(body), want)
	}, 2*time.Second, 20*time.Millisecond)
}
