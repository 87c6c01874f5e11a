package restapi

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"inkboard.dev/board/internal/app"
	"inkboard.dev/board/internal/appconf"
	"inkboard.dev/board/internal/artifact"
	"inkboard.dev/board/internal/clock"
	"inkboard.dev/board/internal/models"
)

var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func testBoard() models.Board {
	return models.Board{
		Updated: testNow.Add(-2 * time.Minute),
		Station: "Danshøj / Maribovej",
		Departures: []models.Departure{
			{Time: "08:07", Destination: "Nørrebro St. (Nørrebrogade)", Line: "18", IsRealtime: true, SourceLabel: "Buses (Maribovej)"},
			{Time: "08:09", Destination: "Ballerup St.", Line: "Bx", SourceLabel: "Trains (Danshøj St.)"},
		},
	}
}

type testEnv struct {
	api   *RestAPI
	clock *clock.MockClock
	cfg   appconf.Config
}

// createTestApi builds a RestAPI whose artifact lives in a temp dir. When b
// is nil no artifact is written.
func createTestApi(t *testing.T, b *models.Board, mutate ...func(*appconf.Config)) *testEnv {
	t.Helper()

	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.Timezone = "UTC"
	cfg.Output = filepath.Join(t.TempDir(), "trains-data.js")
	for _, fn := range mutate {
		fn(&cfg)
	}

	if b != nil {
		require.NoError(t, artifact.Write(cfg.Output, *b, cfg.OutputFormat()))
	}

	clk := clock.NewMockClock(testNow)
	application, err := app.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), clk)
	require.NoError(t, err)

	api := NewRestAPI(application)
	t.Cleanup(api.Shutdown)
	return &testEnv{api: api, clock: clk, cfg: cfg}
}

// server routes through the full middleware chain.
func (e *testEnv) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	e.api.SetRoutes(mux)
	h, err := e.api.Handler(mux)
	require.NoError(t, err)

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}
