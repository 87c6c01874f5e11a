package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"inkboard.dev/board/internal/app"
	"inkboard.dev/board/internal/appconf"
	"inkboard.dev/board/internal/artifact"
	"inkboard.dev/board/internal/board"
	"inkboard.dev/board/internal/clock"
	"inkboard.dev/board/internal/logging"
	"inkboard.dev/board/internal/models"
)

const boardPage = `<html><body><table>
<tr class="sqToggleDetails"><td>08:12</td><td></td><td>Bus 10</td><td>Ålholm Plads</td></tr>
<tr class="sqToggleDetails"><td>08:05</td><td>ca. 08:07</td><td>Bus 18</td><td>Nørrebro St. - Se alle stop</td></tr>
</table></body></html>`

func upstream(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "down", status)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, boardPage)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeConfig(t *testing.T, values map[string]any) string {
	t.Helper()
	data, err := json.Marshal(values)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCommand(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestFetchCommand_WritesArtifact(t *testing.T) {
	t.Setenv(clock.FakeTimeEnvVar, "2026-03-02T08:00:00Z")
	server := upstream(t, http.StatusOK)
	dir := t.TempDir()
	output := filepath.Join(dir, "trains-data.js")
	textfile := filepath.Join(dir, "inkboard.prom")

	configPath := writeConfig(t, map[string]any{
		"base_url":         server.URL,
		"timezone":         "UTC",
		"metrics_textfile": textfile,
		"sources": []map[string]any{
			{"label": "Buses (Maribovej)", "input": "Maribovej (Vigerslevvej)#7157"},
		},
	})

	stdout, _, err := run(t, "fetch", "--config", configPath, "--output", output)
	require.NoError(t, err)
	assert.Contains(t, stdout, "with 2 departures (live)")

	b, err := artifact.Read(output)
	require.NoError(t, err)
	assert.False(t, b.Fallback)
	assert.Equal(t, "Danshøj / Maribovej", b.Station)
	require.Len(t, b.Departures, 2)
	assert.Equal(t, "08:07", b.Departures[0].Time)
	assert.Equal(t, "Nørrebro St.", b.Departures[0].Destination)
	assert.True(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC).Equal(b.Updated))

	prom, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "inkboard_departures_emitted 2")
}

func TestFetchCommand_UpstreamDownWritesFallback(t *testing.T) {
	t.Setenv(clock.FakeTimeEnvVar, "2026-03-02T08:00:00Z")
	server := upstream(t, http.StatusBadGateway)
	output := filepath.Join(t.TempDir(), "departures.json")

	configPath := writeConfig(t, map[string]any{"base_url": server.URL, "timezone": "UTC"})

	stdout, _, err := run(t, "fetch", "-c", configPath, "-o", output)
	require.NoError(t, err)
	assert.Contains(t, stdout, "(fallback)")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{"), "json format inferred from extension")

	b, err := artifact.Decode(data)
	require.NoError(t, err)
	assert.True(t, b.Fallback)
	assert.Equal(t, board.Fallback(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)), b.Departures)
}

func TestFetchCommand_OutputWriteErrorFails(t *testing.T) {
	t.Setenv(clock.FakeTimeEnvVar, "2026-03-02T08:00:00Z")
	server := upstream(t, http.StatusOK)
	configPath := writeConfig(t, map[string]any{"base_url": server.URL, "timezone": "UTC"})

	_, _, err := run(t, "fetch", "-c", configPath, "-o", filepath.Join(t.TempDir(), "missing", "trains-data.js"))
	assert.Error(t, err)
}

func TestFetchCommand_InvalidConfig(t *testing.T) {
	configPath := writeConfig(t, map[string]any{"max_departures": 20})

	_, stderr, err := run(t, "fetch", "-c", configPath)
	require.Error(t, err)
	assert.Contains(t, stderr, "max_departures")
}

func TestFetchCommand_InvalidFlags(t *testing.T) {
	_, _, err := run(t, "fetch", "--env", "staging")
	assert.ErrorContains(t, err, "unknown environment")

	_, _, err = run(t, "fetch", "--format", "xml", "-o", filepath.Join(t.TempDir(), "x.js"))
	assert.ErrorContains(t, err, "format")
}

func TestDebugCommand_DumpsSources(t *testing.T) {
	t.Setenv(clock.FakeTimeEnvVar, "2026-03-02T08:00:00Z")
	server := upstream(t, http.StatusOK)
	output := filepath.Join(t.TempDir(), "trains-data.js")
	configPath := writeConfig(t, map[string]any{"base_url": server.URL, "timezone": "UTC", "output": output})

	stdout, _, err := run(t, "debug", "-c", configPath)
	require.NoError(t, err)

	assert.Contains(t, stdout, "== Trains (Danshøj St.)")
	assert.Contains(t, stdout, "== Buses (Maribovej)")
	assert.Contains(t, stdout, "Ålholm Plads")
	assert.Contains(t, stdout, "time=08%3A05")

	_, err = os.Stat(output)
	assert.ErrorIs(t, err, os.ErrNotExist, "debug must not write the artifact")
}

func TestServe_ServesUntilCancelled(t *testing.T) {
	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.Timezone = "UTC"
	cfg.Output = filepath.Join(t.TempDir(), "trains-data.js")

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, artifact.Write(cfg.Output, models.Board{
		Updated:    now,
		Station:    cfg.Station,
		Departures: board.Fallback(now),
		Fallback:   true,
	}, appconf.FormatJS))

	application, err := app.New(cfg, logging.NewLogger(io.Discard, false, false), clock.NewMockClock(now))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, application, ln) }()

	base := fmt.Sprintf("http://%s", ln.Addr())
	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/debug?dataType=board")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
