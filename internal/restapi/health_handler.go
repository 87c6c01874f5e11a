package restapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"inkboard.dev/board/internal/artifact"
	"inkboard.dev/board/internal/logging"
)

// HealthResponse represents the JSON response from the health endpoint.
type HealthResponse struct {
	Status     string     `json:"status"`
	Detail     string     `json:"detail,omitempty"`
	Updated    *time.Time `json:"updated,omitempty"`
	AgeSeconds int64      `json:"age_seconds,omitempty"`
	Departures int        `json:"departures"`
	Fallback   bool       `json:"fallback"`
}

// healthHandler reports whether the artifact is readable and fresh.
// It returns 503 Service Unavailable when it is missing, corrupt or stale.
// A fresh board built from placeholder data is healthy but flagged.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if api.Application == nil {
		writeHealth(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Detail: "application not initialized",
		})
		return
	}

	b, err := artifact.Read(api.Config.Output)
	if err != nil {
		logging.LogError(logging.FromContext(r.Context()), "health check could not read artifact", err,
			slog.String("path", api.Config.Output))
		writeHealth(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Detail: "board artifact not readable",
		})
		return
	}

	now := api.Clock.Now()
	resp := HealthResponse{
		Status:     "ok",
		Departures: len(b.Departures),
		Fallback:   b.Fallback,
	}
	if !b.Updated.IsZero() {
		updated := b.Updated
		resp.Updated = &updated
		resp.AgeSeconds = int64(api.staleDetector.Age(b.Updated, now).Seconds())
	}

	if api.staleDetector.Check(b.Updated, now) {
		resp.Status = "stale"
		resp.Detail = fmt.Sprintf("board is older than %s", api.staleDetector.Threshold())
		writeHealth(w, http.StatusServiceUnavailable, resp)
		return
	}
	if b.Fallback {
		resp.Detail = "showing placeholder departures"
	}
	writeHealth(w, http.StatusOK, resp)
}

func writeHealth(w http.ResponseWriter, status int, resp HealthResponse) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
