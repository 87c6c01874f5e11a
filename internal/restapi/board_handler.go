package restapi

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"inkboard.dev/board/internal/appconf"
	"inkboard.dev/board/internal/artifact"
	"inkboard.dev/board/internal/logging"
)

var contentTypes = map[string]string{
	appconf.FormatJS:   "application/javascript; charset=utf-8",
	appconf.FormatJSON: "application/json; charset=utf-8",
}

// boardHandler serves the artifact re-encoded in format, whatever format it
// was written in.
func (api *RestAPI) boardHandler(format string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.FromContext(r.Context())

		b, err := artifact.Read(api.Config.Output)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logging.LogError(logger, "failed to read board artifact", err,
					slog.String("path", api.Config.Output))
			}
			http.Error(w, "board not available", http.StatusServiceUnavailable)
			return
		}

		data, err := artifact.Encode(b, format)
		if err != nil {
			logging.LogError(logger, "failed to encode board", err, slog.String("format", format))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentTypes[format])
		if !b.Updated.IsZero() {
			w.Header().Set("Last-Modified", b.Updated.UTC().Format(http.TimeFormat))
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}
