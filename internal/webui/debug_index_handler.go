package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"inkboard.dev/board/internal/appconf"
	"inkboard.dev/board/internal/artifact"
	"inkboard.dev/board/internal/board"
	"inkboard.dev/board/internal/logging"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, logger *slog.Logger, title string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   spew.Sdump(data),
	})
	if err != nil {
		logging.LogError(logger, "failed to execute debug template", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// debugIndexHandler dumps internal state. It is hidden in production.
// dataType=fetch performs a live fetch without writing the artifact.
func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Config.Env == appconf.Production {
		http.NotFound(w, r)
		return
	}
	logger := logging.FromContext(r.Context())

	var data any
	var title string

	switch r.URL.Query().Get("dataType") {
	case "board":
		b, err := artifact.Read(webUI.Config.Output)
		if err != nil {
			data = map[string]string{"error": err.Error()}
		} else {
			data = b
		}
		title = "Board artifact - " + webUI.Config.Output
	case "config":
		data = webUI.Config
		title = "Configuration"
	case "sources":
		data = board.SourcesFromConfig(webUI.Config.Sources)
		title = "Sources"
	case "fetch":
		if webUI.Fetcher == nil {
			data = map[string]string{"error": "fetcher not configured"}
		} else {
			data = webUI.Fetcher.Fetch(r.Context())
		}
		title = "Live fetch"
	default:
		data = map[string]string{
			"error": "Please use one of the following: board, config, sources, fetch.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, logger, title, data)
}
