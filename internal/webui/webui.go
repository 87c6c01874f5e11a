// Package webui serves the non-API pages: a debug view of the board and the
// static files produced by the page generator.
package webui

import (
	"net/http"

	"inkboard.dev/board/internal/app"
)

type WebUI struct {
	*app.Application
}

func New(app *app.Application) *WebUI {
	return &WebUI{Application: app}
}

func (webUI *WebUI) SetWebUIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /debug", webUI.debugIndexHandler)
	if webUI.Config.Serve.StaticDir != "" {
		mux.HandleFunc("GET /static/", webUI.staticHandler)
	}
}
