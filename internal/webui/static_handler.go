package webui

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"inkboard.dev/board/internal/logging"
)

var allowedExtensions = map[string]bool{
	".html": true, ".css": true, ".js": true, ".json": true,
	".png": true, ".jpg": true, ".jpeg": true, ".svg": true,
	".ico": true, ".woff2": true,
}

// staticHandler serves single files from the configured static directory.
// Subdirectories are not reachable.
func (webUI *WebUI) staticHandler(w http.ResponseWriter, r *http.Request) {
	fileName := strings.TrimPrefix(r.URL.Path, "/static/")
	if fileName == "" {
		fileName = "index.html"
	}

	if strings.Contains(fileName, "..") || strings.ContainsAny(fileName, `/\`) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(fileName))] {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	staticDir, err := filepath.Abs(webUI.Config.Serve.StaticDir)
	if err != nil {
		http.Error(w, "Internal configuration error", http.StatusInternalServerError)
		return
	}
	absPath := filepath.Join(staticDir, fileName)

	rel, err := filepath.Rel(staticDir, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		logging.FromContext(r.Context()).Warn("potential path traversal attempt blocked",
			slog.String("path", absPath))
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	stat, err := os.Stat(absPath)
	if err != nil || stat.IsDir() {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	http.ServeFile(w, r, absPath)
}
