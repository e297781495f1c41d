package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"reelroom/internal/api"
)

// mimeTypes is the fixed extension table for static assets. Anything else is
// served as an opaque byte stream.
var mimeTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".mp4":  "video/mp4",
}

func mimeTypeFor(name string) string {
	if mt, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// staticHandler serves files under dir for every path no other route claimed.
// `/` resolves to index.html; traversal attempts are refused outright rather
// than cleaned.
func staticHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			api.WriteError(w, http.StatusNotFound, errors.New("Not Found"))
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			api.WriteError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
			return
		}
		if strings.Contains(r.URL.Path, "..") {
			api.WriteError(w, http.StatusForbidden, errors.New("Forbidden"))
			return
		}

		requested := strings.TrimPrefix(r.URL.Path, "/")
		if requested == "" {
			requested = "index.html"
		}
		target := filepath.Join(dir, filepath.FromSlash(requested))
		file, err := os.Open(target)
		if err != nil {
			api.WriteError(w, http.StatusNotFound, errors.New("Not Found"))
			return
		}
		defer file.Close()
		info, err := file.Stat()
		if err != nil || info.IsDir() {
			api.WriteError(w, http.StatusNotFound, errors.New("Not Found"))
			return
		}

		w.Header().Set("Content-Type", mimeTypeFor(requested))
		http.ServeContent(w, r, "", info.ModTime(), file)
	}
}
