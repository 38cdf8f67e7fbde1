package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
)

// UploadsHandler serves GET /uploads/{name}. Only flat file names inside
// the upload directory are served; anything with a path separator is a 404.
type UploadsHandler struct {
	dir string
}

func NewUploadsHandler(dir string) *UploadsHandler {
	return &UploadsHandler{dir: dir}
}

func (h *UploadsHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, filepath.Join(h.dir, name))
}
