package web

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"crmdash/internal/export"
)

func (s *Server) sendXLSX(w http.ResponseWriter, r *http.Request, kind string, write func(io.Writer) error) {
	s.sendFile(w, r, export.Filename(kind, "xlsx", s.now()), export.ContentTypeXLSX, write)
}

// sendFile renders the whole file first so a failed export still gets a
// proper error response.
func (s *Server) sendFile(w http.ResponseWriter, r *http.Request, filename, contentType string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		s.internalError(w, r, fmt.Errorf("export %s: %w", filename, err))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
