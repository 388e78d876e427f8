package http

import (
	"log/slog"
	"net/http"

	"outlay/internal/core"
)

// viewData is the envelope every template receives. Data carries the
// page-specific view model.
type viewData struct {
	Title   string
	User    *core.User
	Flashes []flash
	Data    any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, vd viewData) {
	s.renderStatus(w, r, http.StatusOK, page, vd)
}

// renderStatus renders a page with an explicit status code, used for form
// re-renders after validation failures.
func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, page string, vd viewData) {
	t, ok := s.templates[page]
	if !ok {
		slog.ErrorContext(r.Context(), "Unknown template", "page", page)
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	vd.Flashes = append(s.popFlashes(w, r), vd.Flashes...)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "base", vd); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "page", page, "error", err)
	}
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "404 page not found", http.StatusNotFound)
}
