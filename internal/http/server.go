// Package http wires the application's routes, middleware and view
// rendering. Every handler follows the same shape: auth check, input
// validation, repository or aggregation call, then a rendered view,
// redirect or CSV response.
package http

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"outlay/internal/config"
	"outlay/internal/storage"
	appweb "outlay/web"
)

// pages are rendered against the shared base layout.
var pages = []string{
	"index.html",
	"login.html",
	"register.html",
	"dashboard.html",
	"expenses.html",
	"expense_form.html",
	"profile.html",
}

// Server is the application HTTP server with its dependencies.
type Server struct {
	http.Server
	cfg       *config.Config
	repo      *storage.Repository
	templates map[string]*template.Template
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(cfg *config.Config, repo *storage.Repository) (*Server, error) {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    cfg.Addr(),
			Handler: mux,
		},
		cfg:  cfg,
		repo: repo,
	}

	if err := s.parseTemplates(); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	// Static assets from the embedded FS.
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	// Uploaded avatars, only when the deployment can write them.
	if !cfg.ReadOnly {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/",
			http.FileServer(http.Dir(cfg.UploadDir))))
	}

	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("GET /{$}", s.withRequestLog(s.handleIndex))
	mux.HandleFunc("GET /auth/login", s.withRequestLog(s.handleLoginForm))
	mux.HandleFunc("POST /auth/login", s.withRequestLog(s.handleLogin))
	mux.HandleFunc("GET /auth/logout", s.withRequestLog(s.handleLogout))
	mux.HandleFunc("GET /auth/register", s.withRequestLog(s.handleRegisterForm))
	mux.HandleFunc("POST /auth/register", s.withRequestLog(s.handleRegister))

	mux.HandleFunc("GET /dashboard", s.withRequestLog(s.requireUser(s.handleDashboard)))
	mux.HandleFunc("GET /dashboard/export", s.withRequestLog(s.requireUser(s.handleExport)))
	mux.HandleFunc("GET /expenses", s.withRequestLog(s.requireUser(s.handleListExpenses)))
	mux.HandleFunc("GET /add_expense", s.withRequestLog(s.requireUser(s.handleAddExpenseForm)))
	mux.HandleFunc("POST /add_expense", s.withRequestLog(s.requireUser(s.handleAddExpense)))
	mux.HandleFunc("GET /expense/{id}/edit", s.withRequestLog(s.requireUser(s.handleEditExpenseForm)))
	mux.HandleFunc("POST /expense/{id}/edit", s.withRequestLog(s.requireUser(s.handleEditExpense)))
	mux.HandleFunc("GET /expense/{id}/delete", s.withRequestLog(s.requireUser(s.handleDeleteExpense)))
	mux.HandleFunc("GET /profile", s.withRequestLog(s.requireUser(s.handleProfile)))
	mux.HandleFunc("POST /profile", s.withRequestLog(s.requireUser(s.handleProfilePost)))
	mux.HandleFunc("GET /category/{id}/delete", s.withRequestLog(s.requireUser(s.handleDeleteCategory)))

	return s, nil
}

// parseTemplates builds one template set per page, each sharing the base
// layout, so every page can define its own "content" block.
func (s *Server) parseTemplates() error {
	funcs := template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}

	s.templates = make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(appweb.TemplatesFS,
			"templates/base.html", "templates/"+page)
		if err != nil {
			return fmt.Errorf("parse %s: %w", page, err)
		}
		s.templates[page] = t
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleIndex shows the landing page, or the dashboard for signed-in users.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if user := s.currentUser(r); user != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	s.render(w, r, "index.html", viewData{Title: "Welcome"})
}
