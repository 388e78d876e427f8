package http

import (
	"errors"
	"log/slog"
	"net/http"

	"outlay/internal/auth"
	"outlay/internal/core"
	"outlay/internal/forms"
)

type loginView struct {
	Form   *forms.LoginForm
	Errors forms.Errors
	Next   string
}

type registerView struct {
	Form   *forms.RegisterForm
	Errors forms.Errors
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if s.currentUser(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	s.render(w, r, "login.html", viewData{
		Title: "Sign In",
		Data:  loginView{Form: &forms.LoginForm{}, Next: safeNext(r)},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	form := forms.ParseLogin(r.PostForm)
	errs := form.Validate()

	var user *core.User
	if !errs.Any() {
		var err error
		user, err = s.repo.UserByUsername(r.Context(), form.Username)
		if err != nil || !auth.CheckPassword(form.Password, user.PasswordHash) {
			if err != nil && !errors.Is(err, core.ErrNotFound) {
				slog.ErrorContext(r.Context(), "Login lookup failed", "error", err)
			}
			errs.Add("password", "Invalid username or password")
		}
	}

	if errs.Any() {
		s.renderStatus(w, r, http.StatusUnprocessableEntity, "login.html", viewData{
			Title: "Sign In",
			Data:  loginView{Form: form, Errors: errs, Next: safeNext(r)},
		})
		return
	}

	token := auth.NewSessionToken()
	ttl := auth.SessionTTL(form.Remember)
	if err := s.repo.CreateSession(r.Context(), token, user.ID, timeNow().Add(ttl)); err != nil {
		slog.ErrorContext(r.Context(), "Failed to create session", "error", err, "user_id", user.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	s.setSessionCookie(w, token, form.Remember)

	slog.InfoContext(r.Context(), "User signed in", "user_id", user.ID, "remember", form.Remember)

	target := "/dashboard"
	if next := safeNext(r); next != "" {
		target = next
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if token, ok := auth.VerifyValue(s.cfg.SecretKey, cookie.Value); ok {
			if err := s.repo.DeleteSession(r.Context(), token); err != nil {
				slog.ErrorContext(r.Context(), "Failed to delete session", "error", err)
			}
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	if s.currentUser(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	s.render(w, r, "register.html", viewData{
		Title: "Register",
		Data:  registerView{Form: &forms.RegisterForm{}},
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	form := forms.ParseRegister(r.PostForm)
	errs := form.Validate()

	// Uniqueness pre-checks. The database constraints still back these up
	// against concurrent registrations.
	if !errs.Has("username") {
		if _, err := s.repo.UserByUsername(r.Context(), form.Username); err == nil {
			errs.Add("username", "Please use a different username")
		}
	}
	if !errs.Has("email") {
		if _, err := s.repo.UserByEmail(r.Context(), form.Email); err == nil {
			errs.Add("email", "Please use a different email address")
		}
	}

	if !errs.Any() {
		hash, err := auth.HashPassword(form.Password)
		if err != nil {
			slog.ErrorContext(r.Context(), "Password hashing failed", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		user, err := s.repo.CreateUser(r.Context(), form.Username, form.Email, hash)
		switch {
		case errors.Is(err, core.ErrConflict):
			// Lost the race after the pre-check; same user-facing outcome.
			errs.Add("username", "Please use a different username or email")
		case err != nil:
			slog.ErrorContext(r.Context(), "Failed to create user", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		default:
			slog.InfoContext(r.Context(), "User registered", "user_id", user.ID, "username", user.Username)
			s.redirectWithFlash(w, r, "/auth/login", infoFlash("Congratulations, you are now a registered user!"))
			return
		}
	}

	s.renderStatus(w, r, http.StatusUnprocessableEntity, "register.html", viewData{
		Title: "Register",
		Data:  registerView{Form: form, Errors: errs},
	})
}

// safeNext extracts a validated return path from the request, or "".
func safeNext(r *http.Request) string {
	next := r.URL.Query().Get("next")
	if auth.SafeReturnPath(next) {
		return next
	}
	return ""
}
