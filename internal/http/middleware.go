package http

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"outlay/internal/auth"
	"outlay/internal/core"
)

// SessionCookieName holds the signed session token.
const SessionCookieName = "outlay_session"

// timeNow is swappable in tests.
var timeNow = time.Now

// userHandler is a handler that requires an authenticated user. The user is
// passed explicitly instead of living in ambient state.
type userHandler func(w http.ResponseWriter, r *http.Request, user *core.User)

// withRequestLog adds security headers and request start/completion logging
// with the response status captured.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := newRequestID()

		slog.InfoContext(r.Context(), "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", r.RemoteAddr)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(r.Context(), "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func newRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// requireUser resolves the session cookie to a user and passes it to the
// handler. Without a valid session the client is redirected to the login
// page with the requested path as the return target.
func (s *Server) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.sessionUser(r)
		if err != nil {
			if !errors.Is(err, core.ErrUnauthorized) {
				slog.ErrorContext(r.Context(), "Session lookup failed", "error", err)
			}
			s.clearSessionCookie(w)
			target := "/auth/login?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next(w, r, user)
	}
}

// currentUser returns the signed-in user or nil. Used by pages that render
// for both states.
func (s *Server) currentUser(r *http.Request) *core.User {
	user, err := s.sessionUser(r)
	if err != nil {
		return nil
	}
	return user
}

// sessionUser authenticates the session cookie's signature, then resolves
// the embedded token against stored sessions.
func (s *Server) sessionUser(r *http.Request) (*core.User, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, core.ErrUnauthorized
	}
	token, ok := auth.VerifyValue(s.cfg.SecretKey, cookie.Value)
	if !ok {
		return nil, core.ErrUnauthorized
	}
	user, err := s.repo.SessionUser(r.Context(), token)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// setSessionCookie issues the signed session cookie. Remembered sessions get
// a persistent cookie; transient ones live only for the browser session.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, remember bool) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    auth.SignValue(s.cfg.SecretKey, token),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.MaxAge = int(auth.RememberedSessionTTL.Seconds())
	}
	http.SetCookie(w, cookie)
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
