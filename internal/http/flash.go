package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"outlay/internal/auth"
)

const flashCookieName = "outlay_flash"

// flash is a one-shot notice shown on the next rendered page.
type flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func infoFlash(msg string) flash    { return flash{Level: "info", Message: msg} }
func warningFlash(msg string) flash { return flash{Level: "warning", Message: msg} }

// setFlashes stores notices in a signed cookie until the next render.
func (s *Server) setFlashes(w http.ResponseWriter, flashes ...flash) {
	if len(flashes) == 0 {
		return
	}
	payload, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    auth.SignValue(s.cfg.SecretKey, encoded),
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes reads pending notices and clears the cookie. Tampered or
// malformed cookies are dropped silently.
func (s *Server) popFlashes(w http.ResponseWriter, r *http.Request) []flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	encoded, ok := auth.VerifyValue(s.cfg.SecretKey, cookie.Value)
	if !ok {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	var flashes []flash
	if err := json.Unmarshal(payload, &flashes); err != nil {
		return nil
	}
	return flashes
}

// redirectWithFlash is the common "do something, notify, go elsewhere" step.
func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, target string, flashes ...flash) {
	s.setFlashes(w, flashes...)
	http.Redirect(w, r, target, http.StatusFound)
}
