package vesta

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// sessionID returns the session ID carried by the cookie, issuing a new one when the
// cookie is missing or does not hold a UUID.
func sessionID(w http.ResponseWriter, r *http.Request, cookie, path string, ttl time.Duration) string {
	if c, err := r.Cookie(cookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     cookie,
		Value:    id,
		Path:     path,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// sessionCookiePath scopes the session cookie to the application: the context path
// itself, so the bare context path matches too, or "/" for root and vhost requests.
func sessionCookiePath(req *Request) string {
	cp := req.ContextPath()
	if cp == "" || req.Application().IsVhostOf(req.ServerName()) {
		return "/"
	}

	return cp
}
