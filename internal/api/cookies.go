package api

import (
	"net/http"
	"time"
)

const sessionCookieName = "ott_session"

// setSessionCookie stamps the cookie with the session TTL itself. Deriving
// Max-Age from the expiry instant would truncate the time already spent
// creating the session and ship TTL-1.
func setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	if token == "" {
		return
	}
	maxAge := int(ttl.Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "deleted",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1, // serialized as Max-Age=0
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
