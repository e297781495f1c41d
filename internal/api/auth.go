package api

import (
	"context"
	"fmt"
	"net/http"
)

type contextKey string

const identityContextKey contextKey = "authenticatedIdentity"

// Identity is the authenticated principal bound to a request.
type Identity struct {
	UserID   int64
	Username string
}

// ContextWithIdentity stores the authenticated identity in the context.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the authenticated identity if present.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	return identity, ok
}

// ExtractToken returns the session token carried by the request cookie, or
// the empty string.
func ExtractToken(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// AuthenticateRequest validates the session cookie and returns the identity.
func (h *Handler) AuthenticateRequest(r *http.Request) (Identity, error) {
	token := ExtractToken(r)
	if token == "" {
		return Identity{}, fmt.Errorf("missing session token")
	}
	userID, ok, err := h.Sessions.Validate(token)
	if err != nil {
		h.logger().Error("session validation failed", "error", err)
		return Identity{}, fmt.Errorf("session lookup failed")
	}
	if !ok {
		return Identity{}, fmt.Errorf("invalid or expired session")
	}
	username, err := h.Store.GetUsernameByID(userID)
	if err != nil {
		return Identity{}, fmt.Errorf("account not found")
	}
	return Identity{UserID: userID, Username: username}, nil
}

func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, fmt.Errorf("Unauthorized"))
		return Identity{}, false
	}
	return identity, true
}
