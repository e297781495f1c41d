package api

import (
	"errors"
	"fmt"
	"net/http"

	"reelroom/internal/auth"
	"reelroom/internal/storage"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

const (
	usernameMinLength = 3
	usernameMaxLength = 32
	passwordMinLength = 8
	passwordMaxLength = 128
)

func validUsername(username string) bool {
	if len(username) < usernameMinLength || len(username) > usernameMaxLength {
		return false
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// Login verifies credentials, issues a session, and sets the session cookie.
// Expired sessions are purged as a side effect of every login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, errors.New("Invalid payload"))
		return
	}

	user, err := h.Store.GetUserCredentials(req.Username)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, errors.New("Invalid credentials"))
		return
	}
	if err != nil {
		h.logger().Error("credential lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("Login failed"))
		return
	}
	if !auth.VerifyPassword(req.Password, user.Salt, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, errors.New("Invalid credentials"))
		return
	}

	if err := h.Sessions.PurgeExpired(); err != nil {
		h.logger().Warn("failed to purge expired sessions", "error", err)
	}
	token, _, err := h.Sessions.Create(user.ID)
	if err != nil {
		h.logger().Error("session creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("Failed to persist session"))
		return
	}

	setSessionCookie(w, token, h.Sessions.TTL())
	writeJSON(w, http.StatusOK, map[string]string{"username": req.Username})
}

// Register validates the requested account, creates it, and issues a session
// exactly as login does.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("Invalid payload"))
		return
	}
	if !validUsername(req.Username) {
		writeError(w, http.StatusBadRequest,
			errors.New("Username must be 3-32 characters of letters, digits, or underscore"))
		return
	}
	if len(req.Password) < passwordMinLength || len(req.Password) > passwordMaxLength {
		writeError(w, http.StatusBadRequest,
			errors.New("Password must be 8-128 characters"))
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, errors.New("Passwords do not match"))
		return
	}

	hash, salt, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger().Error("password hashing failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("Registration failed"))
		return
	}
	userID, err := h.Store.CreateUser(req.Username, hash, salt)
	if errors.Is(err, storage.ErrDuplicateUsername) {
		writeError(w, http.StatusConflict, errors.New("Username already taken"))
		return
	}
	if err != nil {
		h.logger().Error("user creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("Registration failed"))
		return
	}

	token, _, err := h.Sessions.Create(userID)
	if err != nil {
		h.logger().Error("session creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("Failed to persist session"))
		return
	}

	setSessionCookie(w, token, h.Sessions.TTL())
	writeJSON(w, http.StatusOK, map[string]string{"username": req.Username})
}

// Logout revokes the session named by the request cookie and expires the
// cookie. It succeeds even when no session is present.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	if token := ExtractToken(r); token != "" {
		if err := h.Sessions.Revoke(token); err != nil {
			h.logger().Warn("session revoke failed", "error", err)
		}
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated identity.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	identity, err := h.AuthenticateRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errors.New("Unauthorized"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username": identity.Username,
		"userId":   identity.UserID,
	})
}
