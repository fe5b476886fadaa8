package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

// UserStore is the slice of the user repository the handlers need; the
// interface exists so handler tests run against an in-memory fake.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (*domain.User, error)
	ByEmail(ctx context.Context, email string) (*domain.User, error)
}

type Handler struct {
	users      UserStore
	sessions   SessionStore
	sessionTTL time.Duration
	logger     *slog.Logger
}

func NewHandler(users UserStore, sessions SessionStore, sessionTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := h.users.Create(r.Context(), email, hash)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			h.writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		h.logger.Error("failed to create user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.startSession(w, r, user); err != nil {
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"ok":   true,
		"user": userResponse{ID: user.ID, Email: user.Email, Role: user.Role},
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.users.ByEmail(r.Context(), email)
	if err != nil {
		h.logger.Error("failed to look up user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil || !VerifyPassword(req.Password, user.PasswordHash) {
		h.writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := h.startSession(w, r, user); err != nil {
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": userResponse{ID: user.ID, Email: user.Email, Role: user.Role},
	})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			h.logger.Error("failed to delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// HandleMe reports the identity behind the current session; it runs behind
// RequireUser.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": userResponse{ID: sess.UserID, Email: sess.Email, Role: sess.Role},
	})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *domain.User) error {
	token, err := h.sessions.Create(r.Context(), domain.Session{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		h.logger.Error("failed to create session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})

	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"ok": false, "error": message})
}
