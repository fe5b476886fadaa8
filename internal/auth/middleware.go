package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

// SessionCookie is the name of the opaque token cookie set at login.
const SessionCookie = "bs_session"

type Middleware struct {
	sessions SessionStore
	logger   *slog.Logger
}

func NewMiddleware(sessions SessionStore, logger *slog.Logger) *Middleware {
	return &Middleware{sessions: sessions, logger: logger}
}

// RequireUser resolves the session cookie and puts the identity on the request
// context. Requests without a resolvable session never reach the handler.
func (m *Middleware) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			m.unauthenticated(w)
			return
		}

		sess, err := m.sessions.Read(r.Context(), cookie.Value)
		if err != nil {
			m.logger.Error("failed to read session", "error", err)
			m.writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "internal server error"})
			return
		}
		if sess == nil {
			m.unauthenticated(w)
			return
		}

		next(w, r.WithContext(ContextWithSession(r.Context(), *sess)))
	}
}

// RequireAdmin is RequireUser plus a role check.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromContext(r.Context())
		if sess.Role != domain.RoleAdmin {
			m.writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "Forbidden"})
			return
		}
		next(w, r)
	})
}

func (m *Middleware) unauthenticated(w http.ResponseWriter) {
	m.writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "Not authenticated"})
}

func (m *Middleware) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		m.logger.Error("failed to encode response", "error", err)
	}
}
