// Package api exposes the HTTP serving boundary: learning endpoints
// backed by the practice engine, auth, and the teacher/parent views.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/edukid/backend/internal/classroom"
	"github.com/edukid/backend/internal/content"
	"github.com/edukid/backend/internal/engine"
	"github.com/edukid/backend/internal/platform/metrics"
	"github.com/edukid/backend/internal/progress"
	"github.com/edukid/backend/internal/session"
	"github.com/edukid/backend/internal/users"
)

// Handler holds all dependencies needed by HTTP handlers. Every
// handler method receives its dependencies through this struct rather
// than package globals.
type Handler struct {
	engine   *engine.Engine
	catalog  content.Catalog
	users    users.Directory
	mastery  progress.MasteryStore
	classes  classroom.Store
	sessions session.Store
	metrics  *metrics.Metrics
	live     *LiveHub
	logger   *slog.Logger

	cookieName    string
	secureCookies bool
}

// HandlerConfig wires a Handler.
type HandlerConfig struct {
	Engine   *engine.Engine
	Catalog  content.Catalog
	Users    users.Directory
	Mastery  progress.MasteryStore
	Classes  classroom.Store
	Sessions session.Store
	Metrics  *metrics.Metrics
	Live     *LiveHub
	Logger   *slog.Logger

	CookieName    string
	SecureCookies bool
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "edukid_session"
	}
	return &Handler{
		engine:        cfg.Engine,
		catalog:       cfg.Catalog,
		users:         cfg.Users,
		mastery:       cfg.Mastery,
		classes:       cfg.Classes,
		sessions:      cfg.Sessions,
		metrics:       cfg.Metrics,
		live:          cfg.Live,
		logger:        logger,
		cookieName:    cookieName,
		secureCookies: cfg.SecureCookies,
	}
}

// Routes registers all endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/auth/logout", h.logout)
	mux.HandleFunc("GET /api/auth/me", h.me)

	mux.HandleFunc("GET /api/topics", h.requireAuth(h.listTopics))
	mux.HandleFunc("GET /api/learning/question", h.requireAuth(h.nextQuestion))
	mux.HandleFunc("POST /api/learning/answer", h.requireAuth(h.submitAnswer))

	mux.HandleFunc("GET /api/teacher/classes", h.requireRole(users.RoleTeacher, h.listClasses))
	mux.HandleFunc("POST /api/teacher/classes", h.requireRole(users.RoleTeacher, h.createClass))
	mux.HandleFunc("GET /api/teacher/analytics", h.requireRole(users.RoleTeacher, h.classAnalytics))
	mux.HandleFunc("GET /api/teacher/live", h.requireRole(users.RoleTeacher, h.liveFeed))

	mux.HandleFunc("GET /api/parent/children", h.requireRole(users.RoleParent, h.listChildren))
}

type errorResponse struct {
	Message string `json:"message"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError writes a JSON error body.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Message: message})
}

// respondStoreError maps store and engine errors to HTTP statuses.
func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, content.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, users.ErrNotFound):
		respondError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, classroom.ErrNotFound):
		respondError(w, http.StatusNotFound, "class not found")
	default:
		h.logger.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

type sessionKey struct{}

// sessionFrom returns the session attached by requireAuth.
func sessionFrom(ctx context.Context) session.Session {
	sess, _ := ctx.Value(sessionKey{}).(session.Session)
	return sess
}

// requireAuth resolves the session cookie and attaches the session to
// the request context. Unauthenticated requests get 401 before any
// handler logic runs.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(h.cookieName)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		sess, ok, err := h.sessions.Get(r.Context(), cookie.Value)
		if err != nil {
			h.logger.Error("session lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			respondError(w, http.StatusUnauthorized, "session expired")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	}
}

// requireRole is requireAuth plus a role check.
func (h *Handler) requireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return h.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		if sess := sessionFrom(r.Context()); sess.Role != role {
			respondError(w, http.StatusForbidden, "wrong role")
			return
		}
		next(w, r)
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
