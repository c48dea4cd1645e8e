package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/edukid/backend/internal/users"
)

type loginRequest struct {
	Username        string   `json:"username"`
	Password        string   `json:"password,omitempty"`
	PicturePassword []string `json:"picturePassword,omitempty"`
	Role            string   `json:"role"`
}

func (r *loginRequest) validate() error {
	if r.Username == "" {
		return errors.New("username is required")
	}
	switch r.Role {
	case users.RoleStudent, users.RoleTeacher, users.RoleParent:
	default:
		return errors.New("role must be student, teacher or parent")
	}
	if r.Password == "" && len(r.PicturePassword) == 0 {
		return errors.New("password or picturePassword is required")
	}
	return nil
}

// POST /api/auth/login
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.respondStoreError(w, err)
		return
	}
	if user.Role != req.Role {
		respondError(w, http.StatusUnauthorized, "invalid role for this user")
		return
	}

	// Students may log in with an ordered picture password; everyone
	// else uses a bcrypt-checked password.
	if user.Role == users.RoleStudent && len(req.PicturePassword) > 0 {
		if !picturePasswordMatches(user.PicturePassword, req.PicturePassword) {
			respondError(w, http.StatusUnauthorized, "wrong picture password")
			return
		}
	} else {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			respondError(w, http.StatusUnauthorized, "invalid password")
			return
		}
	}

	sess, err := h.sessions.Create(r.Context(), user.ID, user.Role)
	if err != nil {
		h.logger.Error("session create failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.setSessionCookie(w, sess.Token)
	h.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)
	respondJSON(w, http.StatusOK, user)
}

// POST /api/auth/logout
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookieName); err == nil {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			h.logger.Error("session destroy failed", "error", err)
		}
	}
	h.clearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// GET /api/auth/me
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	h.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		user, err := h.users.Get(r.Context(), sess.UserID)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				respondError(w, http.StatusUnauthorized, "not logged in")
				return
			}
			h.respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, user)
	})(w, r)
}

// picturePasswordMatches checks the ordered picture sequence.
func picturePasswordMatches(stored, provided []string) bool {
	if len(stored) == 0 || len(stored) != len(provided) {
		return false
	}
	for i := range stored {
		if stored[i] != provided[i] {
			return false
		}
	}
	return true
}
