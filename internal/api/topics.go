package api

import (
	"net/http"
	"strconv"

	"github.com/edukid/backend/internal/content"
	"github.com/edukid/backend/internal/users"
)

type topicResponse struct {
	content.Topic
	// Mastery is attached for students only: their current score for
	// the topic, 0 when unpracticed.
	Mastery *float64 `json:"mastery,omitempty"`
}

// GET /api/topics?stage=KS2&subjectId=2
func (h *Handler) listTopics(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	stage := r.URL.Query().Get("stage")
	topics, err := h.catalog.Topics(r.Context(), stage)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	if rawSubject := r.URL.Query().Get("subjectId"); rawSubject != "" {
		subjectID, err := strconv.Atoi(rawSubject)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid subject ID")
			return
		}
		filtered := topics[:0]
		for _, t := range topics {
			if t.SubjectID == subjectID {
				filtered = append(filtered, t)
			}
		}
		topics = filtered
	}

	out := make([]topicResponse, 0, len(topics))
	for _, t := range topics {
		resp := topicResponse{Topic: t}
		if sess.Role == users.RoleStudent {
			m, _, err := h.mastery.Get(r.Context(), sess.UserID, t.ID)
			if err != nil {
				h.respondStoreError(w, err)
				return
			}
			score := m.Score
			resp.Mastery = &score
		}
		out = append(out, resp)
	}
	respondJSON(w, http.StatusOK, out)
}
