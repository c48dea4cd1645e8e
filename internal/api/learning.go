package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/edukid/backend/internal/progress"
)

// GET /api/learning/question?topicId=N&history=1,2,3
func (h *Handler) nextQuestion(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	topicID, err := strconv.Atoi(r.URL.Query().Get("topicId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid topic ID")
		return
	}

	history, err := parseHistory(r.URL.Query().Get("history"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid history list")
		return
	}

	question, err := h.engine.SelectNextQuestion(r.Context(), sess.UserID, topicID, history)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.QuestionServed()
	}
	// The full question, correct answer included, goes back to the
	// client; the game grades locally for instant feedback and
	// confirms via submitAnswer.
	respondJSON(w, http.StatusOK, question)
}

type submitAnswerRequest struct {
	QuestionID int    `json:"questionId"`
	Answer     string `json:"answer"`
	TimeTaken  int    `json:"timeTaken"`
}

// POST /api/learning/answer
func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.QuestionID <= 0 {
		respondError(w, http.StatusBadRequest, "questionId is required")
		return
	}

	result, err := h.engine.RecordAnswer(r.Context(), sess.UserID, req.QuestionID, req.Answer, req.TimeTaken)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.AnswerRecorded(result.Correct)
	}
	// Notify dashboards only now, after the engine has committed the
	// answer; a rolled-back answer must never reach the feed.
	if h.live != nil {
		h.live.Publish(progress.LearningEvent{
			UserID:     sess.UserID,
			QuestionID: req.QuestionID,
			IsCorrect:  result.Correct,
			TimeTaken:  req.TimeTaken,
			CreatedAt:  time.Now(),
		})
	}
	respondJSON(w, http.StatusOK, result)
}

// parseHistory parses the comma-separated question ID list. An empty
// string is an empty history.
func parseHistory(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
