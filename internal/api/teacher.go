package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// masteredThreshold marks a topic as completed in analytics views.
const masteredThreshold = 0.8

type classSummary struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	StudentCount int    `json:"studentCount"`
}

// GET /api/teacher/classes
func (h *Handler) listClasses(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	classes, err := h.classes.ByTeacher(r.Context(), sess.UserID)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	out := make([]classSummary, 0, len(classes))
	for _, c := range classes {
		students, err := h.users.ByClass(r.Context(), c.ID)
		if err != nil {
			h.respondStoreError(w, err)
			return
		}
		out = append(out, classSummary{
			ID:           c.ID,
			Name:         c.Name,
			Code:         c.Code,
			StudentCount: len(students),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

type createClassRequest struct {
	Name string `json:"name"`
}

// POST /api/teacher/classes
func (h *Handler) createClass(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var req createClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	class, err := h.classes.Create(r.Context(), req.Name, sess.UserID)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	h.logger.Info("class created", "class_id", class.ID, "teacher_id", sess.UserID)
	respondJSON(w, http.StatusCreated, class)
}

type studentAnalytics struct {
	StudentID       int     `json:"studentId"`
	Name            string  `json:"name"`
	AverageMastery  float64 `json:"averageMastery"`
	TopicsCompleted int     `json:"topicsCompleted"`
}

// GET /api/teacher/analytics?classId=N
func (h *Handler) classAnalytics(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	classID, err := strconv.Atoi(r.URL.Query().Get("classId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid class ID")
		return
	}

	class, err := h.classes.Get(r.Context(), classID)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	if class.TeacherID != sess.UserID {
		respondError(w, http.StatusForbidden, "not your class")
		return
	}

	students, err := h.users.ByClass(r.Context(), classID)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	out := make([]studentAnalytics, 0, len(students))
	for _, student := range students {
		records, err := h.mastery.ByUser(r.Context(), student.ID)
		if err != nil {
			h.respondStoreError(w, err)
			return
		}

		row := studentAnalytics{StudentID: student.ID, Name: student.FirstName}
		if len(records) > 0 {
			var total float64
			for _, m := range records {
				total += m.Score
				if m.Score >= masteredThreshold {
					row.TopicsCompleted++
				}
			}
			row.AverageMastery = total / float64(len(records))
		}
		out = append(out, row)
	}
	respondJSON(w, http.StatusOK, out)
}

// GET /api/teacher/live upgrades to a websocket streaming learning
// events as they happen.
func (h *Handler) liveFeed(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		respondError(w, http.StatusNotFound, "live feed disabled")
		return
	}
	if err := h.live.Serve(w, r); err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Warn("live feed closed", "error", err)
	}
}
