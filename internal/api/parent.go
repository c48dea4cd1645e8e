package api

import (
	"net/http"
)

type topicMastery struct {
	Topic string  `json:"topic"`
	Score float64 `json:"score"`
}

type childSummary struct {
	ID             int            `json:"id"`
	FirstName      string         `json:"firstName"`
	YearGroup      int            `json:"yearGroup"`
	Coins          int            `json:"coins"`
	MasterySummary []topicMastery `json:"masterySummary"`
}

// GET /api/parent/children
func (h *Handler) listChildren(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	children, err := h.users.Children(r.Context(), sess.UserID)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	topics, err := h.catalog.Topics(r.Context(), "")
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	topicNames := make(map[int]string, len(topics))
	for _, t := range topics {
		topicNames[t.ID] = t.Name
	}

	out := make([]childSummary, 0, len(children))
	for _, child := range children {
		records, err := h.mastery.ByUser(r.Context(), child.ID)
		if err != nil {
			h.respondStoreError(w, err)
			return
		}

		summary := make([]topicMastery, 0, len(records))
		for _, m := range records {
			summary = append(summary, topicMastery{
				Topic: topicNames[m.TopicID],
				Score: m.Score,
			})
		}
		out = append(out, childSummary{
			ID:             child.ID,
			FirstName:      child.FirstName,
			YearGroup:      child.EffectiveYearGroup(),
			Coins:          child.Coins,
			MasterySummary: summary,
		})
	}
	respondJSON(w, http.StatusOK, out)
}
