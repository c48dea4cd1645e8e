package engine

import "github.com/edukid/backend/internal/content"

// filterStage is one rung of the candidate-selection cascade.
type filterStage struct {
	name string
	keep func(q content.Question, yearGroup, targetDifficulty int, seen map[int]bool) bool
}

// selectionCascade orders the stages from strictest to loosest. The
// first stage with a non-empty pool wins, so the learner always gets a
// question when the topic has one, preferring unseen questions at the
// right difficulty whenever possible.
var selectionCascade = []filterStage{
	{
		name: "year+difficulty+unseen",
		keep: func(q content.Question, yearGroup, target int, seen map[int]bool) bool {
			return q.InYearRange(yearGroup) && q.Difficulty == target && !seen[q.ID]
		},
	},
	{
		name: "year+unseen",
		keep: func(q content.Question, yearGroup, _ int, seen map[int]bool) bool {
			return q.InYearRange(yearGroup) && !seen[q.ID]
		},
	},
	{
		// Everything in range has been seen: start the session over.
		name: "year",
		keep: func(q content.Question, yearGroup, _ int, _ map[int]bool) bool {
			return q.InYearRange(yearGroup)
		},
	},
	{
		name: "all",
		keep: func(content.Question, int, int, map[int]bool) bool {
			return true
		},
	},
}

// candidatePool runs the cascade over the topic's questions and
// returns the first non-empty pool plus the name of the stage that
// produced it. questions must be non-empty, which guarantees the final
// stage matches.
func candidatePool(questions []content.Question, yearGroup, targetDifficulty int, seen map[int]bool) ([]content.Question, string) {
	for _, stage := range selectionCascade {
		var pool []content.Question
		for _, q := range questions {
			if stage.keep(q, yearGroup, targetDifficulty, seen) {
				pool = append(pool, q)
			}
		}
		if len(pool) > 0 {
			return pool, stage.name
		}
	}
	// Unreachable: the "all" stage keeps everything.
	return questions, "all"
}
