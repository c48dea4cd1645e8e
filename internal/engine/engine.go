// Package engine implements the adaptive practice engine: picks the
// next question for a student and folds graded answers back into
// their mastery.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/edukid/backend/internal/content"
	"github.com/edukid/backend/internal/progress"
	"github.com/edukid/backend/internal/users"
)

const (
	// maxTargetDifficulty caps the mastery-derived target. Harder
	// questions (difficulty 6) exist in the catalog but are reached
	// only through the relaxed cascade stages.
	maxTargetDifficulty = 5

	// emaWeight is the weight of a single observation in the mastery
	// exponential moving average.
	emaWeight = 0.1

	// coinReward is granted per correct answer.
	coinReward = 10

	praiseFeedback    = "Great job!"
	encourageFeedback = "Keep trying!"
)

// Config holds the engine's collaborators. Catalog, Mastery, Events
// and Users are required; the rest have defaults.
type Config struct {
	Catalog content.Catalog
	Mastery progress.MasteryStore
	Events  progress.EventLog
	Users   users.Directory

	// Tx scopes the side effects of RecordAnswer to one atomic unit.
	// Defaults to NopTx (memory stores are individually atomic).
	Tx TxRunner

	// RandIntn returns a uniform int in [0, n). Defaults to
	// math/rand/v2. Override in tests for determinism.
	RandIntn func(n int) int

	// Now defaults to time.Now.
	Now func() time.Time
}

// TxRunner runs a function as one atomic unit of work.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NopTx runs the function directly with no transaction.
type NopTx struct{}

func (NopTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Engine selects questions and records answers. It is stateless
// between calls: all state lives in the injected stores.
type Engine struct {
	catalog  content.Catalog
	mastery  progress.MasteryStore
	events   progress.EventLog
	users    users.Directory
	tx       TxRunner
	randIntn func(int) int
	now      func() time.Time
}

// New creates an engine from cfg.
func New(cfg Config) *Engine {
	tx := cfg.Tx
	if tx == nil {
		tx = NopTx{}
	}
	randIntn := cfg.RandIntn
	if randIntn == nil {
		randIntn = rand.IntN
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		catalog:  cfg.Catalog,
		mastery:  cfg.Mastery,
		events:   cfg.Events,
		users:    cfg.Users,
		tx:       tx,
		randIntn: randIntn,
		now:      now,
	}
}

// TargetDifficulty maps a mastery score in [0,1] to the difficulty
// level the engine aims to serve: a five-level ramp where 0 maps to 1
// and anything from 0.8 up maps to 5.
func TargetDifficulty(score float64) int {
	d := int(math.Floor(score*5)) + 1
	if d < 1 {
		return 1
	}
	if d > maxTargetDifficulty {
		return maxTargetDifficulty
	}
	return d
}

// SelectNextQuestion picks the next question for the student on the
// given topic. answeredHistory is the set of question IDs already seen
// this session; order is irrelevant and it may be empty.
//
// Returns content.ErrNotFound when the topic has no questions at all.
// A topic with at least one question always yields a result: the
// candidate filters relax progressively until something matches.
func (e *Engine) SelectNextQuestion(ctx context.Context, userID, topicID int, answeredHistory []int) (content.Question, error) {
	user, err := e.users.Get(ctx, userID)
	if err != nil {
		return content.Question{}, fmt.Errorf("resolve user %d: %w", userID, err)
	}
	yearGroup := user.EffectiveYearGroup()

	mastery, _, err := e.mastery.Get(ctx, userID, topicID)
	if err != nil {
		return content.Question{}, fmt.Errorf("fetch mastery: %w", err)
	}
	target := TargetDifficulty(mastery.Score)

	questions, err := e.catalog.QuestionsByTopic(ctx, topicID)
	if err != nil {
		return content.Question{}, fmt.Errorf("fetch questions: %w", err)
	}
	if len(questions) == 0 {
		return content.Question{}, fmt.Errorf("topic %d: %w", topicID, content.ErrNotFound)
	}

	seen := make(map[int]bool, len(answeredHistory))
	for _, id := range answeredHistory {
		seen[id] = true
	}

	pool, stage := candidatePool(questions, yearGroup, target, seen)
	picked := pool[e.randIntn(len(pool))]

	slog.Info("question selected",
		"user_id", userID,
		"topic_id", topicID,
		"target_difficulty", target,
		"stage", stage,
		"pool_size", len(pool),
		"question_id", picked.ID,
	)
	return picked, nil
}

// AnswerResult is the outcome of recording one answer.
type AnswerResult struct {
	Correct       bool    `json:"correct"`
	CorrectAnswer string  `json:"correctAnswer"`
	CoinsEarned   int     `json:"coinsEarned"`
	NewMastery    float64 `json:"newMastery"`
	Feedback      string  `json:"feedback"`
}

// RecordAnswer grades the submitted answer, appends a learning event,
// credits coins for a correct answer and folds the outcome into the
// student's mastery. The three side effects commit as one atomic unit.
//
// Grading is exact string equality against the stored answer: no
// trimming, no case folding.
func (e *Engine) RecordAnswer(ctx context.Context, userID, questionID int, submittedAnswer string, timeTakenSeconds int) (AnswerResult, error) {
	question, err := e.catalog.Question(ctx, questionID)
	if err != nil {
		return AnswerResult{}, fmt.Errorf("resolve question %d: %w", questionID, err)
	}

	isCorrect := submittedAnswer == question.CorrectAnswer
	now := e.now()

	var updated progress.Mastery
	err = e.tx.InTx(ctx, func(ctx context.Context) error {
		if err := e.events.Append(ctx, progress.LearningEvent{
			UserID:     userID,
			QuestionID: questionID,
			IsCorrect:  isCorrect,
			TimeTaken:  timeTakenSeconds,
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("append event: %w", err)
		}

		if isCorrect {
			if err := e.users.IncrementCoins(ctx, userID, coinReward); err != nil {
				return fmt.Errorf("credit coins: %w", err)
			}
		}

		observation := 0.0
		if isCorrect {
			observation = 1.0
		}
		updated, err = e.mastery.Upsert(ctx, userID, question.TopicID, func(prev progress.Mastery, exists bool) progress.Mastery {
			if !exists {
				return progress.Mastery{
					Score:             observation,
					QuestionsAnswered: 1,
					LastPracticed:     now,
				}
			}
			return progress.Mastery{
				Score:             prev.Score*(1-emaWeight) + observation*emaWeight,
				QuestionsAnswered: prev.QuestionsAnswered + 1,
				LastPracticed:     now,
			}
		})
		if err != nil {
			return fmt.Errorf("update mastery: %w", err)
		}
		return nil
	})
	if err != nil {
		return AnswerResult{}, err
	}

	coins := 0
	if isCorrect {
		coins = coinReward
	}

	slog.Info("answer recorded",
		"user_id", userID,
		"question_id", questionID,
		"correct", isCorrect,
		"new_mastery", updated.Score,
	)
	return AnswerResult{
		Correct:       isCorrect,
		CorrectAnswer: question.CorrectAnswer,
		CoinsEarned:   coins,
		NewMastery:    updated.Score,
		Feedback:      feedbackFor(isCorrect, question),
	}, nil
}

func feedbackFor(isCorrect bool, q content.Question) string {
	if isCorrect {
		return praiseFeedback
	}
	if q.Explanation != "" {
		return q.Explanation
	}
	return encourageFeedback
}
