// Package progress tracks per-student mastery and the append-only
// learning event log.
package progress

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Mastery is the per-(user, topic) proficiency estimate. Score stays
// in [0,1]: every update is a convex combination of the prior score
// and a {0,1} observation.
type Mastery struct {
	UserID            int       `json:"userId"`
	TopicID           int       `json:"topicId"`
	Score             float64   `json:"score"`
	QuestionsAnswered int       `json:"questionsAnswered"`
	LastPracticed     time.Time `json:"lastPracticed"`
}

// LearningEvent is one graded answer. Write-once.
type LearningEvent struct {
	UserID     int       `json:"userId"`
	QuestionID int       `json:"questionId"`
	IsCorrect  bool      `json:"isCorrect"`
	TimeTaken  int       `json:"timeTaken"` // seconds
	CreatedAt  time.Time `json:"createdAt"`
}

// MasteryStore persists mastery records.
type MasteryStore interface {
	// Get returns the mastery record for (userID, topicID). The bool
	// reports whether a record exists.
	Get(ctx context.Context, userID, topicID int) (Mastery, bool, error)
	// Upsert applies fn to the current record (zero-valued when none
	// exists) and stores the result. The read-modify-write is atomic
	// per (userID, topicID) key.
	Upsert(ctx context.Context, userID, topicID int, fn func(prev Mastery, exists bool) Mastery) (Mastery, error)
	// ByUser returns all mastery records for a user.
	ByUser(ctx context.Context, userID int) ([]Mastery, error)
}

// EventLog appends learning events. Implementations must not silently
// drop records.
type EventLog interface {
	Append(ctx context.Context, e LearningEvent) error
}

type masteryKey struct{ userID, topicID int }

// MemoryMasteryStore is an in-memory MasteryStore for tests and local
// runs.
type MemoryMasteryStore struct {
	mu      sync.Mutex
	records map[masteryKey]Mastery
}

// NewMemoryMasteryStore creates an empty in-memory mastery store.
func NewMemoryMasteryStore() *MemoryMasteryStore {
	return &MemoryMasteryStore{records: make(map[masteryKey]Mastery)}
}

func (s *MemoryMasteryStore) Get(_ context.Context, userID, topicID int) (Mastery, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.records[masteryKey{userID, topicID}]
	return m, ok, nil
}

func (s *MemoryMasteryStore) Upsert(_ context.Context, userID, topicID int, fn func(prev Mastery, exists bool) Mastery) (Mastery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := masteryKey{userID, topicID}
	prev, exists := s.records[key]
	next := fn(prev, exists)
	next.UserID = userID
	next.TopicID = topicID
	s.records[key] = next
	return next, nil
}

func (s *MemoryMasteryStore) ByUser(_ context.Context, userID int) ([]Mastery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Mastery
	for _, m := range s.records {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TopicID < out[j].TopicID })
	return out, nil
}

// MemoryEventLog stores events in memory for tests.
type MemoryEventLog struct {
	mu     sync.Mutex
	events []LearningEvent
}

// NewMemoryEventLog creates an empty in-memory event log.
func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{}
}

func (l *MemoryEventLog) Append(_ context.Context, e LearningEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
	return nil
}

// Events returns a copy of everything appended so far.
func (l *MemoryEventLog) Events() []LearningEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LearningEvent{}, l.events...)
}
