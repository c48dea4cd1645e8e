package content

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when a question or topic does not exist.
var ErrNotFound = errors.New("not found")

// Catalog is the read-only question lookup consumed by the engine and
// the API layer.
type Catalog interface {
	// QuestionsByTopic returns every question for the topic. The slice
	// may be empty.
	QuestionsByTopic(ctx context.Context, topicID int) ([]Question, error)
	// Question returns a single question or ErrNotFound.
	Question(ctx context.Context, id int) (Question, error)
	// Topics returns all topics, optionally filtered by stage ("" for all).
	Topics(ctx context.Context, stage string) ([]Topic, error)
}

// Writer extends Catalog with the seeding operations used by the
// content pipeline. Only the Postgres and memory catalogs implement it;
// the engine never sees this interface.
type Writer interface {
	Catalog
	CreateSubject(ctx context.Context, s Subject) (Subject, error)
	CreateTopic(ctx context.Context, t Topic) (Topic, error)
	CreateQuestion(ctx context.Context, q Question) (Question, error)
	// Empty reports whether the catalog holds no topics at all.
	Empty(ctx context.Context) (bool, error)
}

// MemoryCatalog is an in-memory Writer for tests and local runs.
type MemoryCatalog struct {
	mu          sync.RWMutex
	subjects    map[int]Subject
	topics      map[int]Topic
	questions   map[int]Question
	nextSubject int
	nextTopic   int
	nextQuest   int
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		subjects:    make(map[int]Subject),
		topics:      make(map[int]Topic),
		questions:   make(map[int]Question),
		nextSubject: 1,
		nextTopic:   1,
		nextQuest:   1,
	}
}

func (c *MemoryCatalog) QuestionsByTopic(_ context.Context, topicID int) ([]Question, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Question
	for _, q := range c.questions {
		if q.TopicID == topicID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *MemoryCatalog) Question(_ context.Context, id int) (Question, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q, ok := c.questions[id]
	if !ok {
		return Question{}, ErrNotFound
	}
	return q, nil
}

func (c *MemoryCatalog) Topics(_ context.Context, stage string) ([]Topic, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Topic
	for _, t := range c.topics {
		if stage == "" || t.Stage == stage {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *MemoryCatalog) CreateSubject(_ context.Context, s Subject) (Subject, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.subjects {
		if existing.Slug == s.Slug {
			return existing, nil
		}
	}
	s.ID = c.nextSubject
	c.nextSubject++
	c.subjects[s.ID] = s
	return s, nil
}

func (c *MemoryCatalog) CreateTopic(_ context.Context, t Topic) (Topic, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t.ID = c.nextTopic
	c.nextTopic++
	c.topics[t.ID] = t
	return t, nil
}

func (c *MemoryCatalog) CreateQuestion(_ context.Context, q Question) (Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	applyQuestionDefaults(&q)
	q.ID = c.nextQuest
	c.nextQuest++
	c.questions[q.ID] = q
	return q, nil
}

func (c *MemoryCatalog) Empty(_ context.Context) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.topics) == 0, nil
}

// applyQuestionDefaults fills the write-time defaults so year bounds
// and difficulty are always populated in stored rows.
func applyQuestionDefaults(q *Question) {
	if q.Type == "" {
		q.Type = TypeMultipleChoice
	}
	if q.Difficulty == 0 {
		q.Difficulty = 1
	}
	if q.MinYearGroup == 0 {
		q.MinYearGroup = DefaultMinYearGroup
	}
	if q.MaxYearGroup == 0 {
		q.MaxYearGroup = DefaultMaxYearGroup
	}
}
