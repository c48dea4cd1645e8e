// Package classroom holds teacher classes and their join codes.
package classroom

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a class does not exist.
var ErrNotFound = errors.New("class not found")

// Class is a group of students owned by a teacher. Code is the short
// token students use to join.
type Class struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	TeacherID int    `json:"teacherId"`
	Code      string `json:"code"`
}

// Store persists classes.
type Store interface {
	Create(ctx context.Context, name string, teacherID int) (Class, error)
	Get(ctx context.Context, id int) (Class, error)
	ByTeacher(ctx context.Context, teacherID int) ([]Class, error)
}

// NewJoinCode generates a short join code for a new class.
func NewJoinCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// MemoryStore is an in-memory Store for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	classes map[int]Class
	nextID  int
}

// NewMemoryStore creates an empty in-memory class store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{classes: make(map[int]Class), nextID: 1}
}

func (s *MemoryStore) Create(_ context.Context, name string, teacherID int) (Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Class{
		ID:        s.nextID,
		Name:      name,
		TeacherID: teacherID,
		Code:      NewJoinCode(),
	}
	s.nextID++
	s.classes[c.ID] = c
	return c, nil
}

func (s *MemoryStore) Get(_ context.Context, id int) (Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.classes[id]
	if !ok {
		return Class{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) ByTeacher(_ context.Context, teacherID int) ([]Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Class
	for _, c := range s.classes {
		if c.TeacherID == teacherID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
