// Package users holds user accounts and the directory consumed by the
// practice engine and the API layer.
package users

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// Roles.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleParent  = "parent"
)

// DefaultYearGroup is assumed for students with no recorded year group.
const DefaultYearGroup = 5

// User is an account. PasswordHash is a bcrypt hash; students may use
// an ordered picture password instead.
type User struct {
	ID              int        `json:"id"`
	Username        string     `json:"username"`
	PasswordHash    string     `json:"-"`
	Role            string     `json:"role"`
	PicturePassword []string   `json:"-"`
	FirstName       string     `json:"firstName"`
	YearGroup       *int       `json:"yearGroup,omitempty"`
	ClassID         *int       `json:"classId,omitempty"`
	ParentID        *int       `json:"parentId,omitempty"`
	Coins           int        `json:"coins"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// EffectiveYearGroup returns the student's year group, defaulting to 5
// when none is recorded.
func (u User) EffectiveYearGroup() int {
	if u.YearGroup == nil {
		return DefaultYearGroup
	}
	return *u.YearGroup
}

// HashPassword produces the bcrypt hash stored on a user record.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Directory is the user lookup and mutation contract.
type Directory interface {
	Get(ctx context.Context, id int) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, u User) (User, error)
	// IncrementCoins adds amount to the user's coin balance atomically.
	IncrementCoins(ctx context.Context, id int, amount int) error
	// Children returns the students linked to a parent.
	Children(ctx context.Context, parentID int) ([]User, error)
	// ByClass returns the students in a class.
	ByClass(ctx context.Context, classID int) ([]User, error)
}

// MemoryDirectory is an in-memory Directory for tests and local runs.
type MemoryDirectory struct {
	mu     sync.RWMutex
	users  map[int]User
	nextID int
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[int]User), nextID: 1}
}

func (d *MemoryDirectory) Get(_ context.Context, id int) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (d *MemoryDirectory) GetByUsername(_ context.Context, username string) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, u := range d.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (d *MemoryDirectory) Create(_ context.Context, u User) (User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u.ID = d.nextID
	d.nextID++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	d.users[u.ID] = u
	return u, nil
}

func (d *MemoryDirectory) IncrementCoins(_ context.Context, id int, amount int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Coins += amount
	d.users[id] = u
	return nil
}

func (d *MemoryDirectory) Children(_ context.Context, parentID int) ([]User, error) {
	return d.filter(func(u User) bool {
		return u.ParentID != nil && *u.ParentID == parentID
	}), nil
}

func (d *MemoryDirectory) ByClass(_ context.Context, classID int) ([]User, error) {
	return d.filter(func(u User) bool {
		return u.ClassID != nil && *u.ClassID == classID
	}), nil
}

func (d *MemoryDirectory) filter(keep func(User) bool) []User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []User
	for _, u := range d.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
