package classroom

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edukid/backend/internal/platform/database"
)

// PostgresStore is a PostgreSQL-backed class store.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a PostgreSQL-backed class store.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, name string, teacherID int) (Class, error) {
	c := Class{
		Name:      name,
		TeacherID: teacherID,
		Code:      NewJoinCode(),
	}
	err := s.db.QuerierFrom(ctx).QueryRow(ctx,
		`INSERT INTO classes (name, teacher_id, code)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		c.Name, c.TeacherID, c.Code,
	).Scan(&c.ID)
	if err != nil {
		return Class{}, fmt.Errorf("create class: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int) (Class, error) {
	var c Class
	err := s.db.QuerierFrom(ctx).QueryRow(ctx,
		`SELECT id, name, teacher_id, code FROM classes WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.TeacherID, &c.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Class{}, ErrNotFound
		}
		return Class{}, fmt.Errorf("get class: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ByTeacher(ctx context.Context, teacherID int) ([]Class, error) {
	rows, err := s.db.QuerierFrom(ctx).Query(ctx,
		`SELECT id, name, teacher_id, code FROM classes WHERE teacher_id = $1 ORDER BY id`,
		teacherID,
	)
	if err != nil {
		return nil, fmt.Errorf("query classes: %w", err)
	}
	defer rows.Close()

	var out []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.Name, &c.TeacherID, &c.Code); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classes: %w", err)
	}
	return out, nil
}
