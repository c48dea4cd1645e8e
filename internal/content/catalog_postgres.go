package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edukid/backend/internal/platform/database"
)

// PostgresCatalog is a PostgreSQL-backed Writer.
type PostgresCatalog struct {
	db *database.DB
}

// NewPostgresCatalog creates a PostgreSQL-backed catalog.
func NewPostgresCatalog(db *database.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

const questionColumns = `id, topic_id, content, type, correct_answer, distractors,
	difficulty, min_year_group, max_year_group, COALESCE(explanation, '')`

func (c *PostgresCatalog) QuestionsByTopic(ctx context.Context, topicID int) ([]Question, error) {
	rows, err := c.db.QuerierFrom(ctx).Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE topic_id = $1
		 ORDER BY id`,
		topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

func (c *PostgresCatalog) Question(ctx context.Context, id int) (Question, error) {
	rows, err := c.db.QuerierFrom(ctx).Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE id = $1`,
		id,
	)
	if err != nil {
		return Question{}, fmt.Errorf("query question: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Question{}, fmt.Errorf("query question: %w", err)
		}
		return Question{}, ErrNotFound
	}
	return scanQuestion(rows)
}

func (c *PostgresCatalog) Topics(ctx context.Context, stage string) ([]Topic, error) {
	query := `SELECT id, subject_id, name, slug, stage, COALESCE(description, '')
		 FROM topics`
	args := []any{}
	if stage != "" {
		query += ` WHERE stage = $1`
		args = append(args, stage)
	}
	query += ` ORDER BY id`

	rows, err := c.db.QuerierFrom(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	var out []Topic
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.SubjectID, &t.Name, &t.Slug, &t.Stage, &t.Description); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return out, nil
}

func (c *PostgresCatalog) CreateSubject(ctx context.Context, s Subject) (Subject, error) {
	err := c.db.QuerierFrom(ctx).QueryRow(ctx,
		`INSERT INTO subjects (name, slug)
		 VALUES ($1, $2)
		 ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		s.Name, s.Slug,
	).Scan(&s.ID)
	if err != nil {
		return Subject{}, fmt.Errorf("create subject: %w", err)
	}
	return s, nil
}

func (c *PostgresCatalog) CreateTopic(ctx context.Context, t Topic) (Topic, error) {
	err := c.db.QuerierFrom(ctx).QueryRow(ctx,
		`INSERT INTO topics (subject_id, name, slug, stage, description)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		 RETURNING id`,
		t.SubjectID, t.Name, t.Slug, t.Stage, t.Description,
	).Scan(&t.ID)
	if err != nil {
		return Topic{}, fmt.Errorf("create topic: %w", err)
	}
	return t, nil
}

func (c *PostgresCatalog) CreateQuestion(ctx context.Context, q Question) (Question, error) {
	applyQuestionDefaults(&q)

	distractors, err := json.Marshal(q.Distractors)
	if err != nil {
		return Question{}, fmt.Errorf("marshal distractors: %w", err)
	}

	err = c.db.QuerierFrom(ctx).QueryRow(ctx,
		`INSERT INTO questions
		   (topic_id, content, type, correct_answer, distractors,
		    difficulty, min_year_group, max_year_group, explanation)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
		 RETURNING id`,
		q.TopicID, q.Content, q.Type, q.CorrectAnswer, distractors,
		q.Difficulty, q.MinYearGroup, q.MaxYearGroup, q.Explanation,
	).Scan(&q.ID)
	if err != nil {
		return Question{}, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

func (c *PostgresCatalog) Empty(ctx context.Context) (bool, error) {
	var exists bool
	err := c.db.QuerierFrom(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM topics)`,
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return true, nil
		}
		return false, fmt.Errorf("check catalog: %w", err)
	}
	return !exists, nil
}

func scanQuestion(rows pgx.Rows) (Question, error) {
	var q Question
	var distractors []byte
	if err := rows.Scan(
		&q.ID, &q.TopicID, &q.Content, &q.Type, &q.CorrectAnswer, &distractors,
		&q.Difficulty, &q.MinYearGroup, &q.MaxYearGroup, &q.Explanation,
	); err != nil {
		return Question{}, fmt.Errorf("scan question: %w", err)
	}
	if err := json.Unmarshal(distractors, &q.Distractors); err != nil {
		return Question{}, fmt.Errorf("decode distractors: %w", err)
	}
	return q, nil
}
