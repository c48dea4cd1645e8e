package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edukid/backend/internal/platform/database"
)

// PostgresMasteryStore is a PostgreSQL-backed MasteryStore.
type PostgresMasteryStore struct {
	db *database.DB
}

// NewPostgresMasteryStore creates a PostgreSQL-backed mastery store.
func NewPostgresMasteryStore(db *database.DB) *PostgresMasteryStore {
	return &PostgresMasteryStore{db: db}
}

func (s *PostgresMasteryStore) Get(ctx context.Context, userID, topicID int) (Mastery, bool, error) {
	var m Mastery
	var lastPracticed *time.Time
	err := s.db.QuerierFrom(ctx).QueryRow(ctx,
		`SELECT user_id, topic_id, score, questions_answered, last_practiced
		 FROM mastery
		 WHERE user_id = $1 AND topic_id = $2`,
		userID, topicID,
	).Scan(&m.UserID, &m.TopicID, &m.Score, &m.QuestionsAnswered, &lastPracticed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mastery{}, false, nil
		}
		return Mastery{}, false, fmt.Errorf("get mastery: %w", err)
	}
	if lastPracticed != nil {
		m.LastPracticed = *lastPracticed
	}
	return m, true, nil
}

// Upsert locks the row for the duration of the read-modify-write so
// concurrent answers for the same (user, topic) serialize instead of
// losing updates. Joins the ambient transaction when one is in flight.
func (s *PostgresMasteryStore) Upsert(ctx context.Context, userID, topicID int, fn func(prev Mastery, exists bool) Mastery) (Mastery, error) {
	var result Mastery
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		q := s.db.QuerierFrom(ctx)

		var prev Mastery
		var lastPracticed *time.Time
		exists := true
		err := q.QueryRow(ctx,
			`SELECT user_id, topic_id, score, questions_answered, last_practiced
			 FROM mastery
			 WHERE user_id = $1 AND topic_id = $2
			 FOR UPDATE`,
			userID, topicID,
		).Scan(&prev.UserID, &prev.TopicID, &prev.Score, &prev.QuestionsAnswered, &lastPracticed)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("lock mastery: %w", err)
			}
			exists = false
		}
		if lastPracticed != nil {
			prev.LastPracticed = *lastPracticed
		}

		next := fn(prev, exists)
		next.UserID = userID
		next.TopicID = topicID

		_, err = q.Exec(ctx,
			`INSERT INTO mastery (user_id, topic_id, score, questions_answered, last_practiced)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (user_id, topic_id) DO UPDATE SET
			   score = EXCLUDED.score,
			   questions_answered = EXCLUDED.questions_answered,
			   last_practiced = EXCLUDED.last_practiced`,
			userID, topicID, next.Score, next.QuestionsAnswered, next.LastPracticed,
		)
		if err != nil {
			return fmt.Errorf("upsert mastery: %w", err)
		}

		result = next
		return nil
	})
	if err != nil {
		return Mastery{}, err
	}
	return result, nil
}

func (s *PostgresMasteryStore) ByUser(ctx context.Context, userID int) ([]Mastery, error) {
	rows, err := s.db.QuerierFrom(ctx).Query(ctx,
		`SELECT user_id, topic_id, score, questions_answered, last_practiced
		 FROM mastery
		 WHERE user_id = $1
		 ORDER BY topic_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query mastery: %w", err)
	}
	defer rows.Close()

	var out []Mastery
	for rows.Next() {
		var m Mastery
		var lastPracticed *time.Time
		if err := rows.Scan(&m.UserID, &m.TopicID, &m.Score, &m.QuestionsAnswered, &lastPracticed); err != nil {
			return nil, fmt.Errorf("scan mastery: %w", err)
		}
		if lastPracticed != nil {
			m.LastPracticed = *lastPracticed
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mastery: %w", err)
	}
	return out, nil
}

// PostgresEventLog appends learning events to the learning_events table.
type PostgresEventLog struct {
	db *database.DB
}

// NewPostgresEventLog creates a PostgreSQL-backed event log.
func NewPostgresEventLog(db *database.DB) *PostgresEventLog {
	return &PostgresEventLog{db: db}
}

func (l *PostgresEventLog) Append(ctx context.Context, e LearningEvent) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := l.db.QuerierFrom(ctx).Exec(ctx,
		`INSERT INTO learning_events (user_id, question_id, is_correct, time_taken, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.UserID, e.QuestionID, e.IsCorrect, e.TimeTaken, createdAt,
	)
	if err != nil {
		return fmt.Errorf("append learning event: %w", err)
	}
	return nil
}
