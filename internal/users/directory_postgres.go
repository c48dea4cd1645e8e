package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edukid/backend/internal/platform/database"
)

// PostgresDirectory is a PostgreSQL-backed Directory.
type PostgresDirectory struct {
	db *database.DB
}

// NewPostgresDirectory creates a PostgreSQL-backed directory.
func NewPostgresDirectory(db *database.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const userColumns = `id, username, COALESCE(password_hash, ''), role, picture_password,
	first_name, year_group, class_id, parent_id, coins, created_at`

func (d *PostgresDirectory) Get(ctx context.Context, id int) (User, error) {
	return d.queryOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (d *PostgresDirectory) GetByUsername(ctx context.Context, username string) (User, error) {
	return d.queryOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (d *PostgresDirectory) Create(ctx context.Context, u User) (User, error) {
	err := d.db.QuerierFrom(ctx).QueryRow(ctx,
		`INSERT INTO users
		   (username, password_hash, role, picture_password, first_name,
		    year_group, class_id, parent_id, coins)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		u.Username, u.PasswordHash, u.Role, u.PicturePassword, u.FirstName,
		u.YearGroup, u.ClassID, u.ParentID, u.Coins,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (d *PostgresDirectory) IncrementCoins(ctx context.Context, id int, amount int) error {
	cmd, err := d.db.QuerierFrom(ctx).Exec(ctx,
		`UPDATE users SET coins = coins + $2 WHERE id = $1`,
		id, amount,
	)
	if err != nil {
		return fmt.Errorf("increment coins: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *PostgresDirectory) Children(ctx context.Context, parentID int) ([]User, error) {
	return d.queryMany(ctx,
		`SELECT `+userColumns+` FROM users WHERE parent_id = $1 ORDER BY id`, parentID)
}

func (d *PostgresDirectory) ByClass(ctx context.Context, classID int) ([]User, error) {
	return d.queryMany(ctx,
		`SELECT `+userColumns+` FROM users WHERE class_id = $1 ORDER BY id`, classID)
}

func (d *PostgresDirectory) queryOne(ctx context.Context, query string, args ...any) (User, error) {
	rows, err := d.db.QuerierFrom(ctx).Query(ctx, query, args...)
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	defer rows.Close()

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (d *PostgresDirectory) queryMany(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := d.db.QuerierFrom(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return out, nil
}

func scanUser(row pgx.CollectableRow) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.PicturePassword,
		&u.FirstName, &u.YearGroup, &u.ClassID, &u.ParentID, &u.Coins, &u.CreatedAt,
	)
	return u, err
}
