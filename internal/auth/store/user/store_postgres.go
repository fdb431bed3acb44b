package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"trialreg/internal/auth/models"
	id "trialreg/pkg/domain"
	txcontext "trialreg/pkg/platform/tx"
)

const usernameConstraint = "users_username_key"

// PostgresUserStore persists users in the users table.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Save(ctx context.Context, user *models.User) error {
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (id, username, full_name, password_hash, is_staff, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			full_name = EXCLUDED.full_name,
			password_hash = EXCLUDED.password_hash,
			is_staff = EXCLUDED.is_staff`,
		user.ID.String(), user.Username, user.FullName, string(user.PasswordHash), user.IsStaff, user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == usernameConstraint {
			return ErrUsernameTaken
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.findOne(ctx, `WHERE id = $1`, userID.String())
}

func (s *PostgresUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, `WHERE username = $1`, models.NormalizeUsername(username))
}

func (s *PostgresUserStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := txcontext.Pick(ctx, s.db).QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *PostgresUserStore) List(ctx context.Context) ([]*models.User, error) {
	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx,
		`SELECT id, username, full_name, password_hash, is_staff, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u     models.User
		rawID string
		hash  string
	)
	if err := row.Scan(&rawID, &u.Username, &u.FullName, &hash, &u.IsStaff, &u.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if u.ID, err = id.ParseUserID(rawID); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	u.PasswordHash = []byte(hash)
	return &u, nil
}

func (s *PostgresUserStore) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(txcontext.Pick(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, username, full_name, password_hash, is_staff, created_at FROM users `+where, arg,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
