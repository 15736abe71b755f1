package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bullishbrief/pkg/requestcontext"
	"bullishbrief/pkg/sentinel"
)

// PostgresStore persists subscriptions in the email_subscriptions table.
// Scope columns are nullable; a general-newsletter row has both NULL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Exists(ctx context.Context, email string, scope Scope) (bool, error) {
	var (
		query string
		args  []any
	)

	switch {
	case scope.BriefID != "":
		query = `SELECT EXISTS (
			SELECT 1 FROM email_subscriptions
			WHERE email = $1 AND brief_id = $2
		)`
		args = []any{email, scope.BriefID}
	case scope.AuthorID != "":
		query = `SELECT EXISTS (
			SELECT 1 FROM email_subscriptions
			WHERE email = $1 AND author_id = $2
		)`
		args = []any{email, scope.AuthorID}
	default:
		query = `SELECT EXISTS (
			SELECT 1 FROM email_subscriptions
			WHERE email = $1 AND brief_id IS NULL AND author_id IS NULL
		)`
		args = []any{email}
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("querying subscription existence: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Insert(ctx context.Context, sub *Subscription) error {
	sub.ID = uuid.New()
	sub.CreatedAt = requestcontext.Now(ctx)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_subscriptions (id, email, brief_id, author_id, user_id, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID,
		sub.Email,
		nullable(sub.BriefID),
		nullable(sub.AuthorID),
		nullable(sub.UserID),
		string(sub.Source),
		sub.CreatedAt,
	)
	if err != nil {
		// The partial unique indexes catch duplicates that raced past the
		// existence check.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("inserting subscription: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("inserting subscription: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
