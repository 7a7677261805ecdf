package store

import (
	"context"
	"database/sql"
	"errors"

	"music-store/internal/apperrors"
	"music-store/internal/models"

	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// CreateUser inserts a new user. Email uniqueness is enforced by the unique
// index, not a pre-check, so concurrent registrations cannot race past it.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, role string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, role, created_at`,
		email, passwordHash, role)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by normalized email. Returns (nil, nil)
// when no such user exists.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE email = $1`,
		email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by id. Returns (nil, nil) when absent.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE id = $1`,
		id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
