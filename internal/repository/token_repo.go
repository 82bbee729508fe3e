package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-contacts-api/internal/model"
)

// TokenRepository manages the single refresh token stored on each user row.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Store overwrites whatever refresh token the user currently holds.
func (r *TokenRepository) Store(ctx context.Context, userID int64, token string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $2, updated_at = now() WHERE id = $1`,
		userID, token)
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, model.ErrUserNotFound)
	}
	return nil
}

// Current returns the stored refresh token, or "" when none is set.
func (r *TokenRepository) Current(ctx context.Context, userID int64) (string, error) {
	var token string
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(refresh_token, '') FROM users WHERE id = $1`, userID).Scan(&token)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("user %d: %w", userID, model.ErrUserNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}
	return token, nil
}

// Revoke clears the stored refresh token. Unknown users are not an error.
func (r *TokenRepository) Revoke(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = NULL, updated_at = now()
		 WHERE id = $1 AND refresh_token IS NOT NULL`, userID)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
