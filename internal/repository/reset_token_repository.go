package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"planbook/internal/entity"
)

type ResetTokenRepository struct {
	db *sql.DB
}

func NewResetTokenRepository(db *sql.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Create(ctx context.Context, t *entity.PasswordResetToken) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO password_reset_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, t.UserID, t.Token, t.ExpiresAt).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}
	return nil
}

// FindValid returns the token record only while it is unused and
// unexpired; (nil, nil) otherwise.
func (r *ResetTokenRepository) FindValid(ctx context.Context, token string, now time.Time) (*entity.PasswordResetToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE token = $1 AND used = FALSE AND expires_at > $2
	`, token, now)

	var t entity.PasswordResetToken
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ResetTokenRepository) MarkUsed(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE password_reset_tokens SET used = TRUE WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	return nil
}

// PruneStale deletes the user's expired and consumed tokens.
func (r *ResetTokenRepository) PruneStale(ctx context.Context, userID int, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM password_reset_tokens
		WHERE user_id = $1 AND (used = TRUE OR expires_at <= $2)
	`, userID, now)
	if err != nil {
		return fmt.Errorf("prune reset tokens: %w", err)
	}
	return nil
}
