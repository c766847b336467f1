package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/securecookie"

	"planbook/internal/entity"
)

// ResetTokenTTL is how long an issued reset token stays valid.
const ResetTokenTTL = 30 * time.Minute

const resetTokenBytes = 32

// ResetTokenStore persists reset tokens. FindValid must return
// (nil, nil) when no unused, unexpired token matches.
type ResetTokenStore interface {
	Create(ctx context.Context, t *entity.PasswordResetToken) error
	FindValid(ctx context.Context, token string, now time.Time) (*entity.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id int) error
	PruneStale(ctx context.Context, userID int, now time.Time) error
}

// PasswordResetService implements the recovery flow: issue a token,
// validate it, and consume it to set a new password.
type PasswordResetService struct {
	users  CredentialStore
	tokens ResetTokenStore
	now    func() time.Time
}

func NewPasswordResetService(users CredentialStore, tokens ResetTokenStore) *PasswordResetService {
	return &PasswordResetService{users: users, tokens: tokens, now: time.Now}
}

func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	s.now = now
	return s
}

// ResetRequest is handed to the caller for out-of-band delivery.
type ResetRequest struct {
	Token   string
	User    entity.UserView
	Expires time.Time
}

// GenerateToken issues a fresh token for the account behind email.
// Unlike login, this flow reports non-existent accounts. Stale tokens
// for the same user are pruned on each issue; several live tokens per
// user are allowed.
func (s *PasswordResetService) GenerateToken(ctx context.Context, email string) (*ResetRequest, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("reset: lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrEmailNotFound
	}

	raw := securecookie.GenerateRandomKey(resetTokenBytes)
	if raw == nil {
		return nil, errors.New("reset: random source unavailable")
	}

	now := s.now()
	rec := &entity.PasswordResetToken{
		UserID:    user.ID,
		Token:     hex.EncodeToString(raw),
		ExpiresAt: now.Add(ResetTokenTTL),
	}

	// Garbage collection, not single-token enforcement. A prune failure
	// must not block recovery.
	_ = s.tokens.PruneStale(ctx, user.ID, now)

	if err := s.tokens.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("reset: store token: %w", err)
	}

	return &ResetRequest{Token: rec.Token, User: user.View(), Expires: rec.ExpiresAt}, nil
}

// ValidateToken resolves a token to its owner. Expired, used and
// unknown tokens all fail with the same generic error.
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) (*entity.UserView, error) {
	_, user, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	view := user.View()
	return &view, nil
}

// ResetPassword consumes the token and writes the new password hash.
// The token is marked used before the password write, so a crash in
// between leaves a burned token and the old password, never a reusable
// valid token.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := ValidatePassword(newPassword, newPassword); err != nil {
		return err
	}

	rec, _, err := s.lookup(ctx, token)
	if err != nil {
		return err
	}

	if err := s.tokens.MarkUsed(ctx, rec.ID); err != nil {
		return fmt.Errorf("reset: consume token: %w", err)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("reset: hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, rec.UserID, hash); err != nil {
		return fmt.Errorf("reset: update password: %w", err)
	}

	_ = s.tokens.PruneStale(ctx, rec.UserID, s.now())
	return nil
}

func (s *PasswordResetService) lookup(ctx context.Context, token string) (*entity.PasswordResetToken, *entity.User, error) {
	if token == "" {
		return nil, nil, ErrResetTokenInvalid
	}
	rec, err := s.tokens.FindValid(ctx, token, s.now())
	if err != nil {
		return nil, nil, fmt.Errorf("reset: lookup token: %w", err)
	}
	if rec == nil {
		return nil, nil, ErrResetTokenInvalid
	}
	user, err := s.users.GetByID(ctx, rec.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("reset: lookup user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrResetTokenInvalid
	}
	return rec, user, nil
}
