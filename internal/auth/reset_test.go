package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planbook/internal/entity"
)

type fakeTokens struct {
	records []*entity.PasswordResetToken
	nextID  int
	prunes  int
}

func (f *fakeTokens) Create(_ context.Context, t *entity.PasswordResetToken) error {
	f.nextID++
	t.ID = f.nextID
	f.records = append(f.records, t)
	return nil
}

func (f *fakeTokens) FindValid(_ context.Context, token string, now time.Time) (*entity.PasswordResetToken, error) {
	for _, rec := range f.records {
		if rec.Token == token && !rec.Used && rec.ExpiresAt.After(now) {
			return rec, nil
		}
	}
	return nil, nil
}

func (f *fakeTokens) MarkUsed(_ context.Context, id int) error {
	for _, rec := range f.records {
		if rec.ID == id {
			rec.Used = true
		}
	}
	return nil
}

func (f *fakeTokens) PruneStale(_ context.Context, _ int, _ time.Time) error {
	f.prunes++
	return nil
}

func resetFixture(t *testing.T) (*PasswordResetService, *fakeUsers, *fakeTokens, func(time.Time)) {
	t.Helper()
	user := testUser(t, 1, "dana@school.test", "old password", entity.RoleTeacher, entity.StatusActive)
	users := newFakeUsers(user)
	tokens := &fakeTokens{}

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := NewPasswordResetService(users, tokens).WithClock(func() time.Time { return clock })
	return svc, users, tokens, func(at time.Time) { clock = at }
}

func TestGenerateToken(t *testing.T) {
	svc, _, tokens, _ := resetFixture(t)

	req, err := svc.GenerateToken(context.Background(), "dana@school.test")
	require.NoError(t, err)
	require.NotNil(t, req)

	assert.Len(t, req.Token, resetTokenBytes*2)
	assert.Equal(t, 1, req.User.ID)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC), req.Expires)
	assert.Equal(t, 1, tokens.prunes)
	require.Len(t, tokens.records, 1)
	assert.Equal(t, req.Token, tokens.records[0].Token)
}

func TestGenerateTokenUnknownEmail(t *testing.T) {
	svc, _, tokens, _ := resetFixture(t)

	_, err := svc.GenerateToken(context.Background(), "nobody@school.test")
	assert.ErrorIs(t, err, ErrEmailNotFound)
	assert.Empty(t, tokens.records)
}

func TestValidateToken(t *testing.T) {
	svc, _, _, _ := resetFixture(t)

	req, err := svc.GenerateToken(context.Background(), "dana@school.test")
	require.NoError(t, err)

	view, err := svc.ValidateToken(context.Background(), req.Token)
	require.NoError(t, err)
	assert.Equal(t, "dana@school.test", view.Email)

	_, err = svc.ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
	_, err = svc.ValidateToken(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestValidateTokenExpired(t *testing.T) {
	svc, _, _, advance := resetFixture(t)

	req, err := svc.GenerateToken(context.Background(), "dana@school.test")
	require.NoError(t, err)

	advance(req.Expires.Add(time.Second))
	_, err = svc.ValidateToken(context.Background(), req.Token)
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetPassword(t *testing.T) {
	svc, users, tokens, _ := resetFixture(t)

	req, err := svc.GenerateToken(context.Background(), "dana@school.test")
	require.NoError(t, err)

	err = svc.ResetPassword(context.Background(), req.Token, "brand new pass")
	require.NoError(t, err)

	user := users.byID[1]
	assert.True(t, CheckPassword(user.PasswordHash, "brand new pass"))
	assert.False(t, CheckPassword(user.PasswordHash, "old password"))
	assert.True(t, tokens.records[0].Used)
}

func TestResetPasswordTokenSingleUse(t *testing.T) {
	svc, _, _, _ := resetFixture(t)

	req, err := svc.GenerateToken(context.Background(), "dana@school.test")
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(context.Background(), req.Token, "brand new pass"))

	err = svc.ResetPassword(context.Background(), req.Token, "another pass 1")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetPasswordExpiredAndUsedLookAlike(t *testing.T) {
	svc, _, _, advance := resetFixture(t)

	used, err := svc.GenerateToken(context.Background(), "dana@school.test")
	require.NoError(t, err)
	require.NoError(t, svc.ResetPassword(context.Background(), used.Token, "brand new pass"))
	usedErr := svc.ResetPassword(context.Background(), used.Token, "another pass 1")

	expired, err := svc.GenerateToken(context.Background(), "dana@school.test")
	require.NoError(t, err)
	advance(expired.Expires.Add(time.Minute))
	expiredErr := svc.ResetPassword(context.Background(), expired.Token, "another pass 1")

	require.Error(t, usedErr)
	require.Error(t, expiredErr)
	assert.Equal(t, usedErr.Error(), expiredErr.Error())
}

func TestResetPasswordRejectsShort(t *testing.T) {
	svc, _, tokens, _ := resetFixture(t)

	req, err := svc.GenerateToken(context.Background(), "dana@school.test")
	require.NoError(t, err)

	err = svc.ResetPassword(context.Background(), req.Token, "short")
	require.Error(t, err)
	assert.False(t, tokens.records[0].Used)
}

// Recovery end to end: token issued, password reset, old password dead,
// new password signs in.
func TestResetThenLogin(t *testing.T) {
	svc, users, _, _ := resetFixture(t)
	authSvc := NewService(users)

	req, err := svc.GenerateToken(context.Background(), "dana@school.test")
	require.NoError(t, err)
	require.NoError(t, svc.ResetPassword(context.Background(), req.Token, "brand new pass"))

	sess := NewSessionState()
	_, err = authSvc.Login(context.Background(), sess, "dana@school.test", "old password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	view, err := authSvc.Login(context.Background(), sess, "dana@school.test", "brand new pass")
	require.NoError(t, err)
	assert.Equal(t, 1, view.ID)
	assert.True(t, sess.Authenticated)
}
