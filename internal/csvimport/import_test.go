package csvimport

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planbook/internal/auth"
	"planbook/internal/entity"
	"planbook/internal/repository"
)

type memCreator struct {
	created []*entity.User
	emails  map[string]bool
}

func newMemCreator() *memCreator {
	return &memCreator{emails: map[string]bool{}}
}

func (m *memCreator) Create(_ context.Context, u *entity.User) (int, error) {
	key := strings.ToLower(u.Email)
	if m.emails[key] {
		return 0, repository.ErrDuplicateEmail
	}
	m.emails[key] = true
	m.created = append(m.created, u)
	return len(m.created), nil
}

func TestImportUsers(t *testing.T) {
	input := strings.Join([]string{
		"first_name,last_name,email,password,role",
		"Dana,Reed,dana@school.test,longenough1,teacher",
		"Ann,Lowe,ann@school.test,longenough2,admin",
	}, "\n")

	store := newMemCreator()
	summary, err := ImportUsers(context.Background(), strings.NewReader(input), store)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Imported)
	assert.Empty(t, summary.Errors)
	require.Len(t, store.created, 2)

	dana := store.created[0]
	assert.Equal(t, "Dana", dana.FirstName)
	assert.Equal(t, entity.RoleTeacher, dana.Role)
	assert.Equal(t, entity.StatusActive, dana.Status)
	assert.True(t, auth.CheckPassword(dana.PasswordHash, "longenough1"))

	assert.Equal(t, entity.RoleAdmin, store.created[1].Role)
}

func TestImportAccumulatesRowErrors(t *testing.T) {
	input := strings.Join([]string{
		"first_name,last_name,email,password,role",
		"Dana,Reed,dana@school.test,longenough1,teacher",
		"Bad,Email,not-an-email,longenough1,teacher",
		"Short,Pass,short@school.test,tiny,teacher",
		"Odd,Role,odd@school.test,longenough1,principal",
		",Missing,missing@school.test,longenough1,teacher",
		"Dana,Again,dana@school.test,longenough1,teacher",
	}, "\n")

	store := newMemCreator()
	summary, err := ImportUsers(context.Background(), strings.NewReader(input), store)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Imported)
	require.Len(t, summary.Errors, 5)

	byLine := map[int]string{}
	for _, e := range summary.Errors {
		byLine[e.Line] = e.Message
	}
	assert.Equal(t, "invalid email address", byLine[3])
	assert.Equal(t, "password must be at least 8 characters", byLine[4])
	assert.Equal(t, "unknown role", byLine[5])
	assert.Equal(t, "first and last name are required", byLine[6])
	assert.Equal(t, "email already in use", byLine[7])
}

func TestImportBadHeaderAborts(t *testing.T) {
	input := strings.Join([]string{
		"name,email,password",
		"Dana,dana@school.test,longenough1",
	}, "\n")

	store := newMemCreator()
	_, err := ImportUsers(context.Background(), strings.NewReader(input), store)
	require.Error(t, err)
	assert.Empty(t, store.created)
}

func TestImportEmptyFile(t *testing.T) {
	store := newMemCreator()
	_, err := ImportUsers(context.Background(), strings.NewReader(""), store)
	require.Error(t, err)
}

func TestImportHeaderOnly(t *testing.T) {
	store := newMemCreator()
	summary, err := ImportUsers(context.Background(), strings.NewReader("first_name,last_name,email,password,role\n"), store)
	require.NoError(t, err)
	assert.Zero(t, summary.Imported)
	assert.Empty(t, summary.Errors)
}

func TestImportAcceptsNumericRoles(t *testing.T) {
	input := strings.Join([]string{
		"first_name,last_name,email,password,role",
		"Ann,Lowe,ann@school.test,longenough1,1",
		"Dana,Reed,dana@school.test,longenough1,2",
	}, "\n")

	store := newMemCreator()
	summary, err := ImportUsers(context.Background(), strings.NewReader(input), store)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, entity.RoleAdmin, store.created[0].Role)
	assert.Equal(t, entity.RoleTeacher, store.created[1].Role)
}
