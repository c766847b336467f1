package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidEmail(t *testing.T) {
	valid := []string{
		"dana@school.test",
		"first.last@sub.district.example",
		"x@y.zz",
	}
	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}

	invalid := []string{
		"",
		"plain",
		"missing@tld",
		"@school.test",
		"two@@school.test",
		"spaces in@school.test",
	}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("longenough1", "longenough1"))

	err := ValidatePassword("tiny", "tiny")
	require.Error(t, err)

	err = ValidatePassword("longenough1", "different11")
	require.Error(t, err)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("", "correct horse"))
}
