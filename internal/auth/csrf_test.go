package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueTokenStableWithinSession(t *testing.T) {
	sess := NewSessionState()

	first, err := IssueToken(sess)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Len(t, first, csrfTokenBytes*2)

	second, err := IssueToken(sess)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestIssueTokenDiffersAcrossSessions(t *testing.T) {
	a, err := IssueToken(NewSessionState())
	require.NoError(t, err)
	b, err := IssueToken(NewSessionState())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyToken(t *testing.T) {
	sess := NewSessionState()
	token, err := IssueToken(sess)
	require.NoError(t, err)

	assert.True(t, VerifyToken(sess, token))
	assert.False(t, VerifyToken(sess, ""))
	assert.False(t, VerifyToken(sess, token[:len(token)-1]))
	assert.False(t, VerifyToken(sess, token[:len(token)-1]+"x"))
	assert.False(t, VerifyToken(nil, token))
}

func TestVerifyTokenNoneIssued(t *testing.T) {
	sess := NewSessionState()
	assert.False(t, VerifyToken(sess, "anything"))
	assert.False(t, VerifyToken(sess, ""))
}

func TestVerifyTokenCrossSession(t *testing.T) {
	a := NewSessionState()
	b := NewSessionState()
	tokenA, err := IssueToken(a)
	require.NoError(t, err)
	_, err = IssueToken(b)
	require.NoError(t, err)

	assert.False(t, VerifyToken(b, tokenA))
}
