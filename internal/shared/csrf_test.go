package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id string) *Session {
	return &Session{ID: id, values: make(map[string]string)}
}

func TestCSRFEnsureTokenIsStable(t *testing.T) {
	m := NewCSRFManager("secret")
	sess := newSession("s1")

	first, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	second, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, first, sess.Get(CSRFSessionKey))
}

func TestCSRFVerifyToken(t *testing.T) {
	ctx := context.Background()
	m := NewCSRFManager("secret")
	sess := newSession("s1")
	token, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)

	assert.NoError(t, m.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, m.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken(ctx, sess, token+"x"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken(ctx, newSession("s2"), token), ErrCSRFTokenMissing)
}

func TestCSRFTokenBoundToSessionAndSecret(t *testing.T) {
	ctx := context.Background()
	m := NewCSRFManager("secret")
	sess := newSession("s1")
	token, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)

	// same token copied into another session is still rejected
	other := newSession("s2")
	other.Set(CSRFSessionKey, token)
	assert.ErrorIs(t, m.VerifyToken(ctx, other, token), ErrCSRFTokenMismatch)

	assert.ErrorIs(t, NewCSRFManager("rotated").VerifyToken(ctx, sess, token), ErrCSRFTokenMismatch)
}

func TestCSRFEnsureTokenWithoutSession(t *testing.T) {
	_, err := NewCSRFManager("secret").EnsureToken(context.Background(), nil)
	assert.Error(t, err)

	var m *CSRFManager
	_, err = m.EnsureToken(context.Background(), &Session{ID: "s1", values: map[string]string{}})
	assert.EqualError(t, err, "csrf manager not configured")
}

type safeErr struct{}

func (safeErr) Error() string       { return "driver: connection reset" }
func (safeErr) UserMessage() string { return "Try again later" }

func TestUserSafeMessage(t *testing.T) {
	assert.Empty(t, UserSafeMessage(nil))
	assert.Equal(t, "Try again later", UserSafeMessage(fmt.Errorf("wrap: %w", safeErr{})))
	assert.Equal(t, genericFailureMessage, UserSafeMessage(errors.New("pq: syntax error")))
}
