package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keveinliu/inkwell/internal/models"
)

func testUser() *models.User {
	return &models.User{ID: 7, Username: "alice", Role: models.RoleAdmin}
}

func TestIssueAndVerify(t *testing.T) {
	svc := NewTokenService("test-secret")

	token, expiresAt, err := svc.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(TokenValidity), expiresAt, time.Minute)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestVerifyValidityBoundary(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	svc := NewTokenService("test-secret")
	svc.now = func() time.Time { return issuedAt }
	token, _, err := svc.Issue(testUser())
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(6 * 24 * time.Hour) }
	_, err = svc.Verify(token)
	assert.NoError(t, err, "token should still be valid one day before expiry")

	svc.now = func() time.Time { return issuedAt.Add(8 * 24 * time.Hour) }
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "token past the 7-day window must be rejected")
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := NewTokenService("secret-a").Issue(testUser())
	require.NoError(t, err)

	_, err = NewTokenService("secret-b").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	svc := NewTokenService("test-secret")
	for _, input := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.."} {
		_, err := svc.Verify(input)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", input)
	}
}

func TestVerifyTampered(t *testing.T) {
	svc := NewTokenService("test-secret")
	token, _, err := svc.Issue(testUser())
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

type fakeAdminCounter struct {
	admins int
	err    error
}

func (f fakeAdminCounter) CountAdmins(context.Context) (int, error) {
	return f.admins, f.err
}

func TestResolveRole(t *testing.T) {
	role, err := ResolveRole(context.Background(), fakeAdminCounter{admins: 0})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role, "first user with no admin becomes admin")

	role, err = ResolveRole(context.Background(), fakeAdminCounter{admins: 1})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role)

	_, err = ResolveRole(context.Background(), fakeAdminCounter{err: errors.New("boom")})
	assert.Error(t, err)
}
