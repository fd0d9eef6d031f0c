package auth_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtaprecip/mtaprecip/internal/auth"
)

func newService(clock clockwork.Clock) *auth.TokenService {
	return auth.NewTokenService(auth.TokenConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "mtaprecip",
		Audience:   "export-console",
		Expiry:     time.Hour,
		Clock:      clock,
	})
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.September, 29, 14, 0, 0, 0, time.UTC))
	svc := newService(clock)

	token, expiresAt, err := svc.Issue("3f1c2b7e-0000-4000-8000-000000000001")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, clock.Now().Add(time.Hour), expiresAt)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "3f1c2b7e-0000-4000-8000-000000000001", claims.SessionID())
	assert.Equal(t, "mtaprecip", claims.Issuer)
}

func TestTokenService_Expired(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.September, 29, 14, 0, 0, 0, time.UTC))
	svc := newService(clock)

	token, _, err := svc.Issue("session-1")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestTokenService_InvalidToken(t *testing.T) {
	svc := newService(nil)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestTokenService_WrongKeyOrAudience(t *testing.T) {
	svc := newService(nil)
	token, _, err := svc.Issue("session-1")
	require.NoError(t, err)

	otherKey := auth.NewTokenService(auth.TokenConfig{SigningKey: "another-key", Issuer: "mtaprecip", Audience: "export-console"})
	_, err = otherKey.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	otherAudience := auth.NewTokenService(auth.TokenConfig{SigningKey: "test-secret-key-for-testing-only", Issuer: "mtaprecip", Audience: "admin"})
	_, err = otherAudience.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_RequiresSubject(t *testing.T) {
	_, _, err := newService(nil).Issue("")
	assert.ErrorIs(t, err, auth.ErrMissingSubject)
}

func TestTokenService_UniqueTokens(t *testing.T) {
	svc := newService(nil)
	a, _, err := svc.Issue("session-1")
	require.NoError(t, err)
	b, _, err := svc.Issue("session-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
