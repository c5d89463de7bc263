package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-enough-bytes-to-sign"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewTokenManager(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		alg     string
		expiry  time.Duration
		wantErr bool
	}{
		{"hs256", testSecret, "HS256", time.Hour, false},
		{"hs384", testSecret, "HS384", time.Hour, false},
		{"hs512", testSecret, "HS512", time.Hour, false},
		{"missing secret", "", "HS256", time.Hour, true},
		{"zero expiry", testSecret, "HS256", 0, true},
		{"asymmetric algorithm", testSecret, "RS256", time.Hour, true},
		{"none", testSecret, "none", time.Hour, true},
		{"unknown", testSecret, "XX999", time.Hour, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewTokenManager(tt.secret, tt.alg, tt.expiry)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, m)
		})
	}
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m, err := NewTokenManager(testSecret, "HS256", 30*time.Minute)
	require.NoError(t, err)
	m = m.WithClock(fixedClock(now))

	token, err := m.Issue("user-1")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.True(t, claims.ExpiresAt.Equal(now.Add(30*time.Minute)))
}

func TestVerifyExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m, err := NewTokenManager(testSecret, "HS256", time.Minute)
	require.NoError(t, err)

	token, err := m.WithClock(fixedClock(now)).Issue("user-1")
	require.NoError(t, err)

	_, err = m.WithClock(fixedClock(now.Add(2 * time.Minute))).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	a, err := NewTokenManager(testSecret, "HS256", time.Hour)
	require.NoError(t, err)
	b, err := NewTokenManager(testSecret+"-other", "HS256", time.Hour)
	require.NoError(t, err)

	token, err := a.Issue("user-1")
	require.NoError(t, err)

	_, err = b.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsOtherAlgorithm(t *testing.T) {
	issuer, err := NewTokenManager(testSecret, "HS512", time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenManager(testSecret, "HS256", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m, err := NewTokenManager(testSecret, "HS256", time.Hour)
	require.NoError(t, err)

	token, err := m.Issue("user-1")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-2",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SigningString()
	require.NoError(t, err)

	_, err = m.Verify(forged + "." + parts[2])
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresExpiry(t *testing.T) {
	m, err := NewTokenManager(testSecret, "HS256", time.Hour)
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = m.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	m, err := NewTokenManager(testSecret, "HS256", time.Hour)
	require.NoError(t, err)

	for _, token := range []string{"", "abc", "a.b.c"} {
		_, err := m.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken, token)
	}
}
