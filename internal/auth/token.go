package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every token that cannot be trusted:
// malformed, badly signed, wrong algorithm, expired or missing expiry.
var ErrInvalidToken = errors.New("invalid token")

// SupportedAlgorithms lists the accepted signing algorithms.
var SupportedAlgorithms = []string{"HS256", "HS384", "HS512"}

// Claims is the verified content of a session token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// TokenManager issues and verifies HMAC-signed JWTs.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	expiry time.Duration
	now    func() time.Time
}

// NewTokenManager validates the algorithm and returns a manager.
func NewTokenManager(secret, algorithm string, expiry time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("token expiry must be positive, got %s", expiry)
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok || !isSupported(algorithm) {
		return nil, fmt.Errorf("unsupported token algorithm %q", algorithm)
	}
	return &TokenManager{secret: []byte(secret), method: method, expiry: expiry, now: time.Now}, nil
}

func isSupported(alg string) bool {
	for _, a := range SupportedAlgorithms {
		if a == alg {
			return true
		}
	}
	return false
}

// WithClock overrides the time source. Used by tests.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	c := *m
	c.now = now
	return &c
}

// Issue signs a token for subject expiring after the configured duration.
func (m *TokenManager) Issue(subject string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(m.now().Add(m.expiry)),
	}
	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry.
func (m *TokenManager) Verify(token string) (*Claims, error) {
	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &rc,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Claims{Subject: rc.Subject, ExpiresAt: rc.ExpiresAt.Time}, nil
}
