package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tracker/internal/core"
	"tracker/internal/storage"
	"tracker/internal/storage/memory"
)

type failingUsers struct {
	storage.UserStore
}

func (failingUsers) FindUserByID(context.Context, string) (*core.User, error) {
	return nil, errors.New("connection reset")
}

func newResolverFixture(t *testing.T) (*Resolver, *TokenManager, *core.User) {
	t.Helper()
	store := memory.New()
	u, err := store.InsertUser(context.Background(), core.User{
		Email:          "ana@example.com",
		HashedPassword: "x",
		CreatedAt:      time.Now(),
	})
	require.NoError(t, err)

	tokens, err := NewTokenManager(testSecret, "HS256", time.Hour)
	require.NoError(t, err)
	return NewResolver(tokens, store), tokens, u
}

func TestResolve(t *testing.T) {
	r, tokens, u := newResolverFixture(t)

	token, err := tokens.Issue(u.ID)
	require.NoError(t, err)

	got, err := r.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "ana@example.com", got.Email)
}

func TestResolveUnauthenticated(t *testing.T) {
	r, tokens, _ := newResolverFixture(t)

	unknown, err := tokens.Issue("no-such-user")
	require.NoError(t, err)
	empty, err := tokens.Issue("")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"absent", ""},
		{"garbage", "not.a.token"},
		{"unknown subject", unknown},
		{"empty subject", empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.token)
			require.ErrorIs(t, err, core.ErrUnauthenticated)
		})
	}
}

func TestResolveExpired(t *testing.T) {
	r, tokens, u := newResolverFixture(t)

	token, err := tokens.WithClock(fixedClock(time.Now().Add(-2 * time.Hour))).Issue(u.ID)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), token)
	require.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestResolveStorageFailure(t *testing.T) {
	tokens, err := NewTokenManager(testSecret, "HS256", time.Hour)
	require.NoError(t, err)
	r := NewResolver(tokens, failingUsers{})

	token, err := tokens.Issue("user-1")
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), token)
	require.Error(t, err)
	require.NotErrorIs(t, err, core.ErrUnauthenticated)
}
