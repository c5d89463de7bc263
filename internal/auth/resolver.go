package auth

import (
	"context"
	"errors"
	"fmt"

	"tracker/internal/core"
	"tracker/internal/storage"
)

// Resolver maps a bearer token to the user it was issued for.
type Resolver struct {
	tokens *TokenManager
	users  storage.UserStore
}

func NewResolver(tokens *TokenManager, users storage.UserStore) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve returns core.ErrUnauthenticated for an absent, invalid or expired
// token and for a subject with no user. Storage failures are returned
// wrapped so they surface as server errors.
func (r *Resolver) Resolve(ctx context.Context, token string) (*core.User, error) {
	if token == "" {
		return nil, core.ErrUnauthenticated
	}
	claims, err := r.tokens.Verify(token)
	if err != nil || claims.Subject == "" {
		return nil, core.ErrUnauthenticated
	}
	u, err := r.users.FindUserByID(ctx, claims.Subject)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return u, nil
}
