package http

import (
	"context"
	"net/http"

	"tracker/internal/core"
	"tracker/internal/log"
)

type ctxKey int

const userKey ctxKey = iota

func withUser(ctx context.Context, u *core.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// userFrom returns the user attached by requireUser.
func userFrom(ctx context.Context) *core.User {
	u, _ := ctx.Value(userKey).(*core.User)
	return u
}

// requireUser resolves the bearer token before calling next. Requests
// without a valid token get a uniform 401.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.resolver.Resolve(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := withUser(r.Context(), u)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, u.ID))
		next(w, r.WithContext(ctx))
	}
}
