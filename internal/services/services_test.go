package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tracker/internal/amqp"
	"tracker/internal/auth"
	"tracker/internal/log"
	"tracker/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, evt *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) ops() []amqp.Op {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.Op, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Op)
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T { return &v }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	return &t
}

func newTransactionService(t *testing.T, pub EventPublisher) *TransactionService {
	t.Helper()
	return NewTransactionService(memory.New(), pub, log.Discard())
}

func newAuthService(t *testing.T) (*AuthService, *auth.TokenManager) {
	t.Helper()
	tokens, err := auth.NewTokenManager("service-test-secret", "HS256", time.Hour)
	require.NoError(t, err)
	svc, err := NewAuthService(memory.New(), auth.NewPasswordHasher(bcrypt.MinCost), tokens, log.Discard())
	require.NoError(t, err)
	return svc, tokens
}
