// Package storage defines the persistence ports used by the services.
// Every transaction operation is scoped by the owning user's id.
package storage

import (
	"context"
	"errors"
	"time"

	"tracker/internal/core"
)

var (
	// ErrNotFound is returned for missing, foreign-owned and malformed ids alike.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (user email) already exists.
	ErrDuplicate = errors.New("duplicate record")
)

// Sort orders FindTransactions results.
type Sort int

const (
	Unsorted Sort = iota
	DateDesc
)

// TransactionFilter selects one owner's transactions, optionally within
// the half-open window [From, To).
type TransactionFilter struct {
	OwnerID string
	From    *time.Time
	To      *time.Time
}

// ForMonth builds a filter for owner restricted to m when m is not nil.
func ForMonth(owner string, m *core.Month) TransactionFilter {
	f := TransactionFilter{OwnerID: owner}
	if m != nil {
		f.From, f.To = &m.Start, &m.End
	}
	return f
}

// Matches reports whether t satisfies the filter.
func (f TransactionFilter) Matches(t core.Transaction) bool {
	if t.UserID != f.OwnerID {
		return false
	}
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && !t.Date.Before(*f.To) {
		return false
	}
	return true
}

type UserStore interface {
	FindUserByID(ctx context.Context, id string) (*core.User, error)
	FindUserByEmail(ctx context.Context, email string) (*core.User, error)
	// InsertUser assigns the id and returns the stored user.
	InsertUser(ctx context.Context, u core.User) (*core.User, error)
}

type TransactionStore interface {
	FindTransaction(ctx context.Context, ownerID, id string) (*core.Transaction, error)
	FindTransactions(ctx context.Context, f TransactionFilter, sort Sort) ([]core.Transaction, error)
	// InsertTransaction assigns the id and returns the stored record.
	InsertTransaction(ctx context.Context, t core.Transaction) (*core.Transaction, error)
	// UpdateTransactionFields atomically sets the supplied fields and
	// updatedAt on the owner's record and returns the result.
	UpdateTransactionFields(ctx context.Context, ownerID, id string, p core.TransactionPatch, updatedAt time.Time) (*core.Transaction, error)
	DeleteTransaction(ctx context.Context, ownerID, id string) error
}

// Store is a complete backend.
type Store interface {
	UserStore
	TransactionStore
	Ping(ctx context.Context) error
	Close() error
}
