// Package memory is an in-process storage backend for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tracker/internal/core"
	"tracker/internal/storage"
)

// Store keeps users and transactions in maps guarded by one lock.
type Store struct {
	mu           sync.RWMutex
	users        map[string]core.User
	emails       map[string]string
	transactions map[string]core.Transaction
}

func New() *Store {
	return &Store{
		users:        make(map[string]core.User),
		emails:       make(map[string]string),
		transactions: make(map[string]core.Transaction),
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) FindUserByID(_ context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) InsertUser(_ context.Context, u core.User) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[u.Email]; ok {
		return nil, storage.ErrDuplicate
	}
	u.ID = uuid.NewString()
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return &u, nil
}

func (s *Store) FindTransaction(_ context.Context, ownerID, id string) (*core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != ownerID {
		return nil, storage.ErrNotFound
	}
	return &t, nil
}

func (s *Store) FindTransactions(_ context.Context, f storage.TransactionFilter, order storage.Sort) ([]core.Transaction, error) {
	s.mu.RLock()
	out := make([]core.Transaction, 0)
	for _, t := range s.transactions {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()

	if order == storage.DateDesc {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Date.Equal(out[j].Date) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].Date.After(out[j].Date)
		})
	}
	return out, nil
}

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	s.transactions[t.ID] = t
	return &t, nil
}

func (s *Store) UpdateTransactionFields(_ context.Context, ownerID, id string, p core.TransactionPatch, updatedAt time.Time) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != ownerID {
		return nil, storage.ErrNotFound
	}
	t = p.Apply(t, updatedAt)
	s.transactions[id] = t
	return &t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != ownerID {
		return storage.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

var _ storage.Store = (*Store)(nil)
