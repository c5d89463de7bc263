// Package storagetest is a conformance suite every storage backend runs.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tracker/internal/core"
	"tracker/internal/storage"
)

// Factory returns an empty store. The suite closes nothing; callers own cleanup.
type Factory func(t *testing.T) storage.Store

// Run executes the suite, calling newStore once per subtest.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(*testing.T, storage.Store)
	}{
		{"UserRoundTrip", testUserRoundTrip},
		{"DuplicateEmail", testDuplicateEmail},
		{"EmailIsCaseSensitive", testEmailCaseSensitive},
		{"UnknownUser", testUnknownUser},
		{"TransactionRoundTrip", testTransactionRoundTrip},
		{"OwnershipIsolation", testOwnershipIsolation},
		{"MalformedID", testMalformedID},
		{"MonthWindow", testMonthWindow},
		{"NewestFirst", testNewestFirst},
		{"UpdateOnlySuppliedFields", testUpdateOnlySupplied},
		{"UpdateEveryField", testUpdateEveryField},
		{"DeleteTwice", testDeleteTwice},
		{"Ping", testPing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

var base = time.Date(2024, 2, 10, 12, 30, 0, 0, time.UTC)

func newUser(t *testing.T, s storage.Store, email string) *core.User {
	t.Helper()
	u, err := s.InsertUser(context.Background(), core.User{
		Email:          email,
		HashedPassword: "hash",
		Name:           "Test",
		CreatedAt:      base,
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	return u
}

func newTx(t *testing.T, s storage.Store, owner string, date time.Time, amount string) *core.Transaction {
	t.Helper()
	tx, err := s.InsertTransaction(context.Background(), core.Transaction{
		UserID:      owner,
		Type:        core.Expense,
		Amount:      decimal.RequireFromString(amount),
		Currency:    "INR",
		Category:    "Food",
		Description: "lunch",
		Date:        date,
		CreatedAt:   base,
		UpdatedAt:   base,
	})
	require.NoError(t, err)
	require.NotEmpty(t, tx.ID)
	return tx
}

func requireSameTx(t *testing.T, want, got core.Transaction) {
	t.Helper()
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.UserID, got.UserID)
	require.Equal(t, want.Type, got.Type)
	require.True(t, want.Amount.Equal(got.Amount), "amount %s != %s", want.Amount, got.Amount)
	require.Equal(t, want.Currency, got.Currency)
	require.Equal(t, want.Category, got.Category)
	require.Equal(t, want.Description, got.Description)
	require.True(t, want.Date.Equal(got.Date), "date %s != %s", want.Date, got.Date)
	require.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %s != %s", want.CreatedAt, got.CreatedAt)
	require.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at %s != %s", want.UpdatedAt, got.UpdatedAt)
}

func testUserRoundTrip(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := newUser(t, s, "a@example.com")

	byID, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "a@example.com", byID.Email)
	require.Equal(t, "hash", byID.HashedPassword)
	require.Equal(t, "Test", byID.Name)
	require.True(t, base.Equal(byID.CreatedAt))

	byEmail, err := s.FindUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
}

func testDuplicateEmail(t *testing.T, s storage.Store) {
	newUser(t, s, "dup@example.com")
	_, err := s.InsertUser(context.Background(), core.User{Email: "dup@example.com", HashedPassword: "x", CreatedAt: base})
	require.ErrorIs(t, err, storage.ErrDuplicate)
}

func testEmailCaseSensitive(t *testing.T, s storage.Store) {
	newUser(t, s, "case@example.com")
	newUser(t, s, "Case@example.com")
	_, err := s.FindUserByEmail(context.Background(), "CASE@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testUnknownUser(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.FindUserByID(ctx, "does-not-exist")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.FindUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testTransactionRoundTrip(t *testing.T, s storage.Store) {
	u := newUser(t, s, "rt@example.com")
	created := newTx(t, s, u.ID, base, "1234.56")

	got, err := s.FindTransaction(context.Background(), u.ID, created.ID)
	require.NoError(t, err)
	requireSameTx(t, *created, *got)
	require.Equal(t, "1234.56", got.Amount.String())
}

func testOwnershipIsolation(t *testing.T, s storage.Store) {
	ctx := context.Background()
	a := newUser(t, s, "owner-a@example.com")
	b := newUser(t, s, "owner-b@example.com")
	tx := newTx(t, s, a.ID, base, "10")

	_, err := s.FindTransaction(ctx, b.ID, tx.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	desc := "stolen"
	_, err = s.UpdateTransactionFields(ctx, b.ID, tx.ID, core.TransactionPatch{Description: &desc}, base.Add(time.Hour))
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, s.DeleteTransaction(ctx, b.ID, tx.ID), storage.ErrNotFound)

	list, err := s.FindTransactions(ctx, storage.TransactionFilter{OwnerID: b.ID}, storage.DateDesc)
	require.NoError(t, err)
	require.Empty(t, list)

	still, err := s.FindTransaction(ctx, a.ID, tx.ID)
	require.NoError(t, err)
	require.Equal(t, "lunch", still.Description)
}

func testMalformedID(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := newUser(t, s, "malformed@example.com")
	for _, id := range []string{"", "not-an-id", "00000000-0000-0000-0000-000000000000", "65a000000000000000000000"} {
		_, err := s.FindTransaction(ctx, u.ID, id)
		require.ErrorIs(t, err, storage.ErrNotFound, "id %q", id)
		require.ErrorIs(t, s.DeleteTransaction(ctx, u.ID, id), storage.ErrNotFound, "id %q", id)
	}
}

func testMonthWindow(t *testing.T, s storage.Store) {
	u := newUser(t, s, "month@example.com")
	newTx(t, s, u.ID, time.Date(2024, 1, 31, 23, 59, 59, 999000000, time.UTC), "1")
	feb1 := newTx(t, s, u.ID, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "2")
	feb29 := newTx(t, s, u.ID, time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC), "3")
	newTx(t, s, u.ID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "4")

	m, err := core.ParseMonth("2024-02")
	require.NoError(t, err)
	got, err := s.FindTransactions(context.Background(), storage.ForMonth(u.ID, &m), storage.DateDesc)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, feb29.ID, got[0].ID)
	require.Equal(t, feb1.ID, got[1].ID)

	all, err := s.FindTransactions(context.Background(), storage.ForMonth(u.ID, nil), storage.Unsorted)
	require.NoError(t, err)
	require.Len(t, all, 4)
}

func testNewestFirst(t *testing.T, s storage.Store) {
	u := newUser(t, s, "order@example.com")
	mid := newTx(t, s, u.ID, base, "1")
	old := newTx(t, s, u.ID, base.AddDate(0, -1, 0), "2")
	recent := newTx(t, s, u.ID, base.AddDate(0, 1, 0), "3")

	got, err := s.FindTransactions(context.Background(), storage.TransactionFilter{OwnerID: u.ID}, storage.DateDesc)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, []string{recent.ID, mid.ID, old.ID}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func testUpdateOnlySupplied(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := newUser(t, s, "patch@example.com")
	tx := newTx(t, s, u.ID, base, "99.90")

	desc := "dinner"
	later := base.Add(2 * time.Hour)
	got, err := s.UpdateTransactionFields(ctx, u.ID, tx.ID, core.TransactionPatch{Description: &desc}, later)
	require.NoError(t, err)

	want := *tx
	want.Description = "dinner"
	want.UpdatedAt = later
	requireSameTx(t, want, *got)

	reread, err := s.FindTransaction(ctx, u.ID, tx.ID)
	require.NoError(t, err)
	requireSameTx(t, want, *reread)
}

func testUpdateEveryField(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := newUser(t, s, "patch-all@example.com")
	tx := newTx(t, s, u.ID, base, "5")

	kind := core.Income
	amount := decimal.RequireFromString("0.01")
	currency := "EUR"
	category := "Salary"
	desc := ""
	date := time.Date(2023, 12, 31, 8, 0, 0, 0, time.UTC)
	later := base.Add(time.Minute)

	got, err := s.UpdateTransactionFields(ctx, u.ID, tx.ID, core.TransactionPatch{
		Type: &kind, Amount: &amount, Currency: &currency,
		Category: &category, Description: &desc, Date: &date,
	}, later)
	require.NoError(t, err)

	want := core.Transaction{
		ID: tx.ID, UserID: u.ID, Type: kind, Amount: amount, Currency: currency,
		Category: category, Description: desc, Date: date,
		CreatedAt: tx.CreatedAt, UpdatedAt: later,
	}
	requireSameTx(t, want, *got)
}

func testDeleteTwice(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := newUser(t, s, "delete@example.com")
	tx := newTx(t, s, u.ID, base, "1")

	require.NoError(t, s.DeleteTransaction(ctx, u.ID, tx.ID))
	_, err := s.FindTransaction(ctx, u.ID, tx.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, s.DeleteTransaction(ctx, u.ID, tx.ID), storage.ErrNotFound)
}

func testPing(t *testing.T, s storage.Store) {
	require.NoError(t, s.Ping(context.Background()))
}
