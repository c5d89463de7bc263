package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func ptr[T any](v T) *T { return &v }

func TestKindValid(t *testing.T) {
	cases := []struct {
		k  Kind
		ok bool
	}{
		{Income, true},
		{Expense, true},
		{"Income", false},
		{"", false},
		{"transfer", false},
	}
	for _, tc := range cases {
		if got := tc.k.Valid(); got != tc.ok {
			t.Fatalf("%q expected %v, got %v", tc.k, tc.ok, got)
		}
	}
}

func TestIsCategoryExactMatch(t *testing.T) {
	for _, c := range Categories {
		if !IsCategory(c) {
			t.Fatalf("expected %q to be a category", c)
		}
	}
	for _, c := range []string{"food", "FOOD", " Food", "Groceries", ""} {
		if IsCategory(c) {
			t.Fatalf("expected %q to be rejected", c)
		}
	}
}

func TestCategoryListIsACopy(t *testing.T) {
	l := CategoryList()
	l[0] = "Mutated"
	if Categories[0] != "Salary" {
		t.Fatalf("CategoryList leaked the backing array")
	}
}

func TestNewTransactionValidate(t *testing.T) {
	good := NewTransaction{Type: Expense, Amount: decimal.RequireFromString("12.50"), Category: "Food"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		n     NewTransaction
		field string
	}{
		{NewTransaction{Type: "gift", Amount: decimal.NewFromInt(1), Category: "Food"}, "type"},
		{NewTransaction{Type: Income, Amount: decimal.Zero, Category: "Food"}, "amount"},
		{NewTransaction{Type: Income, Amount: decimal.NewFromInt(-5), Category: "Food"}, "amount"},
		{NewTransaction{Type: Income, Amount: decimal.NewFromInt(1), Category: "Groceries"}, "category"},
		{NewTransaction{Type: Income, Amount: decimal.NewFromInt(1), Category: "Food", Date: &time.Time{}}, "date"},
	}
	for i, tc := range bads {
		err := tc.n.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
		if ve.Field != tc.field {
			t.Fatalf("case %d expected field %q, got %q", i, tc.field, ve.Field)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected errors.Is(ErrValidation)", i)
		}
	}
}

func TestNewTransactionBuildDefaults(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("X", 3600))
	got := NewTransaction{Type: Income, Amount: decimal.NewFromInt(10), Category: "Salary"}.Build("u1", now)

	want := time.Date(2024, 5, 6, 6, 8, 9, 123000000, time.UTC)
	if got.Currency != DefaultCurrency {
		t.Fatalf("expected default currency, got %q", got.Currency)
	}
	if !got.Date.Equal(want) || got.Date.Location() != time.UTC {
		t.Fatalf("expected date %s, got %s", want, got.Date)
	}
	if !got.CreatedAt.Equal(want) || !got.UpdatedAt.Equal(want) {
		t.Fatalf("expected timestamps %s, got %s/%s", want, got.CreatedAt, got.UpdatedAt)
	}
	if got.UserID != "u1" {
		t.Fatalf("expected owner u1, got %q", got.UserID)
	}
}

func TestNewTransactionBuildKeepsSuppliedFields(t *testing.T) {
	d := time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)
	got := NewTransaction{
		Type: Expense, Amount: decimal.NewFromInt(3), Category: "Rent",
		Currency: "EUR", Description: "feb", Date: &d,
	}.Build("u1", time.Now())
	if got.Currency != "EUR" || got.Description != "feb" || !got.Date.Equal(d) {
		t.Fatalf("supplied fields not kept: %+v", got)
	}
}

func TestPatchValidateOnlySuppliedFields(t *testing.T) {
	if err := (TransactionPatch{Description: ptr("x")}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (TransactionPatch{Category: ptr("Nope")}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := (TransactionPatch{Amount: ptr(decimal.Zero)}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := (TransactionPatch{Type: ptr(Kind("x"))}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPatchApply(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := Transaction{
		ID: "t1", UserID: "u1", Type: Expense, Amount: decimal.NewFromInt(5),
		Currency: "INR", Category: "Food", Description: "old",
		Date: created, CreatedAt: created, UpdatedAt: created,
	}
	later := created.Add(time.Hour)
	got := TransactionPatch{Description: ptr("new")}.Apply(orig, later)

	if got.Description != "new" {
		t.Fatalf("description not applied")
	}
	if got.Category != orig.Category || !got.Amount.Equal(orig.Amount) || got.Type != orig.Type {
		t.Fatalf("unsupplied fields changed: %+v", got)
	}
	if !got.UpdatedAt.Equal(later) || !got.CreatedAt.Equal(created) {
		t.Fatalf("timestamps wrong: %+v", got)
	}
	if got.UserID != "u1" {
		t.Fatalf("owner changed")
	}
}

func TestPatchNormalize(t *testing.T) {
	d := time.Date(2024, 2, 1, 1, 2, 3, 999999999, time.FixedZone("X", -7200))
	p := TransactionPatch{Currency: ptr("  "), Date: &d}.Normalize()
	if *p.Currency != DefaultCurrency {
		t.Fatalf("expected default currency, got %q", *p.Currency)
	}
	if p.Date.Location() != time.UTC || p.Date.Nanosecond() != 999000000 {
		t.Fatalf("date not normalized: %s", p.Date)
	}
}

func TestPublicMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrInvalidCredentials, "Invalid email or password"},
		{ErrEmailTaken, "Email already registered"},
		{ErrUnauthenticated, "Not authenticated"},
		{ErrNotFound, "Transaction not found"},
		{NewValidationError("month", "must be in YYYY-MM format"), "month: must be in YYYY-MM format"},
		{fmt.Errorf("find transaction: %w", ErrNotFound), "Transaction not found"},
	}
	for _, tc := range cases {
		if got := PublicMessage(tc.err); got != tc.want {
			t.Fatalf("PublicMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	for _, err := range []error{ErrValidation, ErrUnauthenticated, ErrNotFound, ErrConflict, ErrInvalidCredentials, ErrEmailTaken} {
		if msg := err.Error(); msg != strings.ToLower(msg) {
			t.Fatalf("sentinel message %q should be lowercase", msg)
		}
	}
	if !errors.Is(ErrInvalidCredentials, ErrUnauthenticated) {
		t.Fatalf("invalid credentials must be an authentication failure")
	}
	if !errors.Is(ErrEmailTaken, ErrConflict) {
		t.Fatalf("email taken must be a conflict")
	}
}
