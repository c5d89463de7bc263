package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"

	DefaultCurrency = "INR"
)

// Categories is the closed set of allowed transaction categories, in
// display order.
var Categories = []string{
	"Salary",
	"Food",
	"Rent",
	"Freelance",
	"Transport",
	"Entertainment",
	"Utilities",
	"Shopping",
	"Other",
}

type (
	Kind string

	User struct {
		ID             string
		Email          string
		HashedPassword string
		Name           string
		CreatedAt      time.Time
	}

	Transaction struct {
		ID          string
		UserID      string
		Type        Kind
		Amount      decimal.Decimal
		Currency    string
		Category    string
		Description string
		Date        time.Time
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// NewTransaction carries the caller-supplied fields of a create request.
	NewTransaction struct {
		Type        Kind
		Amount      decimal.Decimal
		Currency    string
		Category    string
		Description string
		Date        *time.Time
	}

	// TransactionPatch holds the fields of a partial update; nil means unchanged.
	TransactionPatch struct {
		Type        *Kind
		Amount      *decimal.Decimal
		Currency    *string
		Category    *string
		Description *string
		Date        *time.Time
	}
)

// Valid reports whether k is income or expense.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// CategoryList returns a copy of Categories.
func CategoryList() []string {
	return append([]string(nil), Categories...)
}

// IsCategory reports whether name belongs to the fixed category set.
// Matching is exact.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Timestamp normalizes t to the precision every store keeps.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func validateType(k Kind) error {
	if !k.Valid() {
		return NewValidationError("type", "must be one of: %s, %s", Income, Expense)
	}
	return nil
}

func validateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return NewValidationError("amount", "must be greater than 0")
	}
	return nil
}

func validateCategory(c string) error {
	if !IsCategory(c) {
		return NewValidationError("category", "must be one of: %s", strings.Join(Categories, ", "))
	}
	return nil
}

func (n NewTransaction) Validate() error {
	if err := validateType(n.Type); err != nil {
		return err
	}
	if err := validateAmount(n.Amount); err != nil {
		return err
	}
	if err := validateCategory(n.Category); err != nil {
		return err
	}
	if n.Date != nil && n.Date.IsZero() {
		return NewValidationError("date", "must not be zero")
	}
	return nil
}

// Build turns the request into a Transaction owned by ownerID, applying
// the currency and date defaults.
func (n NewTransaction) Build(ownerID string, now time.Time) Transaction {
	now = Timestamp(now)
	currency := strings.TrimSpace(n.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	date := now
	if n.Date != nil {
		date = Timestamp(*n.Date)
	}
	return Transaction{
		UserID:      ownerID,
		Type:        n.Type,
		Amount:      n.Amount,
		Currency:    currency,
		Category:    n.Category,
		Description: n.Description,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks only the supplied fields.
func (p TransactionPatch) Validate() error {
	if p.Type != nil {
		if err := validateType(*p.Type); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := validateAmount(*p.Amount); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if err := validateCategory(*p.Category); err != nil {
			return err
		}
	}
	if p.Date != nil && p.Date.IsZero() {
		return NewValidationError("date", "must not be zero")
	}
	return nil
}

// Normalize returns a copy with dates in store precision and a blank
// currency replaced by the default.
func (p TransactionPatch) Normalize() TransactionPatch {
	if p.Date != nil {
		d := Timestamp(*p.Date)
		p.Date = &d
	}
	if p.Currency != nil {
		c := strings.TrimSpace(*p.Currency)
		if c == "" {
			c = DefaultCurrency
		}
		p.Currency = &c
	}
	return p
}

// Apply returns t with the supplied fields replaced and UpdatedAt set.
// Stores without an atomic partial update primitive use it under their
// own lock.
func (p TransactionPatch) Apply(t Transaction, updatedAt time.Time) Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Currency != nil {
		t.Currency = *p.Currency
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	t.UpdatedAt = updatedAt
	return t
}
