// Package sqlite stores users and transactions in a SQLite file.
//
// Amounts are kept as exact decimal text and instants as fixed-width UTC
// text, so range filters and ordering work on plain string comparison.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tracker/internal/core"
	"tracker/internal/storage"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if needed) the database at dbPath and
// migrates it.
func NewRepository(ctx context.Context, dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const userColumns = "id, email, hashed_password, name, created_at"

func scanUser(row interface{ Scan(...any) error }) (*core.User, error) {
	var (
		u       core.User
		created string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	var err error
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) FindUserByID(ctx context.Context, id string) (*core.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
}

func (r *Repository) InsertUser(ctx context.Context, u core.User) (*core.User, error) {
	u.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?)",
		u.ID, u.Email, u.HashedPassword, u.Name, formatTime(u.CreatedAt))
	if isUniqueViolation(err) {
		return nil, storage.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

const txColumns = "id, user_id, type, amount, currency, category, description, date, created_at, updated_at"

func scanTransaction(row interface{ Scan(...any) error }) (*core.Transaction, error) {
	var (
		t                      core.Transaction
		kind, amount           string
		date, created, updated string
	)
	err := row.Scan(&t.ID, &t.UserID, &kind, &amount, &t.Currency, &t.Category, &t.Description, &date, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.Kind(kind)
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	if t.Date, err = parseTime(date); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) FindTransaction(ctx context.Context, ownerID, id string) (*core.Transaction, error) {
	return scanTransaction(r.db.QueryRowContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE id = ? AND user_id = ?", id, ownerID))
}

func (r *Repository) FindTransactions(ctx context.Context, f storage.TransactionFilter, order storage.Sort) ([]core.Transaction, error) {
	query := "SELECT " + txColumns + " FROM transactions WHERE user_id = ?"
	args := []any{f.OwnerID}
	if f.From != nil {
		query += " AND date >= ?"
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += " AND date < ?"
		args = append(args, formatTime(*f.To))
	}
	if order == storage.DateDesc {
		query += " ORDER BY date DESC, created_at DESC"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) (*core.Transaction, error) {
	t.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO transactions ("+txColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.UserID, string(t.Type), t.Amount.String(), t.Currency, t.Category, t.Description,
		formatTime(t.Date), formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return &t, nil
}

// setClause lists the patch's supplied columns plus updated_at.
func setClause(p core.TransactionPatch, updatedAt time.Time) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Type != nil {
		add("type", string(*p.Type))
	}
	if p.Amount != nil {
		add("amount", p.Amount.String())
	}
	if p.Currency != nil {
		add("currency", *p.Currency)
	}
	if p.Category != nil {
		add("category", *p.Category)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Date != nil {
		add("date", formatTime(*p.Date))
	}
	add("updated_at", formatTime(updatedAt))
	return strings.Join(sets, ", "), args
}

func (r *Repository) UpdateTransactionFields(ctx context.Context, ownerID, id string, p core.TransactionPatch, updatedAt time.Time) (*core.Transaction, error) {
	set, args := setClause(p, updatedAt)
	args = append(args, id, ownerID)
	return scanTransaction(r.db.QueryRowContext(ctx,
		"UPDATE transactions SET "+set+" WHERE id = ? AND user_id = ? RETURNING "+txColumns, args...))
}

func (r *Repository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

var _ storage.Store = (*Repository)(nil)
