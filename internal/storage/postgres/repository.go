// Package postgres stores users and transactions in PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"tracker/internal/core"
	"tracker/internal/storage"
)

const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

// Connect opens a pool for dsn, pings it and applies migrations.
func Connect(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := RunMigrations(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewRepository(pool), nil
}

// NewRepository wraps an already migrated pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const userColumns = "id, email, hashed_password, name, created_at"

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.Name, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (r *Repository) FindUserByID(ctx context.Context, id string) (*core.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *Repository) InsertUser(ctx context.Context, u core.User) (*core.User, error) {
	u.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.HashedPassword, u.Name, u.CreatedAt)
	if isUniqueViolation(err) {
		return nil, storage.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

// Amounts travel as text both ways so no precision is lost in a float.
const selectTx = `SELECT id, user_id, type, amount::text, currency, category, description, date, created_at, updated_at FROM transactions`

const returningTx = ` RETURNING id, user_id, type, amount::text, currency, category, description, date, created_at, updated_at`

func scanTransaction(row pgx.Row) (*core.Transaction, error) {
	var (
		t            core.Transaction
		kind, amount string
	)
	err := row.Scan(&t.ID, &t.UserID, &kind, &amount, &t.Currency, &t.Category, &t.Description, &t.Date, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.Kind(kind)
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	t.Date, t.CreatedAt, t.UpdatedAt = t.Date.UTC(), t.CreatedAt.UTC(), t.UpdatedAt.UTC()
	return &t, nil
}

func (r *Repository) FindTransaction(ctx context.Context, ownerID, id string) (*core.Transaction, error) {
	return scanTransaction(r.pool.QueryRow(ctx, selectTx+` WHERE id = $1 AND user_id = $2`, id, ownerID))
}

func (r *Repository) FindTransactions(ctx context.Context, f storage.TransactionFilter, order storage.Sort) ([]core.Transaction, error) {
	query := selectTx + ` WHERE user_id = $1`
	args := []any{f.OwnerID}
	if f.From != nil {
		args = append(args, *f.From)
		query += ` AND date >= $` + strconv.Itoa(len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += ` AND date < $` + strconv.Itoa(len(args))
	}
	if order == storage.DateDesc {
		query += ` ORDER BY date DESC, created_at DESC`
	}

	rows, err := r.pool.Query(ctx, query, args...)
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
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, currency, category, description, date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::text::numeric, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.UserID, string(t.Type), t.Amount.String(), t.Currency, t.Category, t.Description,
		t.Date, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return &t, nil
}

func (r *Repository) UpdateTransactionFields(ctx context.Context, ownerID, id string, p core.TransactionPatch, updatedAt time.Time) (*core.Transaction, error) {
	var (
		sets []string
		args []any
	)
	add := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, "$"+strconv.Itoa(len(args))))
	}
	if p.Type != nil {
		add("type = %s", string(*p.Type))
	}
	if p.Amount != nil {
		add("amount = %s::text::numeric", p.Amount.String())
	}
	if p.Currency != nil {
		add("currency = %s", *p.Currency)
	}
	if p.Category != nil {
		add("category = %s", *p.Category)
	}
	if p.Description != nil {
		add("description = %s", *p.Description)
	}
	if p.Date != nil {
		add("date = %s", *p.Date)
	}
	add("updated_at = %s", updatedAt)

	args = append(args, id, ownerID)
	query := `UPDATE transactions SET ` + strings.Join(sets, ", ") +
		fmt.Sprintf(` WHERE id = $%d AND user_id = $%d`, len(args)-1, len(args)) + returningTx
	return scanTransaction(r.pool.QueryRow(ctx, query, args...))
}

func (r *Repository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

var _ storage.Store = (*Repository)(nil)
