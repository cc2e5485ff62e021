// Package storage implements the durable expense ledger on SQLite.
// Every operation is scoped by an explicit user id; cross-user leakage
// is a correctness bug, not an access-control concern.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"khata/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the ledger store. Reads are pure; the only mutations
// are Insert and DeleteByID.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if needed) the SQLite database at path
// and ensures the schema is current.
func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert persists a new expense for the user and returns the stored
// record with its assigned id. A zero `at` stamps the record with the
// local clock; tests pass explicit instants. The store re-checks the
// invariants even though the accountant validates first.
func (r *Repository) Insert(ctx context.Context, userID int64, amount core.Money, recipient string, mode core.PaymentMode, category core.Category, at time.Time) (core.Expense, error) {
	if at.IsZero() {
		at = time.Now()
	}
	e := core.Expense{
		UserID:    userID,
		Amount:    amount,
		Recipient: strings.TrimSpace(recipient),
		Mode:      mode,
		Category:  category,
		Date:      at.Format(core.DateLayout),
		Time:      at.Format(core.TimeLayout),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, amount_cents, recipient, mode_of_payment, category, spent_on, spent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Amount.Cents, e.Recipient, string(e.Mode), string(e.Category), e.Date, e.Time,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("read inserted id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category,
		"date", e.Date)

	return e, nil
}

// DeleteByID removes the expense and returns the amount that was
// stored, which the accountant refunds. Lookup and delete run in one
// transaction so the refunded amount always matches the removed row.
// Returns core.ErrNotFound when the id does not exist for this user.
func (r *Repository) DeleteByID(ctx context.Context, userID, id int64) (core.Money, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Money{}, fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	var cents int64
	err = tx.QueryRowContext(ctx,
		`SELECT amount_cents FROM expenses WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, core.ErrNotFound
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("look up expense: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`,
		id, userID,
	); err != nil {
		return core.Money{}, fmt.Errorf("delete expense: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Money{}, fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Expense deleted",
		"id", id,
		"user_id", userID,
		"refund_cents", cents)

	return core.Money{Cents: cents}, nil
}

// ListAll returns every expense for the user in insertion order
// (id ascending).
func (r *Repository) ListAll(ctx context.Context, userID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount_cents, recipient, mode_of_payment, category, spent_on, spent_at
		 FROM expenses WHERE user_id = ? ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		var mode, category string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount.Cents, &e.Recipient, &mode, &category, &e.Date, &e.Time); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Mode = core.PaymentMode(mode)
		e.Category = core.Category(category)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	return expenses, nil
}

// SumByCategory groups the user's expenses by category. Only
// categories with at least one record appear in the result.
func (r *Repository) SumByCategory(ctx context.Context, userID int64) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents) FROM expenses
		 WHERE user_id = ? GROUP BY category ORDER BY category`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var category string
		var cents int64
		if err := rows.Scan(&category, &cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, core.CategoryTotal{
			Category: core.Category(category),
			Total:    core.Money{Cents: cents},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}

	return totals, nil
}

// SumForMonth totals the user's spend for one year-month; zero if the
// month has no records.
func (r *Repository) SumForMonth(ctx context.Context, userID int64, year, month int) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		 WHERE user_id = ? AND strftime('%Y-%m', spent_on) = ?`,
		userID, monthKey(year, month),
	).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum for month: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// DailyTotalsForMonth groups the user's spend by exact date within the
// year-month, ordered by date ascending.
func (r *Repository) DailyTotalsForMonth(ctx context.Context, userID int64, year, month int) ([]core.DailyTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT spent_on, SUM(amount_cents) FROM expenses
		 WHERE user_id = ? AND strftime('%Y-%m', spent_on) = ?
		 GROUP BY spent_on ORDER BY spent_on ASC`,
		userID, monthKey(year, month),
	)
	if err != nil {
		return nil, fmt.Errorf("daily totals for month: %w", err)
	}
	defer rows.Close()

	var totals []core.DailyTotal
	for rows.Next() {
		var t core.DailyTotal
		if err := rows.Scan(&t.Date, &t.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}

	return totals, nil
}

// MonthOverview bundles the month total with its daily breakdown, the
// shape the digest worker reports on.
func (r *Repository) MonthOverview(ctx context.Context, userID int64, year, month int) (core.MonthOverview, error) {
	overview := core.MonthOverview{Year: year, Month: month}

	total, err := r.SumForMonth(ctx, userID, year, month)
	if err != nil {
		return overview, err
	}
	overview.Total = total

	byDay, err := r.DailyTotalsForMonth(ctx, userID, year, month)
	if err != nil {
		return overview, err
	}
	overview.ByDay = byDay

	return overview, nil
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
