// Package sqlite persists the ledger in a local SQLite database through
// database/sql and the modernc driver. Schema lives in embedded migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/barthos4/ma-caisse/internal/core"
	"github.com/barthos4/ma-caisse/internal/store"
)

const dateLayout = "2006-01-02"

type Repository struct {
	db *sql.DB
}

var (
	_ store.Repository  = (*Repository)(nil)
	_ store.MirrorQueue = (*Repository)(nil)
)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
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

// ---- transactions ----

func (r *Repository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, order_number, tx_date, description, reference, amount_cents, kind, category_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.OwnerID, tx.OrderNumber, tx.Date.Format(dateLayout), tx.Description,
		tx.Reference, tx.Amount.Cents, string(tx.Kind), nullable(tx.CategoryID), tx.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents,
		"kind", tx.Kind)

	return tx, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET order_number = ?, tx_date = ?, description = ?, reference = ?, amount_cents = ?, kind = ?, category_id = ?, mirror_status = 'pending'
		WHERE id = ? AND owner_id = ?`,
		tx.OrderNumber, tx.Date.Format(dateLayout), tx.Description, tx.Reference,
		tx.Amount.Cents, string(tx.Kind), nullable(tx.CategoryID), tx.ID, tx.OwnerID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return r.GetTransaction(ctx, tx.OwnerID, tx.ID)
}

func (r *Repository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, order_number, tx_date, description, reference, amount_cents, kind, category_id, created_at
		FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *Repository) ListTransactions(ctx context.Context, ownerID string, from, to time.Time) ([]core.Transaction, error) {
	query := `
		SELECT id, owner_id, order_number, tx_date, description, reference, amount_cents, kind, category_id, created_at
		FROM transactions WHERE owner_id = ?`
	args := []any{ownerID}
	if !from.IsZero() {
		query += ` AND tx_date >= ?`
		args = append(args, from.Format(dateLayout))
	}
	if !to.IsZero() {
		query += ` AND tx_date <= ?`
		args = append(args, to.Format(dateLayout))
	}
	query += ` ORDER BY tx_date, created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		tx       core.Transaction
		date     string
		kind     string
		category sql.NullString
	)
	err := s.Scan(&tx.ID, &tx.OwnerID, &tx.OrderNumber, &date, &tx.Description,
		&tx.Reference, &tx.Amount.Cents, &kind, &category, &tx.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Kind = core.Kind(kind)
	tx.CategoryID = category.String
	tx.Date, err = time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse tx date %q: %w", date, err)
	}
	return tx, nil
}

// ---- categories ----

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, owner_id, name, kind, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, string(c.Kind), c.CreatedAt)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, kind = ? WHERE id = ? AND owner_id = ?`,
		c.Name, string(c.Kind), c.ID, c.OwnerID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, ownerID, id string) error {
	var refs int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id = ? AND owner_id = ?`,
		id, ownerID).Scan(&refs)
	if err != nil {
		return fmt.Errorf("count category references: %w", err)
	}
	if refs > 0 {
		return core.ErrCategoryInUse
	}

	// Budget entries follow the category; transactions were just ruled out.
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM budget_entries WHERE category_id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return fmt.Errorf("delete category budgets: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, kind, created_at
		FROM categories WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c    core.Category
			kind string
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &kind, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.Kind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ---- budgets ----

func (r *Repository) UpsertBudget(ctx context.Context, b core.BudgetEntry) (core.BudgetEntry, error) {
	b.Month = core.MonthStart(b.Month)
	if err := b.Validate(); err != nil {
		return core.BudgetEntry{}, err
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budget_entries (id, owner_id, category_id, month, planned_cents, kind)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, category_id, month, kind)
		DO UPDATE SET planned_cents = excluded.planned_cents`,
		b.ID, b.OwnerID, b.CategoryID, b.Month.Format(dateLayout), b.Planned.Cents, string(b.Kind))
	if err != nil {
		return core.BudgetEntry{}, fmt.Errorf("upsert budget entry: %w", err)
	}

	slog.InfoContext(ctx, "Budget entry upserted",
		"category_id", b.CategoryID,
		"month", b.Month.Format(dateLayout),
		"planned_cents", b.Planned.Cents,
		"kind", b.Kind)

	return b, nil
}

func (r *Repository) ListBudgets(ctx context.Context, ownerID string, month time.Time) ([]core.BudgetEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, category_id, month, planned_cents, kind
		FROM budget_entries WHERE owner_id = ? AND month = ?`,
		ownerID, core.MonthStart(month).Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list budget entries: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetEntry
	for rows.Next() {
		var (
			b        core.BudgetEntry
			monthStr string
			kind     string
		)
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.CategoryID, &monthStr, &b.Planned.Cents, &kind); err != nil {
			return nil, fmt.Errorf("scan budget entry: %w", err)
		}
		b.Kind = core.Kind(kind)
		b.Month, err = time.ParseInLocation(dateLayout, monthStr, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse budget month %q: %w", monthStr, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ---- settings ----

func (r *Repository) GetSettings(ctx context.Context, ownerID string) (core.Settings, error) {
	var s core.Settings
	err := r.db.QueryRowContext(ctx, `
		SELECT owner_id, company_name, address, logo_url, rccm, niu
		FROM settings WHERE owner_id = ?`, ownerID).
		Scan(&s.OwnerID, &s.CompanyName, &s.Address, &s.LogoURL, &s.RCCM, &s.NIU)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, core.ErrNotFound
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

func (r *Repository) UpsertSettings(ctx context.Context, s core.Settings) (core.Settings, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (owner_id, company_name, address, logo_url, rccm, niu)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id)
		DO UPDATE SET company_name = excluded.company_name, address = excluded.address,
			logo_url = excluded.logo_url, rccm = excluded.rccm, niu = excluded.niu`,
		s.OwnerID, s.CompanyName, s.Address, s.LogoURL, s.RCCM, s.NIU)
	if err != nil {
		return core.Settings{}, fmt.Errorf("upsert settings: %w", err)
	}
	return s, nil
}

// ---- mirror queue ----

func (r *Repository) PendingMirrors(ctx context.Context, limit int) ([]store.PendingMirror, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, created_at FROM transactions
		WHERE mirror_status = 'pending' ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending mirrors: %w", err)
	}
	defer rows.Close()

	var out []store.PendingMirror
	for rows.Next() {
		var p store.PendingMirror
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending mirror: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) MarkMirrored(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET mirror_status = 'done' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark mirrored: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as mirrored", "id", id)
	return nil
}

func (r *Repository) MarkMirrorError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET mirror_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark mirror error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with mirror error", "id", id)
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
