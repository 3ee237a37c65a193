// Package storage persists expenses, subscriptions, categories, and settings
// in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"subtrack/internal/core"
	"subtrack/internal/period"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
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

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateExpense inserts an expense, persisting the Monday-indexed weekday
// alongside the date so weekday aggregation reads a stored field.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	amounts, err := encodeAmounts(e.Amounts)
	if err != nil {
		return 0, fmt.Errorf("encode amounts: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, weekday, category_id, description, original_amount, original_currency, amounts_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Date.ISO(), period.ToMondayIndexed(e.Date), e.CategoryID, e.Description,
		e.OriginalAmount, string(e.OriginalCurrency), amounts)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense insert id: %w", err)
	}
	return id, nil
}

// UpdateExpense replaces an expense row, recomputing the persisted weekday.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	amounts, err := encodeAmounts(e.Amounts)
	if err != nil {
		return fmt.Errorf("encode amounts: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET date = ?, weekday = ?, category_id = ?, description = ?,
		 original_amount = ?, original_currency = ?, amounts_json = ? WHERE id = ?`,
		e.Date.ISO(), period.ToMondayIndexed(e.Date), e.CategoryID, e.Description,
		e.OriginalAmount, string(e.OriginalCurrency), amounts, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res, "expense", e.ID)
}

// DeleteExpense removes an expense row.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res, "expense", id)
}

// ListExpenses returns the full expense snapshot ordered by date.
func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, weekday, category_id, description, original_amount, original_currency, amounts_json
		 FROM expenses ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e        core.Expense
			date     string
			currency string
			amounts  string
		)
		if err := rows.Scan(&e.ID, &date, &e.Weekday, &e.CategoryID, &e.Description,
			&e.OriginalAmount, &currency, &amounts); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("expense %d has invalid date %q: %w", e.ID, date, err)
		}
		e.OriginalCurrency = core.Currency(currency)
		if e.Amounts, err = decodeAmounts(amounts); err != nil {
			return nil, fmt.Errorf("expense %d amounts: %w", e.ID, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// CreateSubscription inserts a subscription. A zero end date is stored as
// NULL, meaning open-ended.
func (r *SQLiteRepository) CreateSubscription(ctx context.Context, s core.Subscription) (int64, error) {
	amounts, err := encodeAmounts(s.Amounts)
	if err != nil {
		return 0, fmt.Errorf("encode amounts: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (name, category_id, description, original_amount, original_currency, amounts_json, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.CategoryID, s.Description, s.OriginalAmount, string(s.OriginalCurrency),
		amounts, s.StartDate.ISO(), nullableDate(s.EndDate))
	if err != nil {
		return 0, fmt.Errorf("create subscription: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("subscription insert id: %w", err)
	}
	return id, nil
}

// UpdateSubscription replaces a subscription row.
func (r *SQLiteRepository) UpdateSubscription(ctx context.Context, s core.Subscription) error {
	amounts, err := encodeAmounts(s.Amounts)
	if err != nil {
		return fmt.Errorf("encode amounts: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET name = ?, category_id = ?, description = ?, original_amount = ?,
		 original_currency = ?, amounts_json = ?, start_date = ?, end_date = ? WHERE id = ?`,
		s.Name, s.CategoryID, s.Description, s.OriginalAmount, string(s.OriginalCurrency),
		amounts, s.StartDate.ISO(), nullableDate(s.EndDate), s.ID)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return requireRow(res, "subscription", s.ID)
}

// DeleteSubscription removes a subscription row.
func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return requireRow(res, "subscription", id)
}

// ListSubscriptions returns the full subscription snapshot.
func (r *SQLiteRepository) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category_id, description, original_amount, original_currency, amounts_json, start_date, end_date
		 FROM subscriptions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subscriptions []core.Subscription
	for rows.Next() {
		var (
			s        core.Subscription
			currency string
			amounts  string
			start    string
			end      sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.CategoryID, &s.Description,
			&s.OriginalAmount, &currency, &amounts, &start, &end); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		s.OriginalCurrency = core.Currency(currency)
		if s.Amounts, err = decodeAmounts(amounts); err != nil {
			return nil, fmt.Errorf("subscription %d amounts: %w", s.ID, err)
		}
		if s.StartDate, err = core.ParseDate(start); err != nil {
			return nil, fmt.Errorf("subscription %d has invalid start date %q: %w", s.ID, start, err)
		}
		if end.Valid && end.String != "" {
			if s.EndDate, err = core.ParseDate(end.String); err != nil {
				return nil, fmt.Errorf("subscription %d has invalid end date %q: %w", s.ID, end.String, err)
			}
		}
		subscriptions = append(subscriptions, s)
	}
	return subscriptions, rows.Err()
}

// CreateCategory inserts a category. Names are unique case-insensitively.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, icon, is_default) VALUES (?, ?, ?)`,
		c.Name, c.Icon, c.IsDefault)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category insert id: %w", err)
	}
	return id, nil
}

// ListCategories returns all categories ordered by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, icon, is_default FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.IsDefault); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetSettings reads the singleton settings row.
func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.Settings, error) {
	var (
		s        core.Settings
		currency string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT default_currency, api_key, monthly_budget FROM settings WHERE id = 1`).
		Scan(&currency, &s.APIKey, &s.MonthlyBudget)
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	s.DefaultCurrency = core.Currency(currency)
	return s, nil
}

// UpdateSettings replaces the singleton settings row.
func (r *SQLiteRepository) UpdateSettings(ctx context.Context, s core.Settings) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE settings SET default_currency = ?, api_key = ?, monthly_budget = ? WHERE id = 1`,
		string(s.DefaultCurrency), s.APIKey, s.MonthlyBudget)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

func encodeAmounts(amounts map[core.Currency]float64) (string, error) {
	if amounts == nil {
		amounts = map[core.Currency]float64{}
	}
	data, err := json.Marshal(amounts)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeAmounts(data string) (map[core.Currency]float64, error) {
	amounts := map[core.Currency]float64{}
	if data == "" {
		return amounts, nil
	}
	if err := json.Unmarshal([]byte(data), &amounts); err != nil {
		return nil, err
	}
	return amounts, nil
}

func nullableDate(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.ISO()
}

func requireRow(res sql.Result, kind string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d rows affected: %w", kind, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, sql.ErrNoRows)
	}
	return nil
}
