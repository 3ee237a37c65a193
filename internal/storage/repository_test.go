package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "subtrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrationsSeedDefaults(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	settings, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.USD, settings.DefaultCurrency)
	assert.Empty(t, settings.APIKey)

	categories, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
		assert.True(t, c.IsDefault)
	}
	assert.Contains(t, names, "Subscriptions")
	assert.Contains(t, names, "Groceries")
}

func TestExpenseRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	expense := core.Expense{
		Date:             core.NewDate(2024, 2, 10), // Saturday
		CategoryID:       1,
		Description:      "market",
		OriginalAmount:   100,
		OriginalCurrency: core.USD,
		Amounts:          map[core.Currency]float64{core.USD: 100, core.EUR: 92},
	}

	id, err := repo.CreateExpense(ctx, expense)
	require.NoError(t, err)
	require.NotZero(t, id)

	expenses, err := repo.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 1)

	got := expenses[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "2024-02-10", got.Date.ISO())
	assert.Equal(t, 5, got.Weekday, "Saturday persists as Monday-indexed 5")
	assert.Equal(t, 92.0, got.Amounts[core.EUR])

	got.Description = "weekly market"
	got.Date = core.NewDate(2024, 2, 12) // Monday
	require.NoError(t, repo.UpdateExpense(ctx, got))

	expenses, err = repo.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, 0, expenses[0].Weekday, "update recomputes the weekday")
	assert.Equal(t, "weekly market", expenses[0].Description)

	require.NoError(t, repo.DeleteExpense(ctx, id))
	expenses, err = repo.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestExpenseMissingRow(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.DeleteExpense(ctx, 999)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	err = repo.UpdateExpense(ctx, core.Expense{ID: 999, Date: core.NewDate(2024, 1, 1)})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSubscriptionRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	open := core.Subscription{
		Name:             "Streaming",
		CategoryID:       5,
		OriginalAmount:   290,
		OriginalCurrency: core.USD,
		Amounts:          map[core.Currency]float64{core.USD: 290},
		StartDate:        core.NewDate(2024, 1, 1),
	}

	id, err := repo.CreateSubscription(ctx, open)
	require.NoError(t, err)

	subscriptions, err := repo.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subscriptions, 1)
	assert.True(t, subscriptions[0].EndDate.IsEmpty(), "NULL end date reads back as open-ended")

	ended := subscriptions[0]
	ended.EndDate = core.NewDate(2024, 2, 14)
	require.NoError(t, repo.UpdateSubscription(ctx, ended))

	subscriptions, err = repo.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subscriptions, 1)
	assert.Equal(t, "2024-02-14", subscriptions[0].EndDate.ISO())

	require.NoError(t, repo.DeleteSubscription(ctx, id))
	err = repo.DeleteSubscription(ctx, id)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCategoryNamesAreUniqueCaseInsensitively(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.CreateCategory(ctx, core.Category{Name: "Travel"})
	require.NoError(t, err)

	_, err = repo.CreateCategory(ctx, core.Category{Name: "TRAVEL"})
	assert.Error(t, err)
}

func TestSettingsSingleton(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.UpdateSettings(ctx, core.Settings{
		DefaultCurrency: core.EUR,
		APIKey:          "key123",
		MonthlyBudget:   1500,
	}))

	settings, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.EUR, settings.DefaultCurrency)
	assert.Equal(t, "key123", settings.APIKey)
	assert.Equal(t, 1500.0, settings.MonthlyBudget)
}
