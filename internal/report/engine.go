package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"subtrack/internal/core"
	"subtrack/internal/period"
)

// subscriptionsCategoryName is the shared category that collects pro-rated
// subscription spend when a subscription's own category is unknown.
const subscriptionsCategoryName = "subscriptions"

type (
	// ExpenseLister supplies a read-only expense snapshot.
	ExpenseLister interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
	}

	// SubscriptionLister supplies a read-only subscription snapshot.
	SubscriptionLister interface {
		ListSubscriptions(ctx context.Context) ([]core.Subscription, error)
	}

	// CategoryLister supplies a read-only category snapshot.
	CategoryLister interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	// DailyTotal is one day's spending bucket. RawDate is the stable ISO
	// key; Label is the human-readable form for the chosen period kind.
	DailyTotal struct {
		RawDate string  `json:"rawDate"`
		Label   string  `json:"label"`
		Amount  float64 `json:"amount"`
	}

	// CategoryTotal is one category's spending over the period.
	CategoryTotal struct {
		CategoryID   int64   `json:"categoryId"`
		CategoryName string  `json:"categoryName"`
		TotalAmount  float64 `json:"totalAmount"`
	}

	// PeriodMetrics is the full aggregate output for one report call.
	// Weekday arrays are Monday=0 through Sunday=6.
	PeriodMetrics struct {
		TotalOverallSpending      float64           `json:"totalOverallSpending"`
		DailyTotals               []DailyTotal      `json:"dailyTotals"`
		CategoryBreakdown         []CategoryTotal   `json:"categoryBreakdown"`
		WeekdayExpenseTotals      [7]float64        `json:"weekdayExpenseTotals"`
		WeekdaySubscriptionTotals [7]float64        `json:"weekdaySubscriptionTotals"`
		WeekdayOccurrences        [7]int            `json:"weekdayOccurrences"`
		DailySamplesByWeekday     map[int][]float64 `json:"dailySamplesByWeekday"`
	}

	// Engine folds expenses and pro-rated subscriptions into PeriodMetrics.
	// It is a pure function of its collaborators' snapshots; the only shared
	// state it touches indirectly is the rate cache behind the records'
	// precomputed conversion maps.
	Engine struct {
		expenses      ExpenseLister
		subscriptions SubscriptionLister
		categories    CategoryLister
	}
)

// NewEngine creates an aggregation engine over the given collaborators.
func NewEngine(expenses ExpenseLister, subscriptions SubscriptionLister, categories CategoryLister) *Engine {
	return &Engine{
		expenses:      expenses,
		subscriptions: subscriptions,
		categories:    categories,
	}
}

// ComputeMetrics builds the period aggregates for the resolved period around
// anchor, with every monetary value expressed in display. Data-quality
// problems in single records degrade to 0 with a warning; only collaborator
// failures surface as errors.
func (e *Engine) ComputeMetrics(ctx context.Context, kind period.Kind, anchor core.Date, display core.Currency) (PeriodMetrics, error) {
	bounds := period.Resolve(kind, anchor)

	expenses, err := e.expenses.ListExpenses(ctx)
	if err != nil {
		return PeriodMetrics{}, fmt.Errorf("list expenses: %w", err)
	}
	subscriptions, err := e.subscriptions.ListSubscriptions(ctx)
	if err != nil {
		return PeriodMetrics{}, fmt.Errorf("list subscriptions: %w", err)
	}
	categories, err := e.categories.ListCategories(ctx)
	if err != nil {
		return PeriodMetrics{}, fmt.Errorf("list categories: %w", err)
	}

	categoriesByID := make(map[int64]core.Category, len(categories))
	var sharedSubscriptionCategory int64
	hasSharedSubscriptionCategory := false
	for _, c := range categories {
		categoriesByID[c.ID] = c
		if strings.EqualFold(c.Name, subscriptionsCategoryName) {
			sharedSubscriptionCategory = c.ID
			hasSharedSubscriptionCategory = true
		}
	}

	spanDays := bounds.Days()
	metrics := PeriodMetrics{
		DailyTotals:           make([]DailyTotal, 0, spanDays),
		DailySamplesByWeekday: make(map[int][]float64, 7),
	}

	// One bucket per calendar day, indexed by ISO date.
	bucketIndex := make(map[string]int, spanDays)
	for day := bounds.Start; !day.After(bounds.End.Time); day = day.Next() {
		bucketIndex[day.ISO()] = len(metrics.DailyTotals)
		metrics.DailyTotals = append(metrics.DailyTotals, DailyTotal{
			RawDate: day.ISO(),
			Label:   dayLabel(kind, day, spanDays),
		})
		metrics.WeekdayOccurrences[period.ToMondayIndexed(day)]++
	}

	categoryTotals := make(map[int64]float64)

	for _, exp := range expenses {
		if !bounds.Contains(exp.Date) {
			continue
		}
		amount, ok := amountIn(exp.Amounts, exp.OriginalAmount, exp.OriginalCurrency, display)
		if !ok {
			slog.WarnContext(ctx, "Expense has no usable amount in display currency, counting as 0",
				"expense_id", exp.ID,
				"display_currency", display)
		}
		if idx, found := bucketIndex[exp.Date.ISO()]; found {
			metrics.DailyTotals[idx].Amount += amount
		}
		categoryTotals[exp.CategoryID] += amount

		// Weekday classification reads the weekday persisted with the
		// expense, independent of the daily buckets.
		if exp.Weekday >= 0 && exp.Weekday < 7 {
			metrics.WeekdayExpenseTotals[exp.Weekday] += amount
		} else {
			slog.WarnContext(ctx, "Expense has out-of-range weekday, skipping weekday total",
				"expense_id", exp.ID,
				"weekday", exp.Weekday)
		}
	}

	for _, sub := range subscriptions {
		categoryID := resolveSubscriptionCategory(sub, categoriesByID, sharedSubscriptionCategory, hasSharedSubscriptionCategory)
		for day := bounds.Start; !day.After(bounds.End.Time); day = day.Next() {
			contribution := DailyContribution(ctx, sub, day, display)
			if contribution <= 0 {
				continue
			}
			idx := bucketIndex[day.ISO()]
			metrics.DailyTotals[idx].Amount += contribution
			categoryTotals[categoryID] += contribution
			metrics.WeekdaySubscriptionTotals[period.ToMondayIndexed(day)] += contribution
		}
	}

	for _, bucket := range metrics.DailyTotals {
		metrics.TotalOverallSpending += bucket.Amount
		day, err := core.ParseDate(bucket.RawDate)
		if err != nil {
			continue
		}
		weekday := period.ToMondayIndexed(day)
		metrics.DailySamplesByWeekday[weekday] = append(metrics.DailySamplesByWeekday[weekday], bucket.Amount)
	}

	metrics.CategoryBreakdown = buildCategoryBreakdown(categoryTotals, categoriesByID)

	return metrics, nil
}

// resolveSubscriptionCategory picks the bucket a subscription's spend lands
// in: its own category when known, the shared subscriptions category when
// one exists, or the synthesized uncategorized bucket.
func resolveSubscriptionCategory(sub core.Subscription, categories map[int64]core.Category, shared int64, hasShared bool) int64 {
	if _, known := categories[sub.CategoryID]; known {
		return sub.CategoryID
	}
	if hasShared {
		return shared
	}
	return core.UncategorizedSubscriptionsID
}

// buildCategoryBreakdown keeps only positive totals, resolves names, and
// sorts descending by amount with a name tiebreak for stable output.
func buildCategoryBreakdown(totals map[int64]float64, categories map[int64]core.Category) []CategoryTotal {
	breakdown := make([]CategoryTotal, 0, len(totals))
	for id, total := range totals {
		if total <= 0 {
			continue
		}
		breakdown = append(breakdown, CategoryTotal{
			CategoryID:   id,
			CategoryName: categoryName(id, categories),
			TotalAmount:  total,
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].TotalAmount != breakdown[j].TotalAmount {
			return breakdown[i].TotalAmount > breakdown[j].TotalAmount
		}
		return breakdown[i].CategoryName < breakdown[j].CategoryName
	})
	return breakdown
}

func categoryName(id int64, categories map[int64]core.Category) string {
	if id == core.UncategorizedSubscriptionsID {
		return "Uncategorized subscriptions"
	}
	if c, ok := categories[id]; ok && strings.TrimSpace(c.Name) != "" {
		return c.Name
	}
	return "Uncategorized"
}

// dayLabel renders the human-readable bucket label: day-of-month for monthly
// periods, "Jan 2" for weekly, and for yearly the month abbreviation once the
// span exceeds a month.
func dayLabel(kind period.Kind, day core.Date, spanDays int) string {
	switch kind {
	case period.Monthly:
		return strconv.Itoa(day.Day())
	case period.Weekly:
		return day.Format("Jan 2")
	default:
		if spanDays > 31 {
			return day.Format("Jan")
		}
		return day.Format("Jan 2")
	}
}
