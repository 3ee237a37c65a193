// Package report merges one-off expenses and pro-rated subscriptions into
// period spending aggregates.
package report

import (
	"context"
	"log/slog"

	"subtrack/internal/core"
	"subtrack/internal/period"
)

// IsActive reports whether the subscription covers day. Both bounds are
// inclusive; an empty end date means open-ended.
func IsActive(sub core.Subscription, day core.Date) bool {
	if day.Before(sub.StartDate.Time) {
		return false
	}
	return sub.EndDate.IsEmpty() || !day.After(sub.EndDate.Time)
}

// DailyContribution returns the subscription's share of day in the display
// currency: the monthly amount divided by the length of the calendar month
// containing day. A subscription spanning a month boundary is therefore
// pro-rated at a different daily rate on either side of the boundary; the
// billing cycle is never anchored to the start date.
//
// This runs inside tight aggregation loops, so missing or corrupt conversion
// data degrades to 0 with a warning instead of failing.
func DailyContribution(ctx context.Context, sub core.Subscription, day core.Date, display core.Currency) float64 {
	if !IsActive(sub, day) {
		return 0
	}

	monthly, ok := amountIn(sub.Amounts, sub.OriginalAmount, sub.OriginalCurrency, display)
	if !ok {
		slog.WarnContext(ctx, "Subscription has no usable amount in display currency",
			"subscription_id", sub.ID,
			"name", sub.Name,
			"display_currency", display)
		return 0
	}

	return monthly / float64(period.DaysInMonth(day))
}

// amountIn reads a record's precomputed conversion for the display currency.
// When the map entry is missing, the original amount serves only if it is
// already in the display currency; anything else reports no usable amount.
// Corrupt stored numbers are defaulted through core.SafeAmount.
func amountIn(amounts map[core.Currency]float64, original float64, originalCurrency, display core.Currency) (float64, bool) {
	if v, ok := amounts[display]; ok {
		return core.SafeAmount(v)
	}
	if originalCurrency == display {
		return core.SafeAmount(original)
	}
	return 0, false
}
