package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CHF Currency = "CHF"
)

// UncategorizedSubscriptionsID is the synthesized category bucket that
// collects subscription spend when a subscription has no known category and
// no shared "Subscriptions" category exists.
const UncategorizedSubscriptionsID int64 = -1

type (
	Currency string

	Date struct {
		time.Time
	}

	Expense struct {
		ID               int64
		Date             Date
		CategoryID       int64
		Description      string
		OriginalAmount   float64
		OriginalCurrency Currency
		// Amounts holds the amount converted to every supported currency,
		// captured when the expense was created or last updated.
		Amounts map[Currency]float64
		// Weekday is persisted at write time, Monday=0 through Sunday=6.
		Weekday int
	}

	Subscription struct {
		ID          int64
		Name        string
		CategoryID  int64
		Description string
		// OriginalAmount is a monthly figure. Daily figures are always
		// derived from it, never stored.
		OriginalAmount   float64
		OriginalCurrency Currency
		Amounts          map[Currency]float64
		StartDate        Date
		// EndDate is inclusive; the zero value means open-ended.
		EndDate Date
	}

	Category struct {
		ID        int64
		Name      string
		Icon      string
		IsDefault bool
	}

	Settings struct {
		DefaultCurrency Currency
		APIKey          string
		MonthlyBudget   float64
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCurrency    = errors.New("unsupported currency")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyName          = errors.New("empty name")
	ErrEndBeforeStart     = errors.New("end date before start date")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// supportedCurrencies is the fixed set every conversion map is keyed by.
var supportedCurrencies = []Currency{USD, EUR, GBP, JPY, CHF}

// SupportedCurrencies returns the supported currency set in stable order.
func SupportedCurrencies() []Currency {
	out := make([]Currency, len(supportedCurrencies))
	copy(out, supportedCurrencies)
	return out
}

// IsSupported reports whether c is one of the supported currencies.
func (c Currency) IsSupported() bool {
	for _, s := range supportedCurrencies {
		if c == s {
			return true
		}
	}
	return false
}

// ParseCurrency normalizes and validates a currency code.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsSupported() {
		return "", ErrInvalidCurrency
	}
	return c, nil
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO calendar day (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO returns the stable per-day key format.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// IsEmpty reports whether the date is unset (open-ended subscription end).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	return Date{Time: d.AddDate(0, 0, 1)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// SafeAmount guards aggregation loops against corrupt stored numbers.
// It returns the value unchanged and true for finite numbers, or 0 and
// false for NaN and infinities, so callers can log the defaulting path
// instead of inferring it from output.
func SafeAmount(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.OriginalAmount <= 0 {
		return ErrInvalidAmount
	}
	if !e.OriginalCurrency.IsSupported() {
		return ErrInvalidCurrency
	}
	if len(e.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (s Subscription) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyName
	}
	if err := s.StartDate.Validate(); err != nil {
		return err
	}
	if !s.EndDate.IsEmpty() && s.EndDate.Before(s.StartDate.Time) {
		return ErrEndBeforeStart
	}
	if s.OriginalAmount <= 0 {
		return ErrInvalidAmount
	}
	if !s.OriginalCurrency.IsSupported() {
		return ErrInvalidCurrency
	}
	if len(s.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	return nil
}
