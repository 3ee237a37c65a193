// Package period resolves report period boundaries and owns the
// Monday-indexed weekday convention used by every aggregate.
package period

import (
	"strings"
	"time"

	"subtrack/internal/core"
)

const (
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
	Yearly  Kind = "yearly"
)

type (
	Kind string

	// Range is an inclusive pair of calendar days.
	Range struct {
		Start core.Date
		End   core.Date
	}
)

// ParseKind normalizes a period kind. Anything unrecognized maps to Yearly;
// that fallback is documented behavior, not input swallowing.
func ParseKind(s string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Weekly:
		return Weekly
	case Monthly:
		return Monthly
	default:
		return Yearly
	}
}

// Resolve computes the inclusive calendar bounds of the period containing
// anchor. Weeks start on Monday.
func Resolve(kind Kind, anchor core.Date) Range {
	switch kind {
	case Weekly:
		start := core.Date{Time: anchor.AddDate(0, 0, -ToMondayIndexed(anchor))}
		return Range{Start: start, End: core.Date{Time: start.AddDate(0, 0, 6)}}
	case Monthly:
		start := core.NewDate(anchor.Year(), int(anchor.Month()), 1)
		return Range{Start: start, End: core.Date{Time: start.AddDate(0, 1, -1)}}
	default:
		return Range{
			Start: core.NewDate(anchor.Year(), 1, 1),
			End:   core.NewDate(anchor.Year(), 12, 31),
		}
	}
}

// Contains reports whether day falls inside the range, bounds inclusive.
func (r Range) Contains(day core.Date) bool {
	return !day.Before(r.Start.Time) && !day.After(r.End.Time)
}

// Days returns the number of calendar days in the range.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start.Time).Hours()/24) + 1
}

// ToMondayIndexed converts a date's weekday to the Monday=0..Sunday=6
// convention. time.Weekday is Sunday=0; keeping the conversion in one place
// avoids the off-by-one both parallel code paths are prone to.
func ToMondayIndexed(d core.Date) int {
	return (int(d.Weekday()) + 6) % 7
}

// DaysInMonth returns the length of the calendar month containing d.
func DaysInMonth(d core.Date) int {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
