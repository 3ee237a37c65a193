package period

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"subtrack/internal/core"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		kind      Kind
		anchor    core.Date
		wantStart core.Date
		wantEnd   core.Date
	}{
		{
			name:      "weekly mid-week anchor snaps to Monday",
			kind:      Weekly,
			anchor:    core.NewDate(2024, 2, 15), // Thursday
			wantStart: core.NewDate(2024, 2, 12),
			wantEnd:   core.NewDate(2024, 2, 18),
		},
		{
			name:      "weekly Monday anchor keeps Monday",
			kind:      Weekly,
			anchor:    core.NewDate(2024, 2, 12),
			wantStart: core.NewDate(2024, 2, 12),
			wantEnd:   core.NewDate(2024, 2, 18),
		},
		{
			name:      "weekly Sunday anchor stays in the same ISO week",
			kind:      Weekly,
			anchor:    core.NewDate(2024, 2, 18),
			wantStart: core.NewDate(2024, 2, 12),
			wantEnd:   core.NewDate(2024, 2, 18),
		},
		{
			name:      "weekly week spanning a month boundary",
			kind:      Weekly,
			anchor:    core.NewDate(2024, 3, 1), // Friday
			wantStart: core.NewDate(2024, 2, 26),
			wantEnd:   core.NewDate(2024, 3, 3),
		},
		{
			name:      "monthly leap February",
			kind:      Monthly,
			anchor:    core.NewDate(2024, 2, 15),
			wantStart: core.NewDate(2024, 2, 1),
			wantEnd:   core.NewDate(2024, 2, 29),
		},
		{
			name:      "monthly non-leap February",
			kind:      Monthly,
			anchor:    core.NewDate(2023, 2, 10),
			wantStart: core.NewDate(2023, 2, 1),
			wantEnd:   core.NewDate(2023, 2, 28),
		},
		{
			name:      "monthly 31-day month",
			kind:      Monthly,
			anchor:    core.NewDate(2024, 1, 31),
			wantStart: core.NewDate(2024, 1, 1),
			wantEnd:   core.NewDate(2024, 1, 31),
		},
		{
			name:      "yearly",
			kind:      Yearly,
			anchor:    core.NewDate(2024, 6, 15),
			wantStart: core.NewDate(2024, 1, 1),
			wantEnd:   core.NewDate(2024, 12, 31),
		},
		{
			name:      "unknown kind defaults to yearly",
			kind:      Kind("quarterly"),
			anchor:    core.NewDate(2024, 6, 15),
			wantStart: core.NewDate(2024, 1, 1),
			wantEnd:   core.NewDate(2024, 12, 31),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.kind, tt.anchor)
			assert.Equal(t, tt.wantStart, got.Start)
			assert.Equal(t, tt.wantEnd, got.End)
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"weekly", Weekly},
		{"WEEKLY", Weekly},
		{" monthly ", Monthly},
		{"yearly", Yearly},
		{"", Yearly},
		{"quarterly", Yearly},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKind(tt.input))
		})
	}
}

func TestToMondayIndexed(t *testing.T) {
	tests := []struct {
		name string
		day  core.Date
		want int
	}{
		{"Monday", core.NewDate(2024, 2, 12), 0},
		{"Wednesday", core.NewDate(2024, 2, 14), 2},
		{"Saturday", core.NewDate(2024, 2, 17), 5},
		{"Sunday", core.NewDate(2024, 2, 18), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMondayIndexed(tt.day))
		})
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		name string
		day  core.Date
		want int
	}{
		{"leap February", core.NewDate(2024, 2, 10), 29},
		{"non-leap February", core.NewDate(2023, 2, 10), 28},
		{"January", core.NewDate(2024, 1, 1), 31},
		{"April", core.NewDate(2024, 4, 30), 30},
		{"century non-leap", core.NewDate(1900, 2, 1), 28},
		{"quad-century leap", core.NewDate(2000, 2, 1), 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysInMonth(tt.day))
		})
	}
}

func TestRangeDaysAndContains(t *testing.T) {
	r := Resolve(Monthly, core.NewDate(2024, 2, 15))
	assert.Equal(t, 29, r.Days())

	assert.True(t, r.Contains(core.NewDate(2024, 2, 1)))
	assert.True(t, r.Contains(core.NewDate(2024, 2, 29)))
	assert.False(t, r.Contains(core.NewDate(2024, 1, 31)))
	assert.False(t, r.Contains(core.NewDate(2024, 3, 1)))
}
