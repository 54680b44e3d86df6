package engine

import (
	"testing"

	"bilancio/internal/core"
)

func monthlySchedule(start core.Date) core.RecurringSchedule {
	return core.RecurringSchedule{
		ID:             "sched-1",
		OwnerID:        "owner-1",
		Amount:         core.Money{Cents: 120_000},
		Description:    "mutuo",
		CategoryID:     "cat-1",
		Kind:           core.Expense,
		Frequency:      core.Monthly,
		StartDate:      start,
		NextOccurrence: start,
		Active:         true,
	}
}

func TestProjectNextOccurrence(t *testing.T) {
	cases := []struct {
		name string
		s    core.RecurringSchedule
		asOf core.Date
		want core.Date
		ok   bool
	}{
		{
			name: "monthly end-of-month clamp drifts",
			s:    monthlySchedule(core.NewDate(2024, 1, 31)),
			asOf: core.NewDate(2024, 3, 1),
			want: core.NewDate(2024, 3, 29), // Jan 31 -> Feb 29 -> Mar 29
			ok:   true,
		},
		{
			name: "already in the future returns as-is",
			s:    monthlySchedule(core.NewDate(2024, 6, 15)),
			asOf: core.NewDate(2024, 3, 1),
			want: core.NewDate(2024, 6, 15),
			ok:   true,
		},
		{
			name: "daily advances one day at a time",
			s: func() core.RecurringSchedule {
				s := monthlySchedule(core.NewDate(2024, 1, 1))
				s.Frequency = core.Daily
				return s
			}(),
			asOf: core.NewDate(2024, 1, 10),
			want: core.NewDate(2024, 1, 10),
			ok:   true,
		},
		{
			name: "weekly lands on the same weekday",
			s: func() core.RecurringSchedule {
				s := monthlySchedule(core.NewDate(2024, 1, 1)) // a Monday
				s.Frequency = core.Weekly
				return s
			}(),
			asOf: core.NewDate(2024, 1, 10),
			want: core.NewDate(2024, 1, 15),
			ok:   true,
		},
		{
			name: "yearly clamps Feb 29 to Feb 28",
			s: func() core.RecurringSchedule {
				s := monthlySchedule(core.NewDate(2024, 2, 29))
				s.Frequency = core.Yearly
				return s
			}(),
			asOf: core.NewDate(2024, 6, 1),
			want: core.NewDate(2025, 2, 28),
			ok:   true,
		},
		{
			name: "inactive schedule projects nothing",
			s: func() core.RecurringSchedule {
				s := monthlySchedule(core.NewDate(2024, 1, 1))
				s.Active = false
				return s
			}(),
			asOf: core.NewDate(2024, 1, 1),
			ok:   false,
		},
		{
			name: "lapsed schedule projects nothing",
			s: func() core.RecurringSchedule {
				s := monthlySchedule(core.NewDate(2024, 1, 1))
				s.EndDate = core.NewDate(2024, 1, 31)
				return s
			}(),
			asOf: core.NewDate(2024, 2, 1),
			ok:   false,
		},
		{
			name: "projection past end date projects nothing",
			s: func() core.RecurringSchedule {
				s := monthlySchedule(core.NewDate(2024, 1, 15))
				s.EndDate = core.NewDate(2024, 2, 10)
				return s
			}(),
			asOf: core.NewDate(2024, 2, 1), // next step would be Feb 15, past end
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ProjectNextOccurrence(tc.s, tc.asOf)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && !got.Equal(tc.want.Time) {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestProjectNextOccurrenceNeverMutates(t *testing.T) {
	s := monthlySchedule(core.NewDate(2024, 1, 31))
	before := s
	_, _ = ProjectNextOccurrence(s, core.NewDate(2024, 6, 1))
	if s != before {
		t.Errorf("schedule mutated by projection: %+v vs %+v", s, before)
	}
}

func TestComputeEndDate(t *testing.T) {
	cases := []struct {
		name          string
		start         core.Date
		years, months int
		want          core.Date
	}{
		{"thirty year mortgage", core.NewDate(2024, 1, 1), 30, 0, core.NewDate(2054, 1, 1)},
		{"years then months", core.NewDate(2024, 1, 15), 1, 6, core.NewDate(2025, 7, 15)},
		{"month-end clamp", core.NewDate(2024, 1, 31), 0, 1, core.NewDate(2024, 2, 29)},
		{"leap start plus one year", core.NewDate(2024, 2, 29), 1, 0, core.NewDate(2025, 2, 28)},
		{"zero duration is identity", core.NewDate(2024, 5, 10), 0, 0, core.NewDate(2024, 5, 10)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeEndDate(tc.start, tc.years, tc.months)
			if !got.Equal(tc.want.Time) {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestNextAfterUnknownFrequency(t *testing.T) {
	if _, ok := NextAfter(core.NewDate(2024, 1, 1), "fortnightly"); ok {
		t.Errorf("unknown frequency must not advance")
	}
}
