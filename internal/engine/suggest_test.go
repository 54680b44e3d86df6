package engine

import (
	"testing"

	"bilancio/internal/core"
)

func snapOf(incomeCents, expenseCents int64) Snapshot {
	return Snapshot{
		PeriodIncome:   core.Money{Cents: incomeCents},
		PeriodExpenses: core.Money{Cents: expenseCents},
		TotalBalance:   core.Money{Cents: incomeCents - expenseCents},
	}
}

func TestGenerateSuggestionsEmptyInput(t *testing.T) {
	got := GenerateSuggestions(snapOf(0, 0), 0, DefaultRulePolicy())
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want exactly 1 onboarding tip", len(got))
	}
	if got[0].ID != "get-started" || got[0].Type != SuggestionTip {
		t.Errorf("got %+v, want get-started tip", got[0])
	}
}

func TestGenerateSuggestionsRules(t *testing.T) {
	rules := DefaultRulePolicy()

	cases := []struct {
		name        string
		snap        Snapshot
		recordCount int
		wantIDs     []string
	}{
		{
			name:        "high spending fires warning",
			snap:        snapOf(0, 150_000),
			recordCount: 10,
			wantIDs:     []string{"high-spending"},
		},
		{
			name:        "surplus fires achievement",
			snap:        snapOf(250_000, 13_499),
			recordCount: 10,
			wantIDs:     []string{"positive-savings"},
		},
		{
			name:        "few records fires tip",
			snap:        snapOf(0, 0),
			recordCount: 3,
			wantIDs:     []string{"track-more"},
		},
		{
			name:        "rules are not mutually exclusive",
			snap:        snapOf(300_000, 150_000),
			recordCount: 3,
			wantIDs:     []string{"high-spending", "positive-savings", "track-more"},
		},
		{
			name:        "expenses at threshold do not warn",
			snap:        snapOf(0, 100_000),
			recordCount: 10,
			wantIDs:     nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GenerateSuggestions(tc.snap, tc.recordCount, rules)
			if len(got) != len(tc.wantIDs) {
				t.Fatalf("got %d suggestions %v, want %v", len(got), ids(got), tc.wantIDs)
			}
			for i, id := range tc.wantIDs {
				if got[i].ID != id {
					t.Errorf("position %d = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestGenerateSuggestionsOrderedByPriority(t *testing.T) {
	got := GenerateSuggestions(snapOf(300_000, 150_000), 3, DefaultRulePolicy())
	for i := 1; i < len(got); i++ {
		if got[i-1].Priority > got[i].Priority {
			t.Errorf("suggestions not sorted by priority: %v", ids(got))
		}
	}
}

func TestGenerateSuggestionsEmptyRuleOutcome(t *testing.T) {
	// Balanced books, plenty of records: no rule condition holds.
	got := GenerateSuggestions(snapOf(50_000, 50_000), 20, DefaultRulePolicy())
	if len(got) != 0 {
		t.Errorf("got %v, want no suggestions", ids(got))
	}
}

func ids(ss []Suggestion) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.ID
	}
	return out
}
