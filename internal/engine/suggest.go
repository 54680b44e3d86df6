package engine

import (
	"fmt"
	"sort"

	"bilancio/internal/core"
)

const (
	SuggestionWarning     SuggestionType = "warning"
	SuggestionTip         SuggestionType = "tip"
	SuggestionAchievement SuggestionType = "achievement"
)

type (
	SuggestionType string

	// Suggestion is one advisory message derived from a snapshot. Lower
	// priority numbers sort first.
	Suggestion struct {
		ID          string
		Type        SuggestionType
		Title       string
		Description string
		Priority    int
	}

	// RulePolicy configures the suggestion rules. Thresholds live with the
	// caller; the engine hardcodes no amounts.
	RulePolicy struct {
		// HighSpend triggers a warning when period expenses exceed it.
		HighSpend core.Money
		// MinRecords triggers a tracking tip when fewer rows exist.
		MinRecords int
	}
)

// DefaultRulePolicy mirrors the thresholds the product shipped with.
func DefaultRulePolicy() RulePolicy {
	return RulePolicy{
		HighSpend:  core.Money{Cents: 100_000},
		MinRecords: 5,
	}
}

// GenerateSuggestions evaluates the rule set against a snapshot.
//
// With zero records only the onboarding tip is emitted; every other rule
// is suppressed. Otherwise each rule fires independently against the same
// snapshot. The result is ordered by ascending priority, ties broken by
// rule evaluation order. An empty slice is possible only if no rule
// condition holds.
func GenerateSuggestions(snap Snapshot, recordCount int, rules RulePolicy) []Suggestion {
	if recordCount == 0 {
		return []Suggestion{{
			ID:          "get-started",
			Type:        SuggestionTip,
			Title:       "Inizia a tracciare le tue finanze",
			Description: "Aggiungi le tue prime transazioni per ricevere analisi personalizzate e consigli intelligenti.",
			Priority:    1,
		}}
	}

	var out []Suggestion

	if snap.PeriodExpenses.Cents > rules.HighSpend.Cents {
		out = append(out, Suggestion{
			ID:          "high-spending",
			Type:        SuggestionWarning,
			Title:       "Spese elevate rilevate",
			Description: fmt.Sprintf("Hai speso %s nel periodo. Considera di rivedere il tuo budget.", euro(snap.PeriodExpenses)),
			Priority:    1,
		})
	}

	if snap.PeriodIncome.Cents > snap.PeriodExpenses.Cents {
		surplus := core.Money{Cents: snap.PeriodIncome.Cents - snap.PeriodExpenses.Cents}
		out = append(out, Suggestion{
			ID:          "positive-savings",
			Type:        SuggestionAchievement,
			Title:       "Ottimo risparmio!",
			Description: fmt.Sprintf("Hai risparmiato %s nel periodo. Considera di investire parte di questa somma.", euro(surplus)),
			Priority:    2,
		})
	}

	if recordCount < rules.MinRecords {
		out = append(out, Suggestion{
			ID:          "track-more",
			Type:        SuggestionTip,
			Title:       "Traccia più transazioni",
			Description: "Registra tutte le tue spese per avere analisi più accurate e consigli personalizzati.",
			Priority:    3,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}
