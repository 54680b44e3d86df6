package engine

import (
	"fmt"
	"strconv"

	"bilancio/internal/core"
)

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

type (
	// Trend labels the spending level of a category within a period.
	Trend string

	// Thresholds bound the stable band. They are caller configuration;
	// the classifier owns no currency-specific constants.
	Thresholds struct {
		Low  core.Money
		High core.Money
	}

	// Insight is the classification of one category's period total.
	Insight struct {
		CategoryID     string
		Total          core.Money
		Trend          Trend
		Recommendation string
	}
)

// Classify labels a category total against the thresholds: above High is
// an upward trend with a cautionary message, below Low a downward trend
// with positive reinforcement, anything between a neutral restatement of
// the amount. Defined for every non-negative total; no error cases.
func Classify(categoryID string, total core.Money, th Thresholds) Insight {
	in := Insight{CategoryID: categoryID, Total: total}
	switch {
	case total.Cents > th.High.Cents:
		in.Trend = TrendUp
		in.Recommendation = "Spese elevate per questa categoria. Considera di impostare un budget mensile."
	case total.Cents < th.Low.Cents:
		in.Trend = TrendDown
		in.Recommendation = "Spese contenute per questa categoria. Ottimo controllo!"
	default:
		in.Trend = TrendStable
		in.Recommendation = fmt.Sprintf("Hai speso %s in questa categoria nel periodo.", euro(total))
	}
	return in
}

// ClassifyAll classifies every category total in the map. Order of the
// result follows no particular sequence; callers sort for display.
func ClassifyAll(totals map[string]CategoryTotal, th Thresholds) []Insight {
	insights := make([]Insight, 0, len(totals))
	for id, ct := range totals {
		insights = append(insights, Classify(id, ct.Total, th))
	}
	return insights
}

// euro renders cents in the local display convention (comma separator).
func euro(m core.Money) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "," + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-€" + s
	}
	return "€" + s
}
