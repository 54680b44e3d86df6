// Package engine implements the financial aggregation and insight layer:
// pure reductions from transaction sets to balances, per-category totals,
// trend classifications, advisory suggestions, and recurrence projections.
//
// Every function here is side-effect free and deterministic. Callers fetch
// record sets from storage (always pre-scoped by owner) and invoke the
// engine synchronously; concurrent calls with different inputs need no
// coordination. Sums are computed in integer cents, never floating point,
// so repeated calls over the same input are bit-identical.
package engine

import (
	"bilancio/internal/core"
)

// Window bounds an aggregation by calendar date, inclusive on both ends.
// A zero From or To leaves that side unbounded.
type Window struct {
	From core.Date
	To   core.Date
}

// AllTime is the unbounded window used to compute the running balance.
var AllTime = Window{}

// MonthWindow covers a single calendar month.
func MonthWindow(year, month int) Window {
	first := core.NewDate(year, month, 1)
	last := core.NewDate(year, month+1, 0)
	return Window{From: first, To: last}
}

func (w Window) contains(d core.Date) bool {
	if !w.From.IsZero() && d.Before(w.From.Time) {
		return false
	}
	if !w.To.IsZero() && d.After(w.To.Time) {
		return false
	}
	return true
}

// Snapshot is a derived aggregate over a window. It is never persisted;
// callers recompute it on demand from the current record set.
type Snapshot struct {
	PeriodIncome   core.Money
	PeriodExpenses core.Money
	// TotalBalance is income minus expenses over the window; signed.
	TotalBalance core.Money
	// SavingsRatePercent is ((income-expenses)/income)*100, or 0 when the
	// window has no income. Never NaN or infinite.
	SavingsRatePercent float64
}

// CategoryTotal accumulates the spend and row count for one category.
type CategoryTotal struct {
	Total core.Money
	Count int
}

// Aggregate reduces records falling inside window to a Snapshot.
//
// Malformed records are rejected with a *core.ValidationError naming the
// offending field; nothing is coerced or skipped, since a silently dropped
// row would corrupt the totals.
func Aggregate(records []core.Transaction, window Window) (Snapshot, error) {
	var income, expenses int64

	for i := range records {
		r := &records[i]
		if err := checkRecord(r); err != nil {
			return Snapshot{}, err
		}
		if !window.contains(r.Date) {
			continue
		}
		switch r.Kind {
		case core.Income:
			income += r.Amount.Cents
		case core.Expense:
			expenses += r.Amount.Cents
		}
	}

	snap := Snapshot{
		PeriodIncome:   core.Money{Cents: income},
		PeriodExpenses: core.Money{Cents: expenses},
		TotalBalance:   core.Money{Cents: income - expenses},
	}
	if income > 0 {
		snap.SavingsRatePercent = float64(income-expenses) / float64(income) * 100
	}
	return snap, nil
}

// AggregateByCategory groups records by category id. The result holds
// exactly one entry per category present in the input; categories with no
// matching records never appear, so a zero-total entry is impossible.
func AggregateByCategory(records []core.Transaction) (map[string]CategoryTotal, error) {
	totals := make(map[string]CategoryTotal, 8)
	for i := range records {
		r := &records[i]
		if err := checkRecord(r); err != nil {
			return nil, err
		}
		ct := totals[r.CategoryID]
		ct.Total.Cents += r.Amount.Cents
		ct.Count++
		totals[r.CategoryID] = ct
	}
	return totals, nil
}

// CheckCategoryKinds verifies that each record's category exists in the
// catalog and carries the record's kind. Mismatches are flagged, never
// silently recategorized.
func CheckCategoryKinds(records []core.Transaction, catalog map[string]core.Category) error {
	for i := range records {
		r := &records[i]
		cat, ok := catalog[r.CategoryID]
		if !ok {
			return &core.ValidationError{Field: "category_id", Reason: "unknown category " + r.CategoryID}
		}
		if cat.Kind != r.Kind {
			return &core.ValidationError{Field: "category_id", Reason: "category " + cat.Name + " is " + string(cat.Kind) + ", record is " + string(r.Kind)}
		}
	}
	return nil
}

func checkRecord(r *core.Transaction) error {
	if r.Amount.IsNegative() {
		return &core.ValidationError{Field: "amount", Reason: "negative amount"}
	}
	if r.CategoryID == "" {
		return &core.ValidationError{Field: "category_id", Reason: "missing category"}
	}
	if r.Date.IsZero() {
		return &core.ValidationError{Field: "date", Reason: "zero date"}
	}
	if err := r.Kind.Validate(); err != nil {
		return &core.ValidationError{Field: "kind", Reason: string(r.Kind)}
	}
	return nil
}
