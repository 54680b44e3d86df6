package http

import (
	"net/http"
	"strconv"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/engine"
)

// Amounts cross the wire as decimal strings ("25.50"); cents never leak out
// and floats never come in.

type transactionRequest struct {
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func (req transactionRequest) toDomain(ownerID, id string) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, &core.ValidationError{Field: "amount", Reason: err.Error()}
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, &core.ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	return core.Transaction{
		ID:          id,
		OwnerID:     ownerID,
		Amount:      core.Money{Cents: cents},
		Kind:        core.Kind(req.Kind),
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Date:        date,
	}, nil
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Amount:      tx.Amount.DecimalString(),
		Kind:        string(tx.Kind),
		CategoryID:  tx.CategoryID,
		Description: tx.Description,
		Date:        tx.Date.String(),
	}
}

type scheduleRequest struct {
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"start_date"`
	// Either an explicit end date or a duration from the start date.
	EndDate        string `json:"end_date,omitempty"`
	DurationYears  int    `json:"duration_years,omitempty"`
	DurationMonths int    `json:"duration_months,omitempty"`
	Active         *bool  `json:"active,omitempty"`
}

type scheduleResponse struct {
	ID             string `json:"id"`
	Amount         string `json:"amount"`
	Kind           string `json:"kind"`
	CategoryID     string `json:"category_id"`
	Description    string `json:"description"`
	Frequency      string `json:"frequency"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date,omitempty"`
	NextOccurrence string `json:"next_occurrence"`
	Active         bool   `json:"active"`
}

func (req scheduleRequest) toDomain(ownerID, id string) (core.RecurringSchedule, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.RecurringSchedule{}, &core.ValidationError{Field: "amount", Reason: err.Error()}
	}
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.RecurringSchedule{}, &core.ValidationError{Field: "start_date", Reason: "expected YYYY-MM-DD"}
	}

	var end core.Date
	switch {
	case req.EndDate != "":
		end, err = core.ParseDate(req.EndDate)
		if err != nil {
			return core.RecurringSchedule{}, &core.ValidationError{Field: "end_date", Reason: "expected YYYY-MM-DD"}
		}
	case req.DurationYears > 0 || req.DurationMonths > 0:
		end = engine.ComputeEndDate(start, req.DurationYears, req.DurationMonths)
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	return core.RecurringSchedule{
		ID:          id,
		OwnerID:     ownerID,
		Amount:      core.Money{Cents: cents},
		Kind:        core.Kind(req.Kind),
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Frequency:   core.Frequency(req.Frequency),
		StartDate:   start,
		EndDate:     end,
		Active:      active,
	}, nil
}

func toScheduleResponse(s core.RecurringSchedule) scheduleResponse {
	return scheduleResponse{
		ID:             s.ID,
		Amount:         s.Amount.DecimalString(),
		Kind:           string(s.Kind),
		CategoryID:     s.CategoryID,
		Description:    s.Description,
		Frequency:      string(s.Frequency),
		StartDate:      s.StartDate.String(),
		EndDate:        s.EndDate.String(),
		NextOccurrence: s.NextOccurrence.String(),
		Active:         s.Active,
	}
}

type categoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type summaryResponse struct {
	PeriodIncome       string  `json:"period_income"`
	PeriodExpenses     string  `json:"period_expenses"`
	TotalBalance       string  `json:"total_balance"`
	SavingsRatePercent float64 `json:"savings_rate_percent"`
}

type insightResponse struct {
	CategoryID     string `json:"category_id"`
	Total          string `json:"total"`
	Trend          string `json:"trend"`
	Recommendation string `json:"recommendation"`
}

type suggestionResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

// parseWindow builds the aggregation window from query parameters. Explicit
// from/to bounds win, then year+month, then the current calendar month.
func parseWindow(r *http.Request) (engine.Window, error) {
	q := r.URL.Query()

	if q.Get("from") != "" || q.Get("to") != "" {
		var w engine.Window
		var err error
		if v := q.Get("from"); v != "" {
			if w.From, err = core.ParseDate(v); err != nil {
				return engine.Window{}, &core.ValidationError{Field: "from", Reason: "expected YYYY-MM-DD"}
			}
		}
		if v := q.Get("to"); v != "" {
			if w.To, err = core.ParseDate(v); err != nil {
				return engine.Window{}, &core.ValidationError{Field: "to", Reason: "expected YYYY-MM-DD"}
			}
		}
		return w, nil
	}

	if q.Get("year") != "" || q.Get("month") != "" {
		year, err := strconv.Atoi(q.Get("year"))
		if err != nil {
			return engine.Window{}, &core.ValidationError{Field: "year", Reason: "expected a number"}
		}
		month, err := strconv.Atoi(q.Get("month"))
		if err != nil || month < 1 || month > 12 {
			return engine.Window{}, &core.ValidationError{Field: "month", Reason: "expected 1-12"}
		}
		return engine.MonthWindow(year, month), nil
	}

	now := time.Now().UTC()
	return engine.MonthWindow(now.Year(), int(now.Month())), nil
}

// parseListRange reads optional from/to bounds for the transaction list.
func parseListRange(r *http.Request) (from, to core.Date, err error) {
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		if from, err = core.ParseDate(v); err != nil {
			return core.Date{}, core.Date{}, &core.ValidationError{Field: "from", Reason: "expected YYYY-MM-DD"}
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = core.ParseDate(v); err != nil {
			return core.Date{}, core.Date{}, &core.ValidationError{Field: "to", Reason: "expected YYYY-MM-DD"}
		}
	}
	return from, to, nil
}
