package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type (
	// Kind discriminates income from expense rows. The amount itself is
	// always a non-negative magnitude; the sign lives here.
	Kind string

	// Frequency is the cadence of a recurring schedule.
	Frequency string

	// Date is a calendar date without a time component. All values are
	// normalized to midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense entry owned by a user.
	Transaction struct {
		ID          string
		OwnerID     string
		Amount      Money
		Kind        Kind
		CategoryID  string
		Description string
		Date        Date
	}

	// Category is a catalog entry transactions reference. Kind must match
	// the kind of every transaction filed under it.
	Category struct {
		ID    string
		Name  string
		Kind  Kind
		Icon  string
		Color string
	}

	// RecurringSchedule is a template the recurring worker materializes
	// transactions from. NextOccurrence is advanced only by that worker;
	// everything else treats it as read-only.
	RecurringSchedule struct {
		ID             string
		OwnerID        string
		Amount         Money
		Description    string
		CategoryID     string
		Kind           Kind
		Frequency      Frequency
		StartDate      Date
		EndDate        Date // zero when open-ended
		NextOccurrence Date
		Active         bool
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid kind")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyOwner       = errors.New("empty owner")
)

// ValidationError names the field that made a record unusable. The
// aggregation engine returns it instead of silently dropping rows, since a
// dropped row would corrupt totals.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty reports whether the date is unset (used for optional end dates).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsNegative reports a negative magnitude. Stored amounts are never
// negative; this exists so the engine can flag corrupt input.
func (m Money) IsNegative() bool {
	return m.Cents < 0
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (s RecurringSchedule) Validate() error {
	if strings.TrimSpace(s.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if err := s.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}

	if !s.EndDate.IsZero() {
		if s.EndDate.Before(s.StartDate.Time) {
			return errors.New("end date must not be before start date")
		}
	}

	if err := s.Frequency.Validate(); err != nil {
		return err
	}

	if len(strings.TrimSpace(s.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(s.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}

	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if err := s.Kind.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(s.CategoryID) == "" {
		return ErrEmptyCategory
	}

	if !s.NextOccurrence.IsZero() && s.NextOccurrence.Before(s.StartDate.Time) {
		return errors.New("next occurrence before start date")
	}
	if s.Active && !s.EndDate.IsZero() && !s.NextOccurrence.IsZero() && s.NextOccurrence.After(s.EndDate.Time) {
		return errors.New("next occurrence after end date")
	}

	return nil
}
