package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Owner is an opaque key into the external identity service.
	Owner string

	Income struct {
		ID     int64
		Owner  Owner
		Month  time.Time // first day of the month
		Amount decimal.Decimal
	}

	Expense struct {
		ID            int64
		Owner         Owner
		Amount        decimal.Decimal
		Category      Category
		Date          time.Time
		Note          string
		IsRecurring   bool
		RecurrenceDay *int // 1-31, nil when unset; clamped to the month length
		CreatedAt     time.Time
	}

	Budget struct {
		ID       int64
		Owner    Owner
		Category Category
		Month    time.Time // first day of the month
		Amount   decimal.Decimal
	}

	SavingsSnapshot struct {
		Owner          Owner
		Month          time.Time // first day of the month
		SavingsBalance decimal.Decimal
		CreatedAt      time.Time
	}
)

const (
	MaxNoteLength    = 500
	MaxRecurrenceDay = 31
)

var (
	ErrEmptyOwner           = errors.New("empty owner")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidRecurrenceDay = errors.New("invalid recurrence day")
	ErrZeroDate             = errors.New("date cannot be zero")
	ErrNoteTooLong          = errors.New("note too long")
)

func (o Owner) Validate() error {
	if strings.TrimSpace(string(o)) == "" {
		return ErrEmptyOwner
	}
	return nil
}

func (o Owner) String() string {
	return string(o)
}

// RecurrenceDayOrDefault returns the configured day, or 1 when the template has none.
func (e Expense) RecurrenceDayOrDefault() int {
	if e.RecurrenceDay == nil || *e.RecurrenceDay < 1 {
		return 1
	}
	return *e.RecurrenceDay
}

func (e Expense) Validate() error {
	if err := e.Owner.Validate(); err != nil {
		return err
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	if len(e.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	if e.RecurrenceDay != nil {
		if d := *e.RecurrenceDay; d < 1 || d > MaxRecurrenceDay {
			return ErrInvalidRecurrenceDay
		}
	}
	return nil
}

func (i Income) Validate() error {
	if err := i.Owner.Validate(); err != nil {
		return err
	}
	if i.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if i.Month.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (b Budget) Validate() error {
	if err := b.Owner.Validate(); err != nil {
		return err
	}
	if !b.Category.Valid() {
		return ErrInvalidCategory
	}
	if b.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if b.Month.IsZero() {
		return ErrZeroDate
	}
	return nil
}
