package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidRange    = errors.New("invalid range")
	ErrNoTradingDays   = errors.New("no valid trading days")
	ErrFutureStart     = errors.New("start date cannot be in the future")
	ErrInvalidUnit     = errors.New("invalid unit")
	ErrInvalidInterval = errors.New("invalid interval")
	ErrNoInstrument    = errors.New("instrument is required")
)

type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date: %q (expected YYYY-MM-DD)", e.Value)
}

func (e *InvalidDateError) Unwrap() error {
	return ErrInvalidDate
}

// NoTradingDaysError names the window boundaries left after weekend and
// holiday adjustment collapsed it.
type NoTradingDaysError struct {
	Start string
	End   string
}

func (e *NoTradingDaysError) Error() string {
	return fmt.Sprintf("no valid trading days after holiday/weekend adjustment: start=%s, end=%s", e.Start, e.End)
}

func (e *NoTradingDaysError) Unwrap() error {
	return ErrNoTradingDays
}

// IsValidation reports whether err is a caller input error raised before any network call.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrFutureStart) ||
		errors.Is(err, ErrInvalidUnit) ||
		errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrNoInstrument)
}
