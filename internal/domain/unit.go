package domain

import (
	"fmt"
	"strconv"
)

type Unit string

const (
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	UnitDays    Unit = "days"
	UnitWeeks   Unit = "weeks"
	UnitMonths  Unit = "months"
)

var units = map[string]Unit{
	"minutes": UnitMinutes,
	"hours":   UnitHours,
	"days":    UnitDays,
	"weeks":   UnitWeeks,
	"months":  UnitMonths,
}

func (u Unit) String() string {
	return string(u)
}

func ParseUnit(s string) (Unit, error) {
	u, ok := units[s]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
	return u, nil
}

// Intraday reports whether bars of this unit are shorter than a trading day.
func (u Unit) Intraday() bool {
	return u == UnitMinutes || u == UnitHours
}

// DayAnchored reports whether each bar of this unit belongs to exactly one
// calendar day, so bars dated outside a requested day window are foreign.
func (u Unit) DayAnchored() bool {
	return u == UnitMinutes || u == UnitHours || u == UnitDays
}

// ParseInterval validates an interval magnitude: a positive base-10 integer.
func ParseInterval(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	return n, nil
}
