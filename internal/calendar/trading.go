package calendar

import (
	"context"
	"time"
)

// DefaultLookback bounds the day-by-day walk for an adjacent trading day.
// Two weeks covers the longest exchange closures seen in practice.
const DefaultLookback = 14

// HolidayChecker answers holiday membership. Implementations must not fail:
// an unknown calendar answers false.
type HolidayChecker interface {
	IsMarketHoliday(ctx context.Context, ymd string) bool
}

// TradingDays decides tradability of calendar dates. Weekends are never
// tradable; holidays are consulted only when requested and a checker is set.
type TradingDays struct {
	holidays HolidayChecker
	lookback int
}

func NewTradingDays(holidays HolidayChecker, lookback int) *TradingDays {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &TradingDays{
		holidays: holidays,
		lookback: lookback,
	}
}

func (d *TradingDays) IsHolidayOrWeekend(ctx context.Context, ymd string, includeHolidays bool) (bool, error) {
	t, err := ParseYMD(ymd)
	if err != nil {
		return false, err
	}
	return d.closed(ctx, t, includeHolidays), nil
}

func (d *TradingDays) closed(ctx context.Context, t time.Time, includeHolidays bool) bool {
	if IsWeekend(t) {
		return true
	}
	if !includeHolidays || d.holidays == nil {
		return false
	}
	return d.holidays.IsMarketHoliday(ctx, FormatYMD(t))
}

// PreviousTradingDay returns the closest trading day strictly before
// fromExclusive. ok is false when none is found within the lookback bound.
func (d *TradingDays) PreviousTradingDay(ctx context.Context, fromExclusive string, includeHolidays bool) (ymd string, ok bool, err error) {
	return d.walk(ctx, fromExclusive, -1, includeHolidays)
}

// NextTradingDay returns the closest trading day strictly after fromExclusive.
func (d *TradingDays) NextTradingDay(ctx context.Context, fromExclusive string, includeHolidays bool) (ymd string, ok bool, err error) {
	return d.walk(ctx, fromExclusive, 1, includeHolidays)
}

func (d *TradingDays) walk(ctx context.Context, from string, step int, includeHolidays bool) (string, bool, error) {
	t, err := ParseYMD(from)
	if err != nil {
		return "", false, err
	}
	for i := 0; i < d.lookback; i++ {
		t = AddDays(t, step)
		if !d.closed(ctx, t, includeHolidays) {
			return FormatYMD(t), true, nil
		}
	}
	return "", false, nil
}
