package handler

import (
	"context"

	"github.com/0xc0d3d00d/candleseries/internal/domain"
	"github.com/0xc0d3d00d/candleseries/internal/holiday"
)

// Interface requirements for the series assembler
type seriesAssembler interface {
	FetchRange(ctx context.Context, opts domain.FetchOptions) ([]domain.Candle, error)
	FetchFromStart(ctx context.Context, opts domain.FetchOptions) ([]domain.Candle, error)
}

// Interface requirements for the holiday calendar
type holidayCalendar interface {
	SetForYear(ctx context.Context, year int) holiday.Set
}

// Interface requirements for the trading-day calculator
type tradingCalendar interface {
	IsHolidayOrWeekend(ctx context.Context, ymd string, includeHolidays bool) (bool, error)
	PreviousTradingDay(ctx context.Context, fromExclusive string, includeHolidays bool) (string, bool, error)
	NextTradingDay(ctx context.Context, fromExclusive string, includeHolidays bool) (string, bool, error)
}
