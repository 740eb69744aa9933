// Package series assembles one continuous candle series out of the bounded
// historical endpoint, the current-session intraday endpoint and the quote
// snapshot.
//
// Every result is sorted ascending by timestamp with no repeated timestamp.
// Historical and intraday fetches must succeed; the today-candle stitch and
// the quote merge are best-effort. All calls are sequential.
package series

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/0xc0d3d00d/candleseries/internal/calendar"
	"github.com/0xc0d3d00d/candleseries/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultMaxSpanDays is the widest window the historical endpoint serves in one call.
const DefaultMaxSpanDays = 28

// Interface requirements for the market-data client
type candleAPI interface {
	HistoricalCandles(ctx context.Context, instrument string, unit domain.Unit, interval, from, to string) ([]domain.Candle, error)
	IntradayCandles(ctx context.Context, instrument string, unit domain.Unit, interval string) ([]domain.Candle, error)
	OHLC(ctx context.Context, instrument string, unit domain.Unit, interval string) (domain.OHLCPair, error)
}

// Interface requirements for the trading-day calculator
type tradingDays interface {
	IsHolidayOrWeekend(ctx context.Context, ymd string, includeHolidays bool) (bool, error)
	PreviousTradingDay(ctx context.Context, fromExclusive string, includeHolidays bool) (string, bool, error)
}

type Assembler struct {
	api         candleAPI
	days        tradingDays
	now         func() time.Time
	maxSpanDays int

	segments    prometheus.Counter
	supplements *prometheus.CounterVec
}

type Option func(*Assembler)

func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

func WithMaxSpanDays(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.maxSpanDays = n
		}
	}
}

// WithMetrics registers the assembler counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(a *Assembler) {
		reg.MustRegister(a.segments, a.supplements)
	}
}

func NewAssembler(api candleAPI, days tradingDays, opts ...Option) *Assembler {
	a := &Assembler{
		api:         api,
		days:        days,
		now:         time.Now,
		maxSpanDays: DefaultMaxSpanDays,
		segments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "series_historical_segments_total",
			Help: "Bounded historical windows requested while assembling series.",
		}),
		supplements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "series_supplements_total",
			Help: "Best-effort supplement fetches by source and outcome.",
		}, []string{"source", "outcome"}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchRange assembles candles for [StartDate, EndDate]. The window is first
// shrunk inward past non-trading days, then fetched in segments of at most
// maxSpanDays calendar days.
func (a *Assembler) FetchRange(ctx context.Context, opts domain.FetchOptions) ([]domain.Candle, error) {
	if err := validateSeries(opts); err != nil {
		return nil, err
	}

	start, err := calendar.ParseYMD(opts.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start date: %w", domain.ErrInvalidRange, err)
	}
	end, err := calendar.ParseYMD(opts.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end date: %w", domain.ErrInvalidRange, err)
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: start date %s is after end date %s", domain.ErrInvalidRange, opts.StartDate, opts.EndDate)
	}

	include := opts.IncludeHolidayCheck
	for !start.After(end) {
		closed, err := a.closed(ctx, start, include)
		if err != nil {
			return nil, err
		}
		if !closed {
			break
		}
		start = calendar.AddDays(start, 1)
	}
	for !end.Before(start) {
		closed, err := a.closed(ctx, end, include)
		if err != nil {
			return nil, err
		}
		if !closed {
			break
		}
		end = calendar.AddDays(end, -1)
	}
	if start.After(end) {
		return nil, &domain.NoTradingDaysError{Start: calendar.FormatYMD(start), End: calendar.FormatYMD(end)}
	}

	slog.DebugContext(ctx, "fetch range",
		"instrument", opts.Instrument,
		"unit", opts.Unit,
		"interval", opts.Interval,
		"from", calendar.FormatYMD(start),
		"to", calendar.FormatYMD(end),
	)

	var all []domain.Candle
	for segStart := start; !segStart.After(end); {
		segEnd := calendar.AddDays(segStart, a.maxSpanDays-1)
		if segEnd.After(end) {
			segEnd = end
		}

		from, to := calendar.FormatYMD(segStart), calendar.FormatYMD(segEnd)
		a.segments.Inc()
		candles, err := a.api.HistoricalCandles(ctx, opts.Instrument, opts.Unit, opts.Interval, from, to)
		if err != nil {
			return nil, fmt.Errorf("historical candles %s..%s: %w", from, to, err)
		}
		if opts.Unit.DayAnchored() {
			candles = withinDays(candles, from, to)
		}
		slog.DebugContext(ctx, "historical segment", "from", from, "to", to, "candle_count", len(candles))
		all = append(all, candles...)

		segStart = calendar.AddDays(segEnd, 1)
		for !segStart.After(end) {
			closed, err := a.closed(ctx, segStart, include)
			if err != nil {
				return nil, err
			}
			if !closed {
				break
			}
			segStart = calendar.AddDays(segStart, 1)
		}
	}

	if opts.Unit == domain.UnitDays {
		today := calendar.TodayIST(a.now())
		if opts.StartDate <= today && today <= opts.EndDate {
			closed, err := a.days.IsHolidayOrWeekend(ctx, today, include)
			if err != nil {
				return nil, err
			}
			if !closed {
				if c := a.todayCandle(ctx, opts, today); c.OK {
					all = upsertByDay(all, c.Value)
				}
			}
		}
	}

	return normalize(all), nil
}

// FetchFromStart assembles candles from StartDate through now: history up to
// the previous trading day, then today's bar (daily) or session candles
// (intraday), then the quote snapshot.
func (a *Assembler) FetchFromStart(ctx context.Context, opts domain.FetchOptions) ([]domain.Candle, error) {
	if err := validateSeries(opts); err != nil {
		return nil, err
	}
	if _, err := calendar.ParseYMD(opts.StartDate); err != nil {
		return nil, err
	}

	include := opts.IncludeHolidayCheck
	today := calendar.TodayIST(a.now())
	if opts.StartDate > today {
		return nil, fmt.Errorf("%w: %s is after %s", domain.ErrFutureStart, opts.StartDate, today)
	}

	closed, err := a.days.IsHolidayOrWeekend(ctx, today, include)
	if err != nil {
		return nil, err
	}
	if closed {
		// The range shrink backs the end off to the last trading day.
		rangeOpts := opts
		rangeOpts.EndDate = today
		return a.FetchRange(ctx, rangeOpts)
	}

	var out []domain.Candle
	prev, ok, err := a.days.PreviousTradingDay(ctx, today, include)
	if err != nil {
		return nil, err
	}
	if ok && opts.StartDate <= prev {
		histOpts := opts
		histOpts.EndDate = prev
		out, err = a.FetchRange(ctx, histOpts)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case opts.Unit == domain.UnitDays:
		if c := a.todayCandle(ctx, opts, today); c.OK {
			out = upsertByDay(out, c.Value)
		}
	case opts.Unit.Intraday():
		session, err := a.api.IntradayCandles(ctx, opts.Instrument, opts.Unit, opts.Interval)
		if err != nil {
			return nil, fmt.Errorf("intraday candles: %w", err)
		}
		out = appendNew(out, session)
	}

	// The quote API has no weekly or monthly bars.
	if opts.Unit.DayAnchored() {
		quote := bestEffort(ctx, "ohlc_quote", func(ctx context.Context) (domain.OHLCPair, error) {
			return a.api.OHLC(ctx, opts.Instrument, opts.Unit, opts.Interval)
		})
		a.recordSupplement("ohlc_quote", quote.OK)
		if quote.OK {
			if quote.Value.Prev != nil {
				out = appendIfNewer(out, *quote.Value.Prev)
			}
			if quote.Value.Live != nil {
				out = appendIfNewer(out, *quote.Value.Live)
			}
		}
	}

	return normalize(out), nil
}

// todayCandle finds one daily bar for today: the intraday endpoint at daily
// granularity first, then the live side of the daily quote.
func (a *Assembler) todayCandle(ctx context.Context, opts domain.FetchOptions, today string) optional[domain.Candle] {
	session := bestEffort(ctx, "intraday_daily", func(ctx context.Context) ([]domain.Candle, error) {
		return a.api.IntradayCandles(ctx, opts.Instrument, domain.UnitDays, opts.Interval)
	})
	a.recordSupplement("intraday_daily", session.OK)
	if session.OK {
		if c, ok := pickDay(session.Value, today); ok {
			return optional[domain.Candle]{Value: c, OK: true}
		}
	}

	quote := bestEffort(ctx, "daily_quote", func(ctx context.Context) (domain.OHLCPair, error) {
		return a.api.OHLC(ctx, opts.Instrument, domain.UnitDays, opts.Interval)
	})
	a.recordSupplement("daily_quote", quote.OK)
	if quote.OK && quote.Value.Live != nil && quote.Value.Live.Day() == today {
		return optional[domain.Candle]{Value: *quote.Value.Live, OK: true}
	}

	slog.DebugContext(ctx, "no candle for today", "instrument", opts.Instrument, "today", today)
	return optional[domain.Candle]{}
}

func (a *Assembler) closed(ctx context.Context, t time.Time, includeHolidays bool) (bool, error) {
	return a.days.IsHolidayOrWeekend(ctx, calendar.FormatYMD(t), includeHolidays)
}

func (a *Assembler) recordSupplement(source string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	a.supplements.WithLabelValues(source, outcome).Inc()
}

func validateSeries(opts domain.FetchOptions) error {
	if opts.Instrument == "" {
		return domain.ErrNoInstrument
	}
	if _, err := domain.ParseUnit(string(opts.Unit)); err != nil {
		return err
	}
	if _, err := domain.ParseInterval(opts.Interval); err != nil {
		return err
	}
	return nil
}
