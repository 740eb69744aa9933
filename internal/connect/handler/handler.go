package handler

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/0xc0d3d00d/candleseries/internal/calendar"
	"github.com/0xc0d3d00d/candleseries/internal/domain"
)

const ServiceName = "candleseries.v1.CandleSeriesService"

const (
	FetchRangeProcedure     = "/" + ServiceName + "/FetchRange"
	FetchFromStartProcedure = "/" + ServiceName + "/FetchFromStart"
	GetHolidaysProcedure    = "/" + ServiceName + "/GetHolidays"
	IsTradingDayProcedure   = "/" + ServiceName + "/IsTradingDay"
)

type handler struct {
	series   seriesAssembler
	holidays holidayCalendar
	days     tradingCalendar
}

func NewHandler(series seriesAssembler, holidays holidayCalendar, days tradingCalendar) *handler {
	return &handler{
		series:   series,
		holidays: holidays,
		days:     days,
	}
}

// HTTPHandler returns the service path prefix and a handler serving every procedure under it.
func (h *handler) HTTPHandler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(FetchRangeProcedure, connect.NewUnaryHandler(FetchRangeProcedure, h.FetchRange, opts...))
	mux.Handle(FetchFromStartProcedure, connect.NewUnaryHandler(FetchFromStartProcedure, h.FetchFromStart, opts...))
	mux.Handle(GetHolidaysProcedure, connect.NewUnaryHandler(GetHolidaysProcedure, h.GetHolidays, opts...))
	mux.Handle(IsTradingDayProcedure, connect.NewUnaryHandler(IsTradingDayProcedure, h.IsTradingDay, opts...))

	return "/" + ServiceName + "/", mux
}

// Candles for an explicit date window
func (h *handler) FetchRange(ctx context.Context, req *connect.Request[FetchRangeRequest]) (*connect.Response[CandlesResponse], error) {
	candles, err := h.series.FetchRange(ctx, req.Msg.toDomain())
	if err != nil {
		return nil, errorToConnect(err)
	}
	return connect.NewResponse(&CandlesResponse{Candles: toCandles(candles)}), nil
}

// Candles from a start date through the current session
func (h *handler) FetchFromStart(ctx context.Context, req *connect.Request[FetchFromStartRequest]) (*connect.Response[CandlesResponse], error) {
	candles, err := h.series.FetchFromStart(ctx, req.Msg.toDomain())
	if err != nil {
		return nil, errorToConnect(err)
	}
	return connect.NewResponse(&CandlesResponse{Candles: toCandles(candles)}), nil
}

func (h *handler) GetHolidays(ctx context.Context, req *connect.Request[GetHolidaysRequest]) (*connect.Response[GetHolidaysResponse], error) {
	year := req.Msg.Year
	if year < 1 || year > 9999 {
		return nil, errorToConnect(fmt.Errorf("%w: year %d", domain.ErrInvalidDate, year))
	}

	set := h.holidays.SetForYear(ctx, year)
	return connect.NewResponse(&GetHolidaysResponse{Year: year, Dates: set.Dates()}), nil
}

func (h *handler) IsTradingDay(ctx context.Context, req *connect.Request[IsTradingDayRequest]) (*connect.Response[IsTradingDayResponse], error) {
	include := includeHolidays(req.Msg.IncludeHolidayCheck)
	if _, err := calendar.ParseYMD(req.Msg.Date); err != nil {
		return nil, errorToConnect(err)
	}

	closed, err := h.days.IsHolidayOrWeekend(ctx, req.Msg.Date, include)
	if err != nil {
		return nil, errorToConnect(err)
	}
	prev, _, err := h.days.PreviousTradingDay(ctx, req.Msg.Date, include)
	if err != nil {
		return nil, errorToConnect(err)
	}
	next, _, err := h.days.NextTradingDay(ctx, req.Msg.Date, include)
	if err != nil {
		return nil, errorToConnect(err)
	}

	return connect.NewResponse(&IsTradingDayResponse{
		Trading:            !closed,
		PreviousTradingDay: prev,
		NextTradingDay:     next,
	}), nil
}
