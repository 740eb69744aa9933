package handler

import "github.com/0xc0d3d00d/candleseries/internal/domain"

type Candle struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type FetchRangeRequest struct {
	Instrument string `json:"instrument"`
	Unit       string `json:"unit"`
	Interval   string `json:"interval"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	// IncludeHolidayCheck defaults to true when omitted.
	IncludeHolidayCheck *bool `json:"include_holiday_check,omitempty"`
}

type FetchFromStartRequest struct {
	Instrument          string `json:"instrument"`
	Unit                string `json:"unit"`
	Interval            string `json:"interval"`
	StartDate           string `json:"start_date"`
	IncludeHolidayCheck *bool  `json:"include_holiday_check,omitempty"`
}

type CandlesResponse struct {
	Candles []Candle `json:"candles"`
}

type GetHolidaysRequest struct {
	Year int `json:"year"`
}

type GetHolidaysResponse struct {
	Year  int      `json:"year"`
	Dates []string `json:"dates"`
}

type IsTradingDayRequest struct {
	Date                string `json:"date"`
	IncludeHolidayCheck *bool  `json:"include_holiday_check,omitempty"`
}

type IsTradingDayResponse struct {
	Trading bool `json:"trading"`
	// Adjacent trading days are empty when none was found within the lookback bound.
	PreviousTradingDay string `json:"previous_trading_day,omitempty"`
	NextTradingDay     string `json:"next_trading_day,omitempty"`
}

func includeHolidays(flag *bool) bool {
	return flag == nil || *flag
}

func (r *FetchRangeRequest) toDomain() domain.FetchOptions {
	return domain.FetchOptions{
		Instrument:          r.Instrument,
		Unit:                domain.Unit(r.Unit),
		Interval:            r.Interval,
		StartDate:           r.StartDate,
		EndDate:             r.EndDate,
		IncludeHolidayCheck: includeHolidays(r.IncludeHolidayCheck),
	}
}

func (r *FetchFromStartRequest) toDomain() domain.FetchOptions {
	return domain.FetchOptions{
		Instrument:          r.Instrument,
		Unit:                domain.Unit(r.Unit),
		Interval:            r.Interval,
		StartDate:           r.StartDate,
		IncludeHolidayCheck: includeHolidays(r.IncludeHolidayCheck),
	}
}

func toCandles(cc []domain.Candle) []Candle {
	candles := make([]Candle, 0, len(cc))
	for _, c := range cc {
		candles = append(candles, toCandle(c))
	}
	return candles
}

func toCandle(c domain.Candle) Candle {
	return Candle{
		Timestamp: c.Timestamp,
		Open:      c.Open,
		High:      c.High,
		Low:       c.Low,
		Close:     c.Close,
		Volume:    c.Volume,
	}
}
