package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/0xc0d3d00d/candleseries/internal/calendar"
	"github.com/0xc0d3d00d/candleseries/internal/domain"
)

type candlesResponse struct {
	Status string `json:"status"`
	Data   *struct {
		Candles [][]json.RawMessage `json:"candles"`
	} `json:"data"`
}

// flexFloat accepts a JSON number, a numeric string or null (zero).
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(val)
		return nil
	}

	var val float64
	if err := json.Unmarshal(data, &val); err != nil {
		return fmt.Errorf("cannot parse as number: %s", string(data))
	}
	*f = flexFloat(val)
	return nil
}

// rowToCandle maps [timestamp, open, high, low, close, volume?, oi?].
func rowToCandle(row []json.RawMessage) (domain.Candle, error) {
	if len(row) < 5 {
		return domain.Candle{}, fmt.Errorf("short candle row: %d fields", len(row))
	}

	var ts string
	if err := json.Unmarshal(row[0], &ts); err != nil {
		ts = string(bytes.TrimSpace(row[0]))
	}
	if ts == "" {
		return domain.Candle{}, fmt.Errorf("candle row without timestamp")
	}

	var vals [5]flexFloat
	for i := 1; i < len(row) && i <= 5; i++ {
		if err := json.Unmarshal(row[i], &vals[i-1]); err != nil {
			return domain.Candle{}, fmt.Errorf("candle %s field %d: %w", ts, i, err)
		}
	}

	return domain.Candle{
		Timestamp: ts,
		Open:      float64(vals[0]),
		High:      float64(vals[1]),
		Low:       float64(vals[2]),
		Close:     float64(vals[3]),
		Volume:    float64(vals[4]),
	}, nil
}

type ohlcNode struct {
	Open   flexFloat `json:"open"`
	High   flexFloat `json:"high"`
	Low    flexFloat `json:"low"`
	Close  flexFloat `json:"close"`
	Volume flexFloat `json:"volume"`
	Ts     flexFloat `json:"ts"`
}

// toCandle returns nil when the node carries no positive timestamp.
func (n *ohlcNode) toCandle() *domain.Candle {
	if n == nil || n.Ts <= 0 {
		return nil
	}
	return &domain.Candle{
		Timestamp: calendar.EpochMillisToIST(int64(n.Ts)),
		Open:      float64(n.Open),
		High:      float64(n.High),
		Low:       float64(n.Low),
		Close:     float64(n.Close),
		Volume:    float64(n.Volume),
	}
}

type ohlcEntry struct {
	InstrumentToken string    `json:"instrument_token"`
	PrevOHLC        *ohlcNode `json:"prev_ohlc"`
	LiveOHLC        *ohlcNode `json:"live_ohlc"`
}

type ohlcResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// findOHLCEntry picks the quote for instrument out of the data node. The API
// keys entries by a display symbol (NSE_EQ:INFY), so the exact key, then the
// instrument_token field, then a lone entry are tried before treating the
// node itself as the entry.
func findOHLCEntry(data json.RawMessage, instrument string) (*ohlcEntry, error) {
	if len(data) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}

	var byKey map[string]json.RawMessage
	if err := json.Unmarshal(data, &byKey); err != nil {
		return nil, fmt.Errorf("decode ohlc data: %w", err)
	}

	if raw, ok := byKey[instrument]; ok {
		return decodeOHLCEntry(raw)
	}
	_, hasPrev := byKey["prev_ohlc"]
	_, hasLive := byKey["live_ohlc"]
	if hasPrev || hasLive {
		return decodeOHLCEntry(data)
	}

	entries := make([]*ohlcEntry, 0, len(byKey))
	for _, raw := range byKey {
		entry, err := decodeOHLCEntry(raw)
		if err != nil || entry == nil {
			continue
		}
		if entry.InstrumentToken == instrument {
			return entry, nil
		}
		entries = append(entries, entry)
	}
	if len(entries) == 1 && len(byKey) == 1 {
		return entries[0], nil
	}

	return decodeOHLCEntry(data)
}

func decodeOHLCEntry(raw json.RawMessage) (*ohlcEntry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}
	var entry ohlcEntry
	if err := json.Unmarshal(trimmed, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

type holidaysResponse struct {
	Status string            `json:"status"`
	Data   []json.RawMessage `json:"data"`
}

type holidayEntry struct {
	Date        any `json:"date"`
	HolidayDate any `json:"holiday_date"`
	TradingDate any `json:"trading_date"`
}

// date returns the first string field among date, holiday_date, trading_date.
func (h holidayEntry) date() string {
	for _, v := range []any{h.Date, h.HolidayDate, h.TradingDate} {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
