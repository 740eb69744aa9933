package upstream

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/0xc0d3d00d/candleseries/internal/domain"
)

// Instrument keys contain '|' (NSE_EQ|INE002A01018) and must be escaped in paths.

func historicalURL(base, instrument string, unit domain.Unit, interval, from, to string) string {
	return fmt.Sprintf("%s/v3/historical-candle/%s/%s/%s/%s/%s",
		base, url.PathEscape(instrument), unit, url.PathEscape(interval), to, from)
}

func intradayURL(base, instrument string, unit domain.Unit, interval string) string {
	return fmt.Sprintf("%s/v3/historical-candle/intraday/%s/%s/%s",
		base, url.PathEscape(instrument), unit, url.PathEscape(interval))
}

func ohlcURL(base, instrument, interval string) string {
	q := url.Values{}
	q.Set("instrument_key", instrument)
	q.Set("interval", interval)
	return base + "/v3/market-quote/ohlc?" + q.Encode()
}

func holidaysURL(base string) string {
	return base + "/v2/market/holidays"
}

// OHLCInterval maps a (unit, interval) pair to the quote API interval code:
// days -> 1d, minutes N -> IN, hours N -> I(N*60).
func OHLCInterval(unit domain.Unit, interval string) (string, error) {
	switch unit {
	case domain.UnitDays:
		return "1d", nil
	case domain.UnitMinutes, domain.UnitHours:
		n, err := strconv.Atoi(interval)
		if err != nil || n <= 0 {
			return "", fmt.Errorf("%w: %s interval %q", domain.ErrInvalidInterval, unit, interval)
		}
		if unit == domain.UnitHours {
			n *= 60
		}
		return "I" + strconv.Itoa(n), nil
	default:
		return "", fmt.Errorf("%w: ohlc quote not supported for %s", domain.ErrInvalidUnit, unit)
	}
}
