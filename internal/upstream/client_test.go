package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/0xc0d3d00d/candleseries/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const instrument = "NSE_EQ|INE002A01018"

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, append([]Option{WithHTTPClient(srv.Client())}, opts...)...)
}

func TestHistoricalCandles(t *testing.T) {
	var gotPath, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"status":"success","data":{"candles":[
			["2024-01-02T00:00:00+05:30", 2590.5, 2612, 2580.1, 2605.35, 5120000, 0],
			["2024-01-01T00:00:00+05:30", "2580", "2595.5", "2570", "2590", null],
			["2024-01-03T00:00:00+05:30", 1, 2, 3],
			["2023-12-29T00:00:00+05:30", 2550, 2560, 2540, 2555]
		]}}`))
	}, WithAccessToken("  secret  "))

	candles, err := c.HistoricalCandles(context.Background(), instrument, domain.UnitDays, "1", "2024-01-01", "2024-01-31")
	require.NoError(t, err)

	assert.Equal(t, "/v3/historical-candle/NSE_EQ|INE002A01018/days/1/2024-01-31/2024-01-01", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)

	// Upstream order is kept, short rows are dropped, volume defaults to zero.
	assert.Equal(t, []domain.Candle{
		{Timestamp: "2024-01-02T00:00:00+05:30", Open: 2590.5, High: 2612, Low: 2580.1, Close: 2605.35, Volume: 5120000},
		{Timestamp: "2024-01-01T00:00:00+05:30", Open: 2580, High: 2595.5, Low: 2570, Close: 2590},
		{Timestamp: "2023-12-29T00:00:00+05:30", Open: 2550, High: 2560, Low: 2540, Close: 2555},
	}, candles)
}

func TestNoAuthorizationWithoutToken(t *testing.T) {
	var gotAuth []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Values("Authorization")
		w.Write([]byte(`{"status":"success","data":{"candles":[]}}`))
	}, WithAccessToken("   "))

	candles, err := c.HistoricalCandles(context.Background(), instrument, domain.UnitDays, "1", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Empty(t, candles)
	assert.Empty(t, gotAuth)
}

func TestIntradayCandlesSorted(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"status":"success","data":{"candles":[
			["2024-01-02T09:17:00+05:30", 3, 3, 3, 3, 30],
			["2024-01-02T09:15:00+05:30", 1, 1, 1, 1, 10],
			["2024-01-02T09:16:00+05:30", 2, 2, 2, 2, 20]
		]}}`))
	})

	candles, err := c.IntradayCandles(context.Background(), instrument, domain.UnitMinutes, "1")
	require.NoError(t, err)
	assert.Equal(t, "/v3/historical-candle/intraday/NSE_EQ|INE002A01018/minutes/1", gotPath)
	require.Len(t, candles, 3)
	assert.Equal(t, "2024-01-02T09:15:00+05:30", candles[0].Timestamp)
	assert.Equal(t, "2024-01-02T09:16:00+05:30", candles[1].Timestamp)
	assert.Equal(t, "2024-01-02T09:17:00+05:30", candles[2].Timestamp)
}

func TestIntradayRejectsCoarseUnits(t *testing.T) {
	c := NewClient("http://127.0.0.1:0")
	_, err := c.IntradayCandles(context.Background(), instrument, domain.UnitWeeks, "1")
	require.ErrorIs(t, err, domain.ErrInvalidUnit)
}

func TestOHLC(t *testing.T) {
	var gotQuery map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/market-quote/ohlc", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"status":"success","data":{"NSE_EQ:RELIANCE":{
			"last_price": 2605.35,
			"instrument_token": "NSE_EQ|INE002A01018",
			"prev_ohlc": {"open": 1, "high": 2, "low": 0.5, "close": 1.5, "volume": 100, "ts": 1704167100000},
			"live_ohlc": {"open": 1.5, "high": 2.5, "low": 1, "close": 2, "ts": 1704167160000}
		}}}`))
	})

	pair, err := c.OHLC(context.Background(), instrument, domain.UnitHours, "1")
	require.NoError(t, err)

	assert.Equal(t, []string{instrument}, gotQuery["instrument_key"])
	assert.Equal(t, []string{"I60"}, gotQuery["interval"])

	require.NotNil(t, pair.Prev)
	require.NotNil(t, pair.Live)
	assert.Equal(t, domain.Candle{Timestamp: "2024-01-02T09:15:00+05:30", Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100}, *pair.Prev)
	assert.Equal(t, domain.Candle{Timestamp: "2024-01-02T09:16:00+05:30", Open: 1.5, High: 2.5, Low: 1, Close: 2}, *pair.Live)
}

func TestOHLCEntryLookup(t *testing.T) {
	cases := map[string]string{
		"exact key":  `{"NSE_EQ|INE002A01018":{"live_ohlc":{"close":2,"ts":1704167160000}},"OTHER":{"live_ohlc":{"close":9,"ts":1}}}`,
		"lone entry": `{"NSE_EQ:RELIANCE":{"live_ohlc":{"close":2,"ts":1704167160000}}}`,
		"bare entry": `{"live_ohlc":{"close":2,"ts":1704167160000}}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"success","data":` + data + `}`))
			})
			pair, err := c.OHLC(context.Background(), instrument, domain.UnitDays, "1")
			require.NoError(t, err)
			assert.Nil(t, pair.Prev)
			require.NotNil(t, pair.Live)
			assert.Equal(t, 2.0, pair.Live.Close)
		})
	}
}

func TestOHLCDropsSidesWithoutTimestamp(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"NSE_EQ|INE002A01018":{
			"prev_ohlc": {"open": 1, "high": 2, "low": 0.5, "close": 1.5, "ts": 0},
			"live_ohlc": null
		}}}`))
	})

	pair, err := c.OHLC(context.Background(), instrument, domain.UnitDays, "1")
	require.NoError(t, err)
	assert.Nil(t, pair.Prev)
	assert.Nil(t, pair.Live)
}

func TestOHLCUnsupportedUnit(t *testing.T) {
	c := NewClient("http://127.0.0.1:0")
	_, err := c.OHLC(context.Background(), instrument, domain.UnitMonths, "1")
	require.ErrorIs(t, err, domain.ErrInvalidUnit)
}

func TestAPIErrorCarriesStatusAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","errors":[{"errorCode":"UDAPI100050","message":"Invalid token used to access API"}]}`))
	})

	_, err := c.HistoricalCandles(context.Background(), instrument, domain.UnitDays, "1", "2024-01-01", "2024-01-31")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "HTTP 401 Unauthorized", apiErr.Message)
	body, ok := apiErr.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "error", body["status"])
}

func TestAPIErrorKeepsTextBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.IntradayCandles(context.Background(), instrument, domain.UnitMinutes, "1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "bad gateway\n", apiErr.Body)
}

func TestTransportFailureIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewClient(srv.URL).HistoricalCandles(context.Background(), instrument, domain.UnitDays, "1", "2024-01-01", "2024-01-02")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.Status)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestHolidays(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/market/holidays", r.URL.Path)
		w.Write([]byte(`{"status":"success","data":[
			{"date":"2024-01-26","description":"Republic Day","holiday_type":"TRADING_HOLIDAY"},
			{"holiday_date":"2024-03-08"},
			{"trading_date":"2024-03-25"},
			{"description":"no date"},
			"junk"
		]}`))
	})

	dates, err := c.Holidays(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-26", "2024-03-08", "2024-03-25"}, dates)
}

func TestOHLCInterval(t *testing.T) {
	cases := []struct {
		unit     domain.Unit
		interval string
		want     string
		err      error
	}{
		{domain.UnitDays, "1", "1d", nil},
		{domain.UnitMinutes, "5", "I5", nil},
		{domain.UnitHours, "2", "I120", nil},
		{domain.UnitMinutes, "0", "", domain.ErrInvalidInterval},
		{domain.UnitHours, "x", "", domain.ErrInvalidInterval},
		{domain.UnitWeeks, "1", "", domain.ErrInvalidUnit},
	}
	for _, tc := range cases {
		got, err := OHLCInterval(tc.unit, tc.interval)
		if tc.err != nil {
			require.ErrorIs(t, err, tc.err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"candles":[]}}`))
	}, WithMetrics(reg))

	for i := 0; i < 3; i++ {
		_, err := c.HistoricalCandles(context.Background(), instrument, domain.UnitDays, "1", "2024-01-01", "2024-01-02")
		require.NoError(t, err)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(c.requests.WithLabelValues("historical", "200")))
}
