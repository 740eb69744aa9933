// Package upstream is a thin typed client for the Upstox market-data API.
// It issues one request per call and never retries.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/0xc0d3d00d/candleseries/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.upstox.com"

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	limiter     *rate.Limiter

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

type Option func(*Client)

// WithAccessToken sets the bearer token. Blank tokens are not sent.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.accessToken = strings.TrimSpace(token)
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit spaces requests to rps per second. rps <= 0 means unlimited.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics registers the request counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		reg.MustRegister(c.requests, c.duration)
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 0),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Upstream market-data requests by endpoint and HTTP status code.",
		}, []string{"endpoint", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream market-data request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HistoricalCandles fetches one bounded window. Order is as returned upstream.
func (c *Client) HistoricalCandles(ctx context.Context, instrument string, unit domain.Unit, interval, from, to string) ([]domain.Candle, error) {
	var resp candlesResponse
	err := c.getJSON(ctx, "historical", historicalURL(c.baseURL, instrument, unit, interval, from, to), &resp)
	if err != nil {
		return nil, err
	}
	return decodeCandles(ctx, resp), nil
}

// IntradayCandles fetches the current session, sorted ascending by timestamp.
func (c *Client) IntradayCandles(ctx context.Context, instrument string, unit domain.Unit, interval string) ([]domain.Candle, error) {
	if unit != domain.UnitMinutes && unit != domain.UnitHours && unit != domain.UnitDays {
		return nil, fmt.Errorf("%w: intraday candles not available for %s", domain.ErrInvalidUnit, unit)
	}

	var resp candlesResponse
	err := c.getJSON(ctx, "intraday", intradayURL(c.baseURL, instrument, unit, interval), &resp)
	if err != nil {
		return nil, err
	}

	candles := decodeCandles(ctx, resp)
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp < candles[j].Timestamp
	})
	return candles, nil
}

// OHLC fetches the previous and live bar snapshot. A side without a positive
// timestamp is left nil.
func (c *Client) OHLC(ctx context.Context, instrument string, unit domain.Unit, interval string) (domain.OHLCPair, error) {
	mapped, err := OHLCInterval(unit, interval)
	if err != nil {
		return domain.OHLCPair{}, err
	}

	var resp ohlcResponse
	if err := c.getJSON(ctx, "ohlc", ohlcURL(c.baseURL, instrument, mapped), &resp); err != nil {
		return domain.OHLCPair{}, err
	}

	entry, err := findOHLCEntry(resp.Data, instrument)
	if err != nil {
		return domain.OHLCPair{}, &APIError{Status: http.StatusOK, Message: "decode ohlc quote", Body: string(resp.Data), Err: err}
	}
	if entry == nil {
		return domain.OHLCPair{}, nil
	}
	return domain.OHLCPair{
		Prev: entry.PrevOHLC.toCandle(),
		Live: entry.LiveOHLC.toCandle(),
	}, nil
}

// Holidays lists the exchange holiday dates published upstream. The year is
// not part of the request; callers filter.
func (c *Client) Holidays(ctx context.Context, year int) ([]string, error) {
	var resp holidaysResponse
	if err := c.getJSON(ctx, "holidays", holidaysURL(c.baseURL), &resp); err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(resp.Data))
	for _, raw := range resp.Data {
		var entry holidayEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if d := entry.date(); d != "" {
			dates = append(dates, d)
		}
	}
	slog.DebugContext(ctx, "holidays listed", "year", year, "count", len(dates))
	return dates, nil
}

func decodeCandles(ctx context.Context, resp candlesResponse) []domain.Candle {
	if resp.Data == nil {
		return []domain.Candle{}
	}
	candles := make([]domain.Candle, 0, len(resp.Data.Candles))
	for _, row := range resp.Data.Candles {
		candle, err := rowToCandle(row)
		if err != nil {
			slog.DebugContext(ctx, "skipping malformed candle row", "error", err)
			continue
		}
		candles = append(candles, candle)
	}
	return candles
}

func (c *Client) getJSON(ctx context.Context, endpoint, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &APIError{Message: "rate limiter: " + err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &APIError{Message: "create request: " + err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	slog.DebugContext(ctx, "upstream request", "endpoint", endpoint, "url", url)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.duration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.requests.WithLabelValues(endpoint, "error").Inc()
		return &APIError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()
	c.requests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: "read body: " + err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			Body:    decodeBody(raw),
		}
	}

	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: "decode response: " + err.Error(), Body: string(raw), Err: err}
	}
	return nil
}

// decodeBody returns the JSON value of raw, or raw as text when it is not JSON.
func decodeBody(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return string(raw)
	}
	return body
}
