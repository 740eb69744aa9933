package domain

// Candle is one OHLCV bar. Timestamp is ISO-8601 with the fixed +05:30 offset
// and is the identity of a candle within a series.
type Candle struct {
	Timestamp string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Day returns the YYYY-MM-DD prefix of the timestamp, or "" when it is too short.
func (c Candle) Day() string {
	if len(c.Timestamp) < 10 {
		return ""
	}
	return c.Timestamp[:10]
}

// OHLCPair is a quote snapshot: the previous completed bar and the bar
// currently forming. Either side may be nil.
type OHLCPair struct {
	Prev *Candle
	Live *Candle
}
