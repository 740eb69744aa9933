package series

import (
	"sort"

	"github.com/0xc0d3d00d/candleseries/internal/calendar"
	"github.com/0xc0d3d00d/candleseries/internal/domain"
)

// Two identities coexist when merging. The stitched daily bar for today is
// keyed by calendar day and replaces whatever the range endpoint returned for
// that day. Intraday and quote candles are keyed by exact timestamp and never
// replace an existing candle.

func sortCandles(candles []domain.Candle) {
	sort.SliceStable(candles, func(i, j int) bool {
		return calendar.IsoCmp(candles[i].Timestamp, candles[j].Timestamp) < 0
	})
}

// normalize sorts ascending and drops repeated timestamps, keeping the first.
func normalize(candles []domain.Candle) []domain.Candle {
	if candles == nil {
		return []domain.Candle{}
	}
	sortCandles(candles)

	out := candles[:0]
	for i, c := range candles {
		if i > 0 && c.Timestamp == out[len(out)-1].Timestamp {
			continue
		}
		out = append(out, c)
	}
	return out
}

// upsertByDay removes every candle on the same calendar day as c, then adds c.
func upsertByDay(list []domain.Candle, c domain.Candle) []domain.Candle {
	day := c.Day()
	if day == "" {
		return list
	}

	out := list[:0]
	for _, existing := range list {
		if existing.Day() != day {
			out = append(out, existing)
		}
	}
	out = append(out, c)
	sortCandles(out)
	return out
}

// appendNew adds the candles whose timestamps are not present yet.
func appendNew(base, add []domain.Candle) []domain.Candle {
	if len(add) == 0 {
		return base
	}

	seen := make(map[string]struct{}, len(base)+len(add))
	for _, c := range base {
		seen[c.Timestamp] = struct{}{}
	}
	for _, c := range add {
		if c.Timestamp == "" {
			continue
		}
		if _, ok := seen[c.Timestamp]; ok {
			continue
		}
		base = append(base, c)
		seen[c.Timestamp] = struct{}{}
	}
	sortCandles(base)
	return base
}

// appendIfNewer appends c when it is later than the last candle of the sorted
// list. An older c is inserted only if its timestamp is not present yet.
func appendIfNewer(list []domain.Candle, c domain.Candle) []domain.Candle {
	if c.Timestamp == "" {
		return list
	}
	if len(list) == 0 {
		return append(list, c)
	}

	last := list[len(list)-1].Timestamp
	switch cmp := calendar.IsoCmp(c.Timestamp, last); {
	case cmp > 0:
		return append(list, c)
	case cmp == 0:
		return list
	}

	for _, existing := range list {
		if existing.Timestamp == c.Timestamp {
			return list
		}
	}
	list = append(list, c)
	sortCandles(list)
	return list
}

// pickDay returns the first candle dated day.
func pickDay(candles []domain.Candle, day string) (domain.Candle, bool) {
	for _, c := range candles {
		if c.Day() == day {
			return c, true
		}
	}
	return domain.Candle{}, false
}

// withinDays keeps the candles dated inside [from, to] and not on a weekend.
func withinDays(candles []domain.Candle, from, to string) []domain.Candle {
	out := make([]domain.Candle, 0, len(candles))
	for _, c := range candles {
		day := c.Day()
		if day < from || day > to {
			continue
		}
		t, err := calendar.ParseYMD(day)
		if err != nil || calendar.IsWeekend(t) {
			continue
		}
		out = append(out, c)
	}
	return out
}
