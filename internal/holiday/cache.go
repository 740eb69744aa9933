// Package holiday provides the per-year market holiday calendar.
//
// Lookups never fail. When the calendar source is unreachable or answers
// with nothing usable the year resolves to an empty set, which degrades
// trading-day checks to weekend-only.
package holiday

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/0xc0d3d00d/candleseries/internal/calendar"
	"github.com/0xc0d3d00d/candleseries/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

type Set map[string]struct{}

func (s Set) add(v string) {
	s[v] = struct{}{}
}

func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Dates returns the members in ascending order.
func (s Set) Dates() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

type Cache struct {
	store  Store
	source Source
	now    func() time.Time

	// years memoizes non-empty sets for the process lifetime.
	mu    sync.RWMutex
	years map[int]Set

	lookups *prometheus.CounterVec
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithMetrics registers the cache counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Cache) {
		reg.MustRegister(c.lookups)
	}
}

func NewCache(store Store, source Source, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		source: source,
		now:    time.Now,
		years:  make(map[int]Set),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "holiday_cache_lookups_total",
			Help: "Holiday year lookups by outcome.",
		}, []string{"result"}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetForYear returns the holiday dates of year. Failures yield an empty set.
func (c *Cache) SetForYear(ctx context.Context, year int) Set {
	c.mu.RLock()
	set, ok := c.years[year]
	c.mu.RUnlock()
	if ok {
		c.lookups.WithLabelValues("memory").Inc()
		return set
	}

	if set, ok := c.fromStore(ctx, year); ok {
		c.lookups.WithLabelValues("store").Inc()
		c.remember(year, set)
		return set
	}

	set = c.fetch(ctx, year)
	if len(set) == 0 {
		// Not cached: an empty year is indistinguishable from a failed fetch.
		c.lookups.WithLabelValues("empty").Inc()
		return set
	}

	c.lookups.WithLabelValues("fetched").Inc()
	c.persist(ctx, domain.HolidayYear{
		Year:      year,
		Dates:     set.Dates(),
		FetchedAt: c.now().UnixMilli(),
	})
	c.remember(year, set)
	return set
}

// IsMarketHoliday reports whether ymd is a listed holiday. Malformed dates are not holidays.
func (c *Cache) IsMarketHoliday(ctx context.Context, ymd string) bool {
	year, ok := calendar.Year(ymd)
	if !ok {
		return false
	}
	return c.SetForYear(ctx, year).Has(ymd)
}

func (c *Cache) fromStore(ctx context.Context, year int) (Set, bool) {
	if c.store == nil {
		return nil, false
	}
	data, ok, err := c.store.Get(ctx, year)
	if err != nil {
		slog.WarnContext(ctx, "holiday store read failed", "year", year, "error", err)
		return nil, false
	}
	if !ok || data.Year != year || len(data.Dates) == 0 {
		return nil, false
	}

	set := make(Set, len(data.Dates))
	for _, d := range data.Dates {
		set.add(d)
	}
	return set, true
}

func (c *Cache) fetch(ctx context.Context, year int) Set {
	set := Set{}
	if c.source == nil {
		return set
	}

	dates, err := c.source.Holidays(ctx, year)
	if err != nil {
		slog.WarnContext(ctx, "holiday fetch failed, using weekend-only calendar", "year", year, "error", err)
		return set
	}

	prefix := strconv.Itoa(year)
	for _, d := range dates {
		if calendar.IsValidYMD(d) && strings.HasPrefix(d, prefix) {
			set.add(d)
		}
	}
	slog.DebugContext(ctx, "holiday year fetched", "year", year, "received", len(dates), "kept", len(set))
	return set
}

func (c *Cache) persist(ctx context.Context, data domain.HolidayYear) {
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, data); err != nil {
		slog.WarnContext(ctx, "failed to persist holiday year", "year", data.Year, "error", err)
	}
}

func (c *Cache) remember(year int, set Set) {
	c.mu.Lock()
	c.years[year] = set
	c.mu.Unlock()
}
