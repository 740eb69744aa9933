// Package calendar holds the calendar arithmetic used to walk trading days.
//
// Dates are YYYY-MM-DD strings at the edges and time.Time values anchored at
// UTC midnight inside, so weekday checks do not depend on the local timezone.
// The target market (NSE) observes IST, a fixed UTC+05:30 offset with no DST.
package calendar

import (
	"regexp"
	"strings"
	"time"

	"github.com/0xc0d3d00d/candleseries/internal/domain"
)

const (
	ymdLayout = "2006-01-02"
	isoLayout = "2006-01-02T15:04:05"

	istOffset = 330 * time.Minute
	day       = 24 * time.Hour
)

var ymdPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsValidYMD reports whether s is strictly YYYY-MM-DD and names a real calendar date.
func IsValidYMD(s string) bool {
	if !ymdPattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(ymdLayout, s)
	return err == nil
}

func ParseYMD(ymd string) (time.Time, error) {
	if !IsValidYMD(ymd) {
		return time.Time{}, &domain.InvalidDateError{Value: ymd}
	}
	t, err := time.Parse(ymdLayout, ymd)
	if err != nil {
		return time.Time{}, &domain.InvalidDateError{Value: ymd}
	}
	return t, nil
}

func FormatYMD(t time.Time) string {
	return t.UTC().Format(ymdLayout)
}

// AddDays shifts t by whole days using fixed 24h offsets.
func AddDays(t time.Time, days int) time.Time {
	return t.Add(time.Duration(days) * day)
}

func IsWeekend(t time.Time) bool {
	wd := t.UTC().Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// TodayIST returns the calendar date in IST at the instant now.
func TodayIST(now time.Time) string {
	return FormatYMD(now.UTC().Add(istOffset))
}

// EpochMillisToIST formats an epoch-millisecond instant as YYYY-MM-DDTHH:MM:SS+05:30.
func EpochMillisToIST(ms int64) string {
	return time.UnixMilli(ms).UTC().Add(istOffset).Format(isoLayout) + "+05:30"
}

// IsoCmp compares two fixed-width timestamps with the same offset suffix,
// for which lexicographic order is chronological order.
func IsoCmp(a, b string) int {
	return strings.Compare(a, b)
}

// Year extracts the year of a valid YYYY-MM-DD string.
func Year(ymd string) (int, bool) {
	t, err := ParseYMD(ymd)
	if err != nil {
		return 0, false
	}
	return t.Year(), true
}
