package domain

// FetchOptions describes one assembly request. Dates are YYYY-MM-DD.
// EndDate is ignored by FetchFromStart.
type FetchOptions struct {
	Instrument          string
	Unit                Unit
	Interval            string
	StartDate           string
	EndDate             string
	IncludeHolidayCheck bool
}

// HolidayYear is the persisted holiday set of one calendar year.
type HolidayYear struct {
	Year      int      `json:"year"`
	Dates     []string `json:"dates"`
	FetchedAt int64    `json:"fetched_at"` // unix millis
}
