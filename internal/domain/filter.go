package domain

import "time"

// Filter narrows a query. Zero-valued fields impose no constraint.
// Species and Location compare case-insensitively; EndDate covers the whole
// calendar day it names.
type Filter struct {
	Species   string
	Location  string
	StartDate time.Time
	EndDate   time.Time
}

// StartBound is the first instant admitted by the filter, or "" if unbounded.
func (f Filter) StartBound() string {
	if f.StartDate.IsZero() {
		return ""
	}
	day := f.StartDate
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// EndBound is the last instant admitted by the filter (23:59:59 of EndDate),
// or "" if unbounded.
func (f Filter) EndBound() string {
	if f.EndDate.IsZero() {
		return ""
	}
	day := f.EndDate
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, time.UTC).Format(DateLayout)
}
