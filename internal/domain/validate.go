package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRejected marks a candidate that cannot be stored.
var ErrRejected = errors.New("sighting rejected")

// RejectionError names the field that made a candidate inadmissible.
type RejectionError struct {
	Field  string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *RejectionError) Unwrap() error { return ErrRejected }

func reject(field, reason string) error {
	return &RejectionError{Field: field, Reason: reason}
}

// Validate checks the admissibility of a candidate and normalizes it.
// Only a missing id, date or location, or an unparseable date, rejects a
// candidate; every other field is normalized or defaulted instead.
func Validate(c Candidate) (Sighting, error) {
	if c.DecodeErr != nil {
		return Sighting{}, reject("record", "malformed: "+c.DecodeErr.Error())
	}

	id := c.ID.String()
	if id == "" {
		return Sighting{}, reject("id", "is required")
	}

	rawDate := c.Date.String()
	if rawDate == "" {
		return Sighting{}, reject("date", "is required")
	}
	date, hasClock, err := ParseSightingDate(rawDate)
	if err != nil {
		return Sighting{}, reject("date", fmt.Sprintf("%q is not a calendar date", rawDate))
	}
	if !hasClock {
		date = withTimeOfDay(date, c.Time.String())
	}

	location := strings.Join(strings.Fields(c.Location.String()), " ")
	if location == "" {
		return Sighting{}, reject("location", "is required")
	}

	species := NormalizeSpecies(c.Species.String(), c.LatinName.String())

	return Sighting{
		ID:         id,
		Date:       date,
		Location:   location,
		Species:    species.Name,
		LatinName:  species.LatinName,
		ReportedBy: reporterOrDefault(c.ReportedBy.String(), c.Source),
		ImageRef:   c.ImageRef.String(),
		Source:     sourceOrDefault(c.Source),
	}, nil
}

// ParseSightingDate parses the accepted timestamp forms and reports whether
// the input carried a time of day. The result is a UTC wall-clock time.
func ParseSightingDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return wallClock(t), true, nil
	}
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	for _, layout := range []string{DateLayout, "2006-01-02 15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true, nil
		}
	}
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, false, nil
}

// ParseDay parses a YYYY-MM-DD filter bound.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// withTimeOfDay applies an "HH:MM" or "HH:MM:SS" clock to a date-only value.
// An unparseable clock leaves the date at midnight.
func withTimeOfDay(day time.Time, clock string) time.Time {
	if t, ok := parseClock(clock); ok {
		return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	}
	return day
}

// ValidTimeOfDay reports whether clock reads as "HH:MM" or "HH:MM:SS".
func ValidTimeOfDay(clock string) bool {
	_, ok := parseClock(strings.TrimSpace(clock))
	return ok
}

func parseClock(clock string) (time.Time, bool) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// wallClock drops the zone while keeping the local reading of t.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func sourceOrDefault(s Source) Source {
	if s == "" {
		return SourceBundled
	}
	return s
}

func reporterOrDefault(reporter string, source Source) string {
	if reporter != "" {
		return reporter
	}
	switch source {
	case SourceRemote:
		return "API"
	case SourceUser:
		return "Anonymous"
	default:
		return "System"
	}
}
