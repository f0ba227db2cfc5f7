package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage and wire format of a sighting timestamp.
const DateLayout = "2006-01-02T15:04:05"

// DayLayout is the format of date-only query parameters.
const DayLayout = "2006-01-02"

// Source tags where a sighting came from. It is informational only and never
// takes part in deduplication.
type Source string

const (
	SourceBundled Source = "bundled"
	SourceRemote  Source = "remote"
	SourceUser    Source = "user-submitted"
)

// Text is a JSON scalar coerced to a string. Feeds are not consistent about
// quoting ids, so numbers are accepted alongside strings; null decodes to "".
type Text string

// UnmarshalJSON accepts a JSON string, number or null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*t = Text(n.String())
		return nil
	default:
		return fmt.Errorf("expected string or number, got %s", truncate(data, 32))
	}
}

func (t Text) String() string { return strings.TrimSpace(string(t)) }

// OptionalText is Text for descriptive fields that never decide
// admissibility. Objects, arrays and booleans decode to "" rather than
// failing the whole record.
type OptionalText string

// UnmarshalJSON accepts anything; only strings and numbers carry a value.
func (t *OptionalText) UnmarshalJSON(data []byte) error {
	var scalar Text
	if err := scalar.UnmarshalJSON(data); err != nil {
		*t = ""
		return nil
	}
	*t = OptionalText(scalar)
	return nil
}

func (t OptionalText) String() string { return strings.TrimSpace(string(t)) }

// Candidate is an unvalidated sighting as produced by a data source.
type Candidate struct {
	ID       Text `json:"id"`
	Date     Text `json:"date"`
	Location Text `json:"location"`

	Time       OptionalText `json:"time"`
	Species    OptionalText `json:"species"`
	LatinName  OptionalText `json:"latinName"`
	ReportedBy OptionalText `json:"reported_by"`
	ImageRef   OptionalText `json:"image"`

	Source Source `json:"-"`

	// DecodeErr is set when the source could not decode this record at all.
	// Such candidates are always rejected.
	DecodeErr error `json:"-"`
}

// Sighting is an admissible, normalized tick observation.
type Sighting struct {
	ID         string
	Date       time.Time
	Location   string
	Species    string
	LatinName  string
	ReportedBy string
	ImageRef   string
	Source     Source
	IngestedAt time.Time
}

// DecodeCandidates parses a feed payload. It accepts a bare JSON array or an
// object wrapping the array under "data" or "sightings". Records that fail to
// decode are kept with DecodeErr set so they can be counted as rejected.
func DecodeCandidates(payload []byte, source Source) ([]Candidate, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, errors.New("empty payload")
	}

	var items []json.RawMessage
	switch payload[0] {
	case '[':
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, fmt.Errorf("decode sightings array: %w", err)
		}
	case '{':
		var envelope struct {
			Data      []json.RawMessage `json:"data"`
			Sightings []json.RawMessage `json:"sightings"`
		}
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return nil, fmt.Errorf("decode sightings envelope: %w", err)
		}
		items = envelope.Data
		if len(items) == 0 {
			items = envelope.Sightings
		}
	default:
		return nil, fmt.Errorf("unexpected payload shape: %s", truncate(payload, 32))
	}

	out := make([]Candidate, 0, len(items))
	for _, item := range items {
		out = append(out, DecodeCandidate(item, source))
	}
	return out, nil
}

// DecodeCandidate parses a single JSON record.
func DecodeCandidate(data []byte, source Source) Candidate {
	var c Candidate
	if err := json.Unmarshal(data, &c); err != nil {
		return Candidate{Source: source, DecodeErr: err}
	}
	c.Source = source
	return c
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
