package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Admissible(t *testing.T) {
	s, err := Validate(Candidate{
		ID:        "abc-1",
		Date:      "2023-03-10T10:30:00",
		Location:  "  York ",
		Species:   "marsh TICK",
		LatinName: "ignored when the name matches",
		Source:    SourceRemote,
	})
	require.NoError(t, err)

	assert.Equal(t, "abc-1", s.ID)
	assert.Equal(t, time.Date(2023, 3, 10, 10, 30, 0, 0, time.UTC), s.Date)
	assert.Equal(t, "York", s.Location)
	assert.Equal(t, "Marsh tick", s.Species)
	assert.Equal(t, "Dermacentor reticulatus", s.LatinName)
	assert.Equal(t, SourceRemote, s.Source)
	assert.Equal(t, "API", s.ReportedBy)
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	full := Candidate{ID: "1", Date: "2023-03-10", Location: "Leeds"}

	cases := []struct {
		name  string
		edit  func(c *Candidate)
		field string
	}{
		{"missing id", func(c *Candidate) { c.ID = "" }, "id"},
		{"blank id", func(c *Candidate) { c.ID = "   " }, "id"},
		{"missing date", func(c *Candidate) { c.Date = "" }, "date"},
		{"unparseable date", func(c *Candidate) { c.Date = "last tuesday" }, "date"},
		{"impossible date", func(c *Candidate) { c.Date = "2023-02-30" }, "date"},
		{"missing location", func(c *Candidate) { c.Location = "" }, "location"},
		{"blank location", func(c *Candidate) { c.Location = " \t " }, "location"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := full
			tc.edit(&c)

			_, err := Validate(c)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRejected))

			var rej *RejectionError
			require.True(t, errors.As(err, &rej))
			assert.Equal(t, tc.field, rej.Field)
		})
	}
}

func TestValidate_OtherFieldsNeverReject(t *testing.T) {
	cases := []Candidate{
		{ID: "1", Date: "2023-03-10", Location: "Leeds", Species: "dragon"},
		{ID: "1", Date: "2023-03-10", Location: "Leeds", Time: "25:99"},
		{ID: "1", Date: "2023-03-10", Location: "Atlantis", ReportedBy: "", ImageRef: "x"},
		{ID: "1", Date: "2023-03-10", Location: "Leeds", LatinName: "???"},
	}
	for _, c := range cases {
		_, err := Validate(c)
		assert.NoError(t, err)
	}

	for _, record := range []string{
		`{"id": "1", "date": "2023-03-10", "location": "Leeds", "species": {"name": "Marsh tick"}}`,
		`{"id": "1", "date": "2023-03-10", "location": "Leeds", "image": ["a.png"]}`,
		`{"id": "1", "date": "2023-03-10", "location": "Leeds", "latinName": false}`,
		`{"id": "1", "date": "2023-03-10", "location": "Leeds", "time": {"h": 9}}`,
	} {
		s, err := Validate(DecodeCandidate([]byte(record), SourceRemote))
		require.NoError(t, err, record)
		assert.Equal(t, "Leeds", s.Location)
		assert.Equal(t, UnknownSpecies, s.Species, record)
	}
}

func TestValidate_MalformedRecord(t *testing.T) {
	_, err := Validate(Candidate{DecodeErr: errors.New("boom")})
	require.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "record")
}

func TestValidate_UnknownSpecies(t *testing.T) {
	s, err := Validate(Candidate{ID: "1", Date: "2023-03-10", Location: "Leeds", Species: "Deer ked"})
	require.NoError(t, err)
	assert.Equal(t, UnknownSpecies, s.Species)
	assert.Empty(t, s.LatinName)
}

func TestValidate_SpeciesByLatinName(t *testing.T) {
	s, err := Validate(Candidate{ID: "1", Date: "2023-03-10", Location: "Leeds", LatinName: "ixodes canisuga"})
	require.NoError(t, err)
	assert.Equal(t, "Fox/badger tick", s.Species)
}

func TestValidate_TimeAppliedToDateOnly(t *testing.T) {
	s, err := Validate(Candidate{ID: "1", Date: "2024-06-01", Time: "14:05", Location: "Leeds", Source: SourceUser})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 14, 5, 0, 0, time.UTC), s.Date)
	assert.Equal(t, "Anonymous", s.ReportedBy)
}

func TestValidate_TimeIgnoredWhenDateHasClock(t *testing.T) {
	s, err := Validate(Candidate{ID: "1", Date: "2024-06-01T08:00:00", Time: "14:05", Location: "Leeds"})
	require.NoError(t, err)
	assert.Equal(t, 8, s.Date.Hour())
	assert.Equal(t, SourceBundled, s.Source)
	assert.Equal(t, "System", s.ReportedBy)
}

func TestParseSightingDate_Forms(t *testing.T) {
	want := time.Date(2023, 7, 1, 9, 15, 30, 0, time.UTC)

	cases := []string{
		"2023-07-01T09:15:30",
		"2023-07-01 09:15:30",
		"2023-07-01T09:15:30.123456",
		"2023-07-01T09:15:30+01:00",
		"2023-07-01T09:15:30Z",
	}
	for _, in := range cases {
		got, hasClock, err := ParseSightingDate(in)
		require.NoError(t, err, in)
		assert.True(t, hasClock, in)
		assert.Equal(t, want, got, in)
	}

	day, hasClock, err := ParseSightingDate("2023-07-01")
	require.NoError(t, err)
	assert.False(t, hasClock)
	assert.Equal(t, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), day)
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2023-03-15")
	require.NoError(t, err)
	assert.Equal(t, 15, d.Day())

	_, err = ParseDay("15/03/2023")
	assert.Error(t, err)
}

func TestFilter_Bounds(t *testing.T) {
	var f Filter
	assert.Empty(t, f.StartBound())
	assert.Empty(t, f.EndBound())

	f = Filter{
		StartDate: time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "2023-03-01T00:00:00", f.StartBound())
	assert.Equal(t, "2023-03-15T23:59:59", f.EndBound())
}
