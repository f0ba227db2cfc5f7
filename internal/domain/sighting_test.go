package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCandidates_Array(t *testing.T) {
	payload := []byte(`[
		{"id": 1, "date": "2023-03-10T10:00:00", "location": "York", "species": "Marsh tick"},
		{"id": "2", "date": "2023-03-11", "location": "Leeds", "latinName": null}
	]`)

	got, err := DecodeCandidates(payload, SourceRemote)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "1", got[0].ID.String())
	assert.Equal(t, "2", got[1].ID.String())
	assert.Empty(t, got[1].LatinName.String())
	assert.Equal(t, SourceRemote, got[0].Source)
	assert.NoError(t, got[0].DecodeErr)
}

func TestDecodeCandidates_Envelopes(t *testing.T) {
	for _, key := range []string{"data", "sightings"} {
		payload := []byte(`{"` + key + `": [{"id": "a", "date": "2023-01-01", "location": "Leeds"}]}`)
		got, err := DecodeCandidates(payload, SourceRemote)
		require.NoError(t, err, key)
		require.Len(t, got, 1, key)
		assert.Equal(t, "a", got[0].ID.String())
	}
}

func TestDecodeCandidates_EnvelopeWithoutRecords(t *testing.T) {
	got, err := DecodeCandidates([]byte(`{"message": "ok"}`), SourceRemote)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeCandidates_BadRecordKept(t *testing.T) {
	payload := []byte(`[{"id": {"nested": true}, "date": "2023-01-01", "location": "Leeds"}, "junk"]`)

	got, err := DecodeCandidates(payload, SourceRemote)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Error(t, got[0].DecodeErr)
	assert.Error(t, got[1].DecodeErr)
}

func TestDecodeCandidates_NonScalarOptionalFields(t *testing.T) {
	payload := []byte(`[
		{"id": "1", "date": "2023-03-10", "location": "York", "species": {"name": "Marsh tick"}},
		{"id": "2", "date": "2023-03-10", "location": "York", "image": ["a.png"]},
		{"id": "3", "date": "2023-03-10", "location": "York", "latinName": false, "time": true},
		{"id": "4", "date": "2023-03-10", "location": "York", "reported_by": {"user": 7}}
	]`)

	got, err := DecodeCandidates(payload, SourceRemote)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, c := range got {
		assert.NoError(t, c.DecodeErr, c.ID.String())
		assert.Equal(t, "York", c.Location.String())
	}
	assert.Empty(t, got[0].Species.String())
	assert.Empty(t, got[1].ImageRef.String())
	assert.Empty(t, got[2].LatinName.String())
	assert.Empty(t, got[2].Time.String())
	assert.Empty(t, got[3].ReportedBy.String())
}

func TestDecodeCandidates_NonScalarRequiredFieldFails(t *testing.T) {
	for _, record := range []string{
		`{"id": "1", "date": ["2023-03-10"], "location": "York"}`,
		`{"id": "1", "date": "2023-03-10", "location": {"city": "York"}}`,
		`{"id": true, "date": "2023-03-10", "location": "York"}`,
	} {
		c := DecodeCandidate([]byte(record), SourceRemote)
		assert.Error(t, c.DecodeErr, record)
	}
}

func TestDecodeCandidates_Malformed(t *testing.T) {
	for _, payload := range []string{"", "not json", `"string"`, `[{"id": 1`} {
		_, err := DecodeCandidates([]byte(payload), SourceRemote)
		assert.Error(t, err, payload)
	}
}

func TestSpeciesAndCities(t *testing.T) {
	assert.Equal(t, "Tree-hole tick", NormalizeSpecies("  tree-hole   TICK ", "").Name)
	assert.Equal(t, UnknownSpecies, NormalizeSpecies("", "").Name)
	assert.Len(t, KnownSpecies(), len(knownSpecies))

	cities := Cities()
	require.NotEmpty(t, cities)
	assert.Equal(t, "Birmingham", cities[0].Name)

	c, ok := LookupCity(" GLASGOW ")
	require.True(t, ok)
	assert.Equal(t, "Glasgow", c.Name)

	_, ok = LookupCity("Atlantis")
	assert.False(t, ok)
}
