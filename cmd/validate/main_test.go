package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/tick-tracker/internal/domain"
)

func writeDataset(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sightings.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun_EmbeddedDatasetPasses(t *testing.T) {
	assert.Equal(t, 0, run("", false))
}

func TestRun_StrictFailsOnRejectedRecords(t *testing.T) {
	path := writeDataset(t, `[
		{"id": "1", "date": "2023-03-10T09:00:00.000", "location": "York", "species": "Marsh tick"},
		{"id": "2", "date": "2023-03-11T09:00:00.000", "species": "Marsh tick"}
	]`)

	assert.Equal(t, 0, run(path, false))
	assert.Equal(t, 1, run(path, true))
}

func TestRun_MissingFile(t *testing.T) {
	assert.Equal(t, 1, run(filepath.Join(t.TempDir(), "absent.json"), false))
}

func TestValidateIdentity(t *testing.T) {
	candidates, err := domain.DecodeCandidates([]byte(`[
		{"id": "1", "date": "2023-03-10T09:00:00.000", "location": "York", "species": "Marsh tick"},
		{"id": "1", "date": "2023-03-10T09:00:00.000", "location": "york", "species": "Marsh tick"},
		{"id": "1", "date": "2024-01-01T00:00:00.000", "location": "Leeds", "species": "Sheep tick"},
		{"id": "2", "date": "2023-03-11T09:00:00.000", "location": "Leeds", "species": "Sheep tick"}
	]`), domain.SourceBundled)
	require.NoError(t, err)

	admitted, decoding, admissibility := validateRecords(candidates, true)
	assert.True(t, decoding.passed())
	assert.True(t, admissibility.passed())
	require.Len(t, admitted, 4)

	unique, p := validateIdentity(admitted, true)
	require.Len(t, unique, 2)
	assert.Equal(t, "York", unique[0].Location)
	assert.Len(t, p.errors, 1, "only the conflicting duplicate is an error")
	assert.Contains(t, p.notes[0], "2 duplicate id(s)")

	assert.True(t, validateStoreRoundTrip(admitted, len(unique)).passed())
}

func TestValidateReferenceCoverage(t *testing.T) {
	sightings := []domain.Sighting{
		{ID: "1", Location: "York", Species: "Marsh tick"},
		{ID: "2", Location: "Atlantis", Species: domain.UnknownSpecies},
	}

	lenient := validateReferenceCoverage(sightings, false)
	assert.True(t, lenient.passed())
	assert.Len(t, lenient.notes, 2)

	strict := validateReferenceCoverage(sightings, true)
	assert.False(t, strict.passed())
	assert.Len(t, strict.errors, 1)
}
