// Package data embeds the bundled baseline dataset exported from the tick
// sightings spreadsheet.
package data

import _ "embed"

// Seed is the baseline sightings dataset as a JSON array.
//
//go:embed seed_data.json
var Seed []byte
