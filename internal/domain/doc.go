// Package domain models UK tick sighting records and the rules that decide
// which candidate records may enter the store.
//
// # Data Sources
//
// Sightings arrive from three places:
//
//	bundled         the seed_data.json snapshot shipped with the binary,
//	                exported once from the original spreadsheet
//	remote          the external sightings feed, merged best-effort at startup
//	user-submitted  single reports posted through the report endpoint
//
// All three produce [Candidate] values with the same field set and pass
// through [Validate] before reaching the store.
//
// # Field Conventions
//
// Identity:
//
//	"id" is the only dedup key. The remote feed sometimes sends numeric ids;
//	they are coerced to their decimal text form ("1" and 1 are the same id).
//
// Dates:
//
//	Stored as "YYYY-MM-DDTHH:MM:SS" wall-clock text, no zone. Inputs may use a
//	space instead of "T", carry an RFC 3339 offset, or be date-only. Anything
//	longer than 19 characters that is not RFC 3339 is truncated to 19 first,
//	matching how the spreadsheet export wrote timestamps with fractional seconds.
//
// Locations:
//
//	Free-text city names. Grouping and filtering fold case, so "york" and
//	"York" are one group; the display spelling is the first one stored.
//	Coordinates are not carried per record; they come from [LookupCity].
//
// Species:
//
//	Matched case-insensitively against the known UK species list by common or
//	latin name. Anything else, including an empty value, becomes "Unknown".
//
// # Admissibility
//
// A candidate is admissible when id, date and location are present and the
// date parses. Nothing else can cause a rejection. See [Validate].
package domain
