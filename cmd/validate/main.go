// Command validate checks a sighting dataset before it is shipped as the
// baseline. It decodes every record, applies the same admissibility rules as
// startup ingestion, reports first-wins duplicates and names the locations
// and species the reference tables do not know. Finally it loads the dataset
// into an in-memory store and checks the stored count.
//
// Usage:
//
//	go run ./cmd/validate                          # embedded dataset
//	go run ./cmd/validate -file data/seed_data.json -strict
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/couchcryptid/tick-tracker/data"
	"github.com/couchcryptid/tick-tracker/internal/domain"
	"github.com/couchcryptid/tick-tracker/internal/store/sqlite"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

// finding records an error in strict mode and a note otherwise.
func (p *phase) finding(strict bool, format string, args ...any) {
	if strict {
		p.errorf(format, args...)
		return
	}
	p.notef(format, args...)
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	file := flag.String("file", "", "path to a sighting JSON file (default: embedded dataset)")
	strict := flag.Bool("strict", false, "treat rejected records, conflicting duplicates and unknown locations as failures")
	flag.Parse()

	if code := run(*file, *strict); code != 0 {
		os.Exit(code)
	}
}

func run(path string, strict bool) int {
	payload := data.Seed
	name := "embedded dataset"
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: read dataset: %v\n", err)
			return 1
		}
		payload, name = b, path
	}

	candidates, err := domain.DecodeCandidates(payload, domain.SourceBundled)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode %s: %v\n", name, err)
		return 1
	}

	fmt.Printf("=== Sighting Dataset Validation (%s) ===\n\n", name)

	admitted, decoding, admissibility := validateRecords(candidates, strict)
	unique, identity := validateIdentity(admitted, strict)
	phases := []*phase{
		decoding,
		admissibility,
		identity,
		validateReferenceCoverage(unique, strict),
		validateStoreRoundTrip(admitted, len(unique)),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d decoded, %d admissible, %d rejected, %d unique ids\n",
		len(candidates), len(admitted), len(candidates)-len(admitted), len(unique))

	for _, p := range phases {
		if len(p.notes) == 0 && p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		for _, n := range p.notes {
			fmt.Printf("  Note: %s\n", n)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases 1 and 2: Decoding and Admissibility ──

func validateRecords(candidates []domain.Candidate, strict bool) ([]domain.Sighting, *phase, *phase) {
	decoding := &phase{name: "Phase 1: Decoding (record shape)"}
	admissibility := &phase{name: "Phase 2: Admissibility (id, date, location)"}

	var admitted []domain.Sighting
	for i, c := range candidates {
		if c.DecodeErr != nil {
			decoding.errorf("record %d: %v", i, c.DecodeErr)
			continue
		}
		s, err := domain.Validate(c)
		if err != nil {
			admissibility.finding(strict, "record %d (id %q): %v", i, c.ID.String(), err)
			continue
		}
		admitted = append(admitted, s)
	}
	return admitted, decoding, admissibility
}

// ── Phase 3: Identity ──
// The store keeps the first record for an id and ignores later ones.

func validateIdentity(admitted []domain.Sighting, strict bool) ([]domain.Sighting, *phase) {
	p := &phase{name: "Phase 3: Identity (first-wins duplicates)"}

	first := make(map[string]domain.Sighting, len(admitted))
	var unique []domain.Sighting
	var dupeCount int
	for _, s := range admitted {
		prev, exists := first[s.ID]
		if !exists {
			first[s.ID] = s
			unique = append(unique, s)
			continue
		}
		dupeCount++
		if !sameObservation(prev, s) {
			p.finding(strict, "id %q: later record (%s, %s, %s) differs from the kept one (%s, %s, %s)",
				s.ID,
				s.Date.Format(domain.DateLayout), s.Location, s.Species,
				prev.Date.Format(domain.DateLayout), prev.Location, prev.Species)
		}
	}
	if dupeCount > 0 {
		p.notef("%d duplicate id(s) will be ignored at load time", dupeCount)
	}
	return unique, p
}

func sameObservation(a, b domain.Sighting) bool {
	return a.Date.Equal(b.Date) &&
		domain.LocationKey(a.Location) == domain.LocationKey(b.Location) &&
		a.Species == b.Species
}

// ── Phase 4: Reference Coverage ──

func validateReferenceCoverage(unique []domain.Sighting, strict bool) *phase {
	p := &phase{name: "Phase 4: Reference Coverage (cities, species)"}

	unmapped := map[string]int{}
	var unknownSpecies int
	for _, s := range unique {
		if _, ok := domain.LookupCity(s.Location); !ok {
			unmapped[s.Location]++
		}
		if s.Species == domain.UnknownSpecies {
			unknownSpecies++
		}
	}

	locations := make([]string, 0, len(unmapped))
	for loc := range unmapped {
		locations = append(locations, loc)
	}
	sort.Strings(locations)
	for _, loc := range locations {
		p.finding(strict, "location %q (%d sightings) has no reference coordinates and will not appear on the map", loc, unmapped[loc])
	}
	if unknownSpecies > 0 {
		p.notef("%d sighting(s) will be stored as %q", unknownSpecies, domain.UnknownSpecies)
	}
	return p
}

// ── Phase 5: Store Round-trip ──

func validateStoreRoundTrip(admitted []domain.Sighting, wantUnique int) *phase {
	p := &phase{name: "Phase 5: Store Round-trip (in-memory load)"}
	ctx := context.Background()

	store, err := sqlite.New(":memory:")
	if err != nil {
		p.errorf("open store: %v", err)
		return p
	}
	defer store.Close()

	result, err := store.InsertBatch(ctx, admitted)
	if err != nil {
		p.errorf("load: %v", err)
		return p
	}
	if result.Inserted != wantUnique {
		p.errorf("inserted %d records, expected %d unique ids", result.Inserted, wantUnique)
	}

	again, err := store.InsertBatch(ctx, admitted)
	if err != nil {
		p.errorf("reload: %v", err)
		return p
	}
	if again.Inserted != 0 {
		p.errorf("reload inserted %d records, expected none", again.Inserted)
	}

	n, err := store.Count(ctx)
	if err != nil {
		p.errorf("count: %v", err)
		return p
	}
	if n != wantUnique {
		p.errorf("store holds %d records, expected %d", n, wantUnique)
	}
	return p
}
