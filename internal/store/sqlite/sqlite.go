// Package sqlite is the deduplicating sighting store.
//
// Sightings are keyed by id and written with INSERT OR IGNORE, so the first
// record stored under an id wins for the lifetime of the database and every
// later insert of that id reports Ignored rather than failing. The store is
// append-only: there is no update or delete.
//
// The database runs in WAL mode. Writers are serialized by a mutex; readers
// never take it, so a query never waits behind a bulk load.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/tick-tracker/internal/domain"
)

// InsertOutcome reports what an insert did.
type InsertOutcome int

const (
	Inserted InsertOutcome = iota + 1
	Ignored
)

func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// BatchResult tallies the outcomes of InsertBatch.
type BatchResult struct {
	Inserted int
	Ignored  int
}

// LocationGroup holds the sightings of one case-folded location.
type LocationGroup struct {
	Location  string
	Sightings []domain.Sighting
}

// Store persists sightings in SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex // serializes writers
}

const schema = `
CREATE TABLE IF NOT EXISTS sightings (
	id           TEXT PRIMARY KEY,
	date         TEXT NOT NULL,
	location     TEXT NOT NULL,
	location_key TEXT NOT NULL,
	species      TEXT NOT NULL,
	latin_name   TEXT NOT NULL DEFAULT '',
	reported_by  TEXT NOT NULL DEFAULT 'System',
	image_ref    TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL,
	ingested_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sightings_location_key ON sightings(location_key);
CREATE INDEX IF NOT EXISTS idx_sightings_date ON sightings(date);
CREATE INDEX IF NOT EXISTS idx_sightings_species ON sightings(species COLLATE NOCASE);
`

const columns = `id, date, location, species, latin_name, reported_by, image_ref, source, ingested_at`

const insertSQL = `INSERT OR IGNORE INTO sightings
	(id, date, location, location_key, species, latin_name, reported_by, image_ref, source, ingested_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// New opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for a private in-memory database.
func New(path string) (*Store, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Insert stores a sighting unless its id is already present.
func (s *Store) Insert(ctx context.Context, sighting domain.Sighting) (InsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, insertSQL, insertArgs(sighting)...)
	if err != nil {
		return 0, fmt.Errorf("insert sighting %s: %w", sighting.ID, err)
	}
	return outcome(res)
}

// InsertBatch stores sightings in one transaction. Either every row is
// applied (inserted or ignored) or, on error, none are.
func (s *Store) InsertBatch(ctx context.Context, sightings []domain.Sighting) (BatchResult, error) {
	var result BatchResult
	if len(sightings) == 0 {
		return result, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return result, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, sighting := range sightings {
		res, err := stmt.ExecContext(ctx, insertArgs(sighting)...)
		if err != nil {
			return BatchResult{}, fmt.Errorf("insert sighting %s: %w", sighting.ID, err)
		}
		o, err := outcome(res)
		if err != nil {
			return BatchResult{}, err
		}
		if o == Inserted {
			result.Inserted++
		} else {
			result.Ignored++
		}
	}

	if err := tx.Commit(); err != nil {
		return BatchResult{}, fmt.Errorf("commit transaction: %w", err)
	}
	return result, nil
}

// Count returns the number of stored sightings.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sightings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sightings: %w", err)
	}
	return n, nil
}

// Get returns the sighting stored under id.
func (s *Store) Get(ctx context.Context, id string) (domain.Sighting, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM sightings WHERE id = ?`, id)
	if err != nil {
		return domain.Sighting{}, false, fmt.Errorf("get sighting %s: %w", id, err)
	}
	out, err := scanSightings(rows)
	if err != nil {
		return domain.Sighting{}, false, err
	}
	if len(out) == 0 {
		return domain.Sighting{}, false, nil
	}
	return out[0], true, nil
}

// All returns every sighting in insertion order.
func (s *Store) All(ctx context.Context) ([]domain.Sighting, error) {
	return s.Filter(ctx, domain.Filter{})
}

// Filter returns the sightings matching f in insertion order.
func (s *Store) Filter(ctx context.Context, f domain.Filter) ([]domain.Sighting, error) {
	where, args := whereClause(f)
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM sightings `+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("filter sightings: %w", err)
	}
	return scanSightings(rows)
}

// ByLocation groups the sightings matching f by case-folded location. Groups
// are ordered by first insertion among the matches and named after the first
// spelling stored in the whole table, whatever f selects.
func (s *Store) ByLocation(ctx context.Context, f domain.Filter) ([]LocationGroup, error) {
	sightings, err := s.Filter(ctx, f)
	if err != nil {
		return nil, err
	}
	groups := GroupByLocation(sightings)
	if len(groups) == 0 {
		return groups, nil
	}
	canonical, err := s.CanonicalLocations(ctx)
	if err != nil {
		return nil, err
	}
	return Relabel(groups, canonical), nil
}

// CanonicalLocations maps each case-folded location key to the spelling of
// the first sighting stored under it.
func (s *Store) CanonicalLocations(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT location_key, location FROM sightings
		WHERE rowid IN (SELECT MIN(rowid) FROM sightings GROUP BY location_key)`)
	if err != nil {
		return nil, fmt.Errorf("canonical locations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, location string
		if err := rows.Scan(&key, &location); err != nil {
			return nil, fmt.Errorf("scan canonical location: %w", err)
		}
		out[key] = location
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate canonical locations: %w", err)
	}
	return out, nil
}

// Relabel renames each group to its canonical spelling. Groups whose key is
// missing from canonical keep their name.
func Relabel(groups []LocationGroup, canonical map[string]string) []LocationGroup {
	for i := range groups {
		if name, ok := canonical[domain.LocationKey(groups[i].Location)]; ok {
			groups[i].Location = name
		}
	}
	return groups
}

// GroupByLocation groups sightings by case-folded location, preserving the
// order in which each group is first encountered.
func GroupByLocation(sightings []domain.Sighting) []LocationGroup {
	index := make(map[string]int)
	var groups []LocationGroup
	for _, sighting := range sightings {
		key := domain.LocationKey(sighting.Location)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, LocationGroup{Location: sighting.Location})
		}
		groups[i].Sightings = append(groups[i].Sightings, sighting)
	}
	return groups
}

// Page is one page of a date-descending listing.
type Page struct {
	Sightings []domain.Sighting
	Total     int
}

// List returns one page of the sightings matching f, newest first.
func (s *Store) List(ctx context.Context, f domain.Filter, page, perPage int) (Page, error) {
	where, args := whereClause(f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sightings `+where, args...).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count sightings: %w", err)
	}

	offset := (page - 1) * perPage
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM sightings `+where+` ORDER BY date DESC, rowid LIMIT ? OFFSET ?`,
		append(args, perPage, offset)...,
	)
	if err != nil {
		return Page{}, fmt.Errorf("list sightings: %w", err)
	}
	sightings, err := scanSightings(rows)
	if err != nil {
		return Page{}, err
	}
	return Page{Sightings: sightings, Total: total}, nil
}

// DistinctSpecies returns the stored species with their latin names, sorted
// by species.
func (s *Store) DistinctSpecies(ctx context.Context) ([]domain.Species, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT species, MAX(latin_name) FROM sightings GROUP BY species ORDER BY species`)
	if err != nil {
		return nil, fmt.Errorf("distinct species: %w", err)
	}
	defer rows.Close()

	var out []domain.Species
	for rows.Next() {
		var sp domain.Species
		if err := rows.Scan(&sp.Name, &sp.LatinName); err != nil {
			return nil, fmt.Errorf("scan species: %w", err)
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate species: %w", err)
	}
	return out, nil
}

// whereClause builds the WHERE clause for f, or "" when f is empty.
func whereClause(f domain.Filter) (string, []any) {
	var conditions []string
	var args []any

	if f.Location != "" {
		conditions = append(conditions, "location_key = ?")
		args = append(args, domain.LocationKey(f.Location))
	}
	if species := strings.TrimSpace(f.Species); species != "" {
		conditions = append(conditions, "LOWER(species) = LOWER(?)")
		args = append(args, species)
	}
	if start := f.StartBound(); start != "" {
		conditions = append(conditions, "date >= ?")
		args = append(args, start)
	}
	if end := f.EndBound(); end != "" {
		conditions = append(conditions, "date <= ?")
		args = append(args, end)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func insertArgs(s domain.Sighting) []any {
	ingestedAt := s.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = domain.Now()
	}
	return []any{
		s.ID,
		s.Date.Format(domain.DateLayout),
		s.Location,
		domain.LocationKey(s.Location),
		s.Species,
		s.LatinName,
		s.ReportedBy,
		s.ImageRef,
		string(s.Source),
		ingestedAt.UTC().Format(time.RFC3339),
	}
}

func outcome(res sql.Result) (InsertOutcome, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return Ignored, nil
	}
	return Inserted, nil
}

func scanSightings(rows *sql.Rows) ([]domain.Sighting, error) {
	defer rows.Close()

	var out []domain.Sighting
	for rows.Next() {
		var (
			s          domain.Sighting
			date       string
			source     string
			ingestedAt string
		)
		if err := rows.Scan(&s.ID, &date, &s.Location, &s.Species, &s.LatinName,
			&s.ReportedBy, &s.ImageRef, &source, &ingestedAt); err != nil {
			return nil, fmt.Errorf("scan sighting: %w", err)
		}

		parsed, err := time.Parse(domain.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("sighting %s has corrupt date %q: %w", s.ID, date, err)
		}
		s.Date = parsed
		s.Source = domain.Source(source)
		if t, err := time.Parse(time.RFC3339, ingestedAt); err == nil {
			s.IngestedAt = t
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sightings: %w", err)
	}
	return out, nil
}
