// Package analytics answers the dashboard's aggregate queries. Every query is
// a read-only projection over the store's contents at the time of the call;
// an unknown location or empty filter match is a valid empty answer.
package analytics

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/couchcryptid/tick-tracker/internal/domain"
	"github.com/couchcryptid/tick-tracker/internal/observability"
	"github.com/couchcryptid/tick-tracker/internal/store/sqlite"
)

// Paging limits for List.
const (
	DefaultPerPage = 50
	MaxPerPage     = 200
)

// Store is the read side of the sighting store.
type Store interface {
	Filter(ctx context.Context, f domain.Filter) ([]domain.Sighting, error)
	List(ctx context.Context, f domain.Filter, page, perPage int) (sqlite.Page, error)
	DistinctSpecies(ctx context.Context) ([]domain.Species, error)
	CanonicalLocations(ctx context.Context) (map[string]string, error)
	Count(ctx context.Context) (int, error)
}

// Locator resolves map coordinates for a location name.
type Locator interface {
	Locate(ctx context.Context, location string) (domain.Coordinates, bool)
}

// Engine runs aggregate queries against a Store.
type Engine struct {
	store   Store
	locator Locator
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Engine.
func New(store Store, locator Locator, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{store: store, locator: locator, logger: logger, metrics: metrics}
}

// RegionCount is one row of the regional rollup.
type RegionCount struct {
	Location   string  `json:"location"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Rollup is the regional rollup with the filtered total.
type Rollup struct {
	Total   int           `json:"total"`
	Regions []RegionCount `json:"by_region"`
}

// MonthCount is one month of a location timeline.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// SeasonalMonth is one bar of the seasonal series.
type SeasonalMonth struct {
	Month    string `json:"month"`
	MonthNum int    `json:"month_num"`
	Count    int    `json:"count"`
}

// MapRow summarizes one location for the map view.
type MapRow struct {
	Location        string
	Coordinates     domain.Coordinates
	Total           int
	DominantSpecies string
	LatestSighting  time.Time
}

// SpeciesCount is one row of the species breakdown.
type SpeciesCount struct {
	Species    string  `json:"species"`
	LatinName  string  `json:"latin_name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SpeciesBreakdown is the species breakdown with the filtered total.
type SpeciesBreakdown struct {
	Total   int            `json:"total"`
	Species []SpeciesCount `json:"by_species"`
}

// ListPage is one page of the date-descending sighting listing.
type ListPage struct {
	Sightings  []domain.Sighting
	Total      int
	Page       int
	TotalPages int
}

// Filter returns the sightings matching f.
func (e *Engine) Filter(ctx context.Context, f domain.Filter) ([]domain.Sighting, error) {
	defer e.observe("filter", time.Now())
	return e.store.Filter(ctx, f)
}

// Count returns the number of stored sightings.
func (e *Engine) Count(ctx context.Context) (int, error) {
	return e.store.Count(ctx)
}

// List returns one page of matching sightings, newest first. Out-of-range
// paging arguments are clamped.
func (e *Engine) List(ctx context.Context, f domain.Filter, page, perPage int) (ListPage, error) {
	defer e.observe("list", time.Now())

	page = max(page, 1)
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	perPage = min(perPage, MaxPerPage)

	result, err := e.store.List(ctx, f, page, perPage)
	if err != nil {
		return ListPage{}, err
	}
	return ListPage{
		Sightings:  result.Sightings,
		Total:      result.Total,
		Page:       page,
		TotalPages: max(1, (result.Total+perPage-1)/perPage),
	}, nil
}

// RegionalRollup counts matching sightings per location with each location's
// share of the total. Locations with no matches are omitted. Rows are ordered
// by count descending, then location.
func (e *Engine) RegionalRollup(ctx context.Context, f domain.Filter) (Rollup, error) {
	defer e.observe("regional_rollup", time.Now())

	sightings, err := e.store.Filter(ctx, f)
	if err != nil {
		return Rollup{}, err
	}

	groups, err := e.groupByLocation(ctx, sightings)
	if err != nil {
		return Rollup{}, err
	}

	total := len(sightings)
	rollup := Rollup{Total: total, Regions: []RegionCount{}}
	for _, group := range groups {
		rollup.Regions = append(rollup.Regions, RegionCount{
			Location:   group.Location,
			Count:      len(group.Sightings),
			Percentage: Percentage(len(group.Sightings), total),
		})
	}
	slices.SortStableFunc(rollup.Regions, func(a, b RegionCount) int {
		return byCountThenName(a.Count, b.Count, a.Location, b.Location)
	})
	return rollup, nil
}

// Timeline counts a location's sightings per calendar month, in chronological
// order. Months without sightings are omitted.
func (e *Engine) Timeline(ctx context.Context, location, species string) ([]MonthCount, error) {
	defer e.observe("timeline", time.Now())

	timeline := []MonthCount{}
	if domain.LocationKey(location) == "" {
		return timeline, nil
	}

	sightings, err := e.store.Filter(ctx, domain.Filter{Location: location, Species: species})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, s := range sightings {
		counts[s.Date.Format("2006-01")]++
	}
	for month, n := range counts {
		timeline = append(timeline, MonthCount{Month: month, Count: n})
	}
	slices.SortFunc(timeline, func(a, b MonthCount) int { return strings.Compare(a.Month, b.Month) })
	return timeline, nil
}

// Seasonal returns exactly twelve entries, January to December, counting a
// location's sightings per calendar month. A zero year aggregates all years.
func (e *Engine) Seasonal(ctx context.Context, location string, year int) ([]SeasonalMonth, error) {
	defer e.observe("seasonal", time.Now())

	series := make([]SeasonalMonth, 12)
	for i := range series {
		month := time.Month(i + 1)
		series[i] = SeasonalMonth{Month: month.String()[:3], MonthNum: int(month)}
	}
	if domain.LocationKey(location) == "" {
		return series, nil
	}

	f := domain.Filter{Location: location}
	if year > 0 {
		f.StartDate = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		f.EndDate = time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	sightings, err := e.store.Filter(ctx, f)
	if err != nil {
		return nil, err
	}
	for _, s := range sightings {
		series[s.Date.Month()-1].Count++
	}
	return series, nil
}

// MapSummary returns one row per location with resolvable coordinates.
// The dominant species is the most frequent one, ties going to the
// alphabetically first name. Rows are ordered by total descending, then
// location.
func (e *Engine) MapSummary(ctx context.Context, f domain.Filter) ([]MapRow, error) {
	defer e.observe("map_summary", time.Now())

	sightings, err := e.store.Filter(ctx, f)
	if err != nil {
		return nil, err
	}

	groups, err := e.groupByLocation(ctx, sightings)
	if err != nil {
		return nil, err
	}

	rows := []MapRow{}
	for _, group := range groups {
		coords, ok := e.locate(ctx, group.Location)
		if !ok {
			e.logger.Debug("location has no coordinates, omitted from map", "location", group.Location)
			continue
		}
		rows = append(rows, MapRow{
			Location:        group.Location,
			Coordinates:     coords,
			Total:           len(group.Sightings),
			DominantSpecies: DominantSpecies(group.Sightings),
			LatestSighting:  latest(group.Sightings),
		})
	}
	slices.SortStableFunc(rows, func(a, b MapRow) int {
		return byCountThenName(a.Total, b.Total, a.Location, b.Location)
	})
	return rows, nil
}

// SpeciesBreakdown counts matching sightings per species with each species'
// share of the total, ordered by count descending, then species.
func (e *Engine) SpeciesBreakdown(ctx context.Context, f domain.Filter) (SpeciesBreakdown, error) {
	defer e.observe("species_breakdown", time.Now())

	sightings, err := e.store.Filter(ctx, f)
	if err != nil {
		return SpeciesBreakdown{}, err
	}

	index := make(map[string]int)
	rows := []SpeciesCount{}
	for _, s := range sightings {
		i, ok := index[s.Species]
		if !ok {
			i = len(rows)
			index[s.Species] = i
			rows = append(rows, SpeciesCount{Species: s.Species, LatinName: s.LatinName})
		}
		rows[i].Count++
		if rows[i].LatinName == "" {
			rows[i].LatinName = s.LatinName
		}
	}

	total := len(sightings)
	for i := range rows {
		rows[i].Percentage = Percentage(rows[i].Count, total)
	}
	slices.SortStableFunc(rows, func(a, b SpeciesCount) int {
		return byCountThenName(a.Count, b.Count, a.Species, b.Species)
	})
	return SpeciesBreakdown{Total: total, Species: rows}, nil
}

// Species lists the distinct stored species with their latin names.
func (e *Engine) Species(ctx context.Context) ([]domain.Species, error) {
	species, err := e.store.DistinctSpecies(ctx)
	if err != nil {
		return nil, err
	}
	if species == nil {
		species = []domain.Species{}
	}
	return species, nil
}

// Percentage returns part/total*100 rounded half away from zero to one
// decimal place. A zero total yields zero.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(1).
		InexactFloat64()
}

// DominantSpecies returns the most frequent species among sightings. Ties go
// to the alphabetically first species name.
func DominantSpecies(sightings []domain.Sighting) string {
	counts := make(map[string]int)
	for _, s := range sightings {
		counts[s.Species]++
	}

	best, bestCount := domain.UnknownSpecies, 0
	for species, n := range counts {
		if n > bestCount || (n == bestCount && species < best) {
			best, bestCount = species, n
		}
	}
	return best
}

// ParseYear parses an optional four-digit year; "" yields zero.
func ParseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	if len(s) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 1 {
		return 0, false
	}
	return year, true
}

func latest(sightings []domain.Sighting) time.Time {
	var out time.Time
	for _, s := range sightings {
		if s.Date.After(out) {
			out = s.Date
		}
	}
	return out
}

// groupByLocation groups sightings by case-folded location, naming each group
// after the first spelling stored in the whole table so that the label does
// not depend on the filter.
func (e *Engine) groupByLocation(ctx context.Context, sightings []domain.Sighting) ([]sqlite.LocationGroup, error) {
	groups := sqlite.GroupByLocation(sightings)
	if len(groups) == 0 {
		return groups, nil
	}
	canonical, err := e.store.CanonicalLocations(ctx)
	if err != nil {
		return nil, err
	}
	return sqlite.Relabel(groups, canonical), nil
}

func (e *Engine) locate(ctx context.Context, location string) (domain.Coordinates, bool) {
	if e.locator == nil {
		if city, ok := domain.LookupCity(location); ok {
			return city.Coordinates, true
		}
		return domain.Coordinates{}, false
	}
	return e.locator.Locate(ctx, location)
}

func (e *Engine) observe(query string, start time.Time) {
	e.metrics.QueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}

func byCountThenName(countA, countB int, nameA, nameB string) int {
	if countA != countB {
		return countB - countA
	}
	return strings.Compare(nameA, nameB)
}
