package domain

import (
	"sort"
	"strings"
)

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// City is an entry of the location reference table.
type City struct {
	Name string
	Coordinates
}

// The spreadsheet only carries city names, so marker positions come from
// this fixed table rather than from the records.
var cityTable = []City{
	{Name: "London", Coordinates: Coordinates{Lat: 51.5074, Lng: -0.1278}},
	{Name: "Manchester", Coordinates: Coordinates{Lat: 53.4808, Lng: -2.2426}},
	{Name: "Birmingham", Coordinates: Coordinates{Lat: 52.4862, Lng: -1.8904}},
	{Name: "Leeds", Coordinates: Coordinates{Lat: 53.8008, Lng: -1.5491}},
	{Name: "Edinburgh", Coordinates: Coordinates{Lat: 55.9533, Lng: -3.1883}},
	{Name: "Glasgow", Coordinates: Coordinates{Lat: 55.8642, Lng: -4.2518}},
	{Name: "Bristol", Coordinates: Coordinates{Lat: 51.4545, Lng: -2.5879}},
	{Name: "Liverpool", Coordinates: Coordinates{Lat: 53.4084, Lng: -2.9916}},
	{Name: "Sheffield", Coordinates: Coordinates{Lat: 53.3811, Lng: -1.4701}},
	{Name: "Newcastle", Coordinates: Coordinates{Lat: 54.9783, Lng: -1.6178}},
	{Name: "Nottingham", Coordinates: Coordinates{Lat: 52.9548, Lng: -1.1581}},
	{Name: "Cardiff", Coordinates: Coordinates{Lat: 51.4816, Lng: -3.1791}},
	{Name: "Southampton", Coordinates: Coordinates{Lat: 50.9097, Lng: -1.4044}},
	{Name: "Leicester", Coordinates: Coordinates{Lat: 52.6369, Lng: -1.1398}},
	{Name: "York", Coordinates: Coordinates{Lat: 53.9600, Lng: -1.0873}},
}

var cityIndex = func() map[string]City {
	idx := make(map[string]City, len(cityTable))
	for _, c := range cityTable {
		idx[LocationKey(c.Name)] = c
	}
	return idx
}()

// LocationKey is the case-folded grouping key of a location name.
func LocationKey(location string) string {
	return foldKey(location)
}

// LookupCity finds a location in the reference table, ignoring case.
func LookupCity(location string) (City, bool) {
	c, ok := cityIndex[LocationKey(location)]
	return c, ok
}

// Cities returns the reference table sorted by name.
func Cities() []City {
	out := make([]City, len(cityTable))
	copy(out, cityTable)
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].Name, out[j].Name) < 0
	})
	return out
}
