package http

import (
	"github.com/couchcryptid/tick-tracker/internal/analytics"
	"github.com/couchcryptid/tick-tracker/internal/domain"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// StatusResponse is the body of GET /.
type StatusResponse struct {
	Status              string `json:"status"`
	SightingsInDatabase int    `json:"sightings_in_database"`
}

// SightingDTO is the wire form of a stored sighting.
type SightingDTO struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	Location   string `json:"location"`
	Species    string `json:"species"`
	LatinName  string `json:"latin_name"`
	ReportedBy string `json:"reported_by"`
	Image      string `json:"image,omitempty"`
	Source     string `json:"source"`
}

// ListResponse is one page of GET /sightings.
type ListResponse struct {
	Data       []SightingDTO `json:"data"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

// MapPointDTO is one marker of GET /sightings/map.
type MapPointDTO struct {
	Location        string  `json:"location"`
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	Total           int     `json:"total"`
	LatestSighting  string  `json:"latest_sighting"`
	DominantSpecies string  `json:"dominant_species"`
}

// TimelineResponse is the body of GET /sightings/timeline/{location}.
type TimelineResponse struct {
	Location string                 `json:"location"`
	Timeline []analytics.MonthCount `json:"timeline"`
}

// SeasonalResponse is the body of GET /stats/seasonal.
type SeasonalResponse struct {
	Location string                    `json:"location"`
	Year     string                    `json:"year"`
	Data     []analytics.SeasonalMonth `json:"data"`
}

// CityDTO is one entry of GET /meta/cities.
type CityDTO struct {
	City string  `json:"city"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// ReportRequest is the JSON form of POST /report. Form posts use the same
// field names.
type ReportRequest struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	Location   string `json:"location"`
	Species    string `json:"species"`
	ReportedBy string `json:"reported_by"`
	Image      string `json:"image"`
}

// ReportResponse acknowledges a stored report.
type ReportResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

func toSightingDTO(s domain.Sighting) SightingDTO {
	return SightingDTO{
		ID:         s.ID,
		Date:       s.Date.Format(domain.DateLayout),
		Location:   s.Location,
		Species:    s.Species,
		LatinName:  s.LatinName,
		ReportedBy: s.ReportedBy,
		Image:      s.ImageRef,
		Source:     string(s.Source),
	}
}

func toSightingDTOs(sightings []domain.Sighting) []SightingDTO {
	out := make([]SightingDTO, 0, len(sightings))
	for _, s := range sightings {
		out = append(out, toSightingDTO(s))
	}
	return out
}

func toMapPointDTOs(rows []analytics.MapRow) []MapPointDTO {
	out := make([]MapPointDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, MapPointDTO{
			Location:        row.Location,
			Lat:             row.Coordinates.Lat,
			Lng:             row.Coordinates.Lng,
			Total:           row.Total,
			LatestSighting:  row.LatestSighting.Format(domain.DateLayout),
			DominantSpecies: row.DominantSpecies,
		})
	}
	return out
}

func toCityDTOs(cities []domain.City) []CityDTO {
	out := make([]CityDTO, 0, len(cities))
	for _, c := range cities {
		out = append(out, CityDTO{City: c.Name, Lat: c.Lat, Lng: c.Lng})
	}
	return out
}
