package domain

import (
	"context"
	"log/slog"
)

// Locator resolves map coordinates for a location. The reference table is
// authoritative; the optional geocoder is only asked about names the table
// does not know.
type Locator struct {
	geocoder Geocoder
	logger   *slog.Logger
}

// NewLocator creates a Locator. Pass a nil geocoder to use the reference
// table alone.
func NewLocator(geocoder Geocoder, logger *slog.Logger) *Locator {
	return &Locator{geocoder: geocoder, logger: logger}
}

// Locate returns the coordinates of location, or false when they cannot be
// resolved. Geocoding failures are logged and treated as unresolved.
func (l *Locator) Locate(ctx context.Context, location string) (Coordinates, bool) {
	if c, ok := LookupCity(location); ok {
		return c.Coordinates, true
	}
	if l == nil || l.geocoder == nil || location == "" {
		return Coordinates{}, false
	}

	result, err := l.geocoder.ForwardGeocode(ctx, location)
	if err != nil {
		l.logger.Warn("forward geocoding failed", "location", location, "error", err)
		return Coordinates{}, false
	}
	if result.Lat == 0 && result.Lng == 0 {
		return Coordinates{}, false
	}
	return Coordinates{Lat: result.Lat, Lng: result.Lng}, true
}
