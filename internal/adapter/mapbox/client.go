package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/tick-tracker/internal/domain"
	"github.com/couchcryptid/tick-tracker/internal/observability"
)

// minRelevance is the lowest Mapbox relevance accepted as a match. Free-text
// locations often match a distant place only on a partial token.
const minRelevance = 0.6

// Client implements domain.Geocoder using the Mapbox Geocoding API,
// restricted to places in Great Britain.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		metrics: metrics,
		logger:  logger,
	}
}

// ForwardGeocode converts a place name to coordinates. An empty result with
// a nil error means Mapbox found no match.
func (c *Client) ForwardGeocode(ctx context.Context, name string) (domain.GeocodingResult, error) {
	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(name))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"country":      {"gb"},
		"types":        {"place,locality"},
	}

	start := time.Now()
	result, err := c.doRequest(ctx, u+"?"+params.Encode())
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
	case result.PlaceName == "":
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	default:
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
		c.logger.Debug("geocoded location", "query", name, "place", result.PlaceName,
			"lat", result.Lat, "lng", result.Lng, "confidence", result.Confidence)
	}
	return result, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("forward geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.GeocodingResult{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}

	if len(mapboxResp.Features) == 0 {
		return domain.GeocodingResult{}, nil
	}

	f := mapboxResp.Features[0]
	if f.Relevance < minRelevance {
		c.logger.Debug("discarding weak geocoding match", "place", f.PlaceName, "relevance", f.Relevance)
		return domain.GeocodingResult{}, nil
	}
	result := domain.GeocodingResult{
		PlaceName:  f.PlaceName,
		Confidence: f.Relevance,
	}
	if len(f.Center) == 2 {
		result.Lng = f.Center[0]
		result.Lat = f.Center[1]
	}
	return result, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lng, lat]
	PlaceName string    `json:"place_name"`
	Relevance float64   `json:"relevance"`
}
