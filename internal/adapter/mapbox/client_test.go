package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/tick-tracker/internal/observability"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		token:      testToken,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_ForwardGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "Little Snoring")
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "gb", r.URL.Query().Get("country"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		resp := response{
			Features: []feature{
				{
					Center:    []float64{0.9108, 52.8614},
					PlaceName: "Little Snoring, Norfolk, England, United Kingdom",
					Relevance: 0.95,
				},
			},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	result, err := c.ForwardGeocode(context.Background(), "Little Snoring")
	require.NoError(t, err)

	assert.InDelta(t, 52.8614, result.Lat, 1e-9)
	assert.InDelta(t, 0.9108, result.Lng, 1e-9)
	assert.Equal(t, "Little Snoring, Norfolk, England, United Kingdom", result.PlaceName)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
}

func TestClient_ForwardGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{Features: []feature{}}))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	result, err := c.ForwardGeocode(context.Background(), "Nowhere In Particular")
	require.NoError(t, err)
	assert.Zero(t, result.Lat)
	assert.Empty(t, result.PlaceName)
}

func TestClient_ForwardGeocode_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	c.token = "bad-token"

	_, err := c.ForwardGeocode(context.Background(), "York")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_ForwardGeocode_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"features": [`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5*time.Second).ForwardGeocode(context.Background(), "York")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_ForwardGeocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 50*time.Millisecond).ForwardGeocode(context.Background(), "York")
	require.Error(t, err)
}

func TestClient_ForwardGeocode_WeakMatchIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := response{
			Features: []feature{
				{Center: []float64{-1.5, 53.0}, PlaceName: "Yorkley, Gloucestershire", Relevance: 0.4},
			},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	result, err := c.ForwardGeocode(context.Background(), "Yorkshire Dales somewhere")
	require.NoError(t, err)
	assert.Empty(t, result.PlaceName)
	assert.Zero(t, result.Lat)
	assert.Zero(t, result.Lng)
}
