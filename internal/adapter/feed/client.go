// Package feed fetches sightings from the remote HTTP feed.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/tick-tracker/internal/domain"
)

// maxPayloadBytes bounds the body read from the feed.
const maxPayloadBytes = 32 << 20

// Client implements ingest.Feed over HTTP. The caller's context bounds the
// whole request, including reading the body.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed client for url.
func NewClient(url string, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Fetch downloads and decodes the feed. Records that fail to decode are
// returned as rejected candidates; a payload of the wrong shape is an error.
func (c *Client) Fetch(ctx context.Context) ([]domain.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed returned status %d: %s", resp.StatusCode, body)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	if len(payload) > maxPayloadBytes {
		return nil, fmt.Errorf("feed body exceeds %d bytes", maxPayloadBytes)
	}

	candidates, err := domain.DecodeCandidates(payload, domain.SourceRemote)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("remote feed fetched", "url", c.url, "records", len(candidates), "bytes", len(payload))
	return candidates, nil
}
