package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/couchcryptid/tick-tracker/internal/domain"
)

// Baseline supplies the trusted baseline dataset.
type Baseline interface {
	Load(ctx context.Context) ([]domain.Candidate, error)
}

// Feed fetches candidate records from the remote source. Implementations
// must honour ctx cancellation; the coordinator bounds the call with the
// configured feed timeout.
type Feed interface {
	Fetch(ctx context.Context) ([]domain.Candidate, error)
}

// EmbeddedBaseline decodes a baseline dataset held in memory.
type EmbeddedBaseline []byte

// Load decodes the embedded payload.
func (b EmbeddedBaseline) Load(_ context.Context) ([]domain.Candidate, error) {
	candidates, err := domain.DecodeCandidates(b, domain.SourceBundled)
	if err != nil {
		return nil, fmt.Errorf("decode embedded baseline: %w", err)
	}
	return candidates, nil
}

// FileBaseline reads the baseline dataset from a JSON file.
type FileBaseline string

// Load reads and decodes the file.
func (path FileBaseline) Load(_ context.Context) ([]domain.Candidate, error) {
	payload, err := os.ReadFile(string(path))
	if err != nil {
		return nil, fmt.Errorf("read baseline %s: %w", string(path), err)
	}
	candidates, err := domain.DecodeCandidates(payload, domain.SourceBundled)
	if err != nil {
		return nil, fmt.Errorf("decode baseline %s: %w", string(path), err)
	}
	return candidates, nil
}
