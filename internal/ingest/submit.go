package ingest

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/couchcryptid/tick-tracker/internal/domain"
	"github.com/couchcryptid/tick-tracker/internal/store/sqlite"
)

// Submission is a user report of a sighting.
type Submission struct {
	Date       string // YYYY-MM-DD
	Time       string // HH:MM
	Location   string
	Species    string
	ReportedBy string
	ImageRef   string
}

// Submit validates a user report and stores it under a fresh id. Rejections
// wrap domain.ErrRejected and carry a message fit for the reporter.
func (c *Coordinator) Submit(ctx context.Context, s Submission) (domain.Sighting, error) {
	sighting, err := c.admitSubmission(s)
	if err != nil {
		c.metrics.Submissions.WithLabelValues("rejected").Inc()
		c.logger.Info("report rejected", "error", err)
		return domain.Sighting{}, err
	}

	outcome, err := c.store.Insert(ctx, sighting)
	if err != nil {
		return domain.Sighting{}, fmt.Errorf("store report: %w", err)
	}
	if outcome != sqlite.Inserted {
		return domain.Sighting{}, fmt.Errorf("store report: id %s already exists", sighting.ID)
	}

	c.metrics.Submissions.WithLabelValues("inserted").Inc()
	c.metrics.StoredSightings.Inc()
	c.logger.Info("report stored", "id", sighting.ID, "location", sighting.Location, "species", sighting.Species)
	return sighting, nil
}

func (c *Coordinator) admitSubmission(s Submission) (domain.Sighting, error) {
	if strings.TrimSpace(s.Species) == "" {
		return domain.Sighting{}, &domain.RejectionError{Field: "species", Reason: "is required"}
	}
	if clock := strings.TrimSpace(s.Time); clock != "" && !domain.ValidTimeOfDay(clock) {
		return domain.Sighting{}, &domain.RejectionError{Field: "time", Reason: fmt.Sprintf("must be HH:MM, got %q", clock)}
	}

	return domain.Validate(domain.Candidate{
		ID:         domain.Text(newID()),
		Date:       domain.Text(s.Date),
		Time:       domain.OptionalText(s.Time),
		Location:   domain.Text(s.Location),
		Species:    domain.OptionalText(s.Species),
		ReportedBy: domain.OptionalText(s.ReportedBy),
		ImageRef:   domain.OptionalText(s.ImageRef),
		Source:     domain.SourceUser,
	})
}

// newID returns a random UUID as 32 hex digits.
func newID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
