// Package ingest loads sightings into the store: the baseline dataset and
// the best-effort remote feed once at startup, and user reports at runtime.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/tick-tracker/internal/domain"
	"github.com/couchcryptid/tick-tracker/internal/observability"
	"github.com/couchcryptid/tick-tracker/internal/store/sqlite"
)

// Store is the subset of the sighting store the coordinator writes through.
type Store interface {
	Insert(ctx context.Context, sighting domain.Sighting) (sqlite.InsertOutcome, error)
	InsertBatch(ctx context.Context, sightings []domain.Sighting) (sqlite.BatchResult, error)
	Count(ctx context.Context) (int, error)
}

// Settings tunes the remote phase.
type Settings struct {
	FeedTimeout time.Duration
	MaxRecords  int
	Clock       clockwork.Clock
}

// PhaseReport tallies one ingestion phase.
type PhaseReport struct {
	Source   domain.Source
	Inserted int
	Ignored  int
	Rejected int
	Duration time.Duration
}

// Report summarizes a startup run.
type Report struct {
	Baseline PhaseReport
	Remote   PhaseReport
	// RemoteFailure is set when the remote phase did not complete.
	RemoteFailure *FetchFailure
	// RemoteSkipped is true when no feed is configured.
	RemoteSkipped bool
	Stored        int
}

// Coordinator runs the two startup ingestion phases and accepts user reports.
type Coordinator struct {
	store    Store
	baseline Baseline
	feed     Feed
	settings Settings
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// New creates a Coordinator. A nil feed disables the remote phase.
func New(store Store, baseline Baseline, feed Feed, settings Settings, logger *slog.Logger, metrics *observability.Metrics) *Coordinator {
	if settings.Clock == nil {
		settings.Clock = clockwork.NewRealClock()
	}
	if settings.FeedTimeout <= 0 {
		settings.FeedTimeout = 6 * time.Second
	}
	return &Coordinator{
		store:    store,
		baseline: baseline,
		feed:     feed,
		settings: settings,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once startup ingestion has finished.
func (c *Coordinator) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("startup ingestion has not completed")
	}
	return nil
}

// Run loads the baseline and then merges the remote feed. Only a baseline
// failure is returned; a remote failure is recorded in the report.
func (c *Coordinator) Run(ctx context.Context) (Report, error) {
	var report Report

	baseline, err := c.LoadBaseline(ctx)
	if err != nil {
		return report, err
	}
	report.Baseline = baseline

	if c.feed == nil {
		report.RemoteSkipped = true
		c.logger.Info("remote feed disabled, serving baseline only")
	} else {
		report.Remote, report.RemoteFailure = c.MergeRemote(ctx)
	}

	if n, err := c.store.Count(ctx); err == nil {
		report.Stored = n
		c.metrics.StoredSightings.Set(float64(n))
	}

	c.ready.Store(true)
	c.logger.Info("startup ingestion complete", "stored", report.Stored)
	return report, nil
}

// LoadBaseline runs phase one. Any error is fatal to startup.
func (c *Coordinator) LoadBaseline(ctx context.Context) (PhaseReport, error) {
	start := c.settings.Clock.Now()
	report := PhaseReport{Source: domain.SourceBundled}

	candidates, err := c.baseline.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("load baseline dataset: %w", err)
	}

	sightings := c.admit(candidates, &report)
	result, err := c.store.InsertBatch(ctx, sightings)
	if err != nil {
		return report, fmt.Errorf("store baseline dataset: %w", err)
	}
	report.Inserted, report.Ignored = result.Inserted, result.Ignored
	report.Duration = c.settings.Clock.Since(start)

	c.record("baseline", report)
	return report, nil
}

// MergeRemote runs phase two: one bounded fetch with no retry. The returned
// failure is nil on success. Nothing is stored unless the whole batch commits.
func (c *Coordinator) MergeRemote(ctx context.Context) (PhaseReport, *FetchFailure) {
	start := c.settings.Clock.Now()
	report := PhaseReport{Source: domain.SourceRemote}

	fetchCtx, cancel := context.WithTimeout(ctx, c.settings.FeedTimeout)
	defer cancel()

	candidates, err := c.feed.Fetch(fetchCtx)
	if err != nil {
		report.Duration = c.settings.Clock.Since(start)
		return report, c.fail(report, err)
	}

	if limit := c.settings.MaxRecords; limit > 0 && len(candidates) > limit {
		c.logger.Warn("remote feed exceeded record cap, truncating",
			"received", len(candidates), "max_records", limit)
		candidates = candidates[:limit]
	}

	sightings := c.admit(candidates, &report)
	result, err := c.store.InsertBatch(ctx, sightings)
	if err != nil {
		report = PhaseReport{Source: domain.SourceRemote, Duration: c.settings.Clock.Since(start)}
		return report, c.fail(report, fmt.Errorf("store remote sightings: %w", err))
	}
	report.Inserted, report.Ignored = result.Inserted, result.Ignored
	report.Duration = c.settings.Clock.Since(start)

	c.record("remote", report)
	return report, nil
}

// admit validates candidates, counting rejections into report.
func (c *Coordinator) admit(candidates []domain.Candidate, report *PhaseReport) []domain.Sighting {
	sightings := make([]domain.Sighting, 0, len(candidates))
	for _, candidate := range candidates {
		candidate.Source = report.Source
		sighting, err := domain.Validate(candidate)
		if err != nil {
			report.Rejected++
			c.logger.Debug("candidate rejected",
				"source", report.Source, "id", candidate.ID.String(), "reason", err)
			continue
		}
		sightings = append(sightings, sighting)
	}
	return sightings
}

func (c *Coordinator) fail(report PhaseReport, err error) *FetchFailure {
	failure := Classify(err)

	c.metrics.RemoteFetchFailures.WithLabelValues(string(failure.Category)).Inc()
	c.metrics.IngestPhaseDuration.WithLabelValues("remote").Observe(report.Duration.Seconds())
	c.logger.Warn("remote feed unavailable, continuing with existing data",
		"category", failure.Category,
		"error", failure.Err,
		"duration", report.Duration,
	)
	return failure
}

func (c *Coordinator) record(phase string, report PhaseReport) {
	source := string(report.Source)
	c.metrics.IngestRecords.WithLabelValues(source, "inserted").Add(float64(report.Inserted))
	c.metrics.IngestRecords.WithLabelValues(source, "ignored").Add(float64(report.Ignored))
	c.metrics.IngestRecords.WithLabelValues(source, "rejected").Add(float64(report.Rejected))
	c.metrics.IngestPhaseDuration.WithLabelValues(phase).Observe(report.Duration.Seconds())

	c.logger.Info("ingestion phase complete",
		"phase", phase,
		"inserted", report.Inserted,
		"ignored", report.Ignored,
		"rejected", report.Rejected,
		"duration", report.Duration,
	)
}
