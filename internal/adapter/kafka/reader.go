// Package kafka reads the remote sighting feed from a Kafka topic.
//
// The topic is treated as a snapshot: every fetch replays the partition from
// the first offset up to the high-water mark seen at the start of the call.
// Nothing is committed; the store's id dedup makes replays harmless.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/tick-tracker/internal/config"
	"github.com/couchcryptid/tick-tracker/internal/domain"
)

// messageReader is the subset of *kafkago.Reader the feed uses.
type messageReader interface {
	ReadLag(ctx context.Context) (int64, error)
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// Feed implements ingest.Feed over a single Kafka partition.
type Feed struct {
	reader     messageReader
	maxRecords int
	logger     *slog.Logger
}

// NewFeed creates a feed reader for the configured topic.
func NewFeed(cfg *config.Config, logger *slog.Logger) *Feed {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaFeedTopic,
		Partition:   0,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     250 * time.Millisecond,
	})
	return &Feed{reader: r, maxRecords: cfg.FeedMaxRecords, logger: logger}
}

// Fetch reads every message currently in the partition. A message that is
// not a sighting object comes back as a candidate with DecodeErr set.
func (f *Feed) Fetch(ctx context.Context) ([]domain.Candidate, error) {
	lag, err := f.reader.ReadLag(ctx)
	if err != nil {
		return nil, fmt.Errorf("read partition lag: %w", err)
	}

	want := int(lag)
	if f.maxRecords > 0 && want > f.maxRecords {
		want = f.maxRecords
	}

	candidates := make([]domain.Candidate, 0, want)
	for len(candidates) < want {
		msg, err := f.reader.FetchMessage(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch message %d of %d: %w", len(candidates)+1, want, err)
		}
		candidates = append(candidates, mapMessageToCandidate(msg))
		if msg.HighWaterMark > 0 && msg.Offset+1 >= msg.HighWaterMark {
			break
		}
	}

	f.logger.Debug("kafka feed fetched", "records", len(candidates), "lag", lag)
	return candidates, nil
}

// Close closes the underlying reader.
func (f *Feed) Close() error {
	return f.reader.Close()
}

// mapMessageToCandidate decodes a message value. The message key stands in
// for a missing id.
func mapMessageToCandidate(msg kafkago.Message) domain.Candidate {
	c := domain.DecodeCandidate(msg.Value, domain.SourceRemote)
	if c.DecodeErr == nil && c.ID.String() == "" && len(msg.Key) > 0 {
		c.ID = domain.Text(msg.Key)
	}
	return c
}
