package clients

import (
	"context"
	"fmt"
	"time"
)

// Streamer appends entries to a stream; common/redis.Client satisfies it
type Streamer interface {
	AddToStream(ctx context.Context, stream string, maxLen int64, values map[string]interface{}) (string, error)
}

const farewellStreamMaxLen = 100_000

// FarewellPublisher queues farewell emails for the mailer by appending to a
// Redis stream. Delivery happens elsewhere.
type FarewellPublisher struct {
	streamer Streamer
	stream   string
	logger   Logger
}

// NewFarewellPublisher creates a publisher writing to stream
func NewFarewellPublisher(streamer Streamer, stream string, logger Logger) *FarewellPublisher {
	return &FarewellPublisher{
		streamer: streamer,
		stream:   stream,
		logger:   logger,
	}
}

// SendFarewell queues one farewell message
func (p *FarewellPublisher) SendFarewell(ctx context.Context, email, name string) error {
	id, err := p.streamer.AddToStream(ctx, p.stream, farewellStreamMaxLen, map[string]interface{}{
		"template":  "account_deleted",
		"email":     email,
		"name":      name,
		"queued_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to queue farewell: %w", err)
	}

	p.logger.Info("farewell queued", "stream", p.stream, "message_id", id)
	return nil
}

// NoopNotifier drops farewell messages; used when Redis is disabled
type NoopNotifier struct {
	logger Logger
}

// NewNoopNotifier creates a notifier that only logs
func NewNoopNotifier(logger Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger}
}

// SendFarewell logs and returns nil
func (n *NoopNotifier) SendFarewell(_ context.Context, _, _ string) error {
	n.logger.Debug("notifications disabled, farewell not sent")
	return nil
}
