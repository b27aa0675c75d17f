package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Publisher sends one message to a pub/sub channel; common/redis.Client satisfies it
type Publisher interface {
	PublishEvent(ctx context.Context, channel string, message string) error
}

// AccountErasedEvent is broadcast after an erasure commits. It carries no
// contact details; the account is already gone.
type AccountErasedEvent struct {
	Type          string    `json:"type"`
	AccountID     string    `json:"account_id"`
	Path          string    `json:"path"`
	DependentRows int64     `json:"dependent_rows"`
	ErasedAt      time.Time `json:"erased_at"`
}

// EventPublisher announces account lifecycle events on a Redis channel so
// other services can drop caches and sessions for the account
type EventPublisher struct {
	publisher Publisher
	channel   string
	logger    Logger
}

// NewEventPublisher creates a publisher writing to channel
func NewEventPublisher(publisher Publisher, channel string, logger Logger) *EventPublisher {
	return &EventPublisher{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
	}
}

// AccountErased publishes an account_erased event
func (p *EventPublisher) AccountErased(ctx context.Context, accountID, path string, dependentRows int64) error {
	payload, err := json.Marshal(AccountErasedEvent{
		Type:          "account_erased",
		AccountID:     accountID,
		Path:          path,
		DependentRows: dependentRows,
		ErasedAt:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal account event: %w", err)
	}

	if err := p.publisher.PublishEvent(ctx, p.channel, string(payload)); err != nil {
		return fmt.Errorf("failed to publish account event: %w", err)
	}

	p.logger.Debug("account event published", "channel", p.channel, "type", "account_erased")
	return nil
}
