package service

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/pailler/qrlink/internal/app/model"
)

// ClickPublisher publishes click events to NATS JetStream. The
// synchronous publish ack doubles as the durability guarantee of the
// stream pipeline.
type ClickPublisher struct {
	js nats.JetStreamContext
}

// NewClickPublisher creates a new click event publisher.
func NewClickPublisher(js nats.JetStreamContext) *ClickPublisher {
	return &ClickPublisher{js: js}
}

// Publish appends the event to the click stream and waits for the ack.
func (p *ClickPublisher) Publish(event *model.ClickEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal click event: %w", err)
	}

	if _, err := p.js.Publish(model.ClickStreamSubject, data); err != nil {
		return fmt.Errorf("publish click event: %w", err)
	}
	return nil
}
