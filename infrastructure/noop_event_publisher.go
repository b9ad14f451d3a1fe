package infrastructure

import (
	"welcomer/events"

	log "github.com/sirupsen/logrus"
)

// NoopEventPublisher drops events; used when NATS is not configured
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// Publish logs and discards the event
func (n *NoopEventPublisher) Publish(event events.Event) error {
	log.WithField("eventType", event.Type()).Debug("Event publishing disabled, dropping event")
	return nil
}
