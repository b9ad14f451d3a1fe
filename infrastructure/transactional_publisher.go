package infrastructure

import (
	"context"
	"sync"

	"welcomer/domain/interfaces"
	"welcomer/events"

	log "github.com/sirupsen/logrus"
)

// TransactionalPublisher holds events until the transaction commits
type TransactionalPublisher struct {
	realPublisher interfaces.EventPublisher
	mu            sync.Mutex
	pending       []events.Event
}

// NewTransactionalPublisher creates a new transactional publisher
func NewTransactionalPublisher(realPublisher interfaces.EventPublisher) *TransactionalPublisher {
	return &TransactionalPublisher{realPublisher: realPublisher}
}

// Publish queues an event without publishing it
func (p *TransactionalPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, event)
	return nil
}

// Flush publishes all pending events. Failures are logged and do not stop the rest.
func (p *TransactionalPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, event := range pending {
		if ctx.Err() != nil {
			log.WithField("droppedCount", len(pending)).Warn("Context done, dropping pending events")
			return ctx.Err()
		}
		if err := p.realPublisher.Publish(event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to publish event during flush")
		}
	}
	return nil
}

// Discard drops all pending events
func (p *TransactionalPublisher) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) > 0 {
		log.WithField("discardedEventCount", len(p.pending)).Debug("Discarding pending events")
	}
	p.pending = nil
}

// Pending returns the number of queued events
func (p *TransactionalPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
