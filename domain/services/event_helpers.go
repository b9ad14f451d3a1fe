package services

import (
	"welcomer/domain/interfaces"
	"welcomer/events"

	log "github.com/sirupsen/logrus"
)

// publishEvent sends an event without failing the calling operation
func publishEvent(publisher interfaces.EventPublisher, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(event); err != nil {
		log.WithError(err).WithField("event_type", event.Type()).Error("Failed to publish event")
	}
}
