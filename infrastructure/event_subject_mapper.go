package infrastructure

import (
	"fmt"

	"welcomer/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

var subjectsByType = map[events.EventType]string{
	events.EventTypeWelcomeSent:     "welcome.sent",
	events.EventTypeSettingsUpdated: "welcome.settings.updated",
	events.EventTypeImageAdded:      "welcome.image.added",
	events.EventTypeImageRemoved:    "welcome.image.removed",
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("welcome.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjectsByType {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// StreamSubjects returns the subject filter for the welcome event stream
func (m *EventSubjectMapper) StreamSubjects() []string {
	return []string{"welcome.>"}
}
