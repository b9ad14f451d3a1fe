package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeWelcomeSent     EventType = "welcome_sent"
	EventTypeSettingsUpdated EventType = "welcome_settings_updated"
	EventTypeImageAdded      EventType = "welcome_image_added"
	EventTypeImageRemoved    EventType = "welcome_image_removed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// WelcomeSentEvent is emitted after a greeting was delivered to a channel
type WelcomeSentEvent struct {
	GuildID   int64     `json:"guild_id"`
	ChannelID int64     `json:"channel_id"`
	UserID    int64     `json:"user_id"`
	HasText   bool      `json:"has_text"`
	HasImage  bool      `json:"has_image"`
	ImageKey  string    `json:"image_key,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

func (e WelcomeSentEvent) Type() EventType {
	return EventTypeWelcomeSent
}

// SettingsUpdatedEvent is emitted when an admin changes a guild's welcome settings
type SettingsUpdatedEvent struct {
	GuildID int64  `json:"guild_id"`
	Field   string `json:"field"`
}

func (e SettingsUpdatedEvent) Type() EventType {
	return EventTypeSettingsUpdated
}

// ImageAddedEvent is emitted when a template or pool image is provisioned
type ImageAddedEvent struct {
	GuildID  int64  `json:"guild_id"`
	ImageKey string `json:"image_key"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Radius   int    `json:"radius"`
}

func (e ImageAddedEvent) Type() EventType {
	return EventTypeImageAdded
}

// ImageRemovedEvent is emitted when a pool image is deleted
type ImageRemovedEvent struct {
	GuildID            int64  `json:"guild_id"`
	ImageKey           string `json:"image_key"`
	RandomizerDisabled bool   `json:"randomizer_disabled"`
}

func (e ImageRemovedEvent) Type() EventType {
	return EventTypeImageRemoved
}
