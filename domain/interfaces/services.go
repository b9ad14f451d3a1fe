package interfaces

import (
	"context"

	"welcomer/domain/entities"
	"welcomer/events"
)

// WelcomeSettingsService defines the interface for admin configuration operations
type WelcomeSettingsService interface {
	// GetOrCreateSettings retrieves welcome settings or creates default ones if not found
	GetOrCreateSettings(ctx context.Context, guildID int64) (*entities.WelcomeSettings, error)

	// SetChannel sets the channel greetings are posted to
	SetChannel(ctx context.Context, guildID int64, channelID int64) error

	// ToggleSendText flips fixed text sending and returns the new value
	ToggleSendText(ctx context.Context, guildID int64) (bool, error)

	// ToggleSendImage flips default template sending; enabling requires the template
	ToggleSendImage(ctx context.Context, guildID int64) (bool, error)

	// ToggleRandomText flips the message randomiser; enabling requires a message
	ToggleRandomText(ctx context.Context, guildID int64) (bool, error)

	// ToggleRandomImage flips the image randomiser; enabling requires a pool image
	ToggleRandomImage(ctx context.Context, guildID int64) (bool, error)

	// SetFixedMessage sets the non-random greeting
	SetFixedMessage(ctx context.Context, guildID int64, message string) error

	// SetMandatorySuffix sets the text appended to every greeting
	SetMandatorySuffix(ctx context.Context, guildID int64, suffix string) error

	// AddPoolMessage appends to the message pool and returns the 1-based position
	AddPoolMessage(ctx context.Context, guildID int64, message string) (int, error)

	// RemovePoolMessage removes a message by 1-based position and returns it
	RemovePoolMessage(ctx context.Context, guildID int64, position int) (string, error)

	// ListPoolMessages returns the message pool in order
	ListPoolMessages(ctx context.Context, guildID int64) ([]string, error)

	// ListPoolImages returns pool image names (without extension)
	ListPoolImages(ctx context.Context, guildID int64) ([]string, error)

	// ListUnplacedImages returns pool image names that have no stored placement
	ListUnplacedImages(ctx context.Context, guildID int64) ([]string, error)

	// RemovePoolImage deletes a pool image and its placement.
	// Reports whether the image randomiser was switched off as a result.
	RemovePoolImage(ctx context.Context, guildID int64, name string) (bool, error)

	// HasDefaultTemplate reports whether the guild has a default template stored
	HasDefaultTemplate(ctx context.Context, guildID int64) (bool, error)
}

// ProvisioningService defines the interface for storing templates and pool images
type ProvisioningService interface {
	// ReservePoolImage validates a pool image name and checks it is free, returning its key
	ReservePoolImage(ctx context.Context, guildID int64, name string) (string, error)

	// ProvisionImage normalises an image, saves its placement and stages the file.
	// The caller promotes the staged file once the unit of work committed and
	// discards it otherwise.
	ProvisionImage(ctx context.Context, guildID int64, placement entities.Placement, data []byte) (StagedImage, error)
}

// WelcomeService defines the interface for choosing greetings on member join
type WelcomeService interface {
	// PlanWelcome picks the text and image for a joined member.
	// Returns nil when the guild has nothing to send.
	PlanWelcome(ctx context.Context, member entities.JoinedMember) (*entities.WelcomePlan, error)
}

// WelcomeRenderer turns a plan into a deliverable greeting without database access
type WelcomeRenderer interface {
	// RenderWelcome fetches the avatar and composes the image. Image failures
	// drop the image; nil is returned when nothing is left to send.
	RenderWelcome(ctx context.Context, member entities.JoinedMember, plan *entities.WelcomePlan) *entities.WelcomeMessage
}

// ImageStore persists template and pool image files
type ImageStore interface {
	Exists(ctx context.Context, guildID int64, key string) (bool, error)
	Read(ctx context.Context, guildID int64, key string) ([]byte, error)
	// Stage writes the image beside its final path without replacing anything
	Stage(ctx context.Context, guildID int64, key string, data []byte) (StagedImage, error)
	Delete(ctx context.Context, guildID int64, key string) error
	// ListPool returns the keys of the guild's pool images, sorted
	ListPool(ctx context.Context, guildID int64) ([]string, error)
}

// StagedImage is an image file written but not yet visible under its key
type StagedImage interface {
	// Promote moves the file into place. Pool images never replace an existing
	// file and fail with ErrImageExists instead.
	Promote() error
	// Discard removes the staged file
	Discard()
}

// AvatarFetcher downloads a member's current avatar
type AvatarFetcher interface {
	FetchAvatar(ctx context.Context, member entities.JoinedMember) ([]byte, error)
}

// ImageCompositor renders an avatar onto a template according to a placement
type ImageCompositor interface {
	Render(template, avatar []byte, placement entities.Placement) ([]byte, error)
}

// TemplateNormalizer converts an upload to the canonical template format
type TemplateNormalizer interface {
	Normalize(data []byte) ([]byte, error)
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction commits
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}
