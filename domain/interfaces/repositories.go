package interfaces

import (
	"context"

	"welcomer/domain/entities"
)

// WelcomeSettingsRepository defines the interface for welcome settings data access
type WelcomeSettingsRepository interface {
	// GetOrCreateWelcomeSettings retrieves welcome settings or creates default ones if not found
	GetOrCreateWelcomeSettings(ctx context.Context, guildID int64) (*entities.WelcomeSettings, error)

	// UpdateWelcomeSettings updates welcome settings
	UpdateWelcomeSettings(ctx context.Context, settings *entities.WelcomeSettings) error
}

// ImagePlacementRepository defines the interface for avatar placement data access.
// Implementations are scoped to a single guild.
type ImagePlacementRepository interface {
	// GetByKey returns the placement for an image key, or nil if none is stored
	GetByKey(ctx context.Context, imageKey string) (*entities.Placement, error)

	// Upsert creates or replaces the placement for its image key
	Upsert(ctx context.Context, placement *entities.Placement) error

	// Create inserts the placement only if its image key is free, reporting whether it did
	Create(ctx context.Context, placement *entities.Placement) (bool, error)

	// Delete removes the placement for an image key, reporting whether one existed
	Delete(ctx context.Context, imageKey string) (bool, error)

	// List returns every placement for the guild ordered by image key
	List(ctx context.Context) ([]*entities.Placement, error)
}
