package services

import (
	"context"
	"fmt"

	"welcomer/domain/entities"
	"welcomer/domain/interfaces"
	"welcomer/events"
)

// provisioningService stores templates and pool images with their placements
type provisioningService struct {
	placementRepo  interfaces.ImagePlacementRepository
	imageStore     interfaces.ImageStore
	normalizer     interfaces.TemplateNormalizer
	eventPublisher interfaces.EventPublisher
}

// NewProvisioningService creates a new provisioning service
func NewProvisioningService(
	placementRepo interfaces.ImagePlacementRepository,
	imageStore interfaces.ImageStore,
	normalizer interfaces.TemplateNormalizer,
	eventPublisher interfaces.EventPublisher,
) interfaces.ProvisioningService {
	return &provisioningService{
		placementRepo:  placementRepo,
		imageStore:     imageStore,
		normalizer:     normalizer,
		eventPublisher: eventPublisher,
	}
}

// ReservePoolImage validates the name and makes sure neither a file nor a
// placement already uses it
func (s *provisioningService) ReservePoolImage(ctx context.Context, guildID int64, name string) (string, error) {
	key, err := entities.PoolImageKey(name)
	if err != nil {
		return "", err
	}

	exists, err := s.imageStore.Exists(ctx, guildID, key)
	if err != nil {
		return "", fmt.Errorf("failed to check pool image: %w", err)
	}
	if exists {
		return "", fmt.Errorf("%w: %s", entities.ErrImageExists, name)
	}

	placement, err := s.placementRepo.GetByKey(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to check placement: %w", err)
	}
	if placement != nil {
		return "", fmt.Errorf("%w: %s", entities.ErrImageExists, name)
	}

	return key, nil
}

// ProvisionImage normalises the upload, saves its placement and stages the
// file. The default template replaces the previous one; a pool image fails
// with ErrImageExists when its name was taken since it was reserved.
// The caller commits the unit of work, then promotes the staged file.
func (s *provisioningService) ProvisionImage(ctx context.Context, guildID int64, placement entities.Placement, data []byte) (interfaces.StagedImage, error) {
	placement.GuildID = guildID
	if err := placement.Validate(); err != nil {
		return nil, err
	}

	normalized, err := s.normalizer.Normalize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to normalise template: %w", err)
	}

	if placement.ImageKey == entities.DefaultTemplateKey {
		if err := s.placementRepo.Upsert(ctx, &placement); err != nil {
			return nil, fmt.Errorf("failed to save placement: %w", err)
		}
	} else if err := s.createPoolPlacement(ctx, guildID, &placement); err != nil {
		return nil, err
	}

	staged, err := s.imageStore.Stage(ctx, guildID, placement.ImageKey, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	publishEvent(s.eventPublisher, events.ImageAddedEvent{
		GuildID:  guildID,
		ImageKey: placement.ImageKey,
		X:        placement.X,
		Y:        placement.Y,
		Radius:   placement.Radius,
	})

	return staged, nil
}

func (s *provisioningService) createPoolPlacement(ctx context.Context, guildID int64, placement *entities.Placement) error {
	name := entities.ImageNameFromKey(placement.ImageKey)

	exists, err := s.imageStore.Exists(ctx, guildID, placement.ImageKey)
	if err != nil {
		return fmt.Errorf("failed to check pool image: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", entities.ErrImageExists, name)
	}

	created, err := s.placementRepo.Create(ctx, placement)
	if err != nil {
		return fmt.Errorf("failed to save placement: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: %s", entities.ErrImageExists, name)
	}
	return nil
}
