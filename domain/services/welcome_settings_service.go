package services

import (
	"context"
	"fmt"
	"strings"

	"welcomer/domain/entities"
	"welcomer/domain/interfaces"
	"welcomer/events"
)

// welcomeSettingsService implements the WelcomeSettingsService interface
type welcomeSettingsService struct {
	settingsRepo   interfaces.WelcomeSettingsRepository
	placementRepo  interfaces.ImagePlacementRepository
	imageStore     interfaces.ImageStore
	eventPublisher interfaces.EventPublisher
}

// NewWelcomeSettingsService creates a new welcome settings service
func NewWelcomeSettingsService(
	settingsRepo interfaces.WelcomeSettingsRepository,
	placementRepo interfaces.ImagePlacementRepository,
	imageStore interfaces.ImageStore,
	eventPublisher interfaces.EventPublisher,
) interfaces.WelcomeSettingsService {
	return &welcomeSettingsService{
		settingsRepo:   settingsRepo,
		placementRepo:  placementRepo,
		imageStore:     imageStore,
		eventPublisher: eventPublisher,
	}
}

// GetOrCreateSettings retrieves welcome settings or creates default ones if not found
func (s *welcomeSettingsService) GetOrCreateSettings(ctx context.Context, guildID int64) (*entities.WelcomeSettings, error) {
	settings, err := s.settingsRepo.GetOrCreateWelcomeSettings(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create welcome settings: %w", err)
	}
	return settings, nil
}

// SetChannel sets the channel greetings are posted to
func (s *welcomeSettingsService) SetChannel(ctx context.Context, guildID int64, channelID int64) error {
	return s.update(ctx, guildID, "channel", func(settings *entities.WelcomeSettings) error {
		settings.SetChannel(&channelID)
		return nil
	})
}

// ToggleSendText flips fixed message sending
func (s *welcomeSettingsService) ToggleSendText(ctx context.Context, guildID int64) (bool, error) {
	var enabled bool
	err := s.update(ctx, guildID, "send_text", func(settings *entities.WelcomeSettings) error {
		settings.SendText = !settings.SendText
		enabled = settings.SendText
		return nil
	})
	return enabled, err
}

// ToggleSendImage flips default template sending
func (s *welcomeSettingsService) ToggleSendImage(ctx context.Context, guildID int64) (bool, error) {
	var enabled bool
	err := s.update(ctx, guildID, "send_image", func(settings *entities.WelcomeSettings) error {
		if !settings.SendImage {
			exists, err := s.HasDefaultTemplate(ctx, guildID)
			if err != nil {
				return err
			}
			if !exists {
				return entities.ErrTemplateMissing
			}
		}
		settings.SendImage = !settings.SendImage
		enabled = settings.SendImage
		return nil
	})
	return enabled, err
}

// ToggleRandomText flips the message randomiser
func (s *welcomeSettingsService) ToggleRandomText(ctx context.Context, guildID int64) (bool, error) {
	var enabled bool
	err := s.update(ctx, guildID, "randomize_text", func(settings *entities.WelcomeSettings) error {
		if !settings.RandomizeText && len(settings.MessagePool) == 0 {
			return fmt.Errorf("no messages to randomise: %w", entities.ErrEmptyPool)
		}
		settings.RandomizeText = !settings.RandomizeText
		enabled = settings.RandomizeText
		return nil
	})
	return enabled, err
}

// ToggleRandomImage flips the image randomiser
func (s *welcomeSettingsService) ToggleRandomImage(ctx context.Context, guildID int64) (bool, error) {
	var enabled bool
	err := s.update(ctx, guildID, "randomize_image", func(settings *entities.WelcomeSettings) error {
		if !settings.RandomizeImage {
			keys, err := s.imageStore.ListPool(ctx, guildID)
			if err != nil {
				return fmt.Errorf("failed to list pool images: %w", err)
			}
			if len(keys) == 0 {
				return fmt.Errorf("no images to randomise: %w", entities.ErrEmptyPool)
			}
		}
		settings.RandomizeImage = !settings.RandomizeImage
		enabled = settings.RandomizeImage
		return nil
	})
	return enabled, err
}

// SetFixedMessage sets the non-random greeting
func (s *welcomeSettingsService) SetFixedMessage(ctx context.Context, guildID int64, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("%w: message cannot be empty", entities.ErrValidation)
	}
	return s.update(ctx, guildID, "fixed_message", func(settings *entities.WelcomeSettings) error {
		settings.FixedMessage = message
		return nil
	})
}

// SetMandatorySuffix sets the text appended to every greeting
func (s *welcomeSettingsService) SetMandatorySuffix(ctx context.Context, guildID int64, suffix string) error {
	return s.update(ctx, guildID, "mandatory_suffix", func(settings *entities.WelcomeSettings) error {
		settings.MandatorySuffix = strings.TrimSpace(suffix)
		return nil
	})
}

// AddPoolMessage appends a message to the random pool
func (s *welcomeSettingsService) AddPoolMessage(ctx context.Context, guildID int64, message string) (int, error) {
	var position int
	err := s.update(ctx, guildID, "message_pool", func(settings *entities.WelcomeSettings) error {
		var err error
		position, err = settings.AddMessage(message)
		return err
	})
	return position, err
}

// RemovePoolMessage removes a message by its 1-based position
func (s *welcomeSettingsService) RemovePoolMessage(ctx context.Context, guildID int64, position int) (string, error) {
	var removed string
	err := s.update(ctx, guildID, "message_pool", func(settings *entities.WelcomeSettings) error {
		var err error
		removed, err = settings.RemoveMessage(position)
		return err
	})
	return removed, err
}

// ListPoolMessages returns the message pool in order
func (s *welcomeSettingsService) ListPoolMessages(ctx context.Context, guildID int64) ([]string, error) {
	settings, err := s.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return settings.MessagePool, nil
}

// ListPoolImages returns pool image names without their extension
func (s *welcomeSettingsService) ListPoolImages(ctx context.Context, guildID int64) ([]string, error) {
	keys, err := s.imageStore.ListPool(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pool images: %w", err)
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, entities.ImageNameFromKey(key))
	}
	return names, nil
}

// ListUnplacedImages returns pool images the randomiser would pick but cannot render
func (s *welcomeSettingsService) ListUnplacedImages(ctx context.Context, guildID int64) ([]string, error) {
	keys, err := s.imageStore.ListPool(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pool images: %w", err)
	}

	placements, err := s.placementRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list placements: %w", err)
	}
	placed := make(map[string]bool, len(placements))
	for _, p := range placements {
		placed[p.ImageKey] = true
	}

	var names []string
	for _, key := range keys {
		if !placed[key] {
			names = append(names, entities.ImageNameFromKey(key))
		}
	}
	return names, nil
}

// RemovePoolImage deletes a pool image file and its placement
func (s *welcomeSettingsService) RemovePoolImage(ctx context.Context, guildID int64, name string) (bool, error) {
	key, err := entities.PoolImageKey(name)
	if err != nil {
		return false, err
	}

	exists, err := s.imageStore.Exists(ctx, guildID, key)
	if err != nil {
		return false, fmt.Errorf("failed to check pool image: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("%w: %s", entities.ErrImageNotFound, name)
	}

	if _, err := s.placementRepo.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("failed to delete placement: %w", err)
	}

	remaining, err := s.imageStore.ListPool(ctx, guildID)
	if err != nil {
		return false, fmt.Errorf("failed to list pool images: %w", err)
	}

	randomizerDisabled := false
	if len(remaining) <= 1 {
		settings, err := s.settingsRepo.GetOrCreateWelcomeSettings(ctx, guildID)
		if err != nil {
			return false, fmt.Errorf("failed to get welcome settings: %w", err)
		}
		if settings.RandomizeImage {
			settings.RandomizeImage = false
			if err := s.settingsRepo.UpdateWelcomeSettings(ctx, settings); err != nil {
				return false, fmt.Errorf("failed to update welcome settings: %w", err)
			}
			randomizerDisabled = true
		}
	}

	// The file goes last so a failed database write leaves the image usable
	if err := s.imageStore.Delete(ctx, guildID, key); err != nil {
		return false, fmt.Errorf("failed to delete pool image: %w", err)
	}

	s.publish(events.ImageRemovedEvent{
		GuildID:            guildID,
		ImageKey:           key,
		RandomizerDisabled: randomizerDisabled,
	})

	return randomizerDisabled, nil
}

// HasDefaultTemplate reports whether the guild has a default template stored
func (s *welcomeSettingsService) HasDefaultTemplate(ctx context.Context, guildID int64) (bool, error) {
	exists, err := s.imageStore.Exists(ctx, guildID, entities.DefaultTemplateKey)
	if err != nil {
		return false, fmt.Errorf("failed to check default template: %w", err)
	}
	return exists, nil
}

// update loads the settings, applies mutate and saves the result.
// Nothing is written when mutate fails.
func (s *welcomeSettingsService) update(ctx context.Context, guildID int64, field string, mutate func(*entities.WelcomeSettings) error) error {
	settings, err := s.settingsRepo.GetOrCreateWelcomeSettings(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to get welcome settings: %w", err)
	}

	if err := mutate(settings); err != nil {
		return err
	}

	if err := s.settingsRepo.UpdateWelcomeSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to update welcome settings: %w", err)
	}

	s.publish(events.SettingsUpdatedEvent{GuildID: guildID, Field: field})
	return nil
}

func (s *welcomeSettingsService) publish(event events.Event) {
	publishEvent(s.eventPublisher, event)
}
