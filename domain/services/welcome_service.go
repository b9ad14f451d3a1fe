package services

import (
	"context"
	"errors"
	"fmt"

	"welcomer/domain/entities"
	"welcomer/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// OutputFilename is the attachment name greetings are delivered under
const OutputFilename = "output.png"

// welcomeService chooses the greeting for a joining member
type welcomeService struct {
	settingsRepo  interfaces.WelcomeSettingsRepository
	placementRepo interfaces.ImagePlacementRepository
	imageStore    interfaces.ImageStore
	selector      *ContentSelector
}

// NewWelcomeService creates a new welcome service
func NewWelcomeService(
	settingsRepo interfaces.WelcomeSettingsRepository,
	placementRepo interfaces.ImagePlacementRepository,
	imageStore interfaces.ImageStore,
	selector *ContentSelector,
) interfaces.WelcomeService {
	if selector == nil {
		selector = NewContentSelector()
	}
	return &welcomeService{
		settingsRepo:  settingsRepo,
		placementRepo: placementRepo,
		imageStore:    imageStore,
		selector:      selector,
	}
}

// PlanWelcome selects the text and the image placement.
// Returns nil without error when no channel is set or nothing would be sent.
func (s *welcomeService) PlanWelcome(ctx context.Context, member entities.JoinedMember) (*entities.WelcomePlan, error) {
	settings, err := s.settingsRepo.GetOrCreateWelcomeSettings(ctx, member.GuildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get welcome settings: %w", err)
	}

	if !settings.HasChannel() {
		return nil, nil
	}
	if !settings.ShouldSendText() && !settings.ShouldSendImage() {
		return nil, nil
	}

	text, err := s.selector.SelectText(settings, member.Mention())
	if err != nil {
		return nil, fmt.Errorf("failed to select greeting: %w", err)
	}

	plan := &entities.WelcomePlan{
		ChannelID: *settings.ChannelID,
		Text:      text,
		HasText:   settings.ShouldSendText() && text != "",
	}

	if settings.ShouldSendImage() {
		placement, key, err := s.selectPlacement(ctx, settings)
		if err != nil {
			log.WithFields(log.Fields{
				"guild_id":  member.GuildID,
				"user_id":   member.UserID,
				"image_key": key,
			}).WithError(err).Warn("Welcome image unavailable")
		} else {
			plan.Placement = placement
		}
	}

	if !plan.HasText && plan.Placement == nil {
		return nil, nil
	}
	return plan, nil
}

func (s *welcomeService) selectPlacement(ctx context.Context, settings *entities.WelcomeSettings) (*entities.Placement, string, error) {
	var poolKeys []string
	if settings.RandomizeImage {
		var err error
		poolKeys, err = s.imageStore.ListPool(ctx, settings.GuildID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to list pool images: %w", err)
		}
	}

	key, err := s.selector.SelectImage(settings, poolKeys)
	if err != nil {
		return nil, "", err
	}

	placement, err := s.placementRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, key, fmt.Errorf("failed to get placement: %w", err)
	}
	if placement == nil {
		return nil, key, fmt.Errorf("%w: %s", entities.ErrMissingPlacement, key)
	}
	return placement, key, nil
}

// welcomeRenderer composes planned greetings
type welcomeRenderer struct {
	imageStore interfaces.ImageStore
	avatars    interfaces.AvatarFetcher
	compositor interfaces.ImageCompositor
}

// NewWelcomeRenderer creates a renderer reading templates from the image store
func NewWelcomeRenderer(
	imageStore interfaces.ImageStore,
	avatars interfaces.AvatarFetcher,
	compositor interfaces.ImageCompositor,
) interfaces.WelcomeRenderer {
	return &welcomeRenderer{
		imageStore: imageStore,
		avatars:    avatars,
		compositor: compositor,
	}
}

// RenderWelcome builds the deliverable message. When the image cannot be
// produced the greeting goes out with its text alone, if text is enabled.
func (r *welcomeRenderer) RenderWelcome(ctx context.Context, member entities.JoinedMember, plan *entities.WelcomePlan) *entities.WelcomeMessage {
	if plan == nil {
		return nil
	}

	msg := &entities.WelcomeMessage{
		ChannelID: plan.ChannelID,
		Text:      plan.Text,
		HasText:   plan.HasText,
	}

	if plan.Placement != nil {
		image, err := r.render(ctx, member, *plan.Placement)
		if err != nil {
			log.WithFields(log.Fields{
				"guild_id":  member.GuildID,
				"user_id":   member.UserID,
				"image_key": plan.Placement.ImageKey,
			}).WithError(err).Warn("Welcome image unavailable")
		} else {
			msg.Image = image
			msg.Filename = OutputFilename
			msg.ImageKey = plan.Placement.ImageKey
		}
	}

	if msg.IsEmpty() {
		return nil
	}
	return msg
}

func (r *welcomeRenderer) render(ctx context.Context, member entities.JoinedMember, placement entities.Placement) ([]byte, error) {
	template, err := r.imageStore.Read(ctx, member.GuildID, placement.ImageKey)
	if err != nil {
		if errors.Is(err, entities.ErrImageNotFound) && placement.ImageKey == entities.DefaultTemplateKey {
			return nil, entities.ErrTemplateMissing
		}
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	avatar, err := r.avatars.FetchAvatar(ctx, member)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch avatar: %w", err)
	}

	image, err := r.compositor.Render(template, avatar, placement)
	if err != nil {
		return nil, fmt.Errorf("failed to render welcome image: %w", err)
	}
	return image, nil
}
