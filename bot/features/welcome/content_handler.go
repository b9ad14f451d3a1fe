package welcome

import (
	"context"
	"errors"
	"fmt"

	"welcomer/application"
	"welcomer/bot/common"
	"welcomer/domain/entities"
	"welcomer/domain/interfaces"
	"welcomer/domain/services"
	"welcomer/images"
	"welcomer/infrastructure/observability"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type commandOptions = []*discordgo.ApplicationCommandInteractionDataOption

func (f *Feature) provisioningService(uow application.UnitOfWork) interfaces.ProvisioningService {
	return services.NewProvisioningService(
		uow.ImagePlacementRepository(),
		f.store,
		f.normalizer,
		uow.EventBus(),
	)
}

// handleSetMessage handles /welcome-content set message
func (f *Feature) handleSetMessage(s *discordgo.Session, i *discordgo.InteractionCreate, options commandOptions) {
	guildID, ok := requireAdmin(s, i)
	if !ok {
		return
	}
	text := stringOption(options, "text")

	ctx := context.Background()
	err := f.withUnitOfWork(ctx, guildID, func(uow application.UnitOfWork) error {
		return f.settingsService(uow).SetFixedMessage(ctx, guildID, text)
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	common.Respond(s, i, fmt.Sprintf("✅ New welcome message is: `%s`", text), true)
}

// handleAddMessage handles /welcome-content add message
func (f *Feature) handleAddMessage(s *discordgo.Session, i *discordgo.InteractionCreate, options commandOptions) {
	guildID, ok := requireAdmin(s, i)
	if !ok {
		return
	}
	text := stringOption(options, "text")

	ctx := context.Background()
	var position int
	err := f.withUnitOfWork(ctx, guildID, func(uow application.UnitOfWork) error {
		var err error
		position, err = f.settingsService(uow).AddPoolMessage(ctx, guildID, text)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	common.Respond(s, i, fmt.Sprintf("✅ Added message #%d to the pool", position), true)
}

// handleRemoveMessage handles /welcome-content remove message
func (f *Feature) handleRemoveMessage(s *discordgo.Session, i *discordgo.InteractionCreate, options commandOptions) {
	guildID, ok := requireAdmin(s, i)
	if !ok {
		return
	}
	position := 0
	if opt, ok := optionMap(options)["position"]; ok {
		position = int(opt.IntValue())
	}

	ctx := context.Background()
	var (
		removed   string
		remaining []string
	)
	err := f.withUnitOfWork(ctx, guildID, func(uow application.UnitOfWork) error {
		svc := f.settingsService(uow)
		var err error
		if removed, err = svc.RemovePoolMessage(ctx, guildID, position); err != nil {
			return err
		}
		remaining, err = svc.ListPoolMessages(ctx, guildID)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	message := fmt.Sprintf("✅ Removed message #%d: `%s`", position, removed)
	if len(remaining) == 0 {
		message += "\nThe message pool is now empty, so random messages were turned off."
	}
	common.Respond(s, i, message, true)
}

// handleViewMessages handles /welcome-content view messages
func (f *Feature) handleViewMessages(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, ok := requireAdmin(s, i)
	if !ok {
		return
	}

	ctx := context.Background()
	var messages []string
	err := f.withUnitOfWork(ctx, guildID, func(uow application.UnitOfWork) error {
		var err error
		messages, err = f.settingsService(uow).ListPoolMessages(ctx, guildID)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	common.Respond(s, i, "**Message pool**\n"+common.FormatNumberedList(messages), true)
}

// handleViewImages handles /welcome-content view images
func (f *Feature) handleViewImages(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, ok := requireAdmin(s, i)
	if !ok {
		return
	}

	ctx := context.Background()
	var names []string
	err := f.withUnitOfWork(ctx, guildID, func(uow application.UnitOfWork) error {
		var err error
		names, err = f.settingsService(uow).ListPoolImages(ctx, guildID)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	common.Respond(s, i, "**Image pool**\n"+common.FormatBulletList(names), true)
}

// handleRemoveImage handles /welcome-content remove image
func (f *Feature) handleRemoveImage(s *discordgo.Session, i *discordgo.InteractionCreate, options commandOptions) {
	guildID, ok := requireAdmin(s, i)
	if !ok {
		return
	}
	name := stringOption(options, "name")

	ctx := context.Background()
	var randomizerDisabled bool
	err := f.withUnitOfWork(ctx, guildID, func(uow application.UnitOfWork) error {
		var err error
		randomizerDisabled, err = f.settingsService(uow).RemovePoolImage(ctx, guildID, name)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	message := fmt.Sprintf("✅ Removed image `%s`", name)
	if randomizerDisabled {
		message += "\nNot enough images are left in the pool, so random images were turned off."
	}
	common.Respond(s, i, message, true)
}

// handleSetMandatory handles /welcome-content set-mandatory
func (f *Feature) handleSetMandatory(s *discordgo.Session, i *discordgo.InteractionCreate, options commandOptions) {
	guildID, ok := requireAdmin(s, i)
	if !ok {
		return
	}
	text := stringOption(options, "text")

	ctx := context.Background()
	err := f.withUnitOfWork(ctx, guildID, func(uow application.UnitOfWork) error {
		return f.settingsService(uow).SetMandatorySuffix(ctx, guildID, text)
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if text == "" {
		common.Respond(s, i, "✅ Mandatory suffix cleared", true)
		return
	}
	common.Respond(s, i, fmt.Sprintf("✅ Every welcome will end with: `%s`", text), true)
}

// handleViewTemplate handles /welcome-content view template
func (f *Feature) handleViewTemplate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if _, ok := requireAdmin(s, i); !ok {
		return
	}
	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Failed to defer response: %v", err)
		return
	}

	guide, err := images.GenerateTemplateGuide()
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}
	content := fmt.Sprintf("Templates are resized to %d×%d. Coordinates are the top left corner of the avatar; the size is its side in pixels.",
		entities.CanonicalTemplateWidth, entities.CanonicalTemplateHeight)
	common.FollowUp(s, i, content, common.PNGFile("template.png", guide), true)
}

// handleSetImage handles /welcome-content set image
func (f *Feature) handleSetImage(s *discordgo.Session, i *discordgo.InteractionCreate, options commandOptions) {
	guildID, ok := requireAdmin(s, i)
	if !ok {
		return
	}
	attachment, err := resolveAttachment(i, options)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	f.runPlacementPrompt(s, i, guildID, entities.DefaultTemplateKey, true, attachment, "default welcome image")
}

// handleAddImage handles /welcome-content add image
func (f *Feature) handleAddImage(s *discordgo.Session, i *discordgo.InteractionCreate, options commandOptions) {
	guildID, ok := requireAdmin(s, i)
	if !ok {
		return
	}
	attachment, err := resolveAttachment(i, options)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	name := stringOption(options, "name")

	ctx := context.Background()
	var key string
	err = f.withUnitOfWork(ctx, guildID, func(uow application.UnitOfWork) error {
		var err error
		key, err = f.provisioningService(uow).ReservePoolImage(ctx, guildID, name)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	f.runPlacementPrompt(s, i, guildID, key, false, attachment, fmt.Sprintf("pool image `%s`", entities.ImageNameFromKey(key)))
}

// runPlacementPrompt asks for the avatar placement in the channel, then stores the image.
// Nothing is downloaded or written until every answer validated.
func (f *Feature) runPlacementPrompt(s *discordgo.Session, i *discordgo.InteractionCreate, guildID int64, key string, allowSkipRadius bool, attachment *discordgo.MessageAttachment, label string) {
	session, err := f.prompts.Start(i.ChannelID, i.Member.User.ID, services.NewPlacementPrompt(key, allowSkipRadius))
	if err != nil {
		common.RespondWithError(s, i, "You already have a placement prompt open in this channel. Finish it or reply `cancel` first.")
		return
	}

	common.Respond(s, i, fmt.Sprintf("Setting up the %s. Answer the questions below in this channel, or reply `cancel` to stop. `/welcome-content view template` shows the coordinate grid.", label), false)

	logger := log.WithFields(log.Fields{
		"guild_id":   guildID,
		"channel_id": i.ChannelID,
		"user_id":    i.Member.User.ID,
		"image_key":  key,
		"session_id": session.ID,
	})

	ask := func(question string) error {
		_, err := s.ChannelMessageSend(i.ChannelID, question)
		return err
	}
	echo := func(step services.PromptState, answer string) {
		if _, err := s.ChannelMessageSend(i.ChannelID, fmt.Sprintf("%s: %s", stepLabel(step), answer)); err != nil {
			logger.WithError(err).Warn("Failed to echo prompt answer")
		}
	}

	placement, err := f.prompts.Run(f.ctx, session, ask, echo)
	if err != nil {
		f.metrics.RecordPromptAborted(abortReason(err))
		f.reportChannelError(s, i.ChannelID, err, "Placement prompt aborted")
		return
	}

	ctx := f.ctx
	data, err := f.attachments.FetchAttachment(ctx, attachment)
	if err != nil {
		f.reportChannelError(s, i.ChannelID, err, "Failed to download attachment")
		return
	}

	if err := f.provisionImage(ctx, guildID, placement, data); err != nil {
		f.reportChannelError(s, i.ChannelID, err, "Failed to provision image")
		return
	}
	logger.WithFields(log.Fields{
		"x":      placement.X,
		"y":      placement.Y,
		"radius": placement.Radius,
	}).Info("Provisioned welcome image")

	preview := f.preview(ctx, guildID, i.Member.User, placement)
	send := &discordgo.MessageSend{
		Content: fmt.Sprintf("✅ %s saved with the avatar at (%d, %d), size %d.", capitalise(label), placement.X, placement.Y, placement.Radius),
	}
	if preview != nil {
		send.Files = []*discordgo.File{common.PNGFile(services.OutputFilename, preview)}
	}
	if _, err := s.ChannelMessageSendComplex(i.ChannelID, send); err != nil {
		logger.WithError(err).Error("Failed to send provisioning confirmation")
	}
}

// provisionImage saves the placement and the image together. The file only
// becomes visible after the placement committed; on any failure before that
// the staged file is dropped and the previous image stays in place.
func (f *Feature) provisionImage(ctx context.Context, guildID int64, placement entities.Placement, data []byte) error {
	var staged interfaces.StagedImage
	err := f.withUnitOfWork(ctx, guildID, func(uow application.UnitOfWork) error {
		var err error
		staged, err = f.provisioningService(uow).ProvisionImage(ctx, guildID, placement, data)
		return err
	})
	if err != nil {
		if staged != nil {
			staged.Discard()
		}
		return err
	}

	if err := staged.Promote(); err != nil {
		if placement.ImageKey != entities.DefaultTemplateKey {
			f.dropPlacement(ctx, guildID, placement.ImageKey)
		}
		return fmt.Errorf("failed to store image: %w", err)
	}
	return nil
}

// dropPlacement removes a committed pool placement whose file never landed,
// so the name can be added again
func (f *Feature) dropPlacement(ctx context.Context, guildID int64, key string) {
	err := f.withUnitOfWork(ctx, guildID, func(uow application.UnitOfWork) error {
		_, err := uow.ImagePlacementRepository().Delete(ctx, key)
		return err
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"guild_id":  guildID,
			"image_key": key,
		}).Error("Failed to drop placement of unstored image")
	}
}

// preview renders the stored image with the admin's own avatar, falling back to the plain image
func (f *Feature) preview(ctx context.Context, guildID int64, user *discordgo.User, placement entities.Placement) []byte {
	stored, err := f.store.Read(ctx, guildID, placement.ImageKey)
	if err != nil {
		log.WithError(err).Warn("Failed to read stored image for preview")
		return nil
	}

	userID, err := common.ParseID(user.ID)
	if err != nil {
		return stored
	}
	avatar, err := f.avatars.FetchAvatar(ctx, entities.JoinedMember{
		GuildID:    guildID,
		UserID:     userID,
		Username:   user.Username,
		AvatarHash: user.Avatar,
	})
	if err != nil {
		return stored
	}
	rendered, err := f.compositor.Render(stored, avatar, placement)
	if err != nil {
		log.WithError(err).Warn("Failed to render preview")
		return stored
	}
	return rendered
}

func (f *Feature) reportChannelError(s *discordgo.Session, channelID string, err error, logMessage string) {
	botErr := common.FromDomainError(err, logMessage)
	entry := log.WithError(err).WithField("channel_id", channelID)
	if botErr.IsUserError() {
		entry.Info(logMessage)
	} else {
		entry.Error(logMessage)
	}
	if _, sendErr := s.ChannelMessageSend(channelID, "❌ "+botErr.UserMessage); sendErr != nil {
		log.Errorf("Failed to send error message: %v", sendErr)
	}
}

func abortReason(err error) string {
	switch {
	case errors.Is(err, entities.ErrPromptTimeout):
		return observability.ReasonTimeout
	case errors.Is(err, entities.ErrValidation):
		return observability.ReasonInvalid
	default:
		return observability.ReasonCancelled
	}
}

func stepLabel(step services.PromptState) string {
	switch step {
	case services.PromptAwaitingX:
		return "x"
	case services.PromptAwaitingY:
		return "y"
	default:
		return "size"
	}
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

func stringOption(options commandOptions, name string) string {
	if opt, ok := optionMap(options)[name]; ok {
		return opt.StringValue()
	}
	return ""
}

// resolveAttachment looks up the uploaded file behind the "attachment" option
func resolveAttachment(i *discordgo.InteractionCreate, options commandOptions) (*discordgo.MessageAttachment, error) {
	opt, ok := optionMap(options)["attachment"]
	if !ok {
		return nil, fmt.Errorf("%w: attach exactly one image", entities.ErrValidation)
	}
	id, _ := opt.Value.(string)

	resolved := i.ApplicationCommandData().Resolved
	if resolved == nil || resolved.Attachments[id] == nil {
		return nil, fmt.Errorf("%w: attach exactly one image", entities.ErrValidation)
	}
	return resolved.Attachments[id], nil
}
