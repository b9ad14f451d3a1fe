package welcome

import (
	"context"
	"time"

	"welcomer/application"
	"welcomer/domain/interfaces"
	"welcomer/domain/services"
	"welcomer/infrastructure/observability"

	"github.com/bwmarrin/discordgo"
)

// AttachmentFetcher downloads files admins upload with a command
type AttachmentFetcher interface {
	FetchAttachment(ctx context.Context, attachment *discordgo.MessageAttachment) ([]byte, error)
}

// messageSender is the part of the Discord session greetings are delivered through
type messageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Dependencies holds everything the welcome feature needs besides the session
type Dependencies struct {
	UoWFactory    application.UnitOfWorkFactory
	ImageStore    interfaces.ImageStore
	Avatars       interfaces.AvatarFetcher
	Attachments   AttachmentFetcher
	Compositor    interfaces.ImageCompositor
	Normalizer    interfaces.TemplateNormalizer
	Metrics       *observability.MetricsProvider
	PromptTimeout time.Duration
}

// Feature handles member greetings and their configuration commands
type Feature struct {
	session     *discordgo.Session
	sender      messageSender
	uowFactory  application.UnitOfWorkFactory
	store       interfaces.ImageStore
	avatars     interfaces.AvatarFetcher
	attachments AttachmentFetcher
	compositor  interfaces.ImageCompositor
	normalizer  interfaces.TemplateNormalizer
	renderer    interfaces.WelcomeRenderer
	metrics     *observability.MetricsProvider
	prompts     *PromptManager

	ctx    context.Context
	cancel context.CancelFunc
}

// NewFeature creates a new welcome feature instance
func NewFeature(session *discordgo.Session, deps Dependencies) *Feature {
	ctx, cancel := context.WithCancel(context.Background())
	f := &Feature{
		session:     session,
		uowFactory:  deps.UoWFactory,
		store:       deps.ImageStore,
		avatars:     deps.Avatars,
		attachments: deps.Attachments,
		compositor:  deps.Compositor,
		normalizer:  deps.Normalizer,
		renderer:    services.NewWelcomeRenderer(deps.ImageStore, deps.Avatars, deps.Compositor),
		metrics:     deps.Metrics,
		prompts:     NewPromptManager(deps.PromptTimeout),
		ctx:         ctx,
		cancel:      cancel,
	}
	if session != nil {
		f.sender = session
	}
	return f
}

// Close cancels running prompts
func (f *Feature) Close() {
	f.cancel()
}

// HandleConfigCommand routes /welcome-config subcommands
func (f *Feature) HandleConfigCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	switch options[0].Name {
	case "set-channel":
		f.handleSetChannel(s, i)
	case "status":
		f.handleStatus(s, i)
	case "toggle-message":
		f.handleToggle(s, i, "Fixed welcome message", func(svc interfaces.WelcomeSettingsService, ctx context.Context, guildID int64) (bool, error) {
			return svc.ToggleSendText(ctx, guildID)
		})
	case "toggle-image":
		f.handleToggle(s, i, "Default welcome image", func(svc interfaces.WelcomeSettingsService, ctx context.Context, guildID int64) (bool, error) {
			return svc.ToggleSendImage(ctx, guildID)
		})
	case "toggle-random-message":
		f.handleToggle(s, i, "Random welcome message", func(svc interfaces.WelcomeSettingsService, ctx context.Context, guildID int64) (bool, error) {
			return svc.ToggleRandomText(ctx, guildID)
		})
	case "toggle-random-image":
		f.handleToggle(s, i, "Random welcome image", func(svc interfaces.WelcomeSettingsService, ctx context.Context, guildID int64) (bool, error) {
			return svc.ToggleRandomImage(ctx, guildID)
		})
	case "current-greeting":
		f.handleCurrentGreeting(s, i)
	}
}

// HandleContentCommand routes /welcome-content groups and subcommands
func (f *Feature) HandleContentCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	group := options[0]
	if group.Name == "set-mandatory" {
		f.handleSetMandatory(s, i, group.Options)
		return
	}
	if len(group.Options) == 0 {
		return
	}
	sub := group.Options[0]

	switch group.Name + " " + sub.Name {
	case "set message":
		f.handleSetMessage(s, i, sub.Options)
	case "set image":
		f.handleSetImage(s, i, sub.Options)
	case "add message":
		f.handleAddMessage(s, i, sub.Options)
	case "add image":
		f.handleAddImage(s, i, sub.Options)
	case "remove message":
		f.handleRemoveMessage(s, i, sub.Options)
	case "remove image":
		f.handleRemoveImage(s, i, sub.Options)
	case "view template":
		f.handleViewTemplate(s, i)
	case "view images":
		f.handleViewImages(s, i)
	case "view messages":
		f.handleViewMessages(s, i)
	}
}

// HandlePromptReply feeds a channel message to the author's running prompt
func (f *Feature) HandlePromptReply(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if m.Author == nil || m.Author.Bot {
		return false
	}
	return f.prompts.Deliver(m.ChannelID, m.Author.ID, m.Content)
}

// settingsService builds a settings service on the unit of work's repositories
func (f *Feature) settingsService(uow application.UnitOfWork) interfaces.WelcomeSettingsService {
	return services.NewWelcomeSettingsService(
		uow.WelcomeSettingsRepository(),
		uow.ImagePlacementRepository(),
		f.store,
		uow.EventBus(),
	)
}

// withUnitOfWork runs fn inside a guild-scoped transaction and commits when fn succeeds
func (f *Feature) withUnitOfWork(ctx context.Context, guildID int64, fn func(uow application.UnitOfWork) error) error {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	return uow.Commit()
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}
