package welcome

import (
	"context"
	"fmt"
	"strings"

	"welcomer/application"
	"welcomer/bot/common"
	"welcomer/domain/entities"
	"welcomer/domain/interfaces"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type toggleFunc func(svc interfaces.WelcomeSettingsService, ctx context.Context, guildID int64) (bool, error)

// requireAdmin answers with an error and returns 0, false when the caller may not configure welcomes
func requireAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) (int64, bool) {
	if !common.IsUserAdmin(s, i) {
		common.RespondWithError(s, i, "You need the Administrator or Manage Server permission to use this command")
		return 0, false
	}
	guildID, err := common.ParseID(i.GuildID)
	if err != nil {
		log.Errorf("Failed to parse guild ID: %v", err)
		common.RespondWithError(s, i, "This command can only be used in a server")
		return 0, false
	}
	return guildID, true
}

// handleSetChannel handles /welcome-config set-channel
func (f *Feature) handleSetChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, ok := requireAdmin(s, i)
	if !ok {
		return
	}
	channelID, err := common.ParseID(i.ChannelID)
	if err != nil {
		common.HandleError(s, i, fmt.Errorf("%w: invalid channel", entities.ErrValidation), false)
		return
	}

	ctx := context.Background()
	err = f.withUnitOfWork(ctx, guildID, func(uow application.UnitOfWork) error {
		return f.settingsService(uow).SetChannel(ctx, guildID, channelID)
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	common.Respond(s, i, fmt.Sprintf("✅ Welcome messages will be posted in %s", common.GetChannelMention(channelID)), false)
}

// handleToggle flips one of the four send toggles
func (f *Feature) handleToggle(s *discordgo.Session, i *discordgo.InteractionCreate, label string, toggle toggleFunc) {
	guildID, ok := requireAdmin(s, i)
	if !ok {
		return
	}

	ctx := context.Background()
	var enabled bool
	err := f.withUnitOfWork(ctx, guildID, func(uow application.UnitOfWork) error {
		var err error
		enabled, err = toggle(f.settingsService(uow), ctx, guildID)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	common.Respond(s, i, fmt.Sprintf("✅ %s %s", label, state), true)
}

// handleStatus handles /welcome-config status
func (f *Feature) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, ok := requireAdmin(s, i)
	if !ok {
		return
	}

	ctx := context.Background()
	var (
		settings   *entities.WelcomeSettings
		poolImages []string
		unplaced   []string
	)
	err := f.withUnitOfWork(ctx, guildID, func(uow application.UnitOfWork) error {
		svc := f.settingsService(uow)
		var err error
		if settings, err = svc.GetOrCreateSettings(ctx, guildID); err != nil {
			return err
		}
		if poolImages, err = svc.ListPoolImages(ctx, guildID); err != nil {
			return err
		}
		unplaced, err = svc.ListUnplacedImages(ctx, guildID)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	channel := "*(not set)*"
	if settings.HasChannel() {
		channel = common.GetChannelMention(*settings.ChannelID)
	}

	embed := &discordgo.MessageEmbed{
		Title: "Welcome settings",
		Color: common.ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel", Value: channel},
			{Name: "Fixed message", Value: common.FormatToggle(settings.SendText), Inline: true},
			{Name: "Default image", Value: common.FormatToggle(settings.SendImage), Inline: true},
			{Name: "\u200b", Value: "\u200b", Inline: true},
			{Name: "Random message", Value: fmt.Sprintf("%s (%d in pool)", common.FormatToggle(settings.RandomizeText), len(settings.MessagePool)), Inline: true},
			{Name: "Random image", Value: fmt.Sprintf("%s (%d in pool)", common.FormatToggle(settings.RandomizeImage), len(poolImages)), Inline: true},
		},
	}
	if len(unplaced) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "⚠️ Images without a placement",
			Value: common.FormatBulletList(unplaced) + "\nWhen one of these is picked the greeting goes out without an image. Remove and re-add it.",
		})
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Failed to respond to interaction: %v", err)
	}
}

// handleCurrentGreeting handles /welcome-config current-greeting
func (f *Feature) handleCurrentGreeting(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, ok := requireAdmin(s, i)
	if !ok {
		return
	}
	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Failed to defer response: %v", err)
		return
	}

	ctx := context.Background()
	var (
		settings    *entities.WelcomeSettings
		hasTemplate bool
	)
	err := f.withUnitOfWork(ctx, guildID, func(uow application.UnitOfWork) error {
		svc := f.settingsService(uow)
		var err error
		if settings, err = svc.GetOrCreateSettings(ctx, guildID); err != nil {
			return err
		}
		hasTemplate, err = svc.HasDefaultTemplate(ctx, guildID)
		return err
	})
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Mandatory suffix:** %s\n", quoteOrEmpty(settings.MandatorySuffix))
	if settings.RandomizeText {
		b.WriteString("**Message:** randomised from pool\n")
	} else {
		fmt.Fprintf(&b, "**Message:** %s\n", quoteOrEmpty(settings.FixedMessage))
	}

	var file *discordgo.File
	switch {
	case settings.RandomizeImage:
		b.WriteString("**Image:** randomised from pool")
	case hasTemplate:
		data, err := f.store.Read(ctx, guildID, entities.DefaultTemplateKey)
		if err != nil {
			common.HandleError(s, i, err, true)
			return
		}
		b.WriteString("**Image:** default template (attached)")
		file = common.PNGFile(entities.DefaultTemplateKey, data)
	default:
		b.WriteString("**Image:** *(not set)*")
	}

	common.FollowUp(s, i, b.String(), file, true)
}

func quoteOrEmpty(text string) string {
	if text == "" {
		return "*(empty)*"
	}
	return "`" + text + "`"
}
