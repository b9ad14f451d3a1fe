package welcome

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"welcomer/application"
	"welcomer/bot/common"
	"welcomer/domain/entities"
	"welcomer/domain/services"
	"welcomer/events"
	"welcomer/infrastructure/observability"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// HandleMemberJoin greets a member that just joined the guild
func (f *Feature) HandleMemberJoin(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil {
		return
	}

	member, err := joinedMember(m.Member)
	if err != nil {
		log.WithError(err).WithField("guild_id", m.GuildID).Error("Failed to parse joined member")
		return
	}

	if err := f.welcomeMember(f.ctx, member); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"guild_id": member.GuildID,
			"user_id":  member.UserID,
		}).Error("Failed to welcome member")
	}
}

func joinedMember(m *discordgo.Member) (entities.JoinedMember, error) {
	guildID, err := common.ParseID(m.GuildID)
	if err != nil {
		return entities.JoinedMember{}, fmt.Errorf("invalid guild ID %q: %w", m.GuildID, err)
	}
	userID, err := common.ParseID(m.User.ID)
	if err != nil {
		return entities.JoinedMember{}, fmt.Errorf("invalid user ID %q: %w", m.User.ID, err)
	}
	return entities.JoinedMember{
		GuildID:    guildID,
		UserID:     userID,
		Username:   m.User.Username,
		AvatarHash: m.User.Avatar,
	}, nil
}

// welcomeMember plans the greeting in a short unit of work, then renders and
// delivers it with no transaction open. The sent event goes out through a
// second unit of work once delivery succeeded.
func (f *Feature) welcomeMember(ctx context.Context, member entities.JoinedMember) error {
	var plan *entities.WelcomePlan
	err := f.withUnitOfWork(ctx, member.GuildID, func(uow application.UnitOfWork) error {
		var err error
		plan, err = services.NewWelcomeService(
			uow.WelcomeSettingsRepository(),
			uow.ImagePlacementRepository(),
			f.store,
			nil,
		).PlanWelcome(ctx, member)
		return err
	})
	if err != nil {
		f.metrics.RecordWelcomeFailed(observability.ReasonSelection)
		return fmt.Errorf("failed to build welcome: %w", err)
	}
	if plan == nil {
		return nil
	}

	msg := f.renderer.RenderWelcome(ctx, member, plan)
	if msg.IsEmpty() {
		return nil
	}

	if err := f.deliver(msg); err != nil {
		f.metrics.RecordWelcomeFailed(observability.ReasonDelivery)
		return err
	}
	f.metrics.RecordWelcomeSent(welcomeType(msg))

	log.WithFields(log.Fields{
		"guild_id":   member.GuildID,
		"user_id":    member.UserID,
		"channel_id": msg.ChannelID,
		"image_key":  msg.ImageKey,
	}).Info("Welcomed new member")

	f.publishWelcomeSent(ctx, member, msg)
	return nil
}

func (f *Feature) publishWelcomeSent(ctx context.Context, member entities.JoinedMember, msg *entities.WelcomeMessage) {
	err := f.withUnitOfWork(ctx, member.GuildID, func(uow application.UnitOfWork) error {
		return uow.EventBus().Publish(events.WelcomeSentEvent{
			GuildID:   member.GuildID,
			ChannelID: msg.ChannelID,
			UserID:    member.UserID,
			HasText:   msg.HasText,
			HasImage:  len(msg.Image) > 0,
			ImageKey:  msg.ImageKey,
			SentAt:    time.Now().UTC(),
		})
	})
	if err != nil {
		log.WithError(err).WithField("guild_id", member.GuildID).Warn("Failed to publish welcome sent event")
	}
}

func (f *Feature) deliver(msg *entities.WelcomeMessage) error {
	if f.sender == nil {
		return errors.New("no Discord session to deliver through")
	}

	send := &discordgo.MessageSend{}
	if msg.HasText {
		send.Content = msg.Text
	}
	if len(msg.Image) > 0 {
		send.Files = []*discordgo.File{{
			Name:        msg.Filename,
			ContentType: "image/png",
			Reader:      bytes.NewReader(msg.Image),
		}}
	}

	if _, err := f.sender.ChannelMessageSendComplex(common.FormatID(msg.ChannelID), send); err != nil {
		return fmt.Errorf("failed to send welcome to channel %d: %w", msg.ChannelID, err)
	}
	return nil
}

func welcomeType(msg *entities.WelcomeMessage) string {
	hasImage := len(msg.Image) > 0
	switch {
	case msg.HasText && hasImage:
		return observability.WelcomeTypeTextImage
	case hasImage:
		return observability.WelcomeTypeImage
	default:
		return observability.WelcomeTypeText
	}
}
