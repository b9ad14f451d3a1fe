package common

import (
	"bytes"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Respond sends a plain text interaction response
func Respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Errorf("Failed to respond to interaction: %v", err)
	}
}

// DeferResponse sends a deferred response to give more time for processing
func DeferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: flags,
		},
	})
}

// FollowUp sends a text follow-up, optionally with a PNG attachment
func FollowUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string, file *discordgo.File, ephemeral bool) {
	params := &discordgo.WebhookParams{Content: content}
	if ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	if file != nil {
		params.Files = []*discordgo.File{file}
	}
	if _, err := s.FollowupMessageCreate(i.Interaction, true, params); err != nil {
		log.Errorf("Failed to send follow-up message: %v", err)
	}
}

// PNGFile wraps PNG bytes as a Discord attachment
func PNGFile(name string, data []byte) *discordgo.File {
	return &discordgo.File{
		Name:        name,
		ContentType: "image/png",
		Reader:      bytes.NewReader(data),
	}
}
