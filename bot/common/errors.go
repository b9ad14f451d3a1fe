package common

import (
	"errors"
	"fmt"
	"strings"

	"welcomer/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const genericErrorMessage = "Something went wrong. Please try again later."

// BotError represents a structured error with user-facing and internal messages
type BotError struct {
	UserMessage string      // Message shown to Discord user
	LogMessage  string      // Internal message for logging
	Ephemeral   bool        // Whether the error message should be ephemeral
	Err         error       // Underlying error
	Context     interface{} // Additional context for logging
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

// Unwrap returns the underlying error
func (e *BotError) Unwrap() error {
	return e.Err
}

// IsUserError reports whether the error was caused by the user's input
func (e *BotError) IsUserError() bool {
	return e.UserMessage != genericErrorMessage
}

// NewUserError creates an error for user-caused issues (bad input, missing content)
func NewUserError(userMessage string, logMessage string) *BotError {
	return &BotError{
		UserMessage: userMessage,
		LogMessage:  logMessage,
		Ephemeral:   true,
	}
}

// NewSystemError creates an error for system issues (database, filesystem, Discord API)
func NewSystemError(err error, logMessage string) *BotError {
	return &BotError{
		UserMessage: genericErrorMessage,
		LogMessage:  logMessage,
		Ephemeral:   true,
		Err:         err,
	}
}

// userMessages maps domain errors to what the admin is told
var userMessages = []struct {
	target  error
	message string
}{
	{entities.ErrTemplateMissing, "Set a default welcome image first with `/welcome-content set image`."},
	{entities.ErrEmptyPool, "The pool is empty. Add content with `/welcome-content add` first."},
	{entities.ErrImageExists, "An image with that name already exists. Remove it first or pick another name."},
	{entities.ErrImageNotFound, "No image with that name exists."},
	{entities.ErrDecode, "That file could not be read as an image."},
	{entities.ErrPromptTimeout, "Timed out waiting for a reply. Nothing was changed, please try again."},
	{entities.ErrPromptCancelled, "Cancelled. Nothing was changed."},
	{entities.ErrMissingPlacement, "That image has no avatar placement configured."},
}

// FromDomainError converts a service error into a BotError.
// Known domain errors become user errors; anything else is a system error.
func FromDomainError(err error, logMessage string) *BotError {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr
	}
	for _, m := range userMessages {
		if errors.Is(err, m.target) {
			userErr := NewUserError(m.message, logMessage)
			userErr.Err = err
			return userErr
		}
	}
	if errors.Is(err, entities.ErrValidation) {
		userErr := NewUserError(validationMessage(err), logMessage)
		userErr.Err = err
		return userErr
	}
	return NewSystemError(err, logMessage)
}

// validationMessage shows the validation detail without the sentinel prefix
func validationMessage(err error) string {
	prefix := entities.ErrValidation.Error() + ": "
	if _, detail, ok := strings.Cut(err.Error(), prefix); ok && detail != "" {
		return "Invalid input: " + detail
	}
	return "Invalid input."
}

// RespondWithError sends an error message as an interaction response
func RespondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Error sending error response: %v", err)
	}
}

// FollowUpWithError sends an error message as a follow-up to a deferred interaction
func FollowUpWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: fmt.Sprintf("❌ %s", message),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Errorf("Error sending follow-up error message: %v", err)
	}
}

// HandleError processes an error from a command handler and responds appropriately
func HandleError(s *discordgo.Session, i *discordgo.InteractionCreate, err error, deferred bool) {
	botErr := FromDomainError(err, "Command failed")

	fields := log.Fields{
		"guild_id":     i.GuildID,
		"command":      i.ApplicationCommandData().Name,
		"error":        botErr.Error(),
		"user_message": botErr.UserMessage,
		"context":      botErr.Context,
	}
	if i.Member != nil && i.Member.User != nil {
		fields["user_id"] = i.Member.User.ID
	}
	if botErr.IsUserError() {
		log.WithFields(fields).Info(botErr.LogMessage)
	} else {
		log.WithFields(fields).Error(botErr.LogMessage)
	}

	if deferred {
		FollowUpWithError(s, i, botErr.UserMessage)
	} else {
		RespondWithError(s, i, botErr.UserMessage)
	}
}
