package entities

import (
	"fmt"
	"strings"
	"time"
)

const (
	// UserPlaceholder is replaced with the joining member's mention
	UserPlaceholder = "{USER}"

	DefaultFixedMessage    = "Welcome, " + UserPlaceholder
	DefaultMandatorySuffix = "default mandatory message snippet"
)

// WelcomeSettings represents the per-guild welcome configuration
type WelcomeSettings struct {
	GuildID         int64     `db:"guild_id"`
	ChannelID       *int64    `db:"channel_id"` // Nullable - channel welcomes are posted to
	SendText        bool      `db:"send_text"`
	SendImage       bool      `db:"send_image"`
	RandomizeText   bool      `db:"randomize_text"`
	RandomizeImage  bool      `db:"randomize_image"`
	FixedMessage    string    `db:"fixed_message"`
	MandatorySuffix string    `db:"mandatory_suffix"`
	MessagePool     []string  `db:"message_pool"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// NewWelcomeSettings returns the settings a guild starts with
func NewWelcomeSettings(guildID int64) *WelcomeSettings {
	return &WelcomeSettings{
		GuildID:         guildID,
		FixedMessage:    DefaultFixedMessage,
		MandatorySuffix: DefaultMandatorySuffix,
		MessagePool:     []string{},
	}
}

// HasChannel checks if a welcome channel is configured
func (ws *WelcomeSettings) HasChannel() bool {
	return ws.ChannelID != nil && *ws.ChannelID > 0
}

// ShouldSendText reports whether a text greeting goes out on join
func (ws *WelcomeSettings) ShouldSendText() bool {
	return ws.SendText || ws.RandomizeText
}

// ShouldSendImage reports whether an image greeting goes out on join
func (ws *WelcomeSettings) ShouldSendImage() bool {
	return ws.SendImage || ws.RandomizeImage
}

// SetChannel sets the welcome channel ID
func (ws *WelcomeSettings) SetChannel(channelID *int64) {
	ws.ChannelID = channelID
}

// AddMessage appends a message to the random pool and returns its 1-based position
func (ws *WelcomeSettings) AddMessage(message string) (int, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return 0, fmt.Errorf("%w: message cannot be empty", ErrValidation)
	}
	ws.MessagePool = append(ws.MessagePool, message)
	return len(ws.MessagePool), nil
}

// RemoveMessage removes the message at the given 1-based position.
// The message randomiser is switched off when the pool becomes empty.
func (ws *WelcomeSettings) RemoveMessage(position int) (string, error) {
	if position < 1 || position > len(ws.MessagePool) {
		return "", fmt.Errorf("%w: position %d is out of range (pool has %d messages)", ErrValidation, position, len(ws.MessagePool))
	}

	idx := position - 1
	removed := ws.MessagePool[idx]
	pool := make([]string, 0, len(ws.MessagePool)-1)
	pool = append(pool, ws.MessagePool[:idx]...)
	pool = append(pool, ws.MessagePool[idx+1:]...)
	ws.MessagePool = pool

	if len(ws.MessagePool) == 0 {
		ws.RandomizeText = false
	}
	return removed, nil
}
