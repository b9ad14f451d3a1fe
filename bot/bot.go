package bot

import (
	"fmt"

	"welcomer/bot/features/welcome"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string // Registers commands to this guild only when set
}

// Bot manages the Discord session and the welcome feature
type Bot struct {
	config   Config
	session  *discordgo.Session
	welcome  *welcome.Feature
	commands []*discordgo.ApplicationCommand
}

// New creates a new bot instance, opens the gateway and registers commands
func New(config Config, deps welcome.Dependencies) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	// Member joins and prompt replies need the privileged members and message content intents.
	dg.Identify.Intents = discordgo.IntentsAll

	bot := &Bot{
		config:  config,
		session: dg,
		welcome: welcome.NewFeature(dg, deps),
	}

	dg.AddHandler(bot.handleReady)
	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleGuildMemberAdd)
	dg.AddHandler(bot.handleMessageCreate)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	return bot, nil
}

// Close cancels running prompts and closes the gateway connection
func (b *Bot) Close() error {
	b.welcome.Close()
	return b.session.Close()
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	log.WithFields(log.Fields{
		"user":   r.User.Username,
		"guilds": len(r.Guilds),
	}).Info("Connected to Discord")
}

// handleCommands routes slash commands to the welcome feature
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.GuildID == "" {
		return
	}

	switch i.ApplicationCommandData().Name {
	case configCommandName:
		b.welcome.HandleConfigCommand(s, i)
	case contentCommandName:
		b.welcome.HandleContentCommand(s, i)
	}
}

// handleGuildMemberAdd greets new members
func (b *Bot) handleGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	b.welcome.HandleMemberJoin(s, m)
}

// handleMessageCreate forwards replies to running placement prompts
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || (s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	if m.GuildID == "" {
		return
	}

	if b.welcome.HandlePromptReply(s, m) {
		log.WithFields(log.Fields{
			"guild_id":   m.GuildID,
			"channel_id": m.ChannelID,
			"user_id":    m.Author.ID,
		}).Debug("Delivered prompt reply")
	}
}
