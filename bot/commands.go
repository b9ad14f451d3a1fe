package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const (
	configCommandName  = "welcome-config"
	contentCommandName = "welcome-content"
)

// Both commands require Manage Server by default; handlers check again.
var manageGuildPermission int64 = discordgo.PermissionManageGuild

func textOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "text",
		Description: description,
		Required:    required,
		MaxLength:   1500,
	}
}

func attachmentOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionAttachment,
		Name:        "attachment",
		Description: "The image to use (PNG, JPEG, GIF or WebP)",
		Required:    true,
	}
}

func imageNameOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "name",
		Description: description,
		Required:    true,
		MaxLength:   64,
	}
}

func subCommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

func subCommandGroup(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

// applicationCommands returns the slash commands the bot registers
func applicationCommands() []*discordgo.ApplicationCommand {
	dmPermission := false
	minPosition := float64(1)

	return []*discordgo.ApplicationCommand{
		{
			Name:                     configCommandName,
			Description:              "Configure how new members are welcomed",
			DefaultMemberPermissions: &manageGuildPermission,
			DMPermission:             &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{
				subCommand("set-channel", "Post welcomes in this channel"),
				subCommand("status", "Show the welcome channel and toggles"),
				subCommand("toggle-message", "Turn the fixed welcome message on or off"),
				subCommand("toggle-image", "Turn the default welcome image on or off"),
				subCommand("toggle-random-message", "Turn random messages from the pool on or off"),
				subCommand("toggle-random-image", "Turn random images from the pool on or off"),
				subCommand("current-greeting", "Show the message and image new members currently get"),
			},
		},
		{
			Name:                     contentCommandName,
			Description:              "Manage welcome messages and images",
			DefaultMemberPermissions: &manageGuildPermission,
			DMPermission:             &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{
				subCommandGroup("set", "Set the fixed welcome content",
					subCommand("message", "Set the fixed welcome message; {USER} becomes the new member's mention",
						textOption("The welcome message", true)),
					subCommand("image", "Set the default welcome image and where the avatar goes",
						attachmentOption()),
				),
				subCommandGroup("add", "Add content to the random pools",
					subCommand("message", "Add a message to the random pool",
						textOption("The welcome message; {USER} becomes the new member's mention", true)),
					subCommand("image", "Add an image to the random pool",
						imageNameOption("Name for the image (letters, digits, - and _)"),
						attachmentOption()),
				),
				subCommandGroup("remove", "Remove content from the random pools",
					subCommand("message", "Remove a message from the random pool",
						&discordgo.ApplicationCommandOption{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "position",
							Description: "Position shown by /welcome-content view messages",
							Required:    true,
							MinValue:    &minPosition,
						}),
					subCommand("image", "Remove an image from the random pool",
						imageNameOption("Name shown by /welcome-content view images")),
				),
				subCommandGroup("view", "Show welcome content",
					subCommand("template", "Show the template guide with coordinates"),
					subCommand("images", "List the random image pool"),
					subCommand("messages", "List the random message pool"),
				),
				subCommand("set-mandatory", "Set the text appended to every welcome; leave empty to clear",
					textOption("Text appended to every welcome message", false)),
			},
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	for _, cmd := range applicationCommands() {
		created, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
		b.commands = append(b.commands, created)
	}
	return nil
}
