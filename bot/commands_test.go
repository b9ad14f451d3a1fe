package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optionNames(options []*discordgo.ApplicationCommandOption) []string {
	names := make([]string, 0, len(options))
	for _, opt := range options {
		names = append(names, opt.Name)
	}
	return names
}

func TestApplicationCommands(t *testing.T) {
	commands := applicationCommands()
	require.Len(t, commands, 2)

	config := commands[0]
	assert.Equal(t, configCommandName, config.Name)
	assert.Equal(t, []string{
		"set-channel", "status", "toggle-message", "toggle-image",
		"toggle-random-message", "toggle-random-image", "current-greeting",
	}, optionNames(config.Options))

	content := commands[1]
	assert.Equal(t, contentCommandName, content.Name)
	assert.Equal(t, []string{"set", "add", "remove", "view", "set-mandatory"}, optionNames(content.Options))

	for _, cmd := range commands {
		require.NotNil(t, cmd.DefaultMemberPermissions)
		assert.Equal(t, int64(discordgo.PermissionManageGuild), *cmd.DefaultMemberPermissions)
		assert.LessOrEqual(t, len(cmd.Description), 100)
		for _, opt := range cmd.Options {
			assert.LessOrEqual(t, len(opt.Description), 100, opt.Name)
			for _, sub := range opt.Options {
				assert.LessOrEqual(t, len(sub.Description), 100, sub.Name)
			}
		}
	}
}

func TestApplicationCommands_AddImageTakesNameThenAttachment(t *testing.T) {
	content := applicationCommands()[1]
	add := content.Options[1]
	require.Equal(t, "add", add.Name)

	image := add.Options[1]
	require.Equal(t, "image", image.Name)
	assert.Equal(t, []string{"name", "attachment"}, optionNames(image.Options))
	assert.Equal(t, discordgo.ApplicationCommandOptionAttachment, image.Options[1].Type)
}
