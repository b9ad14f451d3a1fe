package repository

import (
	"context"
	"testing"

	"welcomer/domain/entities"
	"welcomer/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelcomeSettingsRepository_GetOrCreate(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewWelcomeSettingsRepository(testDB.DB)
	ctx := context.Background()
	factory := testutil.NewFactory(1)

	t.Run("creates defaults for a new guild", func(t *testing.T) {
		guildID := factory.GuildID()

		settings, err := repo.GetOrCreateWelcomeSettings(ctx, guildID)
		require.NoError(t, err)
		assert.Equal(t, guildID, settings.GuildID)
		assert.Nil(t, settings.ChannelID)
		assert.False(t, settings.SendText)
		assert.False(t, settings.SendImage)
		assert.False(t, settings.RandomizeText)
		assert.False(t, settings.RandomizeImage)
		assert.Equal(t, entities.DefaultFixedMessage, settings.FixedMessage)
		assert.Equal(t, entities.DefaultMandatorySuffix, settings.MandatorySuffix)
		assert.Empty(t, settings.MessagePool)
		assert.NotNil(t, settings.MessagePool)
		assert.False(t, settings.CreatedAt.IsZero())
	})

	t.Run("returns the existing row", func(t *testing.T) {
		guildID := factory.GuildID()

		first, err := repo.GetOrCreateWelcomeSettings(ctx, guildID)
		require.NoError(t, err)
		second, err := repo.GetOrCreateWelcomeSettings(ctx, guildID)
		require.NoError(t, err)
		assert.Equal(t, first.CreatedAt, second.CreatedAt)
	})
}

func TestWelcomeSettingsRepository_Update(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewWelcomeSettingsRepository(testDB.DB)
	ctx := context.Background()
	factory := testutil.NewFactory(2)
	guildID := factory.GuildID()

	settings, err := repo.GetOrCreateWelcomeSettings(ctx, guildID)
	require.NoError(t, err)

	want := factory.CreateTestWelcomeSettings(guildID, 3)
	want.RandomizeText = true
	want.SendImage = true
	want.MandatorySuffix = "Read the rules"
	want.CreatedAt = settings.CreatedAt
	require.NoError(t, repo.UpdateWelcomeSettings(ctx, want))

	got, err := repo.GetOrCreateWelcomeSettings(ctx, guildID)
	require.NoError(t, err)
	require.NotNil(t, got.ChannelID)
	assert.Equal(t, *want.ChannelID, *got.ChannelID)
	assert.Equal(t, want.MessagePool, got.MessagePool)
	assert.True(t, got.SendText)
	assert.True(t, got.SendImage)
	assert.True(t, got.RandomizeText)
	assert.False(t, got.RandomizeImage)
	assert.Equal(t, "Read the rules", got.MandatorySuffix)

	t.Run("clearing the channel stores NULL", func(t *testing.T) {
		got.ChannelID = nil
		require.NoError(t, repo.UpdateWelcomeSettings(ctx, got))

		reloaded, err := repo.GetOrCreateWelcomeSettings(ctx, guildID)
		require.NoError(t, err)
		assert.Nil(t, reloaded.ChannelID)
	})

	t.Run("unknown guild", func(t *testing.T) {
		err := repo.UpdateWelcomeSettings(ctx, entities.NewWelcomeSettings(factory.GuildID()))
		assert.Error(t, err)
	})
}
