package repository

import (
	"context"
	"testing"

	"welcomer/domain/entities"
	"welcomer/events"
	"welcomer/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	pending   []events.Event
	flushed   []events.Event
	discarded int
}

func (p *recordingPublisher) Publish(event events.Event) error {
	p.pending = append(p.pending, event)
	return nil
}

func (p *recordingPublisher) Flush(context.Context) error {
	p.flushed = append(p.flushed, p.pending...)
	p.pending = nil
	return nil
}

func (p *recordingPublisher) Discard() {
	p.discarded += len(p.pending)
	p.pending = nil
}

func TestUnitOfWork_CommitAndRollback(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	factory := testutil.NewFactory(5)
	guildID := factory.GuildID()

	t.Run("rollback persists nothing and discards events", func(t *testing.T) {
		publisher := &recordingPublisher{}
		uow := CreateTestUnitOfWork(testDB.DB, guildID, publisher)
		require.NoError(t, uow.Begin(ctx))

		require.NoError(t, uow.ImagePlacementRepository().Upsert(ctx, &entities.Placement{ImageKey: "party.png", X: 100, Y: 50, Radius: 80}))
		require.NoError(t, uow.EventBus().Publish(events.ImageAddedEvent{GuildID: guildID, ImageKey: "party.png"}))
		require.NoError(t, uow.Rollback())

		assert.Equal(t, 1, publisher.discarded)
		assert.Empty(t, publisher.flushed)

		got, err := NewImagePlacementRepositoryScoped(testDB.DB.Pool, guildID).GetByKey(ctx, "party.png")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("commit persists and flushes events", func(t *testing.T) {
		publisher := &recordingPublisher{}
		uow := CreateTestUnitOfWork(testDB.DB, guildID, publisher)
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		settings, err := uow.WelcomeSettingsRepository().GetOrCreateWelcomeSettings(ctx, guildID)
		require.NoError(t, err)
		settings.SendText = true
		require.NoError(t, uow.WelcomeSettingsRepository().UpdateWelcomeSettings(ctx, settings))
		require.NoError(t, uow.EventBus().Publish(events.SettingsUpdatedEvent{GuildID: guildID, Field: "send_text"}))
		require.NoError(t, uow.Commit())

		assert.Len(t, publisher.flushed, 1)

		reloaded, err := NewWelcomeSettingsRepository(testDB.DB).GetOrCreateWelcomeSettings(ctx, guildID)
		require.NoError(t, err)
		assert.True(t, reloaded.SendText)
	})

	t.Run("double begin fails", func(t *testing.T) {
		uow := CreateTestUnitOfWork(testDB.DB, guildID, &recordingPublisher{})
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		assert.Error(t, uow.Begin(ctx))
	})

	t.Run("repositories require begin", func(t *testing.T) {
		uow := CreateTestUnitOfWork(testDB.DB, guildID, &recordingPublisher{})
		assert.Panics(t, func() { uow.WelcomeSettingsRepository() })
		assert.Error(t, uow.Commit())
		assert.NoError(t, uow.Rollback())
	})
}
