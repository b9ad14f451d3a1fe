package repository

import (
	"context"
	"testing"

	"welcomer/domain/entities"
	"welcomer/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImagePlacementRepository_RoundTrip(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	factory := testutil.NewFactory(3)
	guildID := factory.GuildID()
	repo := NewImagePlacementRepositoryScoped(testDB.DB.Pool, guildID)

	t.Run("missing placement returns nil", func(t *testing.T) {
		p, err := repo.GetByKey(ctx, "ghost.png")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("stores exact values", func(t *testing.T) {
		placement := &entities.Placement{ImageKey: "party.png", X: 100, Y: 50, Radius: 80}
		require.NoError(t, repo.Upsert(ctx, placement))
		assert.Equal(t, guildID, placement.GuildID)

		got, err := repo.GetByKey(ctx, "party.png")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 100, got.X)
		assert.Equal(t, 50, got.Y)
		assert.Equal(t, 80, got.Radius)
	})

	t.Run("upsert replaces values", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, &entities.Placement{ImageKey: "party.png", X: 1, Y: 2, Radius: 3}))

		got, err := repo.GetByKey(ctx, "party.png")
		require.NoError(t, err)
		assert.Equal(t, [3]int{1, 2, 3}, [3]int{got.X, got.Y, got.Radius})
	})

	t.Run("create keeps an existing placement", func(t *testing.T) {
		created, err := repo.Create(ctx, &entities.Placement{ImageKey: "fresh.png", X: 5, Y: 6, Radius: 7})
		require.NoError(t, err)
		assert.True(t, created)

		created, err = repo.Create(ctx, &entities.Placement{ImageKey: "fresh.png", X: 9, Y: 9, Radius: 9})
		require.NoError(t, err)
		assert.False(t, created)

		got, err := repo.GetByKey(ctx, "fresh.png")
		require.NoError(t, err)
		assert.Equal(t, [3]int{5, 6, 7}, [3]int{got.X, got.Y, got.Radius})
	})

	t.Run("negative values are rejected by the schema", func(t *testing.T) {
		err := repo.Upsert(ctx, &entities.Placement{ImageKey: "bad.png", X: -1, Y: 0, Radius: 0})
		assert.Error(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, factory.CreateTestPlacement(guildID, "beach.png")))

		deleted, err := repo.Delete(ctx, "beach.png")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, "beach.png")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestImagePlacementRepository_GuildScoping(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	factory := testutil.NewFactory(4)
	guildA, guildB := factory.GuildID(), factory.GuildID()
	repoA := NewImagePlacementRepositoryScoped(testDB.DB.Pool, guildA)
	repoB := NewImagePlacementRepositoryScoped(testDB.DB.Pool, guildB)

	require.NoError(t, repoA.Upsert(ctx, factory.CreateTestPlacement(guildA, entities.DefaultTemplateKey)))
	require.NoError(t, repoA.Upsert(ctx, factory.CreateTestPlacement(guildA, "a.png")))
	require.NoError(t, repoB.Upsert(ctx, factory.CreateTestPlacement(guildB, entities.DefaultTemplateKey)))

	listA, err := repoA.List(ctx)
	require.NoError(t, err)
	require.Len(t, listA, 2)
	assert.Equal(t, "a.png", listA[0].ImageKey)
	assert.Equal(t, entities.DefaultTemplateKey, listA[1].ImageKey)

	listB, err := repoB.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listB, 1)

	got, err := repoB.GetByKey(ctx, "a.png")
	require.NoError(t, err)
	assert.Nil(t, got, "guild B must not see guild A's placements")
}
