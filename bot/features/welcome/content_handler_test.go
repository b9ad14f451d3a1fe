package welcome

import (
	"context"
	"errors"
	"testing"
	"time"

	"welcomer/domain/entities"
	"welcomer/domain/testhelpers"
	"welcomer/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type provisionFixture struct {
	uow        *fakeUnitOfWork
	store      *testhelpers.MockImageStore
	normalizer *testhelpers.MockTemplateNormalizer
	staged     *testhelpers.MockStagedImage
	feature    *Feature
}

func newProvisionFixture() *provisionFixture {
	fx := &provisionFixture{
		uow: &fakeUnitOfWork{
			settings:   new(testhelpers.MockWelcomeSettingsRepository),
			placements: new(testhelpers.MockImagePlacementRepository),
		},
		store:      new(testhelpers.MockImageStore),
		normalizer: new(testhelpers.MockTemplateNormalizer),
		staged:     new(testhelpers.MockStagedImage),
	}
	fx.feature = NewFeature(nil, Dependencies{
		UoWFactory:    &fakeUnitOfWorkFactory{uow: fx.uow},
		ImageStore:    fx.store,
		Normalizer:    fx.normalizer,
		PromptTimeout: time.Second,
	})

	fx.normalizer.On("Normalize", []byte("upload")).Return([]byte("normalized"), nil)
	fx.store.On("Stage", mock.Anything, joinGuildID, entities.DefaultTemplateKey, []byte("normalized")).Return(fx.staged, nil)
	fx.uow.placements.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	return fx
}

var defaultPlacement = entities.Placement{ImageKey: entities.DefaultTemplateKey, X: 10, Y: 20, Radius: 200}

func TestProvisionImage_PromotesAfterCommit(t *testing.T) {
	fx := newProvisionFixture()
	fx.staged.On("Promote").Run(func(mock.Arguments) {
		fx.uow.order = append(fx.uow.order, "promote")
	}).Return(nil)

	require.NoError(t, fx.feature.provisionImage(context.Background(), joinGuildID, defaultPlacement, []byte("upload")))

	assert.Equal(t, []string{"commit", "promote"}, fx.uow.order)
	fx.staged.AssertNotCalled(t, "Discard")
	require.Len(t, fx.uow.published, 1)
	_, ok := fx.uow.published[0].(events.ImageAddedEvent)
	assert.True(t, ok)
}

func TestProvisionImage_CommitFailureDiscardsFile(t *testing.T) {
	fx := newProvisionFixture()
	fx.uow.commitErr = errors.New("could not serialize access")
	fx.staged.On("Discard").Return()

	err := fx.feature.provisionImage(context.Background(), joinGuildID, defaultPlacement, []byte("upload"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not serialize access")

	fx.staged.AssertCalled(t, "Discard")
	fx.staged.AssertNotCalled(t, "Promote")
	assert.Empty(t, fx.uow.published)
}

func TestProvisionImage_PromoteFailureIsReported(t *testing.T) {
	fx := newProvisionFixture()
	fx.staged.On("Promote").Return(errors.New("disk full"))

	err := fx.feature.provisionImage(context.Background(), joinGuildID, defaultPlacement, []byte("upload"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	fx.uow.placements.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProvisionImage_PoolPromoteFailureDropsPlacement(t *testing.T) {
	fx := newProvisionFixture()
	poolStaged := new(testhelpers.MockStagedImage)
	poolStaged.On("Promote").Return(entities.ErrImageExists)
	fx.store.On("Exists", mock.Anything, joinGuildID, "party.png").Return(false, nil)
	fx.store.On("Stage", mock.Anything, joinGuildID, "party.png", []byte("normalized")).Return(poolStaged, nil)
	fx.uow.placements.On("Create", mock.Anything, mock.Anything).Return(true, nil)
	fx.uow.placements.On("Delete", mock.Anything, "party.png").Return(true, nil)

	err := fx.feature.provisionImage(context.Background(), joinGuildID,
		entities.Placement{ImageKey: "party.png", X: 1, Y: 2, Radius: 3}, []byte("upload"))
	assert.ErrorIs(t, err, entities.ErrImageExists)
	fx.uow.placements.AssertCalled(t, "Delete", mock.Anything, "party.png")
	assert.Equal(t, 2, fx.uow.commits)
}

func TestProvisionImage_TakenPoolNameStagesNothing(t *testing.T) {
	fx := newProvisionFixture()
	fx.store.On("Exists", mock.Anything, joinGuildID, "party.png").Return(false, nil)
	fx.uow.placements.On("Create", mock.Anything, mock.Anything).Return(false, nil)

	err := fx.feature.provisionImage(context.Background(), joinGuildID,
		entities.Placement{ImageKey: "party.png", X: 1, Y: 2, Radius: 3}, []byte("upload"))
	assert.ErrorIs(t, err, entities.ErrImageExists)
	fx.store.AssertNotCalled(t, "Stage", mock.Anything, mock.Anything, "party.png", mock.Anything)
	assert.Zero(t, fx.uow.commits)
}
