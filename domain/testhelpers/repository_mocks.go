package testhelpers

import (
	"context"

	"welcomer/domain/entities"
	"welcomer/domain/interfaces"
	"welcomer/events"

	"github.com/stretchr/testify/mock"
)

// MockWelcomeSettingsRepository is a mock implementation of WelcomeSettingsRepository
type MockWelcomeSettingsRepository struct {
	mock.Mock
}

func (m *MockWelcomeSettingsRepository) GetOrCreateWelcomeSettings(ctx context.Context, guildID int64) (*entities.WelcomeSettings, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WelcomeSettings), args.Error(1)
}

func (m *MockWelcomeSettingsRepository) UpdateWelcomeSettings(ctx context.Context, settings *entities.WelcomeSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockImagePlacementRepository is a mock implementation of ImagePlacementRepository
type MockImagePlacementRepository struct {
	mock.Mock
}

func (m *MockImagePlacementRepository) GetByKey(ctx context.Context, imageKey string) (*entities.Placement, error) {
	args := m.Called(ctx, imageKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Placement), args.Error(1)
}

func (m *MockImagePlacementRepository) Upsert(ctx context.Context, placement *entities.Placement) error {
	args := m.Called(ctx, placement)
	return args.Error(0)
}

func (m *MockImagePlacementRepository) Create(ctx context.Context, placement *entities.Placement) (bool, error) {
	args := m.Called(ctx, placement)
	return args.Bool(0), args.Error(1)
}

func (m *MockImagePlacementRepository) Delete(ctx context.Context, imageKey string) (bool, error) {
	args := m.Called(ctx, imageKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockImagePlacementRepository) List(ctx context.Context) ([]*entities.Placement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Placement), args.Error(1)
}

// MockImageStore is a mock implementation of ImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Exists(ctx context.Context, guildID int64, key string) (bool, error) {
	args := m.Called(ctx, guildID, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockImageStore) Read(ctx context.Context, guildID int64, key string) ([]byte, error) {
	args := m.Called(ctx, guildID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockImageStore) Stage(ctx context.Context, guildID int64, key string, data []byte) (interfaces.StagedImage, error) {
	args := m.Called(ctx, guildID, key, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.StagedImage), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, guildID int64, key string) error {
	args := m.Called(ctx, guildID, key)
	return args.Error(0)
}

func (m *MockImageStore) ListPool(ctx context.Context, guildID int64) ([]string, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockStagedImage is a mock implementation of StagedImage
type MockStagedImage struct {
	mock.Mock
}

func (m *MockStagedImage) Promote() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockStagedImage) Discard() {
	m.Called()
}

// MockAvatarFetcher is a mock implementation of AvatarFetcher
type MockAvatarFetcher struct {
	mock.Mock
}

func (m *MockAvatarFetcher) FetchAvatar(ctx context.Context, member entities.JoinedMember) ([]byte, error) {
	args := m.Called(ctx, member)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockImageCompositor is a mock implementation of ImageCompositor
type MockImageCompositor struct {
	mock.Mock
}

func (m *MockImageCompositor) Render(template, avatar []byte, placement entities.Placement) ([]byte, error) {
	args := m.Called(template, avatar, placement)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockTemplateNormalizer is a mock implementation of TemplateNormalizer
type MockTemplateNormalizer struct {
	mock.Mock
}

func (m *MockTemplateNormalizer) Normalize(data []byte) ([]byte, error) {
	args := m.Called(data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
