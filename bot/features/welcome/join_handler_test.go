package welcome

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"welcomer/application"
	"welcomer/domain/entities"
	"welcomer/domain/interfaces"
	"welcomer/domain/testhelpers"
	"welcomer/events"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const joinGuildID = int64(4242)

type fakeUnitOfWork struct {
	settings   *testhelpers.MockWelcomeSettingsRepository
	placements *testhelpers.MockImagePlacementRepository
	queued     []events.Event
	published  []events.Event
	commits    int
	commitErr  error
	open       bool
	order      []string
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	u.open = true
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	if !u.open {
		return nil
	}
	u.open = false
	if u.commitErr != nil {
		u.queued = nil
		return u.commitErr
	}
	u.commits++
	u.order = append(u.order, "commit")
	u.published = append(u.published, u.queued...)
	u.queued = nil
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	u.open = false
	u.queued = nil
	return nil
}

func (u *fakeUnitOfWork) WelcomeSettingsRepository() interfaces.WelcomeSettingsRepository {
	return u.settings
}

func (u *fakeUnitOfWork) ImagePlacementRepository() interfaces.ImagePlacementRepository {
	return u.placements
}

func (u *fakeUnitOfWork) EventBus() interfaces.EventPublisher { return u }

func (u *fakeUnitOfWork) Publish(event events.Event) error {
	u.queued = append(u.queued, event)
	return nil
}

type fakeUnitOfWorkFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeUnitOfWorkFactory) CreateForGuild(guildID int64) application.UnitOfWork {
	return f.uow
}

type sentMessage struct {
	channelID string
	content   string
	files     map[string][]byte
}

type fakeSender struct {
	sent []sentMessage
	err  error
	// inTransaction reports whether a unit of work was open during a send
	inTransaction func() bool
	sentInTx      bool
}

func (s *fakeSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if s.inTransaction != nil && s.inTransaction() {
		s.sentInTx = true
	}
	if s.err != nil {
		return nil, s.err
	}
	msg := sentMessage{channelID: channelID, content: data.Content, files: map[string][]byte{}}
	for _, f := range data.Files {
		b, _ := io.ReadAll(f.Reader)
		msg.files[f.Name] = b
	}
	s.sent = append(s.sent, msg)
	return &discordgo.Message{ID: "1"}, nil
}

type joinFixture struct {
	uow        *fakeUnitOfWork
	store      *testhelpers.MockImageStore
	avatars    *testhelpers.MockAvatarFetcher
	compositor *testhelpers.MockImageCompositor
	sender     *fakeSender
	feature    *Feature
}

func newJoinFixture() *joinFixture {
	fx := &joinFixture{
		uow: &fakeUnitOfWork{
			settings:   new(testhelpers.MockWelcomeSettingsRepository),
			placements: new(testhelpers.MockImagePlacementRepository),
		},
		store:      new(testhelpers.MockImageStore),
		avatars:    new(testhelpers.MockAvatarFetcher),
		compositor: new(testhelpers.MockImageCompositor),
		sender:     &fakeSender{},
	}
	fx.feature = NewFeature(nil, Dependencies{
		UoWFactory:    &fakeUnitOfWorkFactory{uow: fx.uow},
		ImageStore:    fx.store,
		Avatars:       fx.avatars,
		Compositor:    fx.compositor,
		PromptTimeout: time.Second,
	})
	fx.sender.inTransaction = func() bool { return fx.uow.open }
	fx.feature.sender = fx.sender
	return fx
}

func welcomeSettings(configure func(*entities.WelcomeSettings)) *entities.WelcomeSettings {
	settings := entities.NewWelcomeSettings(joinGuildID)
	channelID := int64(777)
	settings.ChannelID = &channelID
	settings.MandatorySuffix = "Read the rules"
	configure(settings)
	return settings
}

var bob = entities.JoinedMember{GuildID: joinGuildID, UserID: 99, Username: "Bob", AvatarHash: "hash"}

func TestWelcomeMember_TextAndImage(t *testing.T) {
	fx := newJoinFixture()
	settings := welcomeSettings(func(s *entities.WelcomeSettings) {
		s.SendText = true
		s.SendImage = true
	})
	placement := &entities.Placement{GuildID: joinGuildID, ImageKey: entities.DefaultTemplateKey, X: 100, Y: 200, Radius: 200}

	fx.uow.settings.On("GetOrCreateWelcomeSettings", mock.Anything, joinGuildID).Return(settings, nil)
	fx.uow.placements.On("GetByKey", mock.Anything, entities.DefaultTemplateKey).Return(placement, nil)
	fx.store.On("Read", mock.Anything, joinGuildID, entities.DefaultTemplateKey).Return([]byte("template"), nil)
	fx.avatars.On("FetchAvatar", mock.Anything, bob).Run(func(mock.Arguments) {
		assert.False(t, fx.uow.open, "avatar fetched while a transaction is open")
	}).Return([]byte("avatar"), nil)
	fx.compositor.On("Render", []byte("template"), []byte("avatar"), *placement).Return([]byte("png"), nil)

	require.NoError(t, fx.feature.welcomeMember(context.Background(), bob))
	assert.False(t, fx.sender.sentInTx, "greeting sent while a transaction is open")

	require.Len(t, fx.sender.sent, 1)
	sent := fx.sender.sent[0]
	assert.Equal(t, "777", sent.channelID)
	assert.Equal(t, "Welcome, <@99>. Read the rules", sent.content)
	assert.Equal(t, []byte("png"), sent.files["output.png"])

	assert.Equal(t, 2, fx.uow.commits, "plan and sent event use separate units of work")
	require.Len(t, fx.uow.published, 1)
	event, ok := fx.uow.published[0].(events.WelcomeSentEvent)
	require.True(t, ok)
	assert.Equal(t, int64(99), event.UserID)
	assert.True(t, event.HasText)
	assert.True(t, event.HasImage)
	assert.Equal(t, entities.DefaultTemplateKey, event.ImageKey)
}

func TestWelcomeMember_NothingEnabledSendsNothing(t *testing.T) {
	fx := newJoinFixture()
	fx.uow.settings.On("GetOrCreateWelcomeSettings", mock.Anything, joinGuildID).
		Return(welcomeSettings(func(*entities.WelcomeSettings) {}), nil)

	require.NoError(t, fx.feature.welcomeMember(context.Background(), bob))
	assert.Empty(t, fx.sender.sent)
	assert.Empty(t, fx.uow.published)
}

func TestWelcomeMember_NoAvatarDegradesToText(t *testing.T) {
	fx := newJoinFixture()
	settings := welcomeSettings(func(s *entities.WelcomeSettings) {
		s.SendText = true
		s.SendImage = true
	})
	noAvatar := bob
	noAvatar.AvatarHash = ""
	placement := &entities.Placement{GuildID: joinGuildID, ImageKey: entities.DefaultTemplateKey, Radius: 50}

	fx.uow.settings.On("GetOrCreateWelcomeSettings", mock.Anything, joinGuildID).Return(settings, nil)
	fx.uow.placements.On("GetByKey", mock.Anything, entities.DefaultTemplateKey).Return(placement, nil)
	fx.store.On("Read", mock.Anything, joinGuildID, entities.DefaultTemplateKey).Return([]byte("template"), nil)
	fx.avatars.On("FetchAvatar", mock.Anything, noAvatar).Return(nil, entities.ErrNoAvatar)

	require.NoError(t, fx.feature.welcomeMember(context.Background(), noAvatar))

	require.Len(t, fx.sender.sent, 1)
	assert.Equal(t, "Welcome, <@99>. Read the rules", fx.sender.sent[0].content)
	assert.Empty(t, fx.sender.sent[0].files)
	fx.compositor.AssertNotCalled(t, "Render", mock.Anything, mock.Anything, mock.Anything)
}

func TestWelcomeMember_DeliveryFailurePublishesNothing(t *testing.T) {
	fx := newJoinFixture()
	fx.sender.err = errors.New("missing access")
	fx.uow.settings.On("GetOrCreateWelcomeSettings", mock.Anything, joinGuildID).
		Return(welcomeSettings(func(s *entities.WelcomeSettings) { s.SendText = true }), nil)

	err := fx.feature.welcomeMember(context.Background(), bob)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send welcome")
	assert.Equal(t, 1, fx.uow.commits, "only the planning unit of work ran")
	assert.Empty(t, fx.uow.published)
}

func TestWelcomeMember_ImageOnlyFailureSendsNothing(t *testing.T) {
	fx := newJoinFixture()
	settings := welcomeSettings(func(s *entities.WelcomeSettings) { s.SendImage = true })
	placement := &entities.Placement{GuildID: joinGuildID, ImageKey: entities.DefaultTemplateKey, Radius: 50}

	fx.uow.settings.On("GetOrCreateWelcomeSettings", mock.Anything, joinGuildID).Return(settings, nil)
	fx.uow.placements.On("GetByKey", mock.Anything, entities.DefaultTemplateKey).Return(placement, nil)
	fx.store.On("Read", mock.Anything, joinGuildID, entities.DefaultTemplateKey).Return([]byte("template"), nil)
	fx.avatars.On("FetchAvatar", mock.Anything, bob).Return(nil, errors.New("cdn unavailable"))

	require.NoError(t, fx.feature.welcomeMember(context.Background(), bob))
	assert.Empty(t, fx.sender.sent)
	assert.Empty(t, fx.uow.published)
}

func TestJoinedMember(t *testing.T) {
	member, err := joinedMember(&discordgo.Member{
		GuildID: "123",
		User:    &discordgo.User{ID: "456", Username: "Bob", Avatar: "abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.JoinedMember{GuildID: 123, UserID: 456, Username: "Bob", AvatarHash: "abc"}, member)

	_, err = joinedMember(&discordgo.Member{GuildID: "not-a-number", User: &discordgo.User{ID: "1"}})
	assert.Error(t, err)
}
