package testutil

import (
	"strconv"

	"welcomer/domain/entities"

	"github.com/brianvoe/gofakeit/v7"
)

// Factory builds randomised but reproducible fixtures
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory creates a fixture factory seeded for reproducible runs
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(uint64(seed))}
}

// GuildID returns a snowflake-sized guild ID
func (f *Factory) GuildID() int64 {
	id, _ := strconv.ParseInt("1"+f.faker.Numerify("#################"), 10, 64)
	return id
}

// ChannelID returns a snowflake-sized channel ID
func (f *Factory) ChannelID() int64 {
	return f.GuildID()
}

// Greeting returns a pool message that mentions the member
func (f *Factory) Greeting() string {
	return f.faker.RandomString([]string{"Hi", "Hello", "Welcome", "Hey"}) + " " + entities.UserPlaceholder + ", I'm " + f.faker.FirstName()
}

// CreateTestWelcomeSettings creates welcome settings with a channel and a message pool
func (f *Factory) CreateTestWelcomeSettings(guildID int64, poolSize int) *entities.WelcomeSettings {
	settings := entities.NewWelcomeSettings(guildID)
	channelID := f.ChannelID()
	settings.ChannelID = &channelID
	settings.SendText = true
	for i := 0; i < poolSize; i++ {
		settings.MessagePool = append(settings.MessagePool, f.Greeting())
	}
	return settings
}

// CreateTestPlacement creates a placement inside the canonical template bounds
func (f *Factory) CreateTestPlacement(guildID int64, imageKey string) *entities.Placement {
	radius := f.faker.Number(50, 300)
	return &entities.Placement{
		GuildID:  guildID,
		ImageKey: imageKey,
		X:        f.faker.Number(0, entities.CanonicalTemplateWidth-radius),
		Y:        f.faker.Number(0, entities.CanonicalTemplateHeight-radius),
		Radius:   radius,
	}
}
