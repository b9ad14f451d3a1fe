package entities

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelcomeSettings_HasChannel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		channelID *int64
		want      bool
	}{
		{
			name:      "has channel - valid ID",
			channelID: func() *int64 { id := int64(802078699582521374); return &id }(),
			want:      true,
		},
		{
			name:      "no channel - nil",
			channelID: nil,
			want:      false,
		},
		{
			name:      "no channel - zero value",
			channelID: func() *int64 { id := int64(0); return &id }(),
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ws := &WelcomeSettings{ChannelID: tt.channelID}
			assert.Equal(t, tt.want, ws.HasChannel())
		})
	}
}

func TestWelcomeSettings_SendPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		settings  WelcomeSettings
		wantText  bool
		wantImage bool
	}{
		{name: "all off", settings: WelcomeSettings{}},
		{name: "fixed text only", settings: WelcomeSettings{SendText: true}, wantText: true},
		{name: "random text only", settings: WelcomeSettings{RandomizeText: true}, wantText: true},
		{name: "fixed image only", settings: WelcomeSettings{SendImage: true}, wantImage: true},
		{
			name:      "random image does not imply text",
			settings:  WelcomeSettings{RandomizeImage: true},
			wantImage: true,
		},
		{
			name:      "everything on",
			settings:  WelcomeSettings{SendText: true, SendImage: true, RandomizeText: true, RandomizeImage: true},
			wantText:  true,
			wantImage: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.wantText, tt.settings.ShouldSendText())
			assert.Equal(t, tt.wantImage, tt.settings.ShouldSendImage())
		})
	}
}

func TestNewWelcomeSettings_Defaults(t *testing.T) {
	t.Parallel()

	ws := NewWelcomeSettings(42)

	assert.Equal(t, int64(42), ws.GuildID)
	assert.False(t, ws.SendText)
	assert.False(t, ws.SendImage)
	assert.False(t, ws.RandomizeText)
	assert.False(t, ws.RandomizeImage)
	assert.False(t, ws.HasChannel())
	assert.Equal(t, DefaultFixedMessage, ws.FixedMessage)
	assert.Equal(t, DefaultMandatorySuffix, ws.MandatorySuffix)
	assert.Empty(t, ws.MessagePool)
}

func TestWelcomeSettings_AddMessage(t *testing.T) {
	t.Parallel()

	ws := NewWelcomeSettings(1)

	pos, err := ws.AddMessage("Hi!")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	pos, err = ws.AddMessage("  Yo!  ")
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
	assert.Equal(t, []string{"Hi!", "Yo!"}, ws.MessagePool)

	_, err = ws.AddMessage("   ")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Len(t, ws.MessagePool, 2)
}

func TestWelcomeSettings_RemoveMessage(t *testing.T) {
	t.Parallel()

	t.Run("removes by position", func(t *testing.T) {
		t.Parallel()

		ws := &WelcomeSettings{MessagePool: []string{"a", "b", "c"}, RandomizeText: true}
		removed, err := ws.RemoveMessage(2)
		require.NoError(t, err)
		assert.Equal(t, "b", removed)
		assert.Equal(t, []string{"a", "c"}, ws.MessagePool)
		assert.True(t, ws.RandomizeText)
	})

	t.Run("out of range", func(t *testing.T) {
		t.Parallel()

		ws := &WelcomeSettings{MessagePool: []string{"a"}}
		for _, pos := range []int{0, -1, 2} {
			_, err := ws.RemoveMessage(pos)
			assert.True(t, errors.Is(err, ErrValidation), "position %d", pos)
		}
		assert.Equal(t, []string{"a"}, ws.MessagePool)
	})

	t.Run("last message disables randomiser", func(t *testing.T) {
		t.Parallel()

		ws := &WelcomeSettings{MessagePool: []string{"only"}, RandomizeText: true}
		_, err := ws.RemoveMessage(1)
		require.NoError(t, err)
		assert.Empty(t, ws.MessagePool)
		assert.False(t, ws.RandomizeText)
	})
}
