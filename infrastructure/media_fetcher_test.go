package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"welcomer/domain/entities"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvatarURL(t *testing.T) {
	t.Parallel()

	url := AvatarURL(entities.JoinedMember{UserID: 80351110224678912, AvatarHash: "abc123"})
	assert.True(t, strings.HasPrefix(url, discordgo.EndpointCDNAvatars+"80351110224678912/abc123"))
	assert.True(t, strings.HasSuffix(url, "?size=256"))
}

func TestMediaFetcher_NoAvatar(t *testing.T) {
	t.Parallel()

	fetcher := NewMediaFetcher(nil, 0, 1, 0)
	_, err := fetcher.FetchAvatar(context.Background(), entities.JoinedMember{UserID: 1})
	assert.ErrorIs(t, err, entities.ErrNoAvatar)
}

func TestMediaFetcher_FetchAttachment(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write([]byte("image-bytes"))
		case "/big.png":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewMediaFetcher(server.Client(), 100, 5, 32)
	ctx := context.Background()

	data, err := fetcher.FetchAttachment(ctx, &discordgo.MessageAttachment{URL: server.URL + "/ok.png", Size: 11})
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)

	_, err = fetcher.FetchAttachment(ctx, &discordgo.MessageAttachment{URL: server.URL + "/big.png", Size: 10})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = fetcher.FetchAttachment(ctx, &discordgo.MessageAttachment{URL: server.URL + "/ok.png", Size: 1000})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = fetcher.FetchAttachment(ctx, &discordgo.MessageAttachment{URL: server.URL + "/missing.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")

	_, err = fetcher.FetchAttachment(ctx, nil)
	assert.ErrorIs(t, err, entities.ErrValidation)
}
