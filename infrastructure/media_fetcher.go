package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"welcomer/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const avatarSize = 256

// MediaFetcher downloads avatars and attachments from the Discord CDN.
// All downloads share one rate limiter so a join burst cannot flood the CDN.
type MediaFetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	maxBytes int64
}

// NewMediaFetcher creates a fetcher. perSecond <= 0 disables rate limiting.
func NewMediaFetcher(client *http.Client, perSecond float64, burst int, maxBytes int64) *MediaFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &MediaFetcher{
		client:   client,
		limiter:  rate.NewLimiter(limit, burst),
		maxBytes: maxBytes,
	}
}

// AvatarURL returns the CDN URL of the member's avatar
func AvatarURL(member entities.JoinedMember) string {
	userID := strconv.FormatInt(member.UserID, 10)
	return discordgo.EndpointUserAvatar(userID, member.AvatarHash) + "?size=" + strconv.Itoa(avatarSize)
}

// FetchAvatar downloads the member's avatar, or returns ErrNoAvatar
func (f *MediaFetcher) FetchAvatar(ctx context.Context, member entities.JoinedMember) ([]byte, error) {
	if !member.HasAvatar() {
		return nil, entities.ErrNoAvatar
	}
	data, err := f.get(ctx, AvatarURL(member))
	if err != nil {
		log.WithFields(log.Fields{
			"user_id":  member.UserID,
			"guild_id": member.GuildID,
			"error":    err,
		}).Warn("Failed to fetch avatar")
		return nil, fmt.Errorf("failed to fetch avatar: %w", err)
	}
	return data, nil
}

// FetchAttachment downloads an uploaded attachment
func (f *MediaFetcher) FetchAttachment(ctx context.Context, attachment *discordgo.MessageAttachment) ([]byte, error) {
	if attachment == nil {
		return nil, fmt.Errorf("%w: no attachment provided", entities.ErrValidation)
	}
	if f.maxBytes > 0 && int64(attachment.Size) > f.maxBytes {
		return nil, fmt.Errorf("%w: attachment is %d bytes, limit is %d", entities.ErrValidation, attachment.Size, f.maxBytes)
	}
	data, err := f.get(ctx, attachment.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attachment: %w", err)
	}
	return data, nil
}

func (f *MediaFetcher) get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: download exceeds %d bytes", entities.ErrValidation, f.maxBytes)
	}
	return data, nil
}
