package observability

import (
	"context"
	"errors"
	"time"

	"welcomer/domain/entities"
	"welcomer/domain/interfaces"
)

type instrumentedCompositor struct {
	inner   interfaces.ImageCompositor
	metrics *MetricsProvider
}

// InstrumentCompositor records render durations for every Render call
func InstrumentCompositor(inner interfaces.ImageCompositor, metrics *MetricsProvider) interfaces.ImageCompositor {
	return &instrumentedCompositor{inner: inner, metrics: metrics}
}

func (c *instrumentedCompositor) Render(template, avatar []byte, placement entities.Placement) ([]byte, error) {
	start := time.Now()
	out, err := c.inner.Render(template, avatar, placement)
	c.metrics.RecordRenderDuration(time.Since(start))
	return out, err
}

type instrumentedAvatarFetcher struct {
	inner   interfaces.AvatarFetcher
	metrics *MetricsProvider
}

// InstrumentAvatarFetcher counts failed downloads. Members without an avatar are not failures.
func InstrumentAvatarFetcher(inner interfaces.AvatarFetcher, metrics *MetricsProvider) interfaces.AvatarFetcher {
	return &instrumentedAvatarFetcher{inner: inner, metrics: metrics}
}

func (f *instrumentedAvatarFetcher) FetchAvatar(ctx context.Context, member entities.JoinedMember) ([]byte, error) {
	data, err := f.inner.FetchAvatar(ctx, member)
	if err != nil && !errors.Is(err, entities.ErrNoAvatar) {
		f.metrics.RecordAvatarFetchFailure()
	}
	return data, err
}
