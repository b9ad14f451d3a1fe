package observability

import (
	"context"
	"errors"
	"testing"

	"welcomer/config"
	"welcomer/domain/entities"
	"welcomer/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestProvider(t *testing.T) (*MetricsProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	mp := NewMetricsProvider(config.NewTestConfig())
	require.NoError(t, mp.InitializeWithMeterProvider(provider))
	return mp, reader
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetricsProvider_Counters(t *testing.T) {
	t.Parallel()

	mp, reader := newTestProvider(t)
	mp.RecordWelcomeSent(WelcomeTypeText)
	mp.RecordWelcomeSent(WelcomeTypeTextImage)
	mp.RecordWelcomeFailed(ReasonSelection)
	mp.RecordPromptAborted(ReasonTimeout)

	assert.Equal(t, int64(2), collectSum(t, reader, WelcomesSentTotal))
	assert.Equal(t, int64(1), collectSum(t, reader, WelcomesFailedTotal))
	assert.Equal(t, int64(1), collectSum(t, reader, PromptsAbortedTotal))
}

func TestMetricsProvider_DisabledIsSafe(t *testing.T) {
	t.Parallel()

	var nilProvider *MetricsProvider
	assert.NotPanics(t, func() {
		nilProvider.RecordWelcomeSent(WelcomeTypeImage)
		nilProvider.RecordAvatarFetchFailure()
		_ = nilProvider.Shutdown(context.Background())
	})

	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "none"
	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	assert.NotPanics(t, func() { mp.RecordWelcomeFailed(ReasonDelivery) })
}

func TestInstrumentAvatarFetcher(t *testing.T) {
	t.Parallel()

	mp, reader := newTestProvider(t)
	inner := new(testhelpers.MockAvatarFetcher)
	withAvatar := entities.JoinedMember{UserID: 1, AvatarHash: "abc"}
	withoutAvatar := entities.JoinedMember{UserID: 2}
	inner.On("FetchAvatar", mock.Anything, withAvatar).Return(nil, errors.New("cdn unavailable"))
	inner.On("FetchAvatar", mock.Anything, withoutAvatar).Return(nil, entities.ErrNoAvatar)

	fetcher := InstrumentAvatarFetcher(inner, mp)
	_, err := fetcher.FetchAvatar(context.Background(), withAvatar)
	assert.Error(t, err)
	_, err = fetcher.FetchAvatar(context.Background(), withoutAvatar)
	assert.ErrorIs(t, err, entities.ErrNoAvatar)

	assert.Equal(t, int64(1), collectSum(t, reader, AvatarFetchFailuresTotal))
}
