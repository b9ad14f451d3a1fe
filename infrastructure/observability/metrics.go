package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"welcomer/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the welcome bot.
// All Record methods are safe on a nil or disabled provider.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	mu            sync.RWMutex

	welcomesSentCounter        metric.Int64Counter
	welcomesFailedCounter      metric.Int64Counter
	renderDurationHist         metric.Float64Histogram
	avatarFetchFailuresCounter metric.Int64Counter
	promptsAbortedCounter      metric.Int64Counter
	natsPublishedCounter       metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{config: cfg}
}

// Initialize sets up the exporter and instruments according to config
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meter != nil {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(dialCtx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)
	otel.SetMeterProvider(mp.meterProvider)

	if err := mp.createInstruments(mp.meterProvider.Meter(mp.config.OTelServiceName)); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	log.Info("Metrics provider initialized")
	return nil
}

// InitializeWithMeterProvider wires instruments to an existing provider, for tests
func (mp *MetricsProvider) InitializeWithMeterProvider(provider metric.MeterProvider) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.createInstruments(provider.Meter("welcomer-test"))
}

func (mp *MetricsProvider) createInstruments(meter metric.Meter) error {
	var err error

	mp.welcomesSentCounter, err = meter.Int64Counter(
		WelcomesSentTotal,
		metric.WithDescription("Total number of greetings delivered"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create welcomes sent counter: %w", err)
	}

	mp.welcomesFailedCounter, err = meter.Int64Counter(
		WelcomesFailedTotal,
		metric.WithDescription("Total number of joins that produced no greeting because of an error"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create welcomes failed counter: %w", err)
	}

	mp.renderDurationHist, err = meter.Float64Histogram(
		ImageRenderDuration,
		metric.WithDescription("Duration of welcome image compositing in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
	)
	if err != nil {
		return fmt.Errorf("failed to create render duration histogram: %w", err)
	}

	mp.avatarFetchFailuresCounter, err = meter.Int64Counter(
		AvatarFetchFailuresTotal,
		metric.WithDescription("Total number of avatar downloads that failed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create avatar fetch failures counter: %w", err)
	}

	mp.promptsAbortedCounter, err = meter.Int64Counter(
		PromptsAbortedTotal,
		metric.WithDescription("Total number of placement prompts that were aborted"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create prompts aborted counter: %w", err)
	}

	mp.natsPublishedCounter, err = meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS messages published counter: %w", err)
	}

	mp.meter = meter
	return nil
}

// Shutdown flushes and stops the exporter
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordWelcomeSent records a delivered greeting
func (mp *MetricsProvider) RecordWelcomeSent(welcomeType string) {
	if !mp.isEnabled() {
		return
	}
	mp.welcomesSentCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelType, welcomeType)),
	)
}

// RecordWelcomeFailed records a join that produced no greeting
func (mp *MetricsProvider) RecordWelcomeFailed(reason string) {
	if !mp.isEnabled() {
		return
	}
	mp.welcomesFailedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelReason, reason)),
	)
}

// RecordRenderDuration records how long compositing took
func (mp *MetricsProvider) RecordRenderDuration(duration time.Duration) {
	if !mp.isEnabled() {
		return
	}
	mp.renderDurationHist.Record(context.Background(), duration.Seconds())
}

// RecordAvatarFetchFailure records a failed avatar download
func (mp *MetricsProvider) RecordAvatarFetchFailure() {
	if !mp.isEnabled() {
		return
	}
	mp.avatarFetchFailuresCounter.Add(context.Background(), 1)
}

// RecordPromptAborted records an aborted placement prompt
func (mp *MetricsProvider) RecordPromptAborted(reason string) {
	if !mp.isEnabled() {
		return
	}
	mp.promptsAbortedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelReason, reason)),
	)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.meter != nil
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider, which may be nil
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	return globalMetrics.Shutdown(ctx)
}
