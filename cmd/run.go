package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"welcomer/bot"
	"welcomer/bot/features/welcome"
	"welcomer/config"
	"welcomer/database"
	"welcomer/domain/interfaces"
	"welcomer/images"
	"welcomer/infrastructure"
	"welcomer/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting welcomer bot...")

	cfg := config.Get()

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}
	metrics := observability.GetMetrics()

	log.Info("Running database migrations...")
	if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	eventPublisher, natsClient, err := setupEventPublisher(ctx, cfg, metrics)
	if err != nil {
		db.Close()
		return err
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)

	overlays, err := images.LoadOverlays(cfg.AssetsDir)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to load image overlays: %w", err)
	}

	media := infrastructure.NewMediaFetcher(
		&http.Client{Timeout: 15 * time.Second},
		cfg.AvatarFetchRate,
		cfg.AvatarFetchBurst,
		cfg.MaxUploadBytes,
	)

	log.Info("Initializing Discord bot...")
	discordBot, err := bot.New(
		bot.Config{
			Token:   cfg.DiscordToken,
			GuildID: cfg.GuildID,
		},
		welcome.Dependencies{
			UoWFactory:    uowFactory,
			ImageStore:    infrastructure.NewFileImageStore(cfg.TemplatesDir(), cfg.PoolImagesDir()),
			Avatars:       observability.InstrumentAvatarFetcher(media, metrics),
			Attachments:   media,
			Compositor:    observability.InstrumentCompositor(images.NewCompositor(overlays), metrics),
			Normalizer:    images.NewTemplateNormalizer(),
			Metrics:       metrics,
			PromptTimeout: cfg.PromptTimeout,
		},
	)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Info("Discord bot initialized successfully")

	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down bot...")
	if err := discordBot.Close(); err != nil {
		log.Errorf("Error closing Discord bot: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Errorf("Error closing NATS connection: %v", err)
		}
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.Errorf("Error shutting down metrics: %v", err)
	}

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return nil
}

// setupEventPublisher connects to NATS when configured and falls back to a no-op publisher
func setupEventPublisher(ctx context.Context, cfg *config.Config, metrics *observability.MetricsProvider) (interfaces.EventPublisher, *infrastructure.NATSClient, error) {
	if cfg.NATSServers == "" {
		log.Info("NATS_SERVERS not set, event publishing disabled")
		return infrastructure.NewNoopEventPublisher(), nil, nil
	}

	client := infrastructure.NewNATSClient(cfg.NATSServers, "welcomer")
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureStream(infrastructure.WelcomeEventStream, mapper.StreamSubjects()); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to set up event stream: %w", err)
	}

	return infrastructure.NewNATSEventPublisher(client, mapper, metrics), client, nil
}
