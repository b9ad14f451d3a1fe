package repository

import (
	"context"
	"errors"
	"fmt"

	"welcomer/database"
	"welcomer/domain/entities"
	"welcomer/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const welcomeSettingsColumns = `guild_id, channel_id, send_text, send_image, randomize_text, randomize_image,
		fixed_message, mandatory_suffix, message_pool, created_at, updated_at`

// WelcomeSettingsRepository implements the WelcomeSettingsRepository interface
type WelcomeSettingsRepository struct {
	q Queryable
}

// NewWelcomeSettingsRepository creates a new welcome settings repository
func NewWelcomeSettingsRepository(db *database.DB) *WelcomeSettingsRepository {
	return &WelcomeSettingsRepository{q: db.Pool}
}

// newWelcomeSettingsRepositoryWithTx creates a welcome settings repository bound to a transaction
func newWelcomeSettingsRepositoryWithTx(tx Queryable) interfaces.WelcomeSettingsRepository {
	return &WelcomeSettingsRepository{q: tx}
}

// GetOrCreateWelcomeSettings retrieves welcome settings or creates default ones if not found
func (r *WelcomeSettingsRepository) GetOrCreateWelcomeSettings(ctx context.Context, guildID int64) (*entities.WelcomeSettings, error) {
	query := `SELECT ` + welcomeSettingsColumns + ` FROM welcome_settings WHERE guild_id = $1`

	settings, err := scanWelcomeSettings(r.q.QueryRow(ctx, query, guildID))
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get welcome settings for guild %d: %w", guildID, err)
	}

	defaults := entities.NewWelcomeSettings(guildID)

	// ON CONFLICT covers two joins racing to create the row
	insertQuery := `
		INSERT INTO welcome_settings (guild_id, fixed_message, mandatory_suffix, message_pool)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id) DO UPDATE SET guild_id = EXCLUDED.guild_id
		RETURNING ` + welcomeSettingsColumns

	settings, err = scanWelcomeSettings(r.q.QueryRow(ctx, insertQuery,
		guildID,
		defaults.FixedMessage,
		defaults.MandatorySuffix,
		defaults.MessagePool,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create welcome settings for guild %d: %w", guildID, err)
	}
	return settings, nil
}

// UpdateWelcomeSettings updates welcome settings
func (r *WelcomeSettingsRepository) UpdateWelcomeSettings(ctx context.Context, settings *entities.WelcomeSettings) error {
	query := `
		UPDATE welcome_settings
		SET channel_id = $2,
		    send_text = $3,
		    send_image = $4,
		    randomize_text = $5,
		    randomize_image = $6,
		    fixed_message = $7,
		    mandatory_suffix = $8,
		    message_pool = $9,
		    updated_at = NOW()
		WHERE guild_id = $1
		RETURNING updated_at
	`

	pool := settings.MessagePool
	if pool == nil {
		pool = []string{}
	}

	err := r.q.QueryRow(ctx, query,
		settings.GuildID,
		settings.ChannelID,
		settings.SendText,
		settings.SendImage,
		settings.RandomizeText,
		settings.RandomizeImage,
		settings.FixedMessage,
		settings.MandatorySuffix,
		pool,
	).Scan(&settings.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("no welcome settings found for guild %d", settings.GuildID)
	}
	if err != nil {
		return fmt.Errorf("failed to update welcome settings: %w", err)
	}
	return nil
}

func scanWelcomeSettings(row pgx.Row) (*entities.WelcomeSettings, error) {
	var s entities.WelcomeSettings
	err := row.Scan(
		&s.GuildID,
		&s.ChannelID,
		&s.SendText,
		&s.SendImage,
		&s.RandomizeText,
		&s.RandomizeImage,
		&s.FixedMessage,
		&s.MandatorySuffix,
		&s.MessagePool,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if s.MessagePool == nil {
		s.MessagePool = []string{}
	}
	return &s, nil
}
