package repository

import (
	"context"
	"errors"
	"fmt"

	"welcomer/domain/entities"
	"welcomer/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// imagePlacementRepository stores avatar placements for one guild
type imagePlacementRepository struct {
	q       Queryable
	guildID int64
}

// NewImagePlacementRepositoryScoped creates a placement repository scoped to a guild
func NewImagePlacementRepositoryScoped(q Queryable, guildID int64) interfaces.ImagePlacementRepository {
	return &imagePlacementRepository{q: q, guildID: guildID}
}

// GetByKey returns the placement for an image key, or nil if none is stored
func (r *imagePlacementRepository) GetByKey(ctx context.Context, imageKey string) (*entities.Placement, error) {
	query := `
		SELECT guild_id, image_key, x, y, radius, created_at
		FROM welcome_image_placements
		WHERE guild_id = $1 AND image_key = $2
	`

	var p entities.Placement
	err := r.q.QueryRow(ctx, query, r.guildID, imageKey).Scan(
		&p.GuildID,
		&p.ImageKey,
		&p.X,
		&p.Y,
		&p.Radius,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get placement %s: %w", imageKey, err)
	}
	return &p, nil
}

// Upsert creates or replaces the placement for its image key
func (r *imagePlacementRepository) Upsert(ctx context.Context, placement *entities.Placement) error {
	query := `
		INSERT INTO welcome_image_placements (guild_id, image_key, x, y, radius)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, image_key)
		DO UPDATE SET x = EXCLUDED.x, y = EXCLUDED.y, radius = EXCLUDED.radius
		RETURNING created_at
	`

	placement.GuildID = r.guildID
	err := r.q.QueryRow(ctx, query,
		r.guildID,
		placement.ImageKey,
		placement.X,
		placement.Y,
		placement.Radius,
	).Scan(&placement.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert placement %s: %w", placement.ImageKey, err)
	}
	return nil
}

// Create inserts the placement unless one already exists for its image key.
// A concurrent insert of the same key blocks until the other transaction ends.
func (r *imagePlacementRepository) Create(ctx context.Context, placement *entities.Placement) (bool, error) {
	query := `
		INSERT INTO welcome_image_placements (guild_id, image_key, x, y, radius)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, image_key) DO NOTHING
		RETURNING created_at
	`

	placement.GuildID = r.guildID
	err := r.q.QueryRow(ctx, query,
		r.guildID,
		placement.ImageKey,
		placement.X,
		placement.Y,
		placement.Radius,
	).Scan(&placement.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create placement %s: %w", placement.ImageKey, err)
	}
	return true, nil
}

// Delete removes the placement for an image key
func (r *imagePlacementRepository) Delete(ctx context.Context, imageKey string) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM welcome_image_placements WHERE guild_id = $1 AND image_key = $2`,
		r.guildID, imageKey,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete placement %s: %w", imageKey, err)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns every placement for the guild ordered by image key
func (r *imagePlacementRepository) List(ctx context.Context) ([]*entities.Placement, error) {
	query := `
		SELECT guild_id, image_key, x, y, radius, created_at
		FROM welcome_image_placements
		WHERE guild_id = $1
		ORDER BY image_key
	`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list placements: %w", err)
	}
	defer rows.Close()

	var placements []*entities.Placement
	for rows.Next() {
		var p entities.Placement
		if err := rows.Scan(&p.GuildID, &p.ImageKey, &p.X, &p.Y, &p.Radius, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan placement: %w", err)
		}
		placements = append(placements, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating placements: %w", err)
	}
	return placements, nil
}
