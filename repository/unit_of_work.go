package repository

import (
	"context"
	"errors"
	"fmt"

	"welcomer/application"
	"welcomer/database"
	"welcomer/domain/interfaces"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	guildID                int64
	transactionalPublisher interfaces.TransactionalEventPublisher
	welcomeSettingsRepo    interfaces.WelcomeSettingsRepository
	imagePlacementRepo     interfaces.ImagePlacementRepository
}

type unitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{db: db}
}

// CreateForGuildWithPublisher creates a UnitOfWork whose events go through the given publisher
func (f *unitOfWorkFactory) CreateForGuildWithPublisher(guildID int64, transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		guildID:                guildID,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx
	u.welcomeSettingsRepo = newWelcomeSettingsRepositoryWithTx(tx)
	u.imagePlacementRepo = NewImagePlacementRepositoryScoped(tx, u.guildID)
	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil

	if u.transactionalPublisher != nil {
		if err := u.transactionalPublisher.Flush(u.ctx); err != nil {
			log.WithError(err).WithField("guild_id", u.guildID).Error("Failed to flush events after commit")
		}
	}
	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// WelcomeSettingsRepository returns the welcome settings repository for this unit of work
func (u *unitOfWork) WelcomeSettingsRepository() interfaces.WelcomeSettingsRepository {
	if u.welcomeSettingsRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.welcomeSettingsRepo
}

// ImagePlacementRepository returns the guild-scoped placement repository for this unit of work
func (u *unitOfWork) ImagePlacementRepository() interfaces.ImagePlacementRepository {
	if u.imagePlacementRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.imagePlacementRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work has no event publisher")
	}
	return u.transactionalPublisher
}
