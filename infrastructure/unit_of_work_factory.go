package infrastructure

import (
	"welcomer/application"
	"welcomer/database"
	"welcomer/domain/interfaces"
	"welcomer/repository"
)

// UnitOfWorkFactory creates units of work whose events are published after commit
type UnitOfWorkFactory struct {
	repoFactory interface {
		CreateForGuildWithPublisher(guildID int64, publisher interfaces.TransactionalEventPublisher) application.UnitOfWork
	}
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory
func NewUnitOfWorkFactory(db *database.DB, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		repoFactory:    repository.NewUnitOfWorkFactory(db),
		eventPublisher: eventPublisher,
	}
}

// CreateForGuild creates a UnitOfWork with its own transactional publisher
func (f *UnitOfWorkFactory) CreateForGuild(guildID int64) application.UnitOfWork {
	return f.repoFactory.CreateForGuildWithPublisher(guildID, NewTransactionalPublisher(f.eventPublisher))
}
