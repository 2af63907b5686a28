package repository

import (
	"context"
	"database/sql"
	"time"

	"panelsound/internal/models"
)

// StateRepo persists the latest panel snapshot.
type StateRepo interface {
	Save(ctx context.Context, s models.PanelSnapshot) error
	Load(ctx context.Context) (models.PanelSnapshot, error)
}

// EventRepo is the routing journal.
type EventRepo interface {
	Append(ctx context.Context, e models.PanelEvent) error
	List(ctx context.Context, from, to time.Time, component string) ([]models.PanelEvent, error)
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		EventRepo: NewEventSQLite(db),
	}
}
