package storage

import (
	"context"
	"time"

	"ghexplorer/internal/models"
)

// Storage is the activity journal: every handled action is recorded and
// the most viewed profiles and repositories can be queried back
type Storage interface {
	RecordInteraction(ctx context.Context, in models.Interaction) error

	// TopEntities returns the most viewed entities of a kind since the given
	// time, ordered by views then by most recent view
	TopEntities(ctx context.Context, kind models.EntityKind, limit int, since time.Time) ([]models.EntityStat, error)

	// CountInteractions returns how many actions were handled since the given time
	CountInteractions(ctx context.Context, since time.Time) (int, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
