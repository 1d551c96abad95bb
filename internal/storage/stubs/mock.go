package stubs

import (
	"context"
	"sort"
	"sync"
	"time"

	"ghexplorer/internal/models"
)

// MockDB is an in-memory implementation of the Storage interface, used in
// tests and when no ClickHouse is configured
type MockDB struct {
	mu           sync.RWMutex
	interactions []models.Interaction
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		interactions: make([]models.Interaction, 0),
	}
}

// Initialize does nothing for mock DB
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// RecordInteraction appends an interaction to the journal
func (m *MockDB) RecordInteraction(ctx context.Context, in models.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	m.interactions = append(m.interactions, in)
	return nil
}

// Interactions returns a copy of everything recorded
func (m *MockDB) Interactions() []models.Interaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Interaction(nil), m.interactions...)
}

// TopEntities returns the most viewed entities of a kind since the given time
func (m *MockDB) TopEntities(ctx context.Context, kind models.EntityKind, limit int, since time.Time) ([]models.EntityStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byEntity := make(map[string]*models.EntityStat)
	for _, in := range m.interactions {
		if in.Kind != kind || in.Entity == "" || in.Outcome != models.OutcomeOK {
			continue
		}
		if in.CreatedAt.Before(since) {
			continue
		}

		stat, ok := byEntity[in.Entity]
		if !ok {
			stat = &models.EntityStat{Kind: kind, Entity: in.Entity}
			byEntity[in.Entity] = stat
		}
		stat.Views++
		if in.CreatedAt.After(stat.LastSeen) {
			stat.LastSeen = in.CreatedAt
		}
	}

	stats := make([]models.EntityStat, 0, len(byEntity))
	for _, s := range byEntity {
		stats = append(stats, *s)
	}

	// Sort by views descending, then most recent, then by name
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Views != stats[j].Views {
			return stats[i].Views > stats[j].Views
		}
		if !stats[i].LastSeen.Equal(stats[j].LastSeen) {
			return stats[i].LastSeen.After(stats[j].LastSeen)
		}
		return stats[i].Entity < stats[j].Entity
	})

	if limit > 0 && limit < len(stats) {
		stats = stats[:limit]
	}

	return stats, nil
}

// CountInteractions returns how many actions were recorded since the given time
func (m *MockDB) CountInteractions(ctx context.Context, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, in := range m.interactions {
		if !in.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}
