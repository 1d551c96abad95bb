package ch

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"ghexplorer/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type ClickHouseDB struct {
	conn clickhouse.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
		DialTimeout: 10 * time.Second,
	}

	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Initialize is a no-op - tables are managed via migrations
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	return nil
}

// RecordInteraction appends one handled action to the journal
func (db *ClickHouseDB) RecordInteraction(ctx context.Context, in models.Interaction) error {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	err := db.conn.Exec(ctx, `INSERT INTO interactions
		(created_at, conversation_id, action, entity_kind, entity, outcome, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.CreatedAt, in.ConversationID, in.Action, string(in.Kind), in.Entity, in.Outcome,
		uint32(in.Duration.Milliseconds()))
	if err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}
	return nil
}

// TopEntities returns the most viewed entities of a kind since the given time
func (db *ClickHouseDB) TopEntities(ctx context.Context, kind models.EntityKind, limit int, since time.Time) ([]models.EntityStat, error) {
	rows, err := db.conn.Query(ctx, `
		SELECT entity, count() AS views, max(created_at) AS last_seen
		FROM interactions
		WHERE entity_kind = ? AND entity != '' AND outcome = ? AND created_at >= ?
		GROUP BY entity
		ORDER BY views DESC, last_seen DESC, entity ASC
		LIMIT ?`,
		string(kind), models.OutcomeOK, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top entities: %w", err)
	}
	defer rows.Close()

	var stats []models.EntityStat
	for rows.Next() {
		var (
			stat  models.EntityStat
			views uint64
		)
		if err := rows.Scan(&stat.Entity, &views, &stat.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan entity stat: %w", err)
		}
		stat.Kind = kind
		stat.Views = int(views)
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// CountInteractions returns how many actions were recorded since the given time
func (db *ClickHouseDB) CountInteractions(ctx context.Context, since time.Time) (int, error) {
	var count uint64
	row := db.conn.QueryRow(ctx, `SELECT count() FROM interactions WHERE created_at >= ?`, since)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}
	return int(count), nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
