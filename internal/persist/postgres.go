package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"roster/internal/roster"
)

// PostgresStore persists the snapshot as one row per collection in a small
// key/value table, mirroring the file and Redis layouts.
type PostgresStore struct {
	db *sql.DB
}

// NewDB creates a Postgres connection with sane defaults and ensures the
// snapshot table exists.
func NewDB(connString string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS roster_snapshot (
			collection TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure snapshot table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close closes the underlying connection.
func (p *PostgresStore) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Save upserts all four collections in one transaction.
func (p *PostgresStore) Save(ctx context.Context, snap roster.Snapshot) error {
	rows := []struct {
		name  string
		value interface{}
	}{
		{"students", snap.Students},
		{"classes", snap.Classes},
		{"attendance", snap.Attendance},
		{"sessions", snap.Sessions},
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, row := range rows {
		data, err := json.Marshal(row.value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", row.name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO roster_snapshot (collection, data, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (collection) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
		`, row.name, data); err != nil {
			return fmt.Errorf("save %s: %w", row.name, err)
		}
	}
	return tx.Commit()
}

// Load reads all four collections. ok is false when the table is empty.
func (p *PostgresStore) Load(ctx context.Context) (roster.Snapshot, bool, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT collection, data FROM roster_snapshot`)
	if err != nil {
		return roster.Snapshot{}, false, err
	}
	defer rows.Close()

	var snap roster.Snapshot
	found := false
	for rows.Next() {
		var name string
		var data []byte
		if err := rows.Scan(&name, &data); err != nil {
			return roster.Snapshot{}, false, err
		}
		found = true
		switch name {
		case "students":
			err = json.Unmarshal(data, &snap.Students)
		case "classes":
			err = json.Unmarshal(data, &snap.Classes)
		case "attendance":
			err = json.Unmarshal(data, &snap.Attendance)
		case "sessions":
			err = json.Unmarshal(data, &snap.Sessions)
		}
		if err != nil {
			return roster.Snapshot{}, false, fmt.Errorf("decode %s: %w", name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return roster.Snapshot{}, false, err
	}
	return snap, found, nil
}
