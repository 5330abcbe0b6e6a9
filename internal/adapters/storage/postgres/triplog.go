package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
)

const (
	pingAttempts = 10
	pingInterval = 2 * time.Second
)

// TripLog persists shared trips to PostgreSQL.
type TripLog struct {
	db *sql.DB
}

// Open connects to PostgreSQL, waits for it to accept connections and
// migrates the schema.
func Open(ctx context.Context, dsn string) (*TripLog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < pingAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(pingInterval):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	l := &TripLog{db: db}
	if err := l.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return l, nil
}

func (l *TripLog) migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS shared_trips (
			id          UUID        PRIMARY KEY,
			country     TEXT        NOT NULL,
			destination TEXT        NOT NULL DEFAULT '',
			subreddit   TEXT        NOT NULL DEFAULT '',
			post_id     TEXT        NOT NULL,
			post_url    TEXT        NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_shared_trips_created_at ON shared_trips(created_at DESC);
	`)
	return err
}

func (l *TripLog) Record(ctx context.Context, trip domain.SharedTrip) error {
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO shared_trips (id, country, destination, subreddit, post_id, post_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, trip.ID, trip.Country, trip.Destination, trip.Subreddit, trip.PostID, trip.PostURL, trip.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: record trip: %w", err)
	}
	return nil
}

func (l *TripLog) Recent(ctx context.Context, limit int) ([]domain.SharedTrip, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, country, destination, subreddit, post_id, post_url, created_at
		FROM shared_trips
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent trips: %w", err)
	}
	defer rows.Close()

	trips := []domain.SharedTrip{}
	for rows.Next() {
		var t domain.SharedTrip
		if err := rows.Scan(&t.ID, &t.Country, &t.Destination, &t.Subreddit, &t.PostID, &t.PostURL, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

func (l *TripLog) Close() error {
	return l.db.Close()
}
