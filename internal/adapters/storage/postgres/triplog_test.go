package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/NaimTheDev/devvit-trip-spin/internal/adapters/storage/postgres"
	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
)

// Runs only against a live database, e.g. TEST_DATABASE_URL=postgres://...?sslmode=disable.
func TestTripLog_RoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	l, err := postgres.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	id := uuid.NewString()
	trip := domain.SharedTrip{
		ID:          id,
		Country:     "Japan",
		Destination: "Kyoto, Japan",
		Subreddit:   "tripspin",
		PostID:      "abc",
		PostURL:     domain.PostURL("tripspin", "abc"),
		CreatedAt:   time.Now().Add(time.Hour).UTC(),
	}
	if err := l.Record(ctx, trip); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := l.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].ID != id {
		t.Fatalf("expected the recorded trip first, got %+v", got)
	}
	if got[0].Destination != "Kyoto, Japan" {
		t.Errorf("unexpected destination: %s", got[0].Destination)
	}
}
