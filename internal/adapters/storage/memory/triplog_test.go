package memory_test

import (
	"context"
	"testing"

	"github.com/NaimTheDev/devvit-trip-spin/internal/adapters/storage/memory"
	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
)

func TestTripLog_RecentNewestFirst(t *testing.T) {
	log := memory.NewTripLog()
	ctx := context.Background()

	for _, c := range []string{"Japan", "Peru", "Chile"} {
		if err := log.Record(ctx, domain.SharedTrip{Country: c}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := log.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(got))
	}
	if got[0].Country != "Chile" || got[1].Country != "Peru" {
		t.Errorf("unexpected order: %s, %s", got[0].Country, got[1].Country)
	}
	if got[0].ID == "" {
		t.Error("record should assign an id")
	}

	all, _ := log.Recent(ctx, 0)
	if len(all) != 3 {
		t.Errorf("limit 0 should return everything, got %d", len(all))
	}
}
