package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
)

// TripLog keeps shared trips in process memory, newest last.
type TripLog struct {
	mu    sync.RWMutex
	trips []domain.SharedTrip
}

func NewTripLog() *TripLog {
	return &TripLog{}
}

func (l *TripLog) Record(_ context.Context, trip domain.SharedTrip) error {
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	l.mu.Lock()
	l.trips = append(l.trips, trip)
	l.mu.Unlock()
	return nil
}

// Recent returns up to limit trips, newest first.
func (l *TripLog) Recent(_ context.Context, limit int) ([]domain.SharedTrip, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.trips)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.SharedTrip, 0, n)
	for i := len(l.trips) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.trips[i])
	}
	return out, nil
}
