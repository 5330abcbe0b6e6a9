package ports

import (
	"context"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
)

// PlaceSource provides the populated-places dataset.
type PlaceSource interface {
	Places(ctx context.Context) ([]domain.Place, error)
}

// CountrySource picks a random country remotely.
type CountrySource interface {
	RandomCountry(ctx context.Context) (string, error)
}
