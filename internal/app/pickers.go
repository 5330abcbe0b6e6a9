package app

import (
	"context"
	"log/slog"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
	"github.com/NaimTheDev/devvit-trip-spin/internal/ports"
)

// CountryPicker resolves spins to a bare country through the travel service.
type CountryPicker struct {
	svc *TravelService
}

func NewCountryPicker(svc *TravelService) *CountryPicker {
	return &CountryPicker{svc: svc}
}

func (p *CountryPicker) Pick(ctx context.Context) domain.SelectedLocation {
	return domain.CountryLocation(p.svc.RandomCountry(ctx))
}

// DatasetPicker resolves spins to a significant place from the dataset.
type DatasetPicker struct {
	places ports.PlaceSource
	rng    domain.RNG
	logger *slog.Logger
}

func NewDatasetPicker(places ports.PlaceSource, rng domain.RNG, logger *slog.Logger) *DatasetPicker {
	return &DatasetPicker{places: places, rng: rng, logger: logger}
}

// Pick never fails: load errors and empty datasets yield the placeholder.
func (p *DatasetPicker) Pick(ctx context.Context) domain.SelectedLocation {
	places, err := p.places.Places(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "places dataset unavailable", "error", err)
		return domain.PlaceholderLocation()
	}
	place, err := domain.PickPlace(places, p.rng)
	if err != nil {
		p.logger.WarnContext(ctx, "no place to pick", "error", err)
		return domain.PlaceholderLocation()
	}
	return place.Location()
}
