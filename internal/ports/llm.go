package ports

import (
	"context"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
)

// PlanInput holds everything the LLM needs to plan a trip.
type PlanInput struct {
	Country  string
	Posts    []PostInput
	Comments []string
}

// PostInput is a simplified post for the LLM prompt.
type PostInput struct {
	Title string
	Body  string
}

// Planner generates an itinerary via an LLM.
type Planner interface {
	Plan(ctx context.Context, in PlanInput) (domain.GeneratedItinerary, error)
}
