package http

import (
	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
	"github.com/NaimTheDev/devvit-trip-spin/internal/viewmodel"
)

// RandomCountryResponse is returned by GET /api/random-country.
type RandomCountryResponse struct {
	Type    string `json:"type"`
	Country string `json:"country"`
}

type ItineraryRequest struct {
	Country string `json:"country"`
}

// ItineraryResponse is returned by POST /api/itinerary.
type ItineraryResponse struct {
	Type               string                    `json:"type"`
	Country            string                    `json:"country"`
	SubredditUsed      string                    `json:"subredditUsed"`
	Posts              []domain.ItineraryPost    `json:"posts"`
	Comments           []domain.ItineraryComment `json:"comments"`
	GeneratedItinerary domain.GeneratedItinerary `json:"generatedItinerary"`
}

type ShareTripRequest struct {
	Country         string                    `json:"country"`
	Itinerary       domain.GeneratedItinerary `json:"itinerary"`
	PersonalMessage string                    `json:"personalMessage,omitempty"`
}

// ShareTripResponse is returned by POST /api/share-trip, on failure too.
type ShareTripResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	PostID  string `json:"postId"`
	PostURL string `json:"postUrl"`
}

type SharedTripsResponse struct {
	Trips []domain.SharedTrip `json:"trips"`
}

type SessionResponse struct {
	ID    string           `json:"id"`
	State domain.GameState `json:"state"`
}

// ActionResponse reports whether a session action was accepted and the
// resulting view.
type ActionResponse struct {
	Accepted  bool                       `json:"accepted"`
	Itinerary *domain.GeneratedItinerary `json:"itinerary,omitempty"`
	Share     *domain.ShareResult        `json:"share,omitempty"`
	Page      viewmodel.Page             `json:"page"`
}

type SessionShareRequest struct {
	PersonalMessage string `json:"personalMessage" form:"personalMessage"`
}

// StreamMessage is sent to websocket clients.
type StreamMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// StreamCommand is received from websocket clients.
type StreamCommand struct {
	Type            string `json:"type"`
	PersonalMessage string `json:"personalMessage,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
