package domain

import "time"

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// GameState is the phase of a single spin session.
type GameState string

const (
	StateIdle      GameState = "idle"
	StateSpinning  GameState = "spinning"
	StateZooming   GameState = "zooming"
	StateResult    GameState = "result"
	StateItinerary GameState = "itinerary"
)

// UnknownDestination is the placeholder used whenever no destination can be resolved.
const UnknownDestination = "Unknown Destination"

// SelectedLocation is the destination chosen by a spin.
type SelectedLocation struct {
	Name       string  `json:"name"`
	Country    string  `json:"country"`
	Region     string  `json:"region,omitempty"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Population int64   `json:"population"`
}

// Place is a validated point from the populated-places dataset.
type Place struct {
	Name         string
	Country      string
	Region       string
	Latitude     float64
	Longitude    float64
	Population   int64
	FeatureClass string
}

// Location converts the place to the record stored on a spin.
func (p Place) Location() SelectedLocation {
	return SelectedLocation{
		Name:       p.Name,
		Country:    p.Country,
		Region:     p.Region,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		Population: p.Population,
	}
}

// ItineraryDay is one day of a generated plan.
type ItineraryDay struct {
	Day         int      `json:"day"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Activities  []string `json:"activities"`
}

// GeneratedItinerary is a multi-day plan, AI-generated or synthesized locally.
type GeneratedItinerary struct {
	Destination         string         `json:"destination"`
	Country             string         `json:"country"`
	Duration            string         `json:"duration"`
	Days                []ItineraryDay `json:"days"`
	CommunityHighlights []string       `json:"communityHighlights"`
}

// Thumbnail is a post preview image.
type Thumbnail struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// ItineraryPost is a flattened community post.
type ItineraryPost struct {
	ID               string     `json:"id"`
	AuthorID         string     `json:"authorId,omitempty"`
	AuthorName       string     `json:"authorName"`
	SubredditID      string     `json:"subredditId"`
	SubredditName    string     `json:"subredditName"`
	Permalink        string     `json:"permalink"`
	Title            string     `json:"title"`
	Body             string     `json:"body,omitempty"`
	BodyHTML         string     `json:"bodyHtml,omitempty"`
	URL              string     `json:"url"`
	Thumbnail        *Thumbnail `json:"thumbnail,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	Score            int        `json:"score"`
	NumberOfComments int        `json:"numberOfComments"`
	NumberOfReports  int        `json:"numberOfReports"`
	Approved         bool       `json:"approved"`
	Spam             bool       `json:"spam"`
	Stickied         bool       `json:"stickied"`
	Removed          bool       `json:"removed"`
	Archived         bool       `json:"archived"`
	Edited           bool       `json:"edited"`
	Locked           bool       `json:"locked"`
	NSFW             bool       `json:"nsfw"`
	Quarantined      bool       `json:"quarantined"`
	Spoiler          bool       `json:"spoiler"`
	Hidden           bool       `json:"hidden"`
}

// ItineraryComment is a flattened community comment.
type ItineraryComment struct {
	ID              string    `json:"id"`
	AuthorID        string    `json:"authorId,omitempty"`
	AuthorName      string    `json:"authorName"`
	SubredditID     string    `json:"subredditId"`
	SubredditName   string    `json:"subredditName"`
	Body            string    `json:"body"`
	CreatedAt       time.Time `json:"createdAt"`
	ParentID        string    `json:"parentId"`
	PostID          string    `json:"postId"`
	DistinguishedBy string    `json:"distinguishedBy,omitempty"`
	Locked          bool      `json:"locked"`
	Stickied        bool      `json:"stickied"`
	Removed         bool      `json:"removed"`
	Approved        bool      `json:"approved"`
	Spam            bool      `json:"spam"`
	Edited          bool      `json:"edited"`
	Score           int       `json:"score"`
	Permalink       string    `json:"permalink"`
	URL             string    `json:"url"`
}

// Content is the community material found for a destination.
type Content struct {
	Posts         []ItineraryPost
	Comments      []ItineraryComment
	SubredditUsed string
}

// TripPlan bundles the content and itinerary produced for a country.
type TripPlan struct {
	Country       string
	SubredditUsed string
	Posts         []ItineraryPost
	Comments      []ItineraryComment
	Itinerary     GeneratedItinerary
}

// ShareRequest asks for an itinerary to be published as a post.
type ShareRequest struct {
	Country         string
	Itinerary       GeneratedItinerary
	PersonalMessage string
}

// ShareResult reports the outcome of a share.
type ShareResult struct {
	Success bool   `json:"success"`
	PostID  string `json:"postId,omitempty"`
	PostURL string `json:"postUrl,omitempty"`
}

// SharedTrip is a published itinerary kept in the trip log.
type SharedTrip struct {
	ID          string    `json:"id"`
	Country     string    `json:"country"`
	Destination string    `json:"destination"`
	Subreddit   string    `json:"subreddit"`
	PostID      string    `json:"postId"`
	PostURL     string    `json:"postUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}
