package ports

import (
	"context"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
)

// CommunitySource reads posts and comments from a community site.
type CommunitySource interface {
	// LookupSubreddit returns the canonical name of a community, or
	// domain.ErrSubredditNotFound when it does not exist.
	LookupSubreddit(ctx context.Context, name string) (string, error)
	HotPosts(ctx context.Context, subreddit string, limit int) ([]domain.ItineraryPost, error)
	Comments(ctx context.Context, postID string, limit int) ([]domain.ItineraryComment, error)
}

// SubmitInput is a text post to publish.
type SubmitInput struct {
	Subreddit string
	Title     string
	Text      string
}

// Publisher submits posts on behalf of the app.
type Publisher interface {
	Submit(ctx context.Context, in SubmitInput) (postID string, err error)
}

// TripLog keeps a record of shared trips.
type TripLog interface {
	Record(ctx context.Context, trip domain.SharedTrip) error
	Recent(ctx context.Context, limit int) ([]domain.SharedTrip, error)
}
