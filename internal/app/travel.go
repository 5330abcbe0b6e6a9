package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
	"github.com/NaimTheDev/devvit-trip-spin/internal/ports"
)

const (
	hotPostLimit    = 10
	commentLimit    = 10
	promptPostLimit = 3

	// DefaultSubreddit is the community used when no country-specific one exists.
	DefaultSubreddit = "solotravel"
)

// TravelDeps wires the collaborators of a TravelService. Countries, Planner,
// Publisher and TripLog are optional.
type TravelDeps struct {
	Countries         ports.CountrySource
	FallbackCountries []string
	Community         ports.CommunitySource
	Planner           ports.Planner
	Publisher         ports.Publisher
	TripLog           ports.TripLog
	RNG               domain.RNG
	Logger            *slog.Logger

	DefaultSubreddit string
	ShareSubreddit   string
	AppPostID        string
}

// TravelService picks destinations, gathers community content and turns it
// into itineraries that can be shared back to the community.
type TravelService struct {
	countries         ports.CountrySource
	fallbackCountries []string
	community         ports.CommunitySource
	planner           ports.Planner
	publisher         ports.Publisher
	tripLog           ports.TripLog
	rng               domain.RNG
	logger            *slog.Logger
	defaultSubreddit  string
	shareSubreddit    string
	appPostID         string
	now               func() time.Time
}

func NewTravelService(d TravelDeps) *TravelService {
	s := &TravelService{
		countries:         d.Countries,
		fallbackCountries: d.FallbackCountries,
		community:         d.Community,
		planner:           d.Planner,
		publisher:         d.Publisher,
		tripLog:           d.TripLog,
		rng:               d.RNG,
		logger:            d.Logger,
		defaultSubreddit:  d.DefaultSubreddit,
		shareSubreddit:    d.ShareSubreddit,
		appPostID:         d.AppPostID,
		now:               time.Now,
	}
	if s.defaultSubreddit == "" {
		s.defaultSubreddit = DefaultSubreddit
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// RandomCountry asks the remote source for a country and falls back to a
// uniform pick from the local list. It never fails.
func (s *TravelService) RandomCountry(ctx context.Context) string {
	if s.countries != nil {
		country, err := s.countries.RandomCountry(ctx)
		if err == nil {
			return country
		}
		s.logger.WarnContext(ctx, "random country lookup failed, using fallback list", "error", err)
	}
	return domain.PickCountry(s.fallbackCountries, s.rng)
}

// SubredditCandidates lists the communities tried for a country, best first.
func SubredditCandidates(country, fallback string) []string {
	clean := strings.ToLower(strings.Join(strings.Fields(country), ""))
	if clean == "" {
		return []string{fallback}
	}
	return []string{clean + "travel", clean, fallback}
}

// FindContent resolves the first existing community for the country and
// returns its hot posts plus the comments of the first post. Lookup and fetch
// failures degrade to the default community and empty lists.
func (s *TravelService) FindContent(ctx context.Context, country string) domain.Content {
	used := s.defaultSubreddit
	name := s.defaultSubreddit
	for _, candidate := range SubredditCandidates(country, s.defaultSubreddit) {
		resolved, err := s.community.LookupSubreddit(ctx, candidate)
		if err != nil {
			s.logger.DebugContext(ctx, "subreddit candidate rejected", "candidate", candidate, "error", err)
			continue
		}
		used, name = candidate, resolved
		break
	}

	content := domain.Content{
		Posts:         []domain.ItineraryPost{},
		Comments:      []domain.ItineraryComment{},
		SubredditUsed: used,
	}

	posts, err := s.community.HotPosts(ctx, name, hotPostLimit)
	if err != nil {
		s.logger.WarnContext(ctx, "hot posts unavailable", "subreddit", name, "error", err)
		return content
	}
	content.Posts = posts
	if len(posts) == 0 {
		return content
	}

	comments, err := s.community.Comments(ctx, posts[0].ID, commentLimit)
	if err != nil {
		s.logger.WarnContext(ctx, "comments unavailable", "post_id", posts[0].ID, "error", err)
		return content
	}
	content.Comments = comments
	return content
}

// GenerateItinerary asks the planner for an itinerary and falls back to local
// synthesis when no planner is configured or it fails. The result is always
// well formed.
func (s *TravelService) GenerateItinerary(ctx context.Context, country string, posts []domain.ItineraryPost, comments []domain.ItineraryComment) domain.GeneratedItinerary {
	bodies := domain.CommentBodies(comments)
	if s.planner == nil {
		return domain.SynthesizeItinerary(country, bodies)
	}

	it, err := s.planner.Plan(ctx, toPlanInput(country, posts, bodies))
	if err != nil {
		s.logger.WarnContext(ctx, "itinerary planner failed, synthesizing locally", "country", country, "error", err)
		return domain.SynthesizeItinerary(country, bodies)
	}
	return domain.NormalizeItinerary(it, country, bodies)
}

// PlanTrip gathers content for the country and builds its itinerary.
func (s *TravelService) PlanTrip(ctx context.Context, country string) (domain.TripPlan, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return domain.TripPlan{}, domain.ErrMissingCountry
	}

	content := s.FindContent(ctx, country)
	return domain.TripPlan{
		Country:       country,
		SubredditUsed: content.SubredditUsed,
		Posts:         content.Posts,
		Comments:      content.Comments,
		Itinerary:     s.GenerateItinerary(ctx, country, content.Posts, content.Comments),
	}, nil
}

// CanShare reports whether trips can be published.
func (s *TravelService) CanShare() bool {
	return s.publisher != nil && s.shareSubreddit != ""
}

// ShareTrip publishes the itinerary as a post and records it in the trip log.
func (s *TravelService) ShareTrip(ctx context.Context, req domain.ShareRequest) (domain.ShareResult, error) {
	if !s.CanShare() {
		return domain.ShareResult{}, domain.ErrSharingDisabled
	}

	post := domain.FormatSharePost(req, s.shareSubreddit, s.appPostID)
	postID, err := s.publisher.Submit(ctx, ports.SubmitInput{
		Subreddit: s.shareSubreddit,
		Title:     post.Title,
		Text:      post.Body,
	})
	if err != nil {
		return domain.ShareResult{}, fmt.Errorf("submit post: %w", err)
	}

	result := domain.ShareResult{
		Success: true,
		PostID:  postID,
		PostURL: domain.PostURL(s.shareSubreddit, postID),
	}

	if s.tripLog != nil {
		country := req.Country
		if country == "" {
			country = req.Itinerary.Country
		}
		trip := domain.SharedTrip{
			Country:     country,
			Destination: req.Itinerary.Destination,
			Subreddit:   s.shareSubreddit,
			PostID:      postID,
			PostURL:     result.PostURL,
			CreatedAt:   s.now().UTC(),
		}
		if err := s.tripLog.Record(ctx, trip); err != nil {
			s.logger.ErrorContext(ctx, "record shared trip", "post_id", postID, "error", err)
		}
	}
	return result, nil
}

// RecentTrips lists the latest shared trips, newest first.
func (s *TravelService) RecentTrips(ctx context.Context, limit int) ([]domain.SharedTrip, error) {
	if s.tripLog == nil {
		return []domain.SharedTrip{}, nil
	}
	trips, err := s.tripLog.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent trips: %w", err)
	}
	return trips, nil
}

func toPlanInput(country string, posts []domain.ItineraryPost, comments []string) ports.PlanInput {
	in := ports.PlanInput{Country: country}
	for i, p := range posts {
		if i == promptPostLimit {
			break
		}
		in.Posts = append(in.Posts, ports.PostInput{Title: p.Title, Body: p.Body})
	}
	for _, c := range comments {
		if len(in.Comments) == commentLimit {
			break
		}
		if strings.TrimSpace(c) != "" {
			in.Comments = append(in.Comments, c)
		}
	}
	return in
}

