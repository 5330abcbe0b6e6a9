package domain

import "errors"

var (
	ErrMissingCountry    = errors.New("country is required")
	ErrNoPlaces          = errors.New("no places available")
	ErrNoDataset         = errors.New("places dataset is not configured")
	ErrSubredditNotFound = errors.New("subreddit not found")
	ErrUpstreamLLM       = errors.New("upstream LLM failure")
	ErrInvalidLLMJSON    = errors.New("LLM returned invalid JSON after retry")
	ErrUpstreamCommunity = errors.New("upstream community failure")
	ErrSharingDisabled   = errors.New("sharing is not configured")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidTransition = errors.New("action not allowed in current state")
	ErrNoItinerary       = errors.New("no itinerary to share")
	ErrSuperseded        = errors.New("session was reset while the action was running")
)
