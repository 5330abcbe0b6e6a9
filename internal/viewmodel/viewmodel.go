// Package viewmodel turns a session snapshot into everything a page needs to
// render, with no markup.
package viewmodel

import (
	"fmt"
	"strings"
	"time"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
	"github.com/NaimTheDev/devvit-trip-spin/internal/game"
	"github.com/NaimTheDev/devvit-trip-spin/internal/motion"
)

const (
	IdleTitle          = "Spin the Globe – Where Will Reddit Send You Today?"
	ResultKicker       = "Next Stop:"
	LoadingMessage     = "Planning your adventure..."
	UnavailableMessage = "Itinerary Unavailable"

	ActionSpin      = "spin"
	ActionReset     = "reset"
	ActionItinerary = "itinerary"
	ActionShare     = "share"

	defaultSubreddit = "travel"
	anonymousAuthor  = "traveler"
)

// Options carries page context that is not part of the game state.
type Options struct {
	SessionID string
	CanShare  bool
	Now       time.Time
}

// Page is the complete view of a session.
type Page struct {
	SessionID   string           `json:"sessionId"`
	State       domain.GameState `json:"state"`
	Overlay     Overlay          `json:"overlay"`
	Button      Button           `json:"button"`
	PlanButton  *Button          `json:"planButton,omitempty"`
	Itinerary   *Itinerary       `json:"itinerary,omitempty"`
	Unavailable string           `json:"unavailable,omitempty"`
	Scene       Scene            `json:"scene"`
}

// Overlay is the title card over the globe.
type Overlay struct {
	Visible  bool   `json:"visible"`
	Title    string `json:"title,omitempty"`
	Kicker   string `json:"kicker,omitempty"`
	Headline string `json:"headline,omitempty"`
}

// Button is an actionable control.
type Button struct {
	Icon    string `json:"icon"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
	Action  string `json:"action,omitempty"`
}

// Itinerary is the trip plan screen.
type Itinerary struct {
	Banner     string      `json:"banner"`
	Title      string      `json:"title"`
	Loading    bool        `json:"loading"`
	Message    string      `json:"message,omitempty"`
	Days       []Day       `json:"days"`
	Subreddit  string      `json:"subreddit"`
	Highlights []Highlight `json:"highlights"`
	Back       Button      `json:"back"`
	Share      *Button     `json:"share,omitempty"`
	Shared     *Shared     `json:"shared,omitempty"`
}

// Day is one card of the itinerary.
type Day struct {
	Heading     string   `json:"heading"`
	Description string   `json:"description"`
	Activities  []string `json:"activities"`
	Theme       string   `json:"theme"`
}

// Highlight is a community quote.
type Highlight struct {
	Username string `json:"username"`
	Initial  string `json:"initial"`
	Content  string `json:"content"`
	TimeAgo  string `json:"timeAgo,omitempty"`
}

// Shared reports the last share attempt.
type Shared struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
}

// Scene mirrors the motion state so clients can animate the globe.
type Scene struct {
	Background  string  `json:"background"`
	CameraZ     float64 `json:"cameraZ"`
	TargetZ     float64 `json:"targetZ"`
	SpinSpeed   float64 `json:"spinSpeed"`
	TargetSpeed float64 `json:"targetSpeed"`
	Rotation    float64 `json:"rotation"`
	RimVisible  bool    `json:"rimVisible"`
}

// Build derives the page for a snapshot.
func Build(s game.Snapshot, frame motion.Frame, opts Options) Page {
	p := Page{
		SessionID: opts.SessionID,
		State:     s.State,
		Scene: Scene{
			Background:  frame.Scene.Background,
			CameraZ:     frame.Camera.Z,
			TargetZ:     frame.Camera.TargetZ,
			SpinSpeed:   frame.Globe.Speed,
			TargetSpeed: frame.Globe.TargetSpeed,
			Rotation:    frame.Globe.Rotation,
			RimVisible:  frame.Globe.RimVisible,
		},
	}

	switch s.State {
	case domain.StateIdle:
		p.Overlay = Overlay{Visible: true, Title: IdleTitle}
		p.Button = Button{Icon: "🎲", Label: "SPIN", Enabled: true, Action: ActionSpin}
	case domain.StateSpinning, domain.StateZooming:
		p.Overlay = Overlay{Visible: false}
		p.Button = Button{Icon: "🎲", Label: "SPINNING...", Enabled: false}
	case domain.StateResult:
		p.Overlay = Overlay{
			Visible:  true,
			Kicker:   ResultKicker,
			Headline: strings.ToUpper(destinationName(s.Location)),
		}
		p.Button = Button{Icon: "🌍", Label: "Spin the Globe!", Enabled: true, Action: ActionReset}
		p.PlanButton = &Button{
			Icon:    "🗺️",
			Label:   "Plan My Trip",
			Enabled: !s.LoadingItinerary,
			Action:  ActionItinerary,
		}
		if s.LoadingItinerary {
			p.PlanButton.Label = LoadingMessage
		}
	case domain.StateItinerary:
		p.Overlay = Overlay{Visible: false}
		p.Button = Button{Icon: "🌍", Label: "Spin the Globe!", Enabled: true, Action: ActionReset}
		if s.Location == nil && s.Itinerary == nil {
			p.Unavailable = UnavailableMessage
			break
		}
		p.Itinerary = buildItinerary(s, opts)
	}
	return p
}

func buildItinerary(s game.Snapshot, opts Options) *Itinerary {
	v := &Itinerary{
		Banner:     destinationName(s.Location),
		Days:       []Day{},
		Highlights: []Highlight{},
		Subreddit:  s.SubredditUsed,
		Back:       Button{Icon: "←", Label: "Back", Enabled: true, Action: ActionReset},
	}
	if v.Subreddit == "" {
		v.Subreddit = defaultSubreddit
	}

	if s.Itinerary == nil {
		v.Loading = s.LoadingItinerary
		v.Title = v.Banner
		v.Message = UnavailableMessage
		if v.Loading {
			v.Message = LoadingMessage
		}
		return v
	}

	it := s.Itinerary
	v.Banner = it.Country
	v.Title = strings.TrimSpace(it.Destination + " " + it.Duration)
	for _, d := range it.Days {
		v.Days = append(v.Days, Day{
			Heading:     fmt.Sprintf("Day %d: %s", d.Day, d.Title),
			Description: d.Description,
			Activities:  d.Activities,
			Theme:       DayTheme(d.Title),
		})
	}
	for i, h := range it.CommunityHighlights {
		hl := Highlight{Username: anonymousAuthor, Content: h}
		if i < len(s.Comments) {
			c := s.Comments[i]
			if c.AuthorName != "" {
				hl.Username = c.AuthorName
			}
			if !c.CreatedAt.IsZero() && !opts.Now.IsZero() {
				hl.TimeAgo = TimeAgo(opts.Now.Sub(c.CreatedAt))
			}
		}
		hl.Initial = strings.ToUpper(string([]rune(hl.Username)[:1]))
		v.Highlights = append(v.Highlights, hl)
	}

	if opts.CanShare {
		v.Share = &Button{Icon: "📣", Label: "Share Trip", Enabled: true, Action: ActionShare}
	}
	if s.LastShare != nil {
		v.Shared = &Shared{Success: s.LastShare.Success, URL: s.LastShare.PostURL, Message: "Couldn't share your trip. Try again later."}
		if s.LastShare.Success {
			v.Shared.Message = "Trip shared!"
			if v.Share != nil {
				v.Share.Enabled = false
			}
		}
	}
	return v
}

func destinationName(loc *domain.SelectedLocation) string {
	if loc == nil {
		return domain.UnknownDestination
	}
	if loc.Country != "" {
		return loc.Country
	}
	if loc.Name != "" {
		return loc.Name
	}
	return domain.UnknownDestination
}

// DayTheme picks the illustration for a day from keywords in its title.
func DayTheme(title string) string {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "temple"), strings.Contains(t, "cultural"):
		return "temple"
	case strings.Contains(t, "bamboo"), strings.Contains(t, "grove"), strings.Contains(t, "forest"):
		return "bamboo"
	case strings.Contains(t, "city"), strings.Contains(t, "urban"):
		return "city"
	default:
		return "default"
	}
}

// TimeAgo renders a coarse relative age such as "3h ago".
func TimeAgo(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
