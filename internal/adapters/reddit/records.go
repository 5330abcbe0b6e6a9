package reddit

import (
	"encoding/json"
	"html"
	"math"
	"strings"
	"time"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
)

// listing mirrors the generic Reddit listing envelope.
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// rawRecord holds the union of post (t3) and comment (t1) fields. Every field
// is optional; toPost and toComment turn it into a total record.
type rawRecord struct {
	ID                string   `json:"id"`
	AuthorFullname    *string  `json:"author_fullname"`
	Author            string   `json:"author"`
	SubredditID       string   `json:"subreddit_id"`
	Subreddit         string   `json:"subreddit"`
	Permalink         string   `json:"permalink"`
	Title             string   `json:"title"`
	Selftext          string   `json:"selftext"`
	SelftextHTML      *string  `json:"selftext_html"`
	URL               string   `json:"url"`
	Thumbnail         string   `json:"thumbnail"`
	ThumbnailHeight   *int     `json:"thumbnail_height"`
	ThumbnailWidth    *int     `json:"thumbnail_width"`
	CreatedUTC        float64  `json:"created_utc"`
	Score             int      `json:"score"`
	NumComments       int      `json:"num_comments"`
	NumReports        *int     `json:"num_reports"`
	Approved          bool     `json:"approved"`
	Spam              bool     `json:"spam"`
	Stickied          bool     `json:"stickied"`
	RemovedByCategory *string  `json:"removed_by_category"`
	Removed           bool     `json:"removed"`
	Archived          bool     `json:"archived"`
	Edited            flexBool `json:"edited"`
	Locked            bool     `json:"locked"`
	Over18            bool     `json:"over_18"`
	Quarantine        bool     `json:"quarantine"`
	Spoiler           bool     `json:"spoiler"`
	Hidden            bool     `json:"hidden"`
	Body              string   `json:"body"`
	ParentID          string   `json:"parent_id"`
	LinkID            string   `json:"link_id"`
	Distinguished     *string  `json:"distinguished"`
}

// flexBool accepts Reddit's "edited" field, which is false or an edit timestamp.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch s := strings.TrimSpace(string(data)); s {
	case "false", "null", "0", "":
		*b = false
	default:
		*b = true
	}
	return nil
}

func createdAt(utc float64, now time.Time) time.Time {
	if utc <= 0 {
		return now
	}
	sec, frac := math.Modf(utc)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func absoluteURL(permalink string) string {
	if permalink == "" || strings.HasPrefix(permalink, "http") {
		return permalink
	}
	return "https://www.reddit.com" + permalink
}

func toPost(r rawRecord, now time.Time) domain.ItineraryPost {
	p := domain.ItineraryPost{
		ID:               r.ID,
		AuthorID:         deref(r.AuthorFullname),
		AuthorName:       r.Author,
		SubredditID:      r.SubredditID,
		SubredditName:    r.Subreddit,
		Permalink:        r.Permalink,
		Title:            html.UnescapeString(r.Title),
		Body:             r.Selftext,
		BodyHTML:         deref(r.SelftextHTML),
		URL:              r.URL,
		CreatedAt:        createdAt(r.CreatedUTC, now),
		Score:            r.Score,
		NumberOfComments: r.NumComments,
		Approved:         r.Approved,
		Spam:             r.Spam,
		Stickied:         r.Stickied,
		Removed:          r.Removed || r.RemovedByCategory != nil,
		Archived:         r.Archived,
		Edited:           bool(r.Edited),
		Locked:           r.Locked,
		NSFW:             r.Over18,
		Quarantined:      r.Quarantine,
		Spoiler:          r.Spoiler,
		Hidden:           r.Hidden,
	}
	if r.NumReports != nil {
		p.NumberOfReports = *r.NumReports
	}
	if p.URL == "" {
		p.URL = absoluteURL(r.Permalink)
	}
	if strings.HasPrefix(r.Thumbnail, "http") {
		t := &domain.Thumbnail{URL: r.Thumbnail}
		if r.ThumbnailHeight != nil {
			t.Height = *r.ThumbnailHeight
		}
		if r.ThumbnailWidth != nil {
			t.Width = *r.ThumbnailWidth
		}
		p.Thumbnail = t
	}
	return p
}

func toComment(r rawRecord, now time.Time) domain.ItineraryComment {
	return domain.ItineraryComment{
		ID:              r.ID,
		AuthorID:        deref(r.AuthorFullname),
		AuthorName:      r.Author,
		SubredditID:     r.SubredditID,
		SubredditName:   r.Subreddit,
		Body:            r.Body,
		CreatedAt:       createdAt(r.CreatedUTC, now),
		ParentID:        r.ParentID,
		PostID:          r.LinkID,
		DistinguishedBy: deref(r.Distinguished),
		Locked:          r.Locked,
		Stickied:        r.Stickied,
		Removed:         r.Removed || r.Body == "[removed]",
		Approved:        r.Approved,
		Spam:            r.Spam,
		Edited:          bool(r.Edited),
		Score:           r.Score,
		Permalink:       r.Permalink,
		URL:             absoluteURL(r.Permalink),
	}
}

// decodeChildren parses listing children of the given kind, skipping
// entries that are malformed or of another kind.
func decodeChildren(l listing, kind string) []rawRecord {
	out := make([]rawRecord, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if child.Kind != kind {
			continue
		}
		var r rawRecord
		if err := json.Unmarshal(child.Data, &r); err != nil {
			continue
		}
		if r.ID == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
