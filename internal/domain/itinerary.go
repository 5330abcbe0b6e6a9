package domain

import (
	"fmt"
	"strings"
)

const (
	// ItineraryDays is the fixed length of every itinerary.
	ItineraryDays = 3
	// DefaultDuration labels generated itineraries.
	DefaultDuration = "3-Day AI Itinerary"

	titleWords        = 4
	descriptionMaxLen = 80
)

// SynthesizeItinerary builds a 3-day itinerary from comment text without any AI.
// Days and highlights come from the first non-empty comments; missing ones use
// generic filler, so the result always has 3 days and at least one highlight.
func SynthesizeItinerary(country string, comments []string) GeneratedItinerary {
	country = strings.TrimSpace(country)
	if country == "" {
		country = UnknownDestination
	}

	texts := make([]string, 0, ItineraryDays)
	for _, c := range comments {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		texts = append(texts, c)
		if len(texts) == ItineraryDays {
			break
		}
	}

	days := make([]ItineraryDay, ItineraryDays)
	for i := 0; i < ItineraryDays; i++ {
		if i < len(texts) {
			days[i] = ItineraryDay{
				Day:         i + 1,
				Title:       titleFromComment(texts[i]),
				Description: truncate(texts[i], descriptionMaxLen),
				Activities:  []string{texts[i]},
			}
			continue
		}
		days[i] = ItineraryDay{
			Day:         i + 1,
			Title:       fmt.Sprintf("Explore %s - Day %d", country, i+1),
			Description: fmt.Sprintf("Discover the best of %s with local recommendations.", country),
			Activities: []string{
				fmt.Sprintf("Visit local attractions in %s", country),
				"Try traditional cuisine",
				"Meet locals and explore",
			},
		}
	}

	highlights := texts
	if len(highlights) == 0 {
		highlights = []string{
			fmt.Sprintf("Amazing experiences in %s", country),
			"Local hidden gems",
			"Cultural discoveries",
		}
	}

	return GeneratedItinerary{
		Destination:         country,
		Country:             country,
		Duration:            DefaultDuration,
		Days:                days,
		CommunityHighlights: highlights,
	}
}

// NormalizeItinerary fills every empty part of an externally produced itinerary
// from the local synthesis so the result is always well formed.
func NormalizeItinerary(it GeneratedItinerary, country string, comments []string) GeneratedItinerary {
	fallback := SynthesizeItinerary(country, comments)
	if strings.TrimSpace(it.Country) == "" {
		it.Country = fallback.Country
	}
	if strings.TrimSpace(it.Destination) == "" {
		it.Destination = it.Country
	}
	if strings.TrimSpace(it.Duration) == "" {
		it.Duration = fallback.Duration
	}

	days := make([]ItineraryDay, 0, len(it.Days))
	for _, d := range it.Days {
		if strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Description) == "" {
			continue
		}
		if d.Activities == nil {
			d.Activities = []string{}
		}
		d.Day = len(days) + 1
		days = append(days, d)
	}
	if len(days) == 0 {
		days = fallback.Days
	}
	it.Days = days

	highlights := make([]string, 0, len(it.CommunityHighlights))
	for _, h := range it.CommunityHighlights {
		if h = strings.TrimSpace(h); h != "" {
			highlights = append(highlights, h)
		}
	}
	if len(highlights) == 0 {
		highlights = fallback.CommunityHighlights
	}
	it.CommunityHighlights = highlights
	return it
}

// CommentBodies extracts comment text in order.
func CommentBodies(comments []ItineraryComment) []string {
	out := make([]string, 0, len(comments))
	for _, c := range comments {
		out = append(out, c.Body)
	}
	return out
}

func titleFromComment(comment string) string {
	words := strings.Fields(comment)
	if len(words) >= titleWords {
		return strings.Join(words[:titleWords], " ") + "..."
	}
	return strings.Join(words, " ")
}

func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return strings.TrimSpace(string(runes[:maxLen])) + "..."
}
