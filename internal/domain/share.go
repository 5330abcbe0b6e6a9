package domain

import (
	"fmt"
	"strings"
)

// SharePost is the title and markdown body of a shared trip.
type SharePost struct {
	Title string
	Body  string
}

// FormatSharePost renders an itinerary as a community post. appPostID links
// back to the game post when known; otherwise the subreddit itself is linked.
func FormatSharePost(req ShareRequest, subreddit, appPostID string) SharePost {
	it := req.Itinerary
	country := req.Country
	if country == "" {
		country = it.Country
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🌍 **Planning a trip to %s!** 🌍\n\n", it.Destination)

	if msg := strings.TrimSpace(req.PersonalMessage); msg != "" {
		fmt.Fprintf(&b, "%s\n\n", msg)
	}

	fmt.Fprintf(&b, "I just used Trip Spin to plan an amazing %s to %s! Here's what the community recommended:\n\n",
		strings.ToLower(it.Duration), country)

	for _, day := range it.Days {
		fmt.Fprintf(&b, "**Day %d: %s**\n", day.Day, day.Title)
		fmt.Fprintf(&b, "%s\n", day.Description)
		b.WriteString("Activities:\n")
		for _, a := range day.Activities {
			fmt.Fprintf(&b, "• %s\n", a)
		}
		b.WriteString("\n")
	}

	if len(it.CommunityHighlights) > 0 {
		b.WriteString("**Community Highlights:**\n")
		for _, h := range it.CommunityHighlights {
			fmt.Fprintf(&b, "🌟 %s\n", h)
		}
		b.WriteString("\n")
	}

	b.WriteString("Want to join me or have suggestions? Drop a comment below! 👇\n\n")
	b.WriteString("**🎯 Want to plan your own adventure?**\n")
	if appPostID != "" {
		fmt.Fprintf(&b, "Try Trip Spin yourself: https://reddit.com/r/%s/comments/%s/\n\n", subreddit, appPostID)
	} else {
		fmt.Fprintf(&b, "Try Trip Spin yourself: https://reddit.com/r/%s/\n\n", subreddit)
	}
	b.WriteString("*Generated using Trip Spin - spin the globe and discover your next adventure!* 🎯")

	return SharePost{
		Title: fmt.Sprintf("🌍 Planning an epic trip to %s - who wants to join? 🌍", it.Destination),
		Body:  b.String(),
	}
}

// PostURL builds the public URL of a submitted post.
func PostURL(subreddit, postID string) string {
	return fmt.Sprintf("https://reddit.com/r/%s/comments/%s", subreddit, postID)
}
