package views_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/NaimTheDev/devvit-trip-spin/internal/viewmodel"
	"github.com/NaimTheDev/devvit-trip-spin/internal/views"
)

func render(t *testing.T, p viewmodel.Page) string {
	t.Helper()
	var buf bytes.Buffer
	if err := views.Page(p).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestPage_Idle(t *testing.T) {
	out := render(t, viewmodel.Page{
		SessionID: "abc",
		State:     "idle",
		Overlay:   viewmodel.Overlay{Visible: true, Title: viewmodel.IdleTitle},
		Button:    viewmodel.Button{Icon: "🎲", Label: "SPIN", Enabled: true, Action: viewmodel.ActionSpin},
		Scene:     viewmodel.Scene{Background: "#7fb8e5", CameraZ: 20, TargetZ: 20},
	})

	for _, want := range []string{
		`<!doctype html>`,
		`data-session="abc"`,
		`data-visible="true"`,
		viewmodel.IdleTitle,
		`action="/api/sessions/abc/spin"`,
		`<span class="spin-text">SPIN</span>`,
		`data-background="#7fb8e5"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, " disabled") {
		t.Error("spin button should be enabled")
	}
	if !strings.Contains(out, `class="spin-button"`) {
		t.Error("button class missing")
	}
}

func TestPage_EscapesContent(t *testing.T) {
	out := render(t, viewmodel.Page{
		State:  "itinerary",
		Button: viewmodel.Button{Label: "SPINNING..."},
		Itinerary: &viewmodel.Itinerary{
			Banner: "Japan",
			Title:  "<script>alert(1)</script>",
			Days: []viewmodel.Day{
				{Heading: "Day 1: Tea & temples", Activities: []string{"Matcha"}, Theme: "temple"},
			},
			Subreddit:  "japantravel",
			Highlights: []viewmodel.Highlight{{Username: "hiker", Initial: "H", Content: "Go early", TimeAgo: "3h ago"}},
			Shared:     &viewmodel.Shared{Success: true, URL: "javascript:alert(1)", Message: "Trip shared!"},
		},
	})

	if strings.Contains(out, "<script>") {
		t.Error("title was not escaped")
	}
	if !strings.Contains(out, "Tea &amp; temples") {
		t.Error("day heading was not escaped")
	}
	if strings.Contains(out, `href="javascript:`) {
		t.Error("unsafe share url was rendered")
	}
	for _, want := range []string{`class="day day-temple"`, `<li>Matcha</li>`, `from r/japantravel`, `u/hiker`, `3h ago`, `Trip shared!`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestPage_Unavailable(t *testing.T) {
	out := render(t, viewmodel.Page{State: "itinerary", Unavailable: viewmodel.UnavailableMessage})
	if !strings.Contains(out, viewmodel.UnavailableMessage) {
		t.Error("unavailable message missing")
	}
	if !strings.Contains(out, " disabled") {
		t.Error("button without enabled flag should render disabled")
	}
}
