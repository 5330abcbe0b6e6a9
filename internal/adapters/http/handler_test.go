package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	httpadapter "github.com/NaimTheDev/devvit-trip-spin/internal/adapters/http"
	"github.com/NaimTheDev/devvit-trip-spin/internal/adapters/storage/memory"
	"github.com/NaimTheDev/devvit-trip-spin/internal/app"
	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
	"github.com/NaimTheDev/devvit-trip-spin/internal/game"
	"github.com/NaimTheDev/devvit-trip-spin/internal/ports"
	"github.com/NaimTheDev/devvit-trip-spin/internal/viewmodel"
)

type zeroRNG struct{}

func (zeroRNG) Intn(int) int { return 0 }

type stubCommunity struct{}

func (stubCommunity) LookupSubreddit(_ context.Context, name string) (string, error) {
	if name == "japantravel" {
		return "JapanTravel", nil
	}
	return "", domain.ErrSubredditNotFound
}

func (stubCommunity) HotPosts(_ context.Context, sub string, _ int) ([]domain.ItineraryPost, error) {
	return []domain.ItineraryPost{{ID: "p1", Title: "Two weeks in Kansai", SubredditName: sub}}, nil
}

func (stubCommunity) Comments(_ context.Context, postID string, _ int) ([]domain.ItineraryComment, error) {
	return []domain.ItineraryComment{
		{ID: "c1", PostID: postID, AuthorName: "kyotofan", Body: "Visit Fushimi Inari before sunrise"},
	}, nil
}

type stubPublisher struct {
	err       error
	submitted []ports.SubmitInput
}

func (p *stubPublisher) Submit(_ context.Context, in ports.SubmitInput) (string, error) {
	p.submitted = append(p.submitted, in)
	if p.err != nil {
		return "", p.err
	}
	return "abc123", nil
}

type fixture struct {
	e         *echo.Echo
	sched     *game.ManualScheduler
	store     *game.Store
	publisher *stubPublisher
}

type stubPlaces []domain.Place

func (p stubPlaces) Places(context.Context) ([]domain.Place, error) { return p, nil }

// newFixture wires the handler; places enables the dataset picker when non-nil.
func newFixture(t *testing.T, canShare bool, places ports.PlaceSource) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{sched: game.NewManualScheduler()}
	deps := app.TravelDeps{
		FallbackCountries: []string{"Japan"},
		Community:         stubCommunity{},
		TripLog:           memory.NewTripLog(),
		RNG:               zeroRNG{},
		Logger:            logger,
	}
	if canShare {
		f.publisher = &stubPublisher{}
		deps.Publisher = f.publisher
		deps.ShareSubreddit = "tripspin"
	}
	svc := app.NewTravelService(deps)
	picker := app.NewCountryPicker(svc)

	f.store = game.NewStore(func() *game.Coordinator {
		return game.NewCoordinator(game.CoordinatorDeps{
			Picker:    picker,
			Planner:   svc,
			Sharer:    svc,
			Scheduler: f.sched,
			Logger:    logger,
		})
	}, time.Hour, logger)
	t.Cleanup(f.store.CloseAll)

	var dataset game.DestinationPicker
	if places != nil {
		dataset = app.NewDatasetPicker(places, zeroRNG{}, logger)
	}

	f.e = echo.New()
	f.e.Use(httpadapter.RequestIDMiddleware())
	httpadapter.NewHandler(svc, dataset, f.store, logger).Register(f.e)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (f *fixture) createSession(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/sessions", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d", rec.Code)
	}
	resp := decode[httpadapter.SessionResponse](t, rec)
	if resp.State != domain.StateIdle {
		t.Fatalf("new session state %q", resp.State)
	}
	return resp.ID
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, false, nil)
	rec := f.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing request id header")
	}
}

func TestRandomCountry(t *testing.T) {
	f := newFixture(t, false, nil)
	rec := f.do(t, http.MethodGet, "/api/random-country", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	resp := decode[httpadapter.RandomCountryResponse](t, rec)
	if resp.Type != "random-country" || resp.Country != "Japan" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestRandomLocation(t *testing.T) {
	f := newFixture(t, false, stubPlaces{
		{Name: "Outpost", Country: "Antarctica", FeatureClass: "Scientific station"},
		{Name: "Kyoto", Country: "Japan", FeatureClass: "Populated place", Latitude: 35.01, Longitude: 135.77, Population: 1_459_000},
	})
	rec := f.do(t, http.MethodGet, "/api/random-location", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	loc := decode[domain.SelectedLocation](t, rec)
	if loc.Name != "Kyoto" || loc.Country != "Japan" || loc.Latitude != 35.01 {
		t.Errorf("unexpected location: %+v", loc)
	}
}

func TestRandomLocation_NoDataset(t *testing.T) {
	f := newFixture(t, false, nil)
	rec := f.do(t, http.MethodGet, "/api/random-location", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestItinerary(t *testing.T) {
	f := newFixture(t, false, nil)

	rec := f.do(t, http.MethodPost, "/api/itinerary", `{"country":"Japan"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[httpadapter.ItineraryResponse](t, rec)
	if resp.Type != "itinerary" || resp.SubredditUsed != "japantravel" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(resp.Posts) != 1 || len(resp.Comments) != 1 {
		t.Errorf("posts %d comments %d", len(resp.Posts), len(resp.Comments))
	}
	if len(resp.GeneratedItinerary.Days) != domain.ItineraryDays {
		t.Errorf("expected %d days, got %d", domain.ItineraryDays, len(resp.GeneratedItinerary.Days))
	}
}

func TestItinerary_MissingCountry(t *testing.T) {
	f := newFixture(t, false, nil)
	rec := f.do(t, http.MethodPost, "/api/itinerary", `{"country":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", rec.Code)
	}
}

func TestShareTrip_Disabled(t *testing.T) {
	f := newFixture(t, false, nil)
	rec := f.do(t, http.MethodPost, "/api/share-trip", `{"country":"Japan","itinerary":{"destination":"Japan"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	resp := decode[httpadapter.ShareTripResponse](t, rec)
	if resp.Success || resp.Type != "share-trip" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestShareTrip_RecordsTrip(t *testing.T) {
	f := newFixture(t, true, nil)

	body := `{"country":"Japan","itinerary":{"destination":"Kyoto, Japan","country":"Japan","duration":"3-Day AI Itinerary"},"personalMessage":"Who's in?"}`
	rec := f.do(t, http.MethodPost, "/api/share-trip", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[httpadapter.ShareTripResponse](t, rec)
	if !resp.Success || resp.PostID != "abc123" || resp.PostURL != "https://reddit.com/r/tripspin/comments/abc123" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(f.publisher.submitted) != 1 || f.publisher.submitted[0].Subreddit != "tripspin" {
		t.Errorf("unexpected submissions: %+v", f.publisher.submitted)
	}

	rec = f.do(t, http.MethodGet, "/api/shared-trips?limit=5", "")
	trips := decode[httpadapter.SharedTripsResponse](t, rec)
	if len(trips.Trips) != 1 || trips.Trips[0].Destination != "Kyoto, Japan" {
		t.Errorf("unexpected trips: %+v", trips.Trips)
	}
}

func TestShareTrip_Failures(t *testing.T) {
	f := newFixture(t, true, nil)

	long := strings.Repeat("x", 501)
	rec := f.do(t, http.MethodPost, "/api/share-trip", `{"country":"Japan","personalMessage":"`+long+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("long message: status %d, want 400", rec.Code)
	}

	f.publisher.err = errors.New("rate limited")
	rec = f.do(t, http.MethodPost, "/api/share-trip", `{"country":"Japan"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("publish failure: status %d, want 500", rec.Code)
	}
	if resp := decode[httpadapter.ShareTripResponse](t, rec); resp.Success {
		t.Error("failed share reported success")
	}
}

func TestShareTrip_MessageLengthCountsCharacters(t *testing.T) {
	f := newFixture(t, true, nil)

	ok := strings.Repeat("🌍", 500)
	rec := f.do(t, http.MethodPost, "/api/share-trip", `{"country":"Japan","personalMessage":"`+ok+`"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("500 characters: status %d, want 200", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/share-trip", `{"country":"Japan","personalMessage":"`+ok+`!"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("501 characters: status %d, want 400", rec.Code)
	}
}

func TestSharedTrips_InvalidLimit(t *testing.T) {
	f := newFixture(t, false, nil)
	for _, q := range []string{"abc", "0", "101"} {
		rec := f.do(t, http.MethodGet, "/api/shared-trips?limit="+q, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status %d, want 400", q, rec.Code)
		}
	}
	rec := f.do(t, http.MethodGet, "/api/shared-trips", "")
	if trips := decode[httpadapter.SharedTripsResponse](t, rec); len(trips.Trips) != 0 {
		t.Errorf("expected no trips, got %d", len(trips.Trips))
	}
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t, true, nil)
	id := f.createSession(t)
	base := "/api/sessions/" + id

	rec := f.do(t, http.MethodPost, base+"/spin", "")
	resp := decode[httpadapter.ActionResponse](t, rec)
	if !resp.Accepted || resp.Page.State != domain.StateSpinning {
		t.Fatalf("spin: %+v", resp)
	}
	if resp.Page.Button.Enabled {
		t.Error("button should be disabled while spinning")
	}

	rec = f.do(t, http.MethodPost, base+"/spin", "")
	if resp := decode[httpadapter.ActionResponse](t, rec); resp.Accepted {
		t.Error("second spin should be rejected")
	}

	f.sched.Advance(game.DefaultTiming.Spin + game.DefaultTiming.Zoom)

	rec = f.do(t, http.MethodGet, base, "")
	page := decode[viewmodel.Page](t, rec)
	if page.State != domain.StateResult || page.Overlay.Headline != "JAPAN" {
		t.Fatalf("after spin: state %q headline %q", page.State, page.Overlay.Headline)
	}

	rec = f.do(t, http.MethodPost, base+"/itinerary", "")
	resp = decode[httpadapter.ActionResponse](t, rec)
	if rec.Code != http.StatusOK || resp.Itinerary == nil || resp.Page.State != domain.StateItinerary {
		t.Fatalf("itinerary: %d %+v", rec.Code, resp)
	}
	if resp.Page.Itinerary == nil || resp.Page.Itinerary.Subreddit != "japantravel" {
		t.Errorf("itinerary view: %+v", resp.Page.Itinerary)
	}

	rec = f.do(t, http.MethodPost, base+"/share", `{"personalMessage":"See you there"}`)
	resp = decode[httpadapter.ActionResponse](t, rec)
	if resp.Share == nil || !resp.Share.Success {
		t.Fatalf("share: %+v", resp)
	}
	if !strings.Contains(f.publisher.submitted[0].Text, "See you there") {
		t.Error("personal message missing from post")
	}

	rec = f.do(t, http.MethodPost, base+"/reset", "")
	if resp := decode[httpadapter.ActionResponse](t, rec); resp.Page.State != domain.StateZooming {
		t.Errorf("reset: state %q", resp.Page.State)
	}
	f.sched.Advance(game.DefaultTiming.Reset)
	if page := decode[viewmodel.Page](t, f.do(t, http.MethodGet, base, "")); page.State != domain.StateIdle {
		t.Errorf("after reset: state %q", page.State)
	}

	if rec := f.do(t, http.MethodDelete, base, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete: status %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, base, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted: status %d", rec.Code)
	}
}

func TestSessionActions_Conflicts(t *testing.T) {
	f := newFixture(t, true, nil)
	base := "/api/sessions/" + f.createSession(t)

	if rec := f.do(t, http.MethodPost, base+"/itinerary", ""); rec.Code != http.StatusConflict {
		t.Errorf("itinerary while idle: status %d, want 409", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, base+"/share", `{}`); rec.Code != http.StatusConflict {
		t.Errorf("share without itinerary: status %d, want 409", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/sessions/nope/spin", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown session: status %d, want 404", rec.Code)
	}
}

func TestSessionForm_RedirectsToView(t *testing.T) {
	f := newFixture(t, false, nil)
	id := f.createSession(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/spin", strings.NewReader(""))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/api/sessions/"+id+"/view" {
		t.Errorf("location %q", loc)
	}
}

func TestViewSession(t *testing.T) {
	f := newFixture(t, false, nil)
	id := f.createSession(t)

	rec := f.do(t, http.MethodGet, "/api/sessions/"+id+"/view", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Spin the Globe") {
		t.Error("idle title missing from page")
	}
}

type streamFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(streamFrame) bool) streamFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg streamFrame
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func viewIn(state domain.GameState) func(streamFrame) bool {
	return func(m streamFrame) bool {
		if m.Type != "view" {
			return false
		}
		var p viewmodel.Page
		return json.Unmarshal(m.Payload, &p) == nil && p.State == state
	}
}

func TestStream(t *testing.T) {
	f := newFixture(t, false, nil)
	id := f.createSession(t)

	srv := httptest.NewServer(f.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readUntil(t, conn, viewIn(domain.StateIdle))

	if err := conn.WriteJSON(httpadapter.StreamCommand{Type: "ping"}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, func(m streamFrame) bool { return m.Type == "pong" })

	if err := conn.WriteJSON(httpadapter.StreamCommand{Type: "spin"}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, viewIn(domain.StateSpinning))

	if err := conn.WriteJSON(httpadapter.StreamCommand{Type: "itinerary"}); err != nil {
		t.Fatal(err)
	}
	msg := readUntil(t, conn, func(m streamFrame) bool { return m.Type == "error" })
	if !strings.Contains(string(msg.Payload), domain.ErrInvalidTransition.Error()) {
		t.Errorf("unexpected error payload: %s", msg.Payload)
	}

	if err := conn.WriteJSON(httpadapter.StreamCommand{Type: "dance"}); err != nil {
		t.Fatal(err)
	}
	msg = readUntil(t, conn, func(m streamFrame) bool { return m.Type == "error" })
	if !strings.Contains(string(msg.Payload), "unknown message type") {
		t.Errorf("unexpected error payload: %s", msg.Payload)
	}

	f.sched.Advance(game.DefaultTiming.Spin + game.DefaultTiming.Zoom)
	readUntil(t, conn, viewIn(domain.StateResult))
}

func TestStream_UnknownSession(t *testing.T) {
	f := newFixture(t, false, nil)
	srv := httptest.NewServer(f.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/missing/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 response, got %+v", resp)
	}
}
