package game_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
	"github.com/NaimTheDev/devvit-trip-spin/internal/game"
)

type stubPicker struct {
	loc    domain.SelectedLocation
	during func()
}

func (p *stubPicker) Pick(_ context.Context) domain.SelectedLocation {
	if p.during != nil {
		p.during()
	}
	return p.loc
}

type stubPlanner struct {
	plan    domain.TripPlan
	err     error
	during  func()
	country string
}

func (p *stubPlanner) PlanTrip(_ context.Context, country string) (domain.TripPlan, error) {
	p.country = country
	if p.during != nil {
		p.during()
	}
	return p.plan, p.err
}

type stubSharer struct {
	res domain.ShareResult
	err error
	req domain.ShareRequest
}

func (s *stubSharer) ShareTrip(_ context.Context, req domain.ShareRequest) (domain.ShareResult, error) {
	s.req = req
	return s.res, s.err
}

type fixture struct {
	sched   *game.ManualScheduler
	picker  *stubPicker
	planner *stubPlanner
	sharer  *stubSharer
	coord   *game.Coordinator
}

func newFixture(loc domain.SelectedLocation) *fixture {
	f := &fixture{
		sched:   game.NewManualScheduler(),
		picker:  &stubPicker{loc: loc},
		planner: &stubPlanner{err: errors.New("offline")},
		sharer:  &stubSharer{},
	}
	f.coord = game.NewCoordinator(game.CoordinatorDeps{
		Picker:    f.picker,
		Planner:   f.planner,
		Sharer:    f.sharer,
		Scheduler: f.sched,
		Logger:    slog.Default(),
	})
	return f
}

func (f *fixture) toResult(t *testing.T) {
	t.Helper()
	if !f.coord.StartSpin(context.Background()) {
		t.Fatal("spin rejected")
	}
	f.sched.Advance(game.DefaultTiming.Spin + game.DefaultTiming.Zoom)
	if st := f.coord.Snapshot().State; st != domain.StateResult {
		t.Fatalf("expected result state, got %s", st)
	}
}

func TestCoordinator_SpinLifecycle(t *testing.T) {
	f := newFixture(domain.CountryLocation("Japan"))

	if !f.coord.StartSpin(context.Background()) {
		t.Fatal("spin from idle should start")
	}
	s := f.coord.Snapshot()
	if s.State != domain.StateSpinning || !s.IsSpinning {
		t.Fatalf("expected spinning, got %+v", s)
	}
	if s.Location == nil || s.Location.Country != "Japan" {
		t.Fatalf("location not set after pick: %+v", s.Location)
	}

	f.sched.Advance(game.DefaultTiming.Spin - time.Millisecond)
	if st := f.coord.Snapshot().State; st != domain.StateSpinning {
		t.Errorf("zoom started early: %s", st)
	}

	f.sched.Advance(time.Millisecond)
	if st := f.coord.Snapshot().State; st != domain.StateZooming {
		t.Errorf("expected zooming, got %s", st)
	}

	f.sched.Advance(game.DefaultTiming.Zoom)
	s = f.coord.Snapshot()
	if s.State != domain.StateResult || s.IsSpinning {
		t.Errorf("expected result without spinning, got %+v", s)
	}
}

func TestCoordinator_SpinGuard(t *testing.T) {
	f := newFixture(domain.CountryLocation("Peru"))

	f.coord.StartSpin(context.Background())
	if f.coord.StartSpin(context.Background()) {
		t.Error("second spin while spinning should be rejected")
	}
	f.sched.Advance(game.DefaultTiming.Spin + game.DefaultTiming.Zoom)
	if f.coord.StartSpin(context.Background()) {
		t.Error("spin from result should be rejected")
	}
	if f.sched.Pending() != 0 {
		t.Errorf("rejected spins must not schedule work, %d pending", f.sched.Pending())
	}
}

func TestCoordinator_ResetCancelsPendingSpin(t *testing.T) {
	f := newFixture(domain.CountryLocation("Chile"))

	f.coord.StartSpin(context.Background())
	f.sched.Advance(time.Second)
	f.coord.ResetToIdle()

	if st := f.coord.Snapshot().State; st != domain.StateZooming {
		t.Fatalf("reset should zoom out first, got %s", st)
	}

	f.sched.Advance(game.DefaultTiming.Reset)
	s := f.coord.Snapshot()
	if s.State != domain.StateIdle || s.Location != nil || s.IsSpinning || s.Itinerary != nil {
		t.Fatalf("expected cleared idle state, got %+v", s)
	}

	f.sched.Advance(10 * time.Second)
	if st := f.coord.Snapshot().State; st != domain.StateIdle {
		t.Errorf("stale spin timer fired after reset: %s", st)
	}
	if f.sched.Pending() != 0 {
		t.Errorf("%d timers still pending", f.sched.Pending())
	}
}

func TestCoordinator_ResetDuringPick(t *testing.T) {
	f := newFixture(domain.CountryLocation("Chad"))
	f.picker.during = func() { f.coord.ResetToIdle() }

	if !f.coord.StartSpin(context.Background()) {
		t.Fatal("spin should start")
	}
	if s := f.coord.Snapshot(); s.Location != nil {
		t.Errorf("stale pick applied after reset: %+v", s.Location)
	}

	f.sched.Advance(time.Minute)
	if st := f.coord.Snapshot().State; st != domain.StateIdle {
		t.Errorf("expected idle, got %s", st)
	}
}

func TestCoordinator_ListenersSeeEveryTransitionInOrder(t *testing.T) {
	f := newFixture(domain.CountryLocation("Japan"))

	var states []string
	f.coord.Subscribe(func(curr, prev game.Snapshot) {
		states = append(states, string(prev.State)+">"+string(curr.State))
		_ = f.coord.Snapshot()
	})

	f.toResult(t)
	f.coord.ResetToIdle()
	f.sched.Advance(game.DefaultTiming.Reset)

	want := []string{
		"idle>spinning",
		"spinning>spinning",
		"spinning>zooming",
		"zooming>result",
		"result>zooming",
		"zooming>idle",
	}
	if strings.Join(states, ",") != strings.Join(want, ",") {
		t.Errorf("got %v\nwant %v", states, want)
	}
}

func TestCoordinator_Unsubscribe(t *testing.T) {
	f := newFixture(domain.CountryLocation("Japan"))

	calls := 0
	cancel := f.coord.Subscribe(func(_, _ game.Snapshot) { calls++ })
	f.coord.StartSpin(context.Background())
	cancel()
	cancel()
	before := calls
	f.sched.Advance(time.Minute)

	if before == 0 || calls != before {
		t.Errorf("calls before=%d after=%d", before, calls)
	}
}

func TestCoordinator_GetItinerary_RequiresResult(t *testing.T) {
	f := newFixture(domain.CountryLocation("Japan"))

	if _, err := f.coord.GetItinerary(context.Background()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("idle: expected ErrInvalidTransition, got %v", err)
	}
	f.coord.StartSpin(context.Background())
	if _, err := f.coord.GetItinerary(context.Background()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("spinning: expected ErrInvalidTransition, got %v", err)
	}
}

func TestCoordinator_GetItinerary_FallsBackLocally(t *testing.T) {
	f := newFixture(domain.CountryLocation("Japan"))
	f.toResult(t)

	it, err := f.coord.GetItinerary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(it.Destination, "Japan") {
		t.Errorf("destination %q should contain Japan", it.Destination)
	}
	if len(it.Days) != 3 {
		t.Errorf("expected 3 days, got %d", len(it.Days))
	}

	s := f.coord.Snapshot()
	if s.State != domain.StateItinerary || s.Itinerary == nil || s.LoadingItinerary {
		t.Errorf("unexpected snapshot: %+v", s)
	}
	if f.planner.country != "Japan" {
		t.Errorf("planned for %q", f.planner.country)
	}
}

func TestCoordinator_GetItinerary_CityDestination(t *testing.T) {
	f := newFixture(domain.SelectedLocation{Name: "Kyoto", Country: "Japan"})
	f.planner.err = nil
	f.planner.plan = domain.TripPlan{
		Country:       "Japan",
		SubredditUsed: "japantravel",
		Posts:         []domain.ItineraryPost{{ID: "p1"}},
		Itinerary:     domain.SynthesizeItinerary("Japan", []string{"Fushimi Inari at dawn"}),
	}
	f.toResult(t)

	it, err := f.coord.GetItinerary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.Destination != "Kyoto, Japan" {
		t.Errorf("destination = %q", it.Destination)
	}
	s := f.coord.Snapshot()
	if s.SubredditUsed != "japantravel" || len(s.Posts) != 1 {
		t.Errorf("content not stored: %+v", s)
	}
}

func TestCoordinator_GetItinerary_Superseded(t *testing.T) {
	f := newFixture(domain.CountryLocation("Japan"))
	f.toResult(t)
	f.planner.during = func() { f.coord.ResetToIdle() }

	if _, err := f.coord.GetItinerary(context.Background()); !errors.Is(err, domain.ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if s := f.coord.Snapshot(); s.State != domain.StateZooming || s.Itinerary != nil {
		t.Errorf("stale itinerary applied: %+v", s)
	}
}

func TestCoordinator_ShareTrip(t *testing.T) {
	f := newFixture(domain.CountryLocation("Japan"))

	if _, err := f.coord.ShareTrip(context.Background(), "hi"); !errors.Is(err, domain.ErrNoItinerary) {
		t.Fatalf("expected ErrNoItinerary, got %v", err)
	}

	f.toResult(t)
	if _, err := f.coord.GetItinerary(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.sharer.res = domain.ShareResult{Success: true, PostID: "abc", PostURL: "https://reddit.com/r/x/comments/abc"}

	res, err := f.coord.ShareTrip(context.Background(), "Join me!")
	if err != nil || !res.Success {
		t.Fatalf("share failed: %+v, %v", res, err)
	}
	if f.sharer.req.PersonalMessage != "Join me!" || f.sharer.req.Country != "Japan" {
		t.Errorf("unexpected request: %+v", f.sharer.req)
	}
	s := f.coord.Snapshot()
	if s.State != domain.StateItinerary {
		t.Errorf("share changed state to %s", s.State)
	}
	if s.LastShare == nil || s.LastShare.PostID != "abc" {
		t.Errorf("last share not recorded: %+v", s.LastShare)
	}
}

func TestCoordinator_ShareTrip_Failure(t *testing.T) {
	f := newFixture(domain.CountryLocation("Japan"))
	f.toResult(t)
	_, _ = f.coord.GetItinerary(context.Background())
	f.sharer.err = domain.ErrUpstreamCommunity

	res, err := f.coord.ShareTrip(context.Background(), "")
	if !errors.Is(err, domain.ErrUpstreamCommunity) || res.Success {
		t.Fatalf("expected failure, got %+v, %v", res, err)
	}
	if s := f.coord.Snapshot(); s.LastShare == nil || s.LastShare.Success {
		t.Errorf("failed share should be recorded as unsuccessful: %+v", s.LastShare)
	}
}

func TestCoordinator_ResetAfterItineraryClearsEverything(t *testing.T) {
	f := newFixture(domain.CountryLocation("Japan"))
	f.toResult(t)
	_, _ = f.coord.GetItinerary(context.Background())

	f.coord.ResetToIdle()
	f.sched.Advance(game.DefaultTiming.Reset)

	s := f.coord.Snapshot()
	if s.State != domain.StateIdle || s.Itinerary != nil || s.Location != nil || s.Posts != nil {
		t.Errorf("state not cleared: %+v", s)
	}
	if !f.coord.StartSpin(context.Background()) {
		t.Error("should be able to spin again")
	}
}

func TestCoordinator_Close(t *testing.T) {
	f := newFixture(domain.CountryLocation("Japan"))
	f.coord.StartSpin(context.Background())
	f.coord.Close()

	f.sched.Advance(time.Minute)
	if st := f.coord.Snapshot().State; st != domain.StateSpinning {
		t.Errorf("closed coordinator advanced to %s", st)
	}
	if f.coord.StartSpin(context.Background()) {
		t.Error("closed coordinator accepted a spin")
	}
}
