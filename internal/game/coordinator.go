// Package game runs the spin-the-globe state machine for a session.
package game

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
)

// DestinationPicker chooses the destination of a spin. It never fails.
type DestinationPicker interface {
	Pick(ctx context.Context) domain.SelectedLocation
}

// TripPlanner gathers content and an itinerary for a country.
type TripPlanner interface {
	PlanTrip(ctx context.Context, country string) (domain.TripPlan, error)
}

// TripSharer publishes an itinerary.
type TripSharer interface {
	ShareTrip(ctx context.Context, req domain.ShareRequest) (domain.ShareResult, error)
}

// Timing holds the delays between timed transitions.
type Timing struct {
	Spin  time.Duration
	Zoom  time.Duration
	Reset time.Duration
}

// DefaultTiming matches the globe animation.
var DefaultTiming = Timing{
	Spin:  2000 * time.Millisecond,
	Zoom:  1500 * time.Millisecond,
	Reset: 1000 * time.Millisecond,
}

// Snapshot is a copy of a session's state. Pointer and slice fields are
// replaced wholesale on change and must be treated as read-only.
type Snapshot struct {
	State            domain.GameState           `json:"state"`
	Location         *domain.SelectedLocation   `json:"location,omitempty"`
	IsSpinning       bool                       `json:"isSpinning"`
	LoadingItinerary bool                       `json:"loadingItinerary"`
	Itinerary        *domain.GeneratedItinerary `json:"itinerary,omitempty"`
	Posts            []domain.ItineraryPost     `json:"posts,omitempty"`
	Comments         []domain.ItineraryComment  `json:"comments,omitempty"`
	SubredditUsed    string                     `json:"subredditUsed,omitempty"`
	LastShare        *domain.ShareResult        `json:"lastShare,omitempty"`
	Generation       uint64                     `json:"generation"`
}

// Listener observes every mutation with the new and previous snapshot.
type Listener func(curr, prev Snapshot)

type change struct {
	curr, prev Snapshot
}

// CoordinatorDeps wires a Coordinator.
type CoordinatorDeps struct {
	Picker    DestinationPicker
	Planner   TripPlanner
	Sharer    TripSharer
	Scheduler Scheduler
	Timing    Timing
	Logger    *slog.Logger
}

// Coordinator owns one session's game state. Actions may be called from any
// goroutine. Every StartSpin and ResetToIdle starts a new generation; timed
// transitions and async results of older generations are discarded.
type Coordinator struct {
	picker  DestinationPicker
	planner TripPlanner
	sharer  TripSharer
	sched   Scheduler
	timing  Timing
	logger  *slog.Logger

	mu        sync.Mutex
	state     Snapshot
	gen       uint64
	timers    []Timer
	queue     []change
	listeners map[int]Listener
	nextID    int
	closed    bool

	dispatch sync.Mutex
}

func NewCoordinator(d CoordinatorDeps) *Coordinator {
	c := &Coordinator{
		picker:    d.Picker,
		planner:   d.Planner,
		sharer:    d.Sharer,
		sched:     d.Scheduler,
		timing:    d.Timing,
		logger:    d.Logger,
		state:     Snapshot{State: domain.StateIdle},
		listeners: make(map[int]Listener),
	}
	if c.sched == nil {
		c.sched = RealScheduler{}
	}
	if c.timing == (Timing{}) {
		c.timing = DefaultTiming
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers l for every later mutation. Listeners run in mutation
// order, one at a time.
func (c *Coordinator) Subscribe(l Listener) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// StartSpin begins a spin from IDLE. It returns false without effect in any
// other state or while a spin is running.
func (c *Coordinator) StartSpin(ctx context.Context) bool {
	c.mu.Lock()
	if c.closed || c.state.State != domain.StateIdle || c.state.IsSpinning {
		c.mu.Unlock()
		return false
	}
	c.gen++
	gen := c.gen
	c.mutateLocked(func(s *Snapshot) {
		s.State = domain.StateSpinning
		s.IsSpinning = true
	})
	c.mu.Unlock()
	c.flush()

	loc := c.picker.Pick(ctx)
	if !c.apply(gen, func(s *Snapshot) { s.Location = &loc }) {
		return true
	}

	c.schedule(gen, c.timing.Spin, func() {
		if !c.apply(gen, func(s *Snapshot) { s.State = domain.StateZooming }) {
			return
		}
		c.schedule(gen, c.timing.Zoom, func() {
			c.apply(gen, func(s *Snapshot) {
				s.State = domain.StateResult
				s.IsSpinning = false
			})
		})
	})
	return true
}

// ResetToIdle zooms out from any state and clears the session once the
// zoom completes. Pending transitions of the previous generation are stopped.
func (c *Coordinator) ResetToIdle() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.stopTimersLocked()
	c.mutateLocked(func(s *Snapshot) { s.State = domain.StateZooming })
	c.mu.Unlock()
	c.flush()

	c.schedule(gen, c.timing.Reset, func() {
		c.apply(gen, func(s *Snapshot) { *s = Snapshot{State: domain.StateIdle} })
	})
}

// GetItinerary plans a trip to the spun destination and moves to ITINERARY.
// A failed plan is replaced by a locally synthesized itinerary. It returns
// domain.ErrSuperseded if the session was reset while planning.
func (c *Coordinator) GetItinerary(ctx context.Context) (domain.GeneratedItinerary, error) {
	c.mu.Lock()
	if st := c.state.State; st != domain.StateResult && st != domain.StateItinerary {
		c.mu.Unlock()
		return domain.GeneratedItinerary{}, domain.ErrInvalidTransition
	}
	gen := c.gen
	loc := c.state.Location
	c.mutateLocked(func(s *Snapshot) { s.LoadingItinerary = true })
	c.mu.Unlock()
	c.flush()

	country := domain.UnknownDestination
	if loc != nil && loc.Country != "" {
		country = loc.Country
	}

	plan, err := c.planner.PlanTrip(ctx, country)
	if err != nil {
		c.logger.WarnContext(ctx, "trip planning failed, using local itinerary", "country", country, "error", err)
		plan = domain.TripPlan{
			Country:   country,
			Posts:     []domain.ItineraryPost{},
			Comments:  []domain.ItineraryComment{},
			Itinerary: domain.SynthesizeItinerary(country, nil),
		}
	}

	it := plan.Itinerary
	if loc != nil && loc.Name != "" && loc.Name != loc.Country {
		it.Destination = loc.Name + ", " + loc.Country
	}

	applied := c.apply(gen, func(s *Snapshot) {
		s.State = domain.StateItinerary
		s.LoadingItinerary = false
		s.Itinerary = &it
		s.Posts = plan.Posts
		s.Comments = plan.Comments
		s.SubredditUsed = plan.SubredditUsed
	})
	if !applied {
		return it, domain.ErrSuperseded
	}
	return it, nil
}

// ShareTrip publishes the current itinerary. It never changes the game state;
// the outcome is kept as the last share result.
func (c *Coordinator) ShareTrip(ctx context.Context, personalMessage string) (domain.ShareResult, error) {
	c.mu.Lock()
	it := c.state.Itinerary
	gen := c.gen
	c.mu.Unlock()

	if it == nil {
		return domain.ShareResult{}, domain.ErrNoItinerary
	}

	res, err := c.sharer.ShareTrip(ctx, domain.ShareRequest{
		Country:         it.Country,
		Itinerary:       *it,
		PersonalMessage: personalMessage,
	})
	if err != nil {
		res = domain.ShareResult{}
	}
	c.apply(gen, func(s *Snapshot) { s.LastShare = &res })
	return res, err
}

// Close stops pending transitions and drops all listeners.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.gen++
	c.stopTimersLocked()
	c.listeners = make(map[int]Listener)
	c.queue = nil
}

// apply mutates the state if gen is still current and notifies listeners.
func (c *Coordinator) apply(gen uint64, fn func(s *Snapshot)) bool {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return false
	}
	c.mutateLocked(fn)
	c.mu.Unlock()
	c.flush()
	return true
}

func (c *Coordinator) mutateLocked(fn func(s *Snapshot)) {
	prev := c.state
	fn(&c.state)
	c.state.Generation = c.gen
	c.queue = append(c.queue, change{curr: c.state, prev: prev})
}

func (c *Coordinator) schedule(gen uint64, d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return
	}
	c.timers = append(c.timers, c.sched.AfterFunc(d, f))
}

func (c *Coordinator) stopTimersLocked() {
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
}

// flush delivers queued changes in order. Whoever holds the dispatch lock
// drains the queue; a caller that cannot take it leaves its change to the
// current holder, which re-checks the queue after releasing.
func (c *Coordinator) flush() {
	for {
		if !c.dispatch.TryLock() {
			return
		}
		for {
			c.mu.Lock()
			if len(c.queue) == 0 {
				c.mu.Unlock()
				break
			}
			ch := c.queue[0]
			c.queue = c.queue[1:]
			listeners := c.listenerSnapshotLocked()
			c.mu.Unlock()

			for _, l := range listeners {
				l(ch.curr, ch.prev)
			}
		}
		c.dispatch.Unlock()

		c.mu.Lock()
		empty := len(c.queue) == 0
		c.mu.Unlock()
		if empty {
			return
		}
	}
}

func (c *Coordinator) listenerSnapshotLocked() []Listener {
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Listener, len(ids))
	for i, id := range ids {
		out[i] = c.listeners[id]
	}
	return out
}
