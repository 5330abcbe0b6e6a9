package motion

import (
	"sync"
	"time"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
)

const (
	// FrameInterval is the duration of one animation frame.
	FrameInterval = time.Second / 60
	// RevealDelayFrames is how long the zoom runs before the dark backdrop
	// and rim appear (500ms).
	RevealDelayFrames = 30

	maxCatchUpFrames = 600
)

// Frame is a copy of the motion state at one point in time.
type Frame struct {
	Globe  Globe  `json:"globe"`
	Camera Camera `json:"camera"`
	Scene  Scene  `json:"scene"`
	Tick   uint64 `json:"tick"`
}

// Director drives the globe, camera and scene from game state changes.
// It is safe for concurrent use.
type Director struct {
	mu       sync.Mutex
	globe    Globe
	camera   Camera
	scene    Scene
	revealIn int
	tick     uint64
	synced   time.Time
}

func NewDirector() *Director {
	return &Director{camera: NewCamera(), scene: NewScene()}
}

// Apply reacts to a state transition observed at now. Frames elapsed since
// the last sync run under the previous targets first.
func (d *Director) Apply(curr, prev domain.GameState, now time.Time) {
	if curr == prev {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.syncLocked(now)

	switch curr {
	case domain.StateSpinning:
		d.globe.SetTarget(SpinFast)
	case domain.StateZooming:
		d.globe.SetTarget(SpinSlow)
		d.camera.ZoomIn()
		d.revealIn = RevealDelayFrames
	case domain.StateResult:
		d.globe.Stop()
	case domain.StateIdle:
		if prev == domain.StateZooming {
			d.camera.ZoomOut()
			d.globe.RimVisible = false
			d.scene.Background = BackgroundIdle
			d.revealIn = 0
		}
	}
}

// Step advances n frames.
func (d *Director) Step(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stepLocked(n)
}

// Sync advances as many frames as have elapsed since the previous Sync,
// catching up at most ten seconds.
func (d *Director) Sync(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.syncLocked(now)
}

func (d *Director) syncLocked(now time.Time) {
	if d.synced.IsZero() {
		d.synced = now
		return
	}
	n := int(now.Sub(d.synced) / FrameInterval)
	if n <= 0 {
		return
	}
	d.synced = d.synced.Add(time.Duration(n) * FrameInterval)
	d.stepLocked(min(n, maxCatchUpFrames))
}

func (d *Director) stepLocked(n int) {
	for i := 0; i < n; i++ {
		if d.revealIn > 0 {
			d.revealIn--
			if d.revealIn == 0 {
				d.scene.Background = BackgroundZoomed
				d.globe.RimVisible = true
			}
		}
		d.globe.Step()
		d.camera.Step()
		d.tick++
	}
}

// Frame returns the current motion state.
func (d *Director) Frame() Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Frame{Globe: d.globe, Camera: d.camera, Scene: d.scene, Tick: d.tick}
}
