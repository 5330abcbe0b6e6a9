// Package motion models the per-frame easing of the globe, camera and scene
// so every client animates a session the same way.
package motion

import "math"

const (
	spinEasing    = 0.05
	spinThreshold = 0.001
	rimSpeedRatio = 0.5

	// SpinFast is the target speed while a spin is running.
	SpinFast = 0.08
	// SpinSlow is the target speed while zooming in on the destination.
	SpinSlow = 0.03
)

// Globe eases its spin speed toward a target and accumulates rotation.
type Globe struct {
	Speed       float64 `json:"speed"`
	TargetSpeed float64 `json:"targetSpeed"`
	Rotation    float64 `json:"rotation"`
	RimRotation float64 `json:"rimRotation"`
	RimVisible  bool    `json:"rimVisible"`
}

func (g *Globe) SetTarget(speed float64) { g.TargetSpeed = speed }

func (g *Globe) Stop() { g.TargetSpeed = 0 }

// Spinning reports whether the globe is visibly rotating.
func (g *Globe) Spinning() bool {
	return math.Abs(g.Speed) > spinThreshold
}

// Step advances one frame.
func (g *Globe) Step() {
	g.Speed += (g.TargetSpeed - g.Speed) * spinEasing
	if g.Spinning() {
		g.Rotation += g.Speed
		g.RimRotation += g.Speed * rimSpeedRatio
	}
}
