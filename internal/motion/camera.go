package motion

const (
	// InitialZ is the camera depth when looking at the whole globe.
	InitialZ = 20.0
	// ZoomedZ is the camera depth when focused on a destination.
	ZoomedZ = 12.0

	zoomEasing = 0.02
)

// Camera eases its depth toward one of two fixed positions.
type Camera struct {
	Z       float64 `json:"z"`
	TargetZ float64 `json:"targetZ"`
}

func NewCamera() Camera {
	return Camera{Z: InitialZ, TargetZ: InitialZ}
}

func (c *Camera) ZoomIn()  { c.TargetZ = ZoomedZ }
func (c *Camera) ZoomOut() { c.TargetZ = InitialZ }

// Step advances one frame.
func (c *Camera) Step() {
	c.Z = Lerp(c.Z, c.TargetZ, zoomEasing)
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
