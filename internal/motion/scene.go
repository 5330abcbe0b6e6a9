package motion

const (
	// BackgroundIdle is the light sky shown while the camera is pulled back.
	BackgroundIdle = "#7fb8e5"
	// BackgroundZoomed is the dark backdrop shown around a revealed destination.
	BackgroundZoomed = "#2d3748"
)

// Scene holds presentation state that is not tied to an object.
type Scene struct {
	Background string `json:"background"`
}

func NewScene() Scene {
	return Scene{Background: BackgroundIdle}
}
