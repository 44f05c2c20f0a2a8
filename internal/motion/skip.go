package motion

import "math"

const (
	DefaultMinFrameSkip = 1
	DefaultMaxFrameSkip = 200
)

// Skipper maps a motion signal to the number of reference frames to jump.
type Skipper struct {
	Min int
	Max int
}

func NewSkipper(min, max int) Skipper {
	if min < 1 {
		min = DefaultMinFrameSkip
	}
	if max < min {
		max = min
	}
	return Skipper{Min: min, Max: max}
}

func DefaultSkipper() Skipper {
	return NewSkipper(DefaultMinFrameSkip, DefaultMaxFrameSkip)
}

// FrameSkip floors the scaled signal into [Min, Max]. A static scene has no
// scaled signal and advances by Min.
func (s Skipper) FrameSkip(signal Signal) int {
	scaled, ok := signal.Scaled()
	if !ok {
		return s.Min
	}
	return s.Clamp(scaled)
}

func (s Skipper) Clamp(scaled float64) int {
	if math.IsNaN(scaled) || scaled < float64(s.Min) {
		return s.Min
	}
	if scaled >= float64(s.Max) {
		return s.Max
	}
	return int(math.Floor(scaled))
}
