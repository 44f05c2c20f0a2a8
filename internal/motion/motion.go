package motion

import (
	"time"

	"github.com/kmmndr/motion_player/internal/frame"
)

// Signal summarises the difference between two consecutive grayscale frames.
type Signal struct {
	Sum     uint64
	NonZero int
	Pixels  int
	// Changed is the share of changed pixels, in percent.
	Changed float64
}

func SignalFromDiff(diff frame.Diff) Signal {
	return Signal{Sum: diff.Sum, NonZero: diff.NonZero, Pixels: diff.Pixels, Changed: diff.DiffPercentage()}
}

// Degenerate reports a motion-free pair of frames, for which Scaled is undefined.
func (s Signal) Degenerate() bool {
	return s.NonZero == 0
}

// Scaled is the mean intensity change over the pixels that changed at all.
func (s Signal) Scaled() (float64, bool) {
	if s.Degenerate() {
		return 0, false
	}
	return float64(s.Sum) / float64(s.NonZero), true
}

// Baseline is the mean intensity change over the whole frame.
func (s Signal) Baseline() float64 {
	if s.Pixels == 0 {
		return 0
	}
	return float64(s.Sum) / float64(s.Pixels)
}

// Sample is what one control loop iteration produced.
type Sample struct {
	Iteration  int       `json:"iteration" cbor:"iteration"`
	Time       time.Time `json:"time" cbor:"time"`
	Sum        uint64    `json:"sum" cbor:"sum"`
	NonZero    int       `json:"non_zero" cbor:"non_zero"`
	Changed    float64   `json:"changed" cbor:"changed"`
	Baseline   float64   `json:"baseline" cbor:"baseline"`
	Scaled     float64   `json:"scaled" cbor:"scaled"`
	Degenerate bool      `json:"degenerate" cbor:"degenerate"`
	FrameSkip  int       `json:"frame_skip" cbor:"frame_skip"`
	Cursor     int       `json:"cursor" cbor:"cursor"`
}

func NewSample(iteration int, at time.Time, signal Signal, frameSkip int) Sample {
	scaled, ok := signal.Scaled()

	return Sample{
		Iteration:  iteration,
		Time:       at,
		Sum:        signal.Sum,
		NonZero:    signal.NonZero,
		Changed:    signal.Changed,
		Baseline:   signal.Baseline(),
		Scaled:     scaled,
		Degenerate: !ok,
		FrameSkip:  frameSkip,
	}
}
