// Package overlay describes the frame-skip gauge drawn over the reference video.
package overlay

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/kmmndr/motion_player/internal/motion"
)

const (
	slowHue = 120.0 // green
	fastHue = 0.0   // red
)

type Gauge struct {
	Label string
	// Fill is the frame skip relative to the maximum, in [0, 1].
	Fill  float64
	Color color.RGBA
}

// NewGauge builds the gauge for one sample. The zero Gauge means "no overlay".
func NewGauge(s motion.Sample, maxSkip int) Gauge {
	fill := 0.0
	if maxSkip > 0 {
		fill = float64(s.FrameSkip) / float64(maxSkip)
	}
	if fill < 0 {
		fill = 0
	} else if fill > 1 {
		fill = 1
	}

	label := fmt.Sprintf("skip=%d signal=%.1f", s.FrameSkip, s.Scaled)
	if s.Degenerate {
		label = fmt.Sprintf("skip=%d signal=-", s.FrameSkip)
	}

	return Gauge{Label: label, Fill: fill, Color: Color(fill)}
}

func (g Gauge) Empty() bool {
	return g.Label == ""
}

// Color slides from green to red in HSV as fill goes from 0 to 1.
func Color(fill float64) color.RGBA {
	hue := slowHue + (fastHue-slowHue)*fill
	r, g, b := colorful.Hsv(hue, 0.9, 0.95).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
