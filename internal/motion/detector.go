package motion

import (
	"github.com/kmmndr/motion_player/internal/frame"
)

// Detector turns consecutive grayscale frames into frame-skip counts.
type Detector struct {
	skipper     Skipper
	frameBuffer *frame.FrameBuffer
}

func NewDetector(width, height int, skipper Skipper) *Detector {
	return &Detector{
		skipper:     skipper,
		frameBuffer: frame.NewFrameBuffer(width, height),
	}
}

func (md *Detector) Skipper() Skipper {
	return md.skipper
}

// Measure compares currentFrame to the previous one and replaces it. The
// detector owns currentFrame once Measure succeeds.
func (md *Detector) Measure(currentFrame *frame.Frame) (Signal, int, error) {
	diff, err := md.frameBuffer.Update(currentFrame)
	if err != nil {
		return Signal{}, 0, err
	}

	signal := SignalFromDiff(diff)

	return signal, md.skipper.FrameSkip(signal), nil
}

// Close releases the buffered frame.
func (md *Detector) Close() {
	md.frameBuffer.Close()
}
