package motion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kmmndr/motion_player/internal/frame"
)

// Source yields grayscale frames until it returns io.EOF.
type Source interface {
	Read() (*frame.Frame, error)
}

// Sensor replays a Source through a Detector without driving any playback,
// reporting the cursor a player would have reached.
type Sensor struct {
	source        Source
	detector      *Detector
	readsPerFrame int
	now           func() time.Time
}

func NewSensor(source Source, detector *Detector, readsPerFrame int) *Sensor {
	return &Sensor{
		source:        source,
		detector:      detector,
		readsPerFrame: readsPerFrame,
		now:           time.Now,
	}
}

// Detect runs until the source is exhausted and returns the number of frames seen.
func (s *Sensor) Detect(ctx context.Context, afterSample func(Sample)) (int, error) {
	cursor := 1
	iteration := 0

	for {
		if err := ctx.Err(); err != nil {
			return iteration, err
		}

		currentFrame, err := s.source.Read()
		if errors.Is(err, io.EOF) {
			return iteration, nil
		}
		if err != nil {
			return iteration, fmt.Errorf("read frame %d: %w", iteration, err)
		}

		signal, skip, err := s.detector.Measure(currentFrame)
		if err != nil {
			currentFrame.Close()
			return iteration, fmt.Errorf("measure frame %d: %w", currentFrame.FrameIndex(), err)
		}

		cursor += skip + s.readsPerFrame
		sample := NewSample(iteration, s.now(), signal, skip)
		sample.Cursor = cursor
		iteration++

		afterSample(sample)
	}
}
