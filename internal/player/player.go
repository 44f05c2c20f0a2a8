// Package player drives a reference video at a speed set by camera motion.
//
// Each camera frame is diffed against the previous one; the mean change of the
// pixels that moved becomes a frame skip that is added to the reference
// video's cursor before the next frame is shown. The camera records to disk
// for the whole session.
package player

import (
	"time"

	"github.com/kmmndr/motion_player/internal/frame"
	"github.com/kmmndr/motion_player/internal/motion"
	"github.com/kmmndr/motion_player/internal/overlay"
)

// Camera is the live frame source. Next blocks until a frame is available.
type Camera interface {
	StartRecording(path string) error
	StopRecording() error
	Next() (*frame.Frame, error)
	Close() error
}

// Picture is a decoded reference frame, released once displayed.
type Picture interface {
	Close()
}

// Reference is the seekable video whose playback speed is controlled.
type Reference interface {
	IsOpened() bool
	Seek(index int) error
	Read() (Picture, bool)
	Close() error
}

type Display interface {
	// Show renders the picture. An empty gauge draws no overlay.
	Show(p Picture, g overlay.Gauge) error
	// WaitKey returns the key pressed within wait, or -1.
	WaitKey(wait time.Duration) int
	Close() error
}

// Observer receives every iteration's sample.
type Observer interface {
	Observe(motion.Sample) error
}

type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Outcome tells the caller why Run returned.
type Outcome int

const (
	// OutcomeVideoEnded covers a closed reference and a failed read alike.
	OutcomeVideoEnded Outcome = iota
	OutcomeQuit
	OutcomeCanceled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVideoEnded:
		return "video_ended"
	case OutcomeQuit:
		return "quit"
	case OutcomeCanceled:
		return "canceled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}
