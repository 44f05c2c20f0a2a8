package motion

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	uuid "github.com/gofrs/uuid/v5"
)

// Report accumulates the samples of one run.
type Report struct {
	uuid       uuid.UUID
	started    time.Time
	last       time.Time
	frames     int
	skipTotal  int
	changed    float64
	maxSkip    int
	degenerate int
	cursor     int
	outcome    string
}

func NewReport(id uuid.UUID, started time.Time) *Report {
	return &Report{uuid: id, started: started, last: started}
}

func (r *Report) UUID() string {
	return r.uuid.String()
}

// Observe adds one sample to the report.
func (r *Report) Observe(s Sample) error {
	r.frames++
	r.skipTotal += s.FrameSkip
	r.changed += s.Changed
	if s.FrameSkip > r.maxSkip {
		r.maxSkip = s.FrameSkip
	}
	if s.Degenerate {
		r.degenerate++
	}
	r.cursor = s.Cursor
	if s.Time.After(r.last) {
		r.last = s.Time
	}
	return nil
}

func (r *Report) SetOutcome(outcome string) {
	r.outcome = outcome
}

func (r *Report) Frames() int {
	return r.frames
}

func (r *Report) MeanFrameSkip() float64 {
	if r.frames == 0 {
		return 0
	}
	return float64(r.skipTotal) / float64(r.frames)
}

// MeanChanged is the mean share of changed pixels, in percent.
func (r *Report) MeanChanged() float64 {
	if r.frames == 0 {
		return 0
	}
	return r.changed / float64(r.frames)
}

func (r *Report) MaxFrameSkip() int {
	return r.maxSkip
}

func (r *Report) DegenerateFrames() int {
	return r.degenerate
}

func (r *Report) Duration() time.Duration {
	return r.last.Sub(r.started)
}

// MotionReport is the serialized form of a Report.
type MotionReport struct {
	UUID             string `json:"uuid"`
	Date             string `json:"date"`
	Duration         string `json:"duration"`
	Frames           int    `json:"frames"`
	MeanFrameSkip    string `json:"mean_frame_skip"`
	MaxFrameSkip     int    `json:"max_frame_skip"`
	MeanChanged      string `json:"mean_changed"`
	DegenerateFrames int    `json:"degenerate_frames"`
	Cursor           int    `json:"cursor"`
	Outcome          string `json:"outcome"`
}

func NewMotionReport(r *Report) *MotionReport {
	return &MotionReport{
		UUID:             r.UUID(),
		Date:             r.started.Format(time.RFC3339),
		Duration:         fmt.Sprintf("%.2f", r.Duration().Seconds()),
		Frames:           r.frames,
		MeanFrameSkip:    fmt.Sprintf("%.2f", r.MeanFrameSkip()),
		MaxFrameSkip:     r.maxSkip,
		MeanChanged:      fmt.Sprintf("%.2f", r.MeanChanged()),
		DegenerateFrames: r.degenerate,
		Cursor:           r.cursor,
		Outcome:          r.outcome,
	}
}

func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(NewMotionReport(r), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
