package motion

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	uuid "github.com/gofrs/uuid/v5"

	"github.com/kmmndr/motion_player/internal/frame"
)

func gray(t *testing.T, index, w, h int, v uint8) *frame.Frame {
	t.Helper()
	f, err := frame.FromBytes(index, w, h, bytes.Repeat([]byte{v}, w*h))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	return f
}

func TestClamp(t *testing.T) {
	s := DefaultSkipper()
	cases := []struct {
		scaled float64
		want   int
	}{
		{0, 1},
		{0.99, 1},
		{1, 1},
		{37.9, 37},
		{199.99, 199},
		{200, 200},
		{255, 200},
		{1e9, 200},
	}
	for _, c := range cases {
		if got := s.Clamp(c.scaled); got != c.want {
			t.Errorf("Clamp(%v) = %d, want %d", c.scaled, got, c.want)
		}
	}
}

func TestFrameSkipDegenerateSignal(t *testing.T) {
	s := DefaultSkipper()
	sig := Signal{Sum: 0, NonZero: 0, Pixels: 16}
	if !sig.Degenerate() {
		t.Fatal("expected degenerate signal")
	}
	if got := s.FrameSkip(sig); got != 1 {
		t.Fatalf("FrameSkip = %d, want 1", got)
	}
}

func TestNewSkipperNormalizesBounds(t *testing.T) {
	s := NewSkipper(0, -5)
	if s.Min != 1 || s.Max != 1 {
		t.Fatalf("got %+v", s)
	}
	s = NewSkipper(3, 100)
	if got := s.Clamp(2); got != 3 {
		t.Fatalf("Clamp below min = %d", got)
	}
	if got := s.Clamp(150); got != 100 {
		t.Fatalf("Clamp above max = %d", got)
	}
}

func TestDetectorIdenticalFrames(t *testing.T) {
	d := NewDetector(4, 4, DefaultSkipper())
	if _, _, err := d.Measure(gray(t, 0, 4, 4, 40)); err != nil {
		t.Fatal(err)
	}

	sig, skip, err := d.Measure(gray(t, 1, 4, 4, 40))
	if err != nil {
		t.Fatal(err)
	}
	if sig.NonZero != 0 || skip != 1 {
		t.Fatalf("nonzero=%d skip=%d", sig.NonZero, skip)
	}
}

func TestDetectorFullSwing(t *testing.T) {
	d := NewDetector(4, 4, DefaultSkipper())

	sig, skip, err := d.Measure(gray(t, 0, 4, 4, 255))
	if err != nil {
		t.Fatal(err)
	}
	scaled, ok := sig.Scaled()
	if !ok || scaled != 255 {
		t.Fatalf("scaled=%v ok=%v", scaled, ok)
	}
	if skip != 200 {
		t.Fatalf("skip = %d, want 200", skip)
	}
	if sig.Baseline() != 255 {
		t.Fatalf("baseline = %v", sig.Baseline())
	}
}

func TestDetectorPartialChange(t *testing.T) {
	d := NewDetector(2, 2, DefaultSkipper())
	defer d.Close()
	cur, _ := frame.FromBytes(0, 2, 2, []uint8{0, 0, 30, 45})

	sig, skip, err := d.Measure(cur)
	if err != nil {
		t.Fatal(err)
	}
	// (30+45)/2 = 37.5
	if skip != 37 {
		t.Fatalf("skip = %d, want 37", skip)
	}
	if sig.Baseline() != 18.75 {
		t.Fatalf("baseline = %v", sig.Baseline())
	}
	if sig.Changed != 50 {
		t.Fatalf("changed = %v", sig.Changed)
	}
}

func TestDetectorDimensionMismatch(t *testing.T) {
	d := NewDetector(4, 4, DefaultSkipper())
	if _, _, err := d.Measure(gray(t, 0, 2, 2, 1)); err == nil {
		t.Fatal("expected mismatch error")
	}
}

type sliceSource struct {
	frames []*frame.Frame
}

func (s *sliceSource) Read() (*frame.Frame, error) {
	if len(s.frames) == 0 {
		return nil, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func TestSensorCursorIsMonotonic(t *testing.T) {
	src := &sliceSource{}
	for i, v := range []uint8{0, 255, 255, 10, 200, 200} {
		src.frames = append(src.frames, gray(t, i, 4, 4, v))
	}

	sensor := NewSensor(src, NewDetector(4, 4, DefaultSkipper()), 2)
	var samples []Sample
	n, err := sensor.Detect(context.Background(), func(s Sample) { samples = append(samples, s) })
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 || len(samples) != 6 {
		t.Fatalf("n=%d samples=%d", n, len(samples))
	}

	prev := 1
	for _, s := range samples {
		if s.FrameSkip < 1 || s.FrameSkip > 200 {
			t.Fatalf("skip %d out of range", s.FrameSkip)
		}
		if s.Cursor != prev+s.FrameSkip+2 {
			t.Fatalf("iteration %d: cursor %d, previous %d, skip %d", s.Iteration, s.Cursor, prev, s.FrameSkip)
		}
		prev = s.Cursor
	}
	if !samples[0].Degenerate || samples[1].FrameSkip != 200 {
		t.Fatalf("unexpected first samples: %+v %+v", samples[0], samples[1])
	}
}

func TestSensorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sensor := NewSensor(&sliceSource{frames: []*frame.Frame{gray(t, 0, 2, 2, 1)}}, NewDetector(2, 2, DefaultSkipper()), 2)
	if _, err := sensor.Detect(ctx, func(Sample) {}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestReport(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewReport(uuid.Must(uuid.NewV4()), start)
	for i, skip := range []int{1, 10, 40} {
		_ = r.Observe(Sample{Iteration: i, Time: start.Add(time.Duration(i+1) * time.Second), FrameSkip: skip, Degenerate: skip == 1, Changed: float64(skip), Cursor: 100 + i})
	}
	r.SetOutcome("video_ended")

	if r.Frames() != 3 || r.MaxFrameSkip() != 40 || r.DegenerateFrames() != 1 {
		t.Fatalf("frames=%d max=%d degenerate=%d", r.Frames(), r.MaxFrameSkip(), r.DegenerateFrames())
	}
	if r.MeanFrameSkip() != 17 {
		t.Fatalf("mean = %v", r.MeanFrameSkip())
	}
	if r.MeanChanged() != 17 {
		t.Fatalf("mean changed = %v", r.MeanChanged())
	}
	if r.Duration() != 3*time.Second {
		t.Fatalf("duration = %v", r.Duration())
	}

	path := filepath.Join(t.TempDir(), "report.json")
	if err := r.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded MotionReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.UUID != r.UUID() || decoded.MeanFrameSkip != "17.00" || decoded.MeanChanged != "17.00" || decoded.Cursor != 102 || decoded.Outcome != "video_ended" {
		t.Fatalf("unexpected report %+v", decoded)
	}
}
