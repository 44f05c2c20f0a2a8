package frame

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var ErrDimensionMismatch = errors.New("frame dimensions do not match buffer")

// Diff summarises the absolute per-pixel difference between two frames.
type Diff struct {
	Sum     uint64
	NonZero int
	Pixels  int
}

// FrameBuffer holds the previously seen frame. It starts black.
type FrameBuffer struct {
	previous *Frame
}

func NewFrameBuffer(width, height int) *FrameBuffer {
	return &FrameBuffer{previous: Black(width, height)}
}

func (fb *FrameBuffer) Previous() *Frame {
	return fb.previous
}

// Update diffs currentFrame against the stored frame, then stores
// currentFrame and closes the one it replaces. The buffer is left untouched
// when the dimensions differ, and the caller keeps currentFrame.
func (fb *FrameBuffer) Update(currentFrame *Frame) (Diff, error) {
	diff, err := Difference(fb.previous, currentFrame)
	if err != nil {
		return Diff{}, err
	}
	fb.previous.Close()
	fb.previous = currentFrame

	return diff, nil
}

func (fb *FrameBuffer) Close() {
	fb.previous.Close()
}

// Difference computes |current - previous|, saturated to 8 bits, and sums it.
func Difference(previous, current *Frame) (Diff, error) {
	if !previous.SameSize(current) {
		return Diff{}, fmt.Errorf("%w: buffer %dx%d, frame %dx%d", ErrDimensionMismatch,
			previous.Width(), previous.Height(), current.Width(), current.Height())
	}

	diff := gocv.NewMat()
	defer diff.Close()

	gocv.AbsDiff(*previous.mat, *current.mat, &diff)

	return Diff{
		Sum:     uint64(diff.Sum().Val1),
		NonZero: gocv.CountNonZero(diff),
		Pixels:  current.Pixels(),
	}, nil
}

func (d Diff) DiffPercentage() float64 {
	if d.Pixels == 0 {
		return 0
	}
	return float64(d.NonZero) * 100.0 / float64(d.Pixels)
}
