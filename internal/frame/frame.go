package frame

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var ErrEmpty = errors.New("frame is empty")

// Frame wraps a mat. Grayscale frames are single-channel CV_8U.
type Frame struct {
	frameIndex int
	mat        *gocv.Mat
}

func NewFrame(frameIndex int, mat *gocv.Mat) (*Frame, error) {
	if mat == nil || mat.Empty() {
		return nil, ErrEmpty
	}

	return &Frame{frameIndex: frameIndex, mat: mat}, nil
}

// FromBytes builds a grayscale frame from row-major pixels.
func FromBytes(frameIndex, width, height int, pix []byte) (*Frame, error) {
	if width <= 0 || height <= 0 || len(pix) == 0 {
		return nil, ErrEmpty
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("frame %dx%d needs %d pixels, got %d", width, height, width*height, len(pix))
	}
	mat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8U, pix)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", frameIndex, err)
	}

	return NewFrame(frameIndex, &mat)
}

// Black returns an all-zero grayscale frame.
func Black(width, height int) *Frame {
	mat := gocv.Zeros(height, width, gocv.MatTypeCV8U)

	return &Frame{mat: &mat}
}

func (f *Frame) Mat() *gocv.Mat {
	return f.mat
}

func (f *Frame) FrameIndex() int {
	return f.frameIndex
}

// Gray converts a BGR frame into a new grayscale frame the caller owns.
func (f *Frame) Gray() (*Frame, error) {
	gray := gocv.NewMat()
	gocv.CvtColor(*f.mat, &gray, gocv.ColorBGRToGray)

	return NewFrame(f.frameIndex, &gray)
}

func (f *Frame) Height() int {
	return f.mat.Rows()
}

func (f *Frame) Width() int {
	return f.mat.Cols()
}

func (f *Frame) Pixels() int {
	return f.Height() * f.Width()
}

func (f *Frame) SameSize(other *Frame) bool {
	return f.Width() == other.Width() && f.Height() == other.Height() && f.mat.Type() == other.mat.Type()
}

func (f *Frame) Close() {
	f.mat.Close()
}
