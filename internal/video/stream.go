package video

import (
	"fmt"
	"io"

	"gocv.io/x/gocv"

	"github.com/kmmndr/motion_player/internal/frame"
)

// Stream reads a video file as a sequence of grayscale frames.
type Stream struct {
	Video *gocv.VideoCapture

	mat        gocv.Mat
	frameIndex int
}

func NewStream(videoPath string) (*Stream, error) {
	video, err := OpenVideo(videoPath)
	if err != nil {
		return nil, err
	}
	return &Stream{Video: video, mat: gocv.NewMat()}, nil
}

// Read returns io.EOF once the file is exhausted.
func (s *Stream) Read() (*frame.Frame, error) {
	if ok := s.Video.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, io.EOF
	}
	f, err := grayFrame(s.frameIndex, &s.mat)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", s.frameIndex, err)
	}
	s.frameIndex++

	return f, nil
}

func (s *Stream) Close() {
	s.mat.Close()
	s.Video.Close()
}

func (s *Stream) Fps() float64 {
	return s.Video.Get(gocv.VideoCaptureFPS)
}

func (s *Stream) Width() int {
	return int(s.Video.Get(gocv.VideoCaptureFrameWidth))
}

func (s *Stream) Height() int {
	return int(s.Video.Get(gocv.VideoCaptureFrameHeight))
}

func (s *Stream) TimeAtFrame(frameIndex int) float64 {
	return float64(frameIndex) / s.Fps()
}
