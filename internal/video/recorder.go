package video

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Recorder writes color frames to a video file.
type Recorder struct {
	writer *gocv.VideoWriter
	path   string
	frames int
}

func NewRecorder(path, codec string, fps float64, width, height int) (*Recorder, error) {
	writer, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("unable to open %s for writing", path)
	}
	return &Recorder{writer: writer, path: path}, nil
}

func (r *Recorder) Write(mat gocv.Mat) error {
	if err := r.writer.Write(mat); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	r.frames++
	return nil
}

func (r *Recorder) Frames() int {
	return r.frames
}

func (r *Recorder) Path() string {
	return r.path
}

func (r *Recorder) Close() error {
	return r.writer.Close()
}
