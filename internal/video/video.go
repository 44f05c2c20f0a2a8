package video

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/kmmndr/motion_player/internal/frame"
	"github.com/kmmndr/motion_player/internal/motion"
	"github.com/kmmndr/motion_player/internal/player"
)

var (
	_ player.Camera    = (*Camera)(nil)
	_ player.Reference = (*Reference)(nil)
	_ player.Display   = (*Window)(nil)
	_ motion.Source    = (*Stream)(nil)
)

// OpenVideo opens a video file and fails unless it is readable.
func OpenVideo(videoPath string) (*gocv.VideoCapture, error) {
	video, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open video file: %v", err)
	}
	if !video.IsOpened() {
		video.Close()
		return nil, fmt.Errorf("unable to open video file: %s", videoPath)
	}
	return video, nil
}

// grayFrame converts a BGR mat into a new grayscale frame. src stays with
// the caller.
func grayFrame(frameIndex int, src *gocv.Mat) (*frame.Frame, error) {
	color, err := frame.NewFrame(frameIndex, src)
	if err != nil {
		return nil, err
	}

	return color.Gray()
}
