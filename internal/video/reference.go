package video

import (
	"gocv.io/x/gocv"

	"github.com/kmmndr/motion_player/internal/player"
)

// Reference is the seekable video file whose playback the camera drives.
type Reference struct {
	video    *gocv.VideoCapture
	position int
}

func OpenReference(videoPath string) (*Reference, error) {
	video, err := OpenVideo(videoPath)
	if err != nil {
		return nil, err
	}
	return &Reference{video: video}, nil
}

func (r *Reference) IsOpened() bool {
	return r.video != nil && r.video.IsOpened()
}

func (r *Reference) Seek(index int) error {
	r.video.Set(gocv.VideoCapturePosFrames, float64(index))
	r.position = index
	return nil
}

func (r *Reference) Read() (player.Picture, bool) {
	mat := gocv.NewMat()
	if ok := r.video.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, false
	}
	p := &Picture{frameIndex: r.position, mat: mat}
	r.position++

	return p, true
}

func (r *Reference) FrameCount() int {
	return int(r.video.Get(gocv.VideoCaptureFrameCount))
}

func (r *Reference) Close() error {
	if r.video == nil {
		return nil
	}
	err := r.video.Close()
	r.video = nil
	return err
}
