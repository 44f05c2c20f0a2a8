package video

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/kmmndr/motion_player/internal/frame"
)

var ErrCameraRead = errors.New("unable to read camera frame")

// warmup lets the sensor settle after the capture properties change.
const warmup = 100 * time.Millisecond

// Camera captures color frames at a fixed resolution, records them while a
// recording is active and hands out their grayscale version.
type Camera struct {
	device *gocv.VideoCapture
	logger logrus.FieldLogger

	width  int
	height int
	fps    float64
	codec  string

	raw   gocv.Mat
	sized gocv.Mat

	recorder   *Recorder
	frameIndex int
}

func OpenCamera(device string, width, height int, fps float64, codec string, logger logrus.FieldLogger) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("unable to open camera %s: %w", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("camera %s is not available", device)
	}
	capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
	capture.Set(gocv.VideoCaptureFPS, fps)
	time.Sleep(warmup)

	logger.WithFields(logrus.Fields{
		"device": device,
		"width":  int(capture.Get(gocv.VideoCaptureFrameWidth)),
		"height": int(capture.Get(gocv.VideoCaptureFrameHeight)),
		"fps":    capture.Get(gocv.VideoCaptureFPS),
	}).Info("Camera opened")

	return &Camera{
		device: capture,
		logger: logger,
		width:  width,
		height: height,
		fps:    fps,
		codec:  codec,
		raw:    gocv.NewMat(),
		sized:  gocv.NewMat(),
	}, nil
}

func (c *Camera) StartRecording(path string) error {
	if c.recorder != nil {
		return fmt.Errorf("already recording to %s", c.recorder.Path())
	}
	recorder, err := NewRecorder(path, c.codec, c.fps, c.width, c.height)
	if err != nil {
		return err
	}
	c.recorder = recorder
	return nil
}

func (c *Camera) StopRecording() error {
	if c.recorder == nil {
		return nil
	}
	c.logger.WithFields(logrus.Fields{
		"path":   c.recorder.Path(),
		"frames": c.recorder.Frames(),
	}).Info("Recording stopped")
	err := c.recorder.Close()
	c.recorder = nil
	return err
}

// Next blocks until the device delivers a frame. The caller owns the
// returned grayscale frame.
func (c *Camera) Next() (*frame.Frame, error) {
	if ok := c.device.Read(&c.raw); !ok || c.raw.Empty() {
		return nil, ErrCameraRead
	}

	src := c.raw
	if c.raw.Cols() != c.width || c.raw.Rows() != c.height {
		gocv.Resize(c.raw, &c.sized, image.Pt(c.width, c.height), 0, 0, gocv.InterpolationLinear)
		src = c.sized
	}

	if c.recorder != nil {
		if err := c.recorder.Write(src); err != nil {
			return nil, err
		}
	}

	f, err := grayFrame(c.frameIndex, &src)
	if err != nil {
		return nil, err
	}
	c.frameIndex++

	return f, nil
}

func (c *Camera) Close() error {
	err := c.StopRecording()
	c.raw.Close()
	c.sized.Close()
	if cerr := c.device.Close(); err == nil {
		err = cerr
	}
	return err
}
