package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/kmmndr/motion_player/internal/config"
	"github.com/kmmndr/motion_player/internal/motion"
	"github.com/kmmndr/motion_player/internal/overlay"
)

var (
	ErrSessionActive  = errors.New("session already started")
	ErrSessionStopped = errors.New("session stopped, build a new controller")
	ErrNoSession      = errors.New("no session started")
)

// Controller is the motion-rate playback controller. It is not safe for
// concurrent use; Run owns it until it returns.
type Controller struct {
	camera   Camera
	display  Display
	detector *motion.Detector
	logger   logrus.FieldLogger

	readTwice bool
	keyWait   time.Duration
	quitKey   int
	overlay   bool

	observers []Observer
	now       func() time.Time

	clock   int64
	state   State
	session *Session
	cursor  int
}

type Option func(*Controller)

func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, o)
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// New builds an idle controller. The session clock is taken here.
func New(cfg *config.Config, camera Camera, display Display, logger logrus.FieldLogger, opts ...Option) *Controller {
	c := &Controller{
		camera:    camera,
		display:   display,
		detector:  motion.NewDetector(cfg.Width, cfg.Height, motion.NewSkipper(cfg.MinFrameSkip, cfg.MaxFrameSkip)),
		logger:    logger,
		readTwice: cfg.ReadPolicy != config.ReadOnce,
		keyWait:   cfg.KeyWait(),
		quitKey:   cfg.QuitKey,
		overlay:   cfg.Overlay,
		now:       time.Now,
		cursor:    1,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.clock = c.now().UnixMilli()
	return c
}

// AddObserver registers o for every following iteration.
func (c *Controller) AddObserver(o Observer) {
	c.observers = append(c.observers, o)
}

// Clock is the session start in milliseconds since epoch.
func (c *Controller) Clock() int64 {
	return c.clock
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Cursor() int {
	return c.cursor
}

func (c *Controller) Session() *Session {
	return c.session
}

// StartSession starts recording the camera to outputPath.
func (c *Controller) StartSession(outputPath string) (*Session, error) {
	switch c.state {
	case StateRecording:
		return nil, ErrSessionActive
	case StateStopped:
		return nil, ErrSessionStopped
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	if err := c.camera.StartRecording(outputPath); err != nil {
		return nil, fmt.Errorf("start recording %s: %w", outputPath, err)
	}

	started := time.UnixMilli(c.clock)
	c.session = &Session{
		ID:      id,
		Clock:   c.clock,
		Path:    outputPath,
		Started: started,
		report:  motion.NewReport(id, started),
	}
	c.state = StateRecording
	c.logger = c.logger.WithFields(logrus.Fields{"session": id.String(), "clock": c.clock})
	c.logger.WithField("path", outputPath).Info("Recording started")

	return c.session, nil
}

// Run plays ref until it ends, the quit key is pressed, ctx is canceled or
// the camera fails. ref is always closed on return.
func (c *Controller) Run(ctx context.Context, ref Reference, pollInterval time.Duration) (Outcome, error) {
	defer func() {
		if err := ref.Close(); err != nil {
			c.logger.WithError(err).Warn("Unable to close reference video")
		}
	}()

	if c.state != StateRecording {
		return OutcomeFailed, ErrNoSession
	}

	if !ref.IsOpened() {
		c.logger.Warn("Reference video is not open")
		return c.finish(OutcomeVideoEnded, nil)
	}

	for iteration := 0; ; iteration++ {
		if ctx.Err() != nil {
			return c.finish(OutcomeCanceled, nil)
		}

		current, err := c.camera.Next()
		if err != nil {
			return c.finish(OutcomeFailed, fmt.Errorf("camera frame %d: %w", iteration, err))
		}

		signal, skip, err := c.detector.Measure(current)
		if err != nil {
			current.Close()
			return c.finish(OutcomeFailed, fmt.Errorf("measure frame %d: %w", iteration, err))
		}
		c.cursor += skip

		picture, ok := c.advance(ref)

		sample := motion.NewSample(iteration, c.now(), signal, skip)
		sample.Cursor = c.cursor
		c.notify(sample)

		if !ok {
			return c.finish(OutcomeVideoEnded, nil)
		}

		var gauge overlay.Gauge
		if c.overlay {
			gauge = overlay.NewGauge(sample, c.detector.Skipper().Max)
		}
		err = c.display.Show(picture, gauge)
		picture.Close()
		if err != nil {
			c.logger.WithError(err).Warn("Unable to show reference frame")
			return c.finish(OutcomeVideoEnded, nil)
		}

		if key := c.display.WaitKey(c.keyWait); key >= 0 && key&0xff == c.quitKey {
			c.logger.Info("Quit key pressed")
			return c.finish(OutcomeQuit, nil)
		}

		if pollInterval > 0 {
			select {
			case <-ctx.Done():
				return c.finish(OutcomeCanceled, nil)
			case <-time.After(pollInterval):
			}
		}
	}
}

// advance seeks to the cursor and reads the frame to display, moving the
// cursor one step per read.
func (c *Controller) advance(ref Reference) (Picture, bool) {
	if !ref.IsOpened() {
		return nil, false
	}
	if err := ref.Seek(c.cursor); err != nil {
		c.logger.WithError(err).WithField("cursor", c.cursor).Debug("Seek failed")
		return nil, false
	}

	if !ref.IsOpened() {
		return nil, false
	}
	picture, ok := ref.Read()
	c.cursor++
	if !ok {
		return nil, false
	}
	if !c.readTwice {
		return picture, true
	}

	picture.Close()
	if !ref.IsOpened() {
		return nil, false
	}
	picture, ok = ref.Read()
	c.cursor++
	if !ok {
		return nil, false
	}
	return picture, true
}

func (c *Controller) notify(s motion.Sample) {
	if err := c.session.report.Observe(s); err != nil {
		c.logger.WithError(err).Warn("Report rejected sample")
	}
	for _, o := range c.observers {
		if err := o.Observe(s); err != nil {
			c.logger.WithError(err).WithField("iteration", s.Iteration).Warn("Observer failed")
		}
	}
	c.logger.WithFields(logrus.Fields{
		"iteration": s.Iteration,
		"skip":      s.FrameSkip,
		"scaled":    s.Scaled,
		"cursor":    s.Cursor,
	}).Debug("Frame")
}

// finish stops recording and closes the display.
func (c *Controller) finish(outcome Outcome, cause error) (Outcome, error) {
	var errs []error
	if cause != nil {
		errs = append(errs, cause)
	}
	if err := c.camera.StopRecording(); err != nil {
		errs = append(errs, fmt.Errorf("stop recording: %w", err))
	}
	if err := c.display.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close display: %w", err))
	}
	c.state = StateStopped
	c.session.report.SetOutcome(outcome.String())

	c.logger.WithFields(logrus.Fields{
		"outcome": outcome.String(),
		"frames":  c.session.report.Frames(),
		"cursor":  c.cursor,
	}).Info("Session stopped")

	return outcome, errors.Join(errs...)
}

// Close releases the camera and the detector's buffered frame.
func (c *Controller) Close() error {
	c.detector.Close()
	return c.camera.Close()
}
