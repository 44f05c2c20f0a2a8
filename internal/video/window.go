package video

import (
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"

	"github.com/kmmndr/motion_player/internal/frame"
	"github.com/kmmndr/motion_player/internal/overlay"
	"github.com/kmmndr/motion_player/internal/player"
)

const gaugeHeight = 8

// Window shows reference frames and reports key presses.
type Window struct {
	window *gocv.Window
}

func NewWindow(title string) *Window {
	return &Window{window: gocv.NewWindow(title)}
}

func (w *Window) Show(p player.Picture, g overlay.Gauge) error {
	if w.window == nil {
		return fmt.Errorf("window is closed")
	}
	picture, ok := p.(*Picture)
	if !ok {
		return fmt.Errorf("unsupported picture type %T", p)
	}
	mat := picture.Mat()
	if mat.Empty() {
		return fmt.Errorf("reference frame %d: %w", picture.FrameIndex(), frame.ErrEmpty)
	}
	if !g.Empty() {
		drawGauge(mat, g)
	}
	w.window.IMShow(*mat)
	return nil
}

func (w *Window) WaitKey(wait time.Duration) int {
	if w.window == nil {
		return -1
	}
	delay := int(wait / time.Millisecond)
	if delay < 1 {
		delay = 1
	}
	return w.window.WaitKey(delay)
}

func (w *Window) Close() error {
	if w.window == nil {
		return nil
	}
	err := w.window.Close()
	w.window = nil
	return err
}

func drawGauge(mat *gocv.Mat, g overlay.Gauge) {
	rows := mat.Rows()
	filled := int(float64(mat.Cols()) * g.Fill)
	if filled > 0 {
		gocv.Rectangle(mat, image.Rect(0, rows-gaugeHeight, filled, rows), g.Color, -1)
	}
	gocv.PutText(mat, g.Label, image.Pt(8, 20), gocv.FontHersheyPlain, 1.2, g.Color, 2)
}
