package video

import (
	"gocv.io/x/gocv"
)

// Picture is a decoded reference frame. It owns its mat.
type Picture struct {
	frameIndex int
	mat        gocv.Mat
}

func (p *Picture) Mat() *gocv.Mat {
	return &p.mat
}

func (p *Picture) FrameIndex() int {
	return p.frameIndex
}

func (p *Picture) Close() {
	p.mat.Close()
}
