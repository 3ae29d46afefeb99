// pkg/render/renderer.go
package render

import (
	"context"
	"sync/atomic"

	"github.com/opd-ai/go-polybounce/pkg/entity"
	"github.com/opd-ai/go-polybounce/pkg/logging"
)

// NullRenderer draws nothing. It counts what it was given and logs one
// debug line per presented frame, which is all the headless driver needs.
type NullRenderer struct {
	logger *logging.Logger

	frames     atomic.Uint64
	boundaries int
	balls      int
}

// NewNullRenderer creates a NullRenderer. A nil logger discards output.
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &NullRenderer{logger: logger}
}

// Clear implements entity.Renderer
func (d *NullRenderer) Clear() {
	d.boundaries = 0
	d.balls = 0
}

// Present implements entity.Renderer
func (d *NullRenderer) Present() {
	n := d.frames.Add(1)
	d.logger.Debug(context.Background(), "Frame presented",
		"frame", n,
		"boundaries", d.boundaries,
		"balls", d.balls,
	)
}

// RenderBoundary implements entity.Renderer
func (d *NullRenderer) RenderBoundary(b *entity.Boundary) {
	if b == nil {
		return
	}
	d.boundaries++
}

// RenderBall implements entity.Renderer
func (d *NullRenderer) RenderBall(b *entity.Ball) {
	if b == nil {
		return
	}
	d.balls++
}

// Frames returns the number of presented frames
func (d *NullRenderer) Frames() uint64 {
	return d.frames.Load()
}

// Counts returns what the current frame has drawn so far
func (d *NullRenderer) Counts() (boundaries, balls int) {
	return d.boundaries, d.balls
}

var _ entity.Renderer = (*NullRenderer)(nil)
