package engine

import (
	"github.com/opd-ai/go-polybounce/pkg/entity"
	"github.com/opd-ai/go-polybounce/pkg/physics"
)

// Viewport is the canvas region a simulation is drawn in
type Viewport struct {
	X, Y          float64
	Width, Height float64
}

// Center returns the middle of the viewport, where the boundary sits
func (v Viewport) Center() physics.Vector2D {
	return physics.Vector2D{X: v.X + v.Width/2, Y: v.Y + v.Height/2}
}

// Frame is a world-space snapshot of one simulation for drawing. It owns
// its slices and may be read while the simulation keeps stepping.
type Frame struct {
	Tick     uint64
	Viewport Viewport
	Boundary entity.Boundary
	Balls    []entity.Ball
}

// Draw sends the boundary and every ball to r. It does not clear or
// present, so several frames can share one screen.
func (f *Frame) Draw(r entity.Renderer) {
	f.Boundary.Render(r)
	for i := range f.Balls {
		f.Balls[i].Render(r)
	}
}

// Render draws a single frame as a complete screen update
func (f *Frame) Render(r entity.Renderer) {
	r.Clear()
	f.Draw(r)
	r.Present()
}
