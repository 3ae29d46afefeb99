package entity

import (
	"image/color"

	"github.com/opd-ai/go-polybounce/pkg/physics"
)

// Ball is a simulated body with a display colour. Position is relative to
// the centre of the boundary it lives in, except in render frames where it
// has been translated to world space.
type Ball struct {
	physics.Body
	Color color.RGBA
}

// NewBall creates a ball with the given state
func NewBall(id ID, position, velocity physics.Vector2D, radius float64, c color.RGBA) *Ball {
	return &Ball{
		Body: physics.Body{
			ID:       uint64(id),
			Position: position,
			Velocity: velocity,
			Radius:   radius,
		},
		Color: c,
	}
}

// Render draws the ball
func (b *Ball) Render(r Renderer) {
	r.RenderBall(b)
}

// Boundary is the outline of a container in world space
type Boundary struct {
	ID       string
	Kind     physics.ShapeKind
	Center   physics.Vector2D
	Radius   float64
	Vertices []physics.Vector2D
}

// Render draws the boundary outline
func (b *Boundary) Render(r Renderer) {
	r.RenderBoundary(b)
}
