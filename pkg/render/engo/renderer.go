// pkg/render/engo/renderer.go
package engo

import (
	"image/color"
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-polybounce/pkg/entity"
	"github.com/opd-ai/go-polybounce/pkg/physics"
)

// EdgeWidth is the drawn thickness of boundary edges
const EdgeWidth = 2

// SpriteSink receives sprites once, when they are first created.
// common.RenderSystem satisfies it.
type SpriteSink interface {
	Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent)
}

// sprite is one pooled ECS entity
type sprite struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
}

// Renderer implements entity.Renderer on top of an engo render system.
// Sprites are pooled: each frame reuses the sprites of the last one and
// hides whatever it did not need.
type Renderer struct {
	sink    SpriteSink
	circles pool
	edges   pool
}

type pool struct {
	sprites []*sprite
	used    int
}

// NewRenderer creates a renderer that registers its sprites with sink
func NewRenderer(sink SpriteSink) *Renderer {
	return &Renderer{sink: sink}
}

// Clear implements entity.Renderer
func (r *Renderer) Clear() {
	r.circles.used = 0
	r.edges.used = 0
}

// Present implements entity.Renderer. Sprites left over from a busier
// frame are hidden.
func (r *Renderer) Present() {
	r.circles.hideUnused()
	r.edges.hideUnused()
}

// RenderBall implements entity.Renderer
func (r *Renderer) RenderBall(b *entity.Ball) {
	s := r.circles.next(r.sink, common.Circle{})
	d := float32(2 * b.Radius)
	s.Color = b.Color
	s.Position = engo.Point{X: float32(b.Position.X - b.Radius), Y: float32(b.Position.Y - b.Radius)}
	s.Width, s.Height = d, d
	s.Rotation = 0
}

// RenderBoundary implements entity.Renderer. Each edge becomes a thin
// rectangle rotated about its first vertex.
func (r *Renderer) RenderBoundary(b *entity.Boundary) {
	n := len(b.Vertices)
	for i, p1 := range b.Vertices {
		p2 := b.Vertices[(i+1)%n]
		r.edge(p1, p2, entity.BoundaryColor)
	}
}

func (r *Renderer) edge(p1, p2 physics.Vector2D, c color.Color) {
	delta := p2.Sub(p1)
	length := delta.Length()
	if length < physics.Epsilon {
		return
	}
	offset := delta.Scale(1 / length).Perp().Scale(EdgeWidth / 2)
	start := p1.Sub(offset)

	s := r.edges.next(r.sink, common.Rectangle{})
	s.Color = c
	s.Position = engo.Point{X: float32(start.X), Y: float32(start.Y)}
	s.Width = float32(length)
	s.Height = EdgeWidth
	s.Rotation = float32(delta.Angle() * 180 / math.Pi)
}

// Sprites returns the number of pooled sprites and how many are visible
func (r *Renderer) Sprites() (total, visible int) {
	return len(r.circles.sprites) + len(r.edges.sprites), r.circles.used + r.edges.used
}

func (p *pool) next(sink SpriteSink, shape common.Drawable) *sprite {
	if p.used == len(p.sprites) {
		s := &sprite{BasicEntity: ecs.NewBasic()}
		s.Drawable = shape
		s.Scale = engo.Point{X: 1, Y: 1}
		p.sprites = append(p.sprites, s)
		sink.Add(&s.BasicEntity, &s.RenderComponent, &s.SpaceComponent)
	}
	s := p.sprites[p.used]
	s.Hidden = false
	p.used++
	return s
}

func (p *pool) hideUnused() {
	for _, s := range p.sprites[p.used:] {
		s.Hidden = true
	}
}
