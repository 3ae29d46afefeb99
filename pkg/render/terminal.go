package render

import (
	"context"
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-polybounce/pkg/engine"
	"github.com/opd-ai/go-polybounce/pkg/entity"
	"github.com/opd-ai/go-polybounce/pkg/physics"
)

// A terminal cell stands for this much canvas. Cells are about twice as
// tall as they are wide, so circles stay round.
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

const (
	edgeRune = '·'
	ballRune = '●'
)

// TerminalRenderer rasterises frames into a tcell screen
type TerminalRenderer struct {
	screen tcell.Screen
}

// NewTerminalRenderer draws to an initialised screen
func NewTerminalRenderer(screen tcell.Screen) *TerminalRenderer {
	return &TerminalRenderer{screen: screen}
}

// CanvasSize returns the canvas the screen covers
func (r *TerminalRenderer) CanvasSize() (width, height float64) {
	cols, rows := r.screen.Size()
	return float64(cols) * CellWidth, float64(rows) * CellHeight
}

// cellOf maps a canvas point to a screen cell
func cellOf(p physics.Vector2D) (int, int) {
	return int(math.Floor(p.X / CellWidth)), int(math.Floor(p.Y / CellHeight))
}

func (r *TerminalRenderer) set(x, y int, ch rune, style tcell.Style) {
	cols, rows := r.screen.Size()
	if x < 0 || y < 0 || x >= cols || y >= rows {
		return
	}
	r.screen.SetContent(x, y, ch, nil, style)
}

func styleOf(c color.RGBA) tcell.Style {
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
}

// Clear implements entity.Renderer
func (r *TerminalRenderer) Clear() {
	r.screen.Clear()
}

// Present implements entity.Renderer
func (r *TerminalRenderer) Present() {
	r.screen.Show()
}

// RenderBoundary implements entity.Renderer. Edges are sampled at half
// cell steps so no cell along them is skipped.
func (r *TerminalRenderer) RenderBoundary(b *entity.Boundary) {
	style := styleOf(entity.BoundaryColor)
	n := len(b.Vertices)
	for i, p1 := range b.Vertices {
		delta := b.Vertices[(i+1)%n].Sub(p1)
		steps := int(math.Ceil(2*math.Max(math.Abs(delta.X)/CellWidth, math.Abs(delta.Y)/CellHeight))) + 1
		for s := 0; s <= steps; s++ {
			x, y := cellOf(p1.Add(delta.Scale(float64(s) / float64(steps))))
			r.set(x, y, edgeRune, style)
		}
	}
}

// RenderBall implements entity.Renderer. Every cell whose centre lies in
// the ball is filled; the cell under the centre always is.
func (r *TerminalRenderer) RenderBall(b *entity.Ball) {
	style := styleOf(b.Color)
	x0, y0 := cellOf(b.Position.Sub(physics.Vector2D{X: b.Radius, Y: b.Radius}))
	x1, y1 := cellOf(b.Position.Add(physics.Vector2D{X: b.Radius, Y: b.Radius}))
	r2 := b.Radius * b.Radius
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			centre := physics.Vector2D{X: (float64(x) + 0.5) * CellWidth, Y: (float64(y) + 0.5) * CellHeight}
			if centre.Sub(b.Position).LengthSquared() <= r2 {
				r.set(x, y, ballRune, style)
			}
		}
	}
	cx, cy := cellOf(b.Position)
	r.set(cx, cy, ballRune, style)
}

// Terminal is the terminal driver: a screen, its renderer and the input
// loop that stops the simulation on Escape, Ctrl-C or q
type Terminal struct {
	screen   tcell.Screen
	renderer *TerminalRenderer
}

// NewTerminal initialises screen and takes ownership of it
func NewTerminal(screen tcell.Screen) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()
	return &Terminal{screen: screen, renderer: NewTerminalRenderer(screen)}, nil
}

// RunnerConfig returns a runner configuration that sizes the world to the
// screen and draws every tick
func (t *Terminal) RunnerConfig(tickRate int, maxTicks uint64) engine.RunnerConfig {
	return engine.RunnerConfig{
		TickRate: tickRate,
		MaxTicks: maxTicks,
		Size:     t.renderer.CanvasSize,
		OnTick: func(ctx context.Context, w *engine.World) error {
			w.Render(t.renderer)
			return nil
		},
	}
}

// HandleInput polls screen events until the screen is closed, calling
// quit when the user asks to stop
func (t *Terminal) HandleInput(quit func()) {
	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if isQuit(ev) {
				quit()
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q'
	}
	return false
}

// Close restores the terminal
func (t *Terminal) Close() {
	t.screen.Fini()
}
