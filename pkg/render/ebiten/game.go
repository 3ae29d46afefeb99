// Package ebiten shows a World in an ebiten window
package ebiten

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"

	"github.com/opd-ai/go-polybounce/pkg/config"
	"github.com/opd-ai/go-polybounce/pkg/engine"
	"github.com/opd-ai/go-polybounce/pkg/entity"
	"github.com/opd-ai/go-polybounce/pkg/logging"
)

// EdgeWidth is the stroke width of boundary edges
const EdgeWidth = 2

// Renderer implements entity.Renderer on an ebiten image. Target must be
// set before each frame.
type Renderer struct {
	Target *ebiten.Image
}

// Clear implements entity.Renderer
func (r *Renderer) Clear() {
	r.Target.Fill(colornames.Black)
}

// Present implements entity.Renderer. Ebiten presents after Draw returns.
func (r *Renderer) Present() {}

// RenderBall implements entity.Renderer
func (r *Renderer) RenderBall(b *entity.Ball) {
	vector.FillCircle(r.Target, float32(b.Position.X), float32(b.Position.Y), float32(b.Radius), b.Color, true)
}

// RenderBoundary implements entity.Renderer
func (r *Renderer) RenderBoundary(b *entity.Boundary) {
	n := len(b.Vertices)
	for i, p1 := range b.Vertices {
		p2 := b.Vertices[(i+1)%n]
		vector.StrokeLine(r.Target, float32(p1.X), float32(p1.Y), float32(p2.X), float32(p2.Y), EdgeWidth, entity.BoundaryColor, true)
	}
}

// Input is what the keyboard asked for during one update
type Input struct {
	Quit, Pause, Reseed, Faster, Slower bool
}

func readInput() Input {
	return Input{
		Quit:   inpututil.IsKeyJustPressed(ebiten.KeyEscape),
		Pause:  inpututil.IsKeyJustPressed(ebiten.KeySpace),
		Reseed: inpututil.IsKeyJustPressed(ebiten.KeyR),
		Faster: inpututil.IsKeyJustPressed(ebiten.KeyArrowUp),
		Slower: inpututil.IsKeyJustPressed(ebiten.KeyArrowDown),
	}
}

// Game implements ebiten.Game. Update runs at the tick rate and steps the
// world once; Draw renders the latest frames.
type Game struct {
	ctx      context.Context
	world    *engine.World
	controls *engine.Controls
	renderer Renderer
	logger   *logging.Logger

	width, height int
}

// NewGame creates a game for world on a width x height window
func NewGame(ctx context.Context, world *engine.World, width, height int, logger *logging.Logger) *Game {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Game{
		ctx:      ctx,
		world:    world,
		controls: engine.NewControls(world),
		logger:   logger,
		width:    width,
		height:   height,
	}
}

// Update implements ebiten.Game
func (g *Game) Update() error {
	return g.apply(readInput())
}

func (g *Game) apply(in Input) error {
	if in.Quit || g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if in.Pause {
		g.controls.TogglePause()
	}
	if in.Reseed {
		g.controls.Reseed(g.ctx)
	}
	if in.Faster {
		g.controls.ScaleTime(engine.TimeScaleStep)
	}
	if in.Slower {
		g.controls.ScaleTime(1 / engine.TimeScaleStep)
	}

	if _, err := g.controls.StepUnlessPaused(g.ctx, float64(g.width), float64(g.height)); err != nil {
		if g.ctx.Err() != nil {
			return ebiten.Termination
		}
		return fmt.Errorf("step world: %w", err)
	}
	return nil
}

// Draw implements ebiten.Game
func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.Target = screen
	g.world.Render(&g.renderer)
}

// Layout implements ebiten.Game. The canvas follows the window size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		g.width, g.height = outsideWidth, outsideHeight
	}
	return g.width, g.height
}

// Run opens a window and blocks until it is closed, Escape is pressed or
// ctx is done
func Run(ctx context.Context, world *engine.World, display config.DisplayConfig, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	width, height := windowSize(display)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle("polybounce")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(display.Fullscreen)
	ebiten.SetTPS(display.TickRate)

	logger.Info(ctx, "Starting ebiten driver", "width", width, "height", height, "tps", display.TickRate)
	err := ebiten.RunGame(NewGame(ctx, world, width, height, logger))
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("ebiten driver: %w", err)
	}
	return nil
}

// windowSize rounds the configured size to whole pixels, at least 1x1
func windowSize(display config.DisplayConfig) (width, height int) {
	return max(int(math.Round(display.Width)), 1), max(int(math.Round(display.Height)), 1)
}
