// pkg/render/engo/scene.go
package engo

import (
	"context"
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"golang.org/x/image/colornames"

	"github.com/opd-ai/go-polybounce/pkg/config"
	"github.com/opd-ai/go-polybounce/pkg/engine"
	"github.com/opd-ai/go-polybounce/pkg/logging"
)

// SceneType names the scene for engo
const SceneType = "PolybounceScene"

// Scene shows a World in an engo window. The world is stepped once per
// engo frame, so the frame limit is the tick rate.
type Scene struct {
	ctx      context.Context
	world    *engine.World
	controls *engine.Controls
	logger   *logging.Logger
}

// NewScene creates a scene for world
func NewScene(ctx context.Context, world *engine.World, logger *logging.Logger) *Scene {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Scene{
		ctx:      ctx,
		world:    world,
		controls: engine.NewControls(world),
		logger:   logger,
	}
}

// Type implements engo.Scene
func (s *Scene) Type() string { return SceneType }

// Preload implements engo.Scene. Everything is drawn from primitives.
func (s *Scene) Preload() {}

// Setup implements engo.Scene
func (s *Scene) Setup(u engo.Updater) {
	w := u.(*ecs.World)
	common.SetBackground(colornames.Black)
	SetupControls()

	renderSystem := &common.RenderSystem{}
	w.AddSystem(renderSystem)
	w.AddSystem(&ControlSystem{ctx: s.ctx, controls: s.controls})
	w.AddSystem(&StepSystem{
		ctx:      s.ctx,
		world:    s.world,
		controls: s.controls,
		renderer: NewRenderer(renderSystem),
		size: func() (float64, float64) {
			return float64(engo.GameWidth()), float64(engo.GameHeight())
		},
		logger: s.logger,
	})
}

// StepSystem advances the world and refreshes the sprites
type StepSystem struct {
	ctx      context.Context
	world    *engine.World
	controls *engine.Controls
	renderer *Renderer
	size     func() (width, height float64)
	logger   *logging.Logger
}

// Update implements ecs.System
func (s *StepSystem) Update(dt float32) {
	width, height := s.size()
	if _, err := s.controls.StepUnlessPaused(s.ctx, width, height); err != nil {
		s.logger.Error(s.ctx, "World step failed", err)
		return
	}
	s.world.Render(s.renderer)
}

// Remove implements ecs.System
func (s *StepSystem) Remove(ecs.BasicEntity) {}

// Run opens a window and blocks until it is closed or ctx is done
func Run(ctx context.Context, world *engine.World, display config.DisplayConfig, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	go func() {
		<-ctx.Done()
		engo.Exit()
	}()

	opts := runOptions(display)
	logger.Info(ctx, "Starting engo driver", "width", opts.Width, "height", opts.Height)
	engo.Run(opts, NewScene(ctx, world, logger))
	return nil
}

// runOptions converts the display settings to engo's whole-pixel options
func runOptions(display config.DisplayConfig) engo.RunOptions {
	return engo.RunOptions{
		Title:          "polybounce",
		Width:          max(int(math.Round(display.Width)), 1),
		Height:         max(int(math.Round(display.Height)), 1),
		Fullscreen:     display.Fullscreen,
		FPSLimit:       display.TickRate,
		StandardInputs: true,
	}
}
