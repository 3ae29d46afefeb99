package engine

import (
	"context"
	"sync/atomic"
)

const (
	// TimeScaleStep multiplies or divides the time scale per key press
	TimeScaleStep = 1.25

	MinTimeScale = 0.05
	MaxTimeScale = 8.0
)

// Controls applies interactive actions to a world. The windowed drivers
// map their key bindings onto it.
type Controls struct {
	world  *World
	paused atomic.Bool
}

// NewControls creates controls for world
func NewControls(world *World) *Controls {
	return &Controls{world: world}
}

// Paused reports whether stepping is suspended
func (c *Controls) Paused() bool { return c.paused.Load() }

// TogglePause suspends or resumes stepping
func (c *Controls) TogglePause() {
	for {
		old := c.paused.Load()
		if c.paused.CompareAndSwap(old, !old) {
			return
		}
	}
}

// Reseed rebuilds the bodies of every simulation
func (c *Controls) Reseed(ctx context.Context) {
	for _, sim := range c.world.Simulations() {
		sim.Reseed(ctx)
	}
}

// ScaleTime multiplies the global time scale by factor, clamped to
// [MinTimeScale, MaxTimeScale]. A zero time scale stays zero.
func (c *Controls) ScaleTime(factor float64) float64 {
	settings := c.world.Settings()
	if settings.TimeScale == 0 {
		return 0
	}
	settings.TimeScale = min(max(settings.TimeScale*factor, MinTimeScale), MaxTimeScale)
	c.world.SetSettings(settings)
	return settings.TimeScale
}

// StepUnlessPaused steps the world unless it is paused. It reports
// whether a step happened.
func (c *Controls) StepUnlessPaused(ctx context.Context, width, height float64) (bool, error) {
	if c.Paused() {
		return false, nil
	}
	return true, c.world.Step(ctx, width, height)
}
