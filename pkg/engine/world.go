// pkg/engine/world.go
package engine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-polybounce/pkg/config"
	"github.com/opd-ai/go-polybounce/pkg/entity"
	"github.com/opd-ai/go-polybounce/pkg/event"
	"github.com/opd-ai/go-polybounce/pkg/logging"
)

// World runs several independent simulations side by side. Each one owns
// its state, so they are stepped in parallel; events are published
// afterwards from the calling goroutine.
type World struct {
	mu          sync.RWMutex
	simulations []*Simulation
	settings    config.GlobalSettings
	tick        uint64

	bus    *event.Bus
	logger *logging.Logger
}

// NewWorld creates a world with one simulation per configured boundary.
// bus and logger may be nil.
func NewWorld(cfg *config.AppConfig, bus *event.Bus, logger *logging.Logger) *World {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	w := &World{
		settings: cfg.Settings,
		bus:      bus,
		logger:   logger,
	}
	for _, simCfg := range cfg.Simulations {
		w.simulations = append(w.simulations, NewSimulation(simCfg, bus, logger))
	}
	return w
}

// Apply brings the world in line with cfg: unknown boundaries are added,
// missing ones removed and the rest synced, which reseeds them only when
// their seed fields changed. Simulation order follows cfg.
func (w *World) Apply(ctx context.Context, cfg *config.AppConfig) {
	w.mu.Lock()
	existing := make(map[string]*Simulation, len(w.simulations))
	for _, sim := range w.simulations {
		existing[sim.ID()] = sim
	}

	var added, kept []*Simulation
	next := make([]*Simulation, 0, len(cfg.Simulations))
	for _, simCfg := range cfg.Simulations {
		if sim, ok := existing[simCfg.BoundaryID]; ok {
			delete(existing, simCfg.BoundaryID)
			next = append(next, sim)
			kept = append(kept, sim)
			continue
		}
		sim := NewSimulation(simCfg, w.bus, w.logger)
		next = append(next, sim)
		added = append(added, sim)
	}
	w.simulations = next
	w.settings = cfg.Settings
	w.mu.Unlock()

	for _, sim := range kept {
		for _, simCfg := range cfg.Simulations {
			if simCfg.BoundaryID == sim.ID() {
				sim.Sync(ctx, simCfg)
				break
			}
		}
	}
	for _, sim := range added {
		w.logger.Info(ctx, "Simulation added", "boundary", sim.ID(), "body_count", sim.BodyCount())
		w.publish(event.NewSimulationEvent(event.SimulationAdded, sim, sim.ID(), sim.BodyCount()))
	}
	for id, sim := range existing {
		w.logger.Info(ctx, "Simulation removed", "boundary", id)
		w.publish(event.NewSimulationEvent(event.SimulationRemoved, sim, id, sim.BodyCount()))
	}
}

// Settings returns the global multipliers
func (w *World) Settings() config.GlobalSettings {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.settings
}

// SetSettings replaces the global multipliers from the next step on
func (w *World) SetSettings(settings config.GlobalSettings) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.settings = settings
}

// Simulations returns the simulations in layout order
func (w *World) Simulations() []*Simulation {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Simulation(nil), w.simulations...)
}

// Tick returns the number of completed world steps
func (w *World) Tick() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tick
}

// Layout splits a width x height canvas into n equal columns
func Layout(n int, width, height float64) []Viewport {
	if n <= 0 {
		return nil
	}
	column := width / float64(n)
	views := make([]Viewport, n)
	for i := range views {
		views[i] = Viewport{X: float64(i) * column, Width: column, Height: height}
	}
	return views
}

// Step advances every simulation by one tick on a width x height canvas.
// It returns ctx's error if ctx was done before all steps finished.
func (w *World) Step(ctx context.Context, width, height float64) error {
	sims := w.Simulations()
	settings := w.Settings()
	views := Layout(len(sims), width, height)
	reports := make([]StepReport, len(sims))

	g, gctx := errgroup.WithContext(ctx)
	for i, sim := range sims {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = sim.Advance(settings, views[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("world step interrupted: %w", err)
	}

	for i, sim := range sims {
		sim.Publish(ctx, reports[i])
	}

	w.mu.Lock()
	w.tick++
	w.mu.Unlock()
	return nil
}

// Frames returns a snapshot of every simulation for drawing
func (w *World) Frames() []Frame {
	sims := w.Simulations()
	frames := make([]Frame, len(sims))
	for i, sim := range sims {
		frames[i] = sim.Frame()
	}
	return frames
}

// Render draws every simulation to r as one screen update
func (w *World) Render(r entity.Renderer) {
	frames := w.Frames()
	r.Clear()
	for i := range frames {
		frames[i].Draw(r)
	}
	r.Present()
}

func (w *World) publish(e event.Event) {
	if w.bus != nil {
		w.bus.Publish(e)
	}
}
