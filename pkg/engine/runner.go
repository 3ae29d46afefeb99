package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-polybounce/pkg/logging"
)

// RunnerConfig controls a Runner
type RunnerConfig struct {
	TickRate int    // steps per second
	MaxTicks uint64 // stop after this many steps; 0 runs until cancelled

	// Size returns the current canvas size. It is called before every step.
	Size func() (width, height float64)

	// OnTick runs after every step, typically to draw a frame. An error
	// stops the runner.
	OnTick func(ctx context.Context, w *World) error
}

// Runner drives a World from a ticker for drivers that do not own a frame
// loop of their own
type Runner struct {
	world    *World
	cfg      RunnerConfig
	logger   *logging.Logger
	ticks    atomic.Uint64
	lastTick atomic.Int64
}

// NewRunner creates a runner for world
func NewRunner(world *World, cfg RunnerConfig, logger *logging.Logger) *Runner {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if cfg.Size == nil {
		cfg.Size = func() (float64, float64) { return 800, 600 }
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Runner{world: world, cfg: cfg, logger: logger}
}

// Run steps the world until ctx is cancelled, MaxTicks is reached or
// OnTick fails. Cancellation is a clean stop and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(r.cfg.TickRate))
	defer ticker.Stop()

	r.logger.Info(ctx, "Runner started", "tick_rate", r.cfg.TickRate, "max_ticks", r.cfg.MaxTicks)
	r.lastTick.Store(time.Now().UnixNano())

	for {
		select {
		case <-ctx.Done():
			r.logger.Info(ctx, "Runner stopped", "ticks", r.ticks.Load())
			return nil
		case <-ticker.C:
		}

		width, height := r.cfg.Size()
		if err := r.world.Step(ctx, width, height); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		n := r.ticks.Add(1)
		r.lastTick.Store(time.Now().UnixNano())

		if r.cfg.OnTick != nil {
			if err := r.cfg.OnTick(ctx, r.world); err != nil {
				return err
			}
		}
		if r.cfg.MaxTicks > 0 && n >= r.cfg.MaxTicks {
			r.logger.Info(ctx, "Runner reached tick limit", "ticks", n)
			return nil
		}
	}
}

// Ticks returns the number of steps taken
func (r *Runner) Ticks() uint64 {
	return r.ticks.Load()
}

// LastTick returns when the last step finished, or when Run started
func (r *Runner) LastTick() time.Time {
	ns := r.lastTick.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
