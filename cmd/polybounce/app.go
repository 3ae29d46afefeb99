package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-polybounce/pkg/audio"
	"github.com/opd-ai/go-polybounce/pkg/config"
	"github.com/opd-ai/go-polybounce/pkg/engine"
	"github.com/opd-ai/go-polybounce/pkg/event"
	"github.com/opd-ai/go-polybounce/pkg/health"
	"github.com/opd-ai/go-polybounce/pkg/logging"
	"github.com/opd-ai/go-polybounce/pkg/render"
	ebitenrender "github.com/opd-ai/go-polybounce/pkg/render/ebiten"
	engorender "github.com/opd-ai/go-polybounce/pkg/render/engo"
	"github.com/opd-ai/go-polybounce/pkg/validation"
)

const (
	// memoryLimitMB fails the readiness check above this heap size
	memoryLimitMB = 500

	// minStallLimit is the shortest time without a tick that counts as
	// stalled, however fast the tick rate
	minStallLimit = time.Second
)

type options struct {
	configPath string
	driver     string
	ticks      uint64
}

// loadConfig reads path, applies the environment and the driver flag, and
// validates the result. A missing file yields the defaults when
// allowMissing is set.
func loadConfig(path, driver string, allowMissing bool) (*config.AppConfig, error) {
	cfg, err := config.LoadConfig(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && allowMissing:
		cfg = config.DefaultConfig()
	case err != nil:
		return nil, err
	}

	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		return nil, logging.WrapError(err, "environment overrides")
	}
	if driver != "" {
		cfg.Display.Driver = driver
	}
	if err := validation.ValidateAppConfig(cfg); err != nil {
		return nil, logging.WrapError(err, "invalid configuration %s", path)
	}
	return cfg, nil
}

// logWriter picks where logs go. An explicit logPath always wins. The
// terminal driver draws on the tty, so it logs to stderr only when stderr
// is redirected and discards logs otherwise.
func logWriter(driver, logPath string, stderr *os.File, isTerminal func(fd int) bool) (io.Writer, func() error, error) {
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, logging.WrapError(err, "open log file")
		}
		return f, f.Close, nil
	}
	noop := func() error { return nil }
	if driver == config.DriverTerminal && isTerminal(int(stderr.Fd())) {
		return io.Discard, noop, nil
	}
	return stderr, noop, nil
}

// run builds the world and blocks in the selected driver. Background work
// stops when the driver returns.
func run(ctx context.Context, cfg *config.AppConfig, opts options, logger *logging.Logger) error {
	bus := event.NewEventBus()
	world := engine.NewWorld(cfg, bus, logger)
	logger.Info(ctx, "World created",
		"simulations", len(cfg.Simulations),
		"driver", cfg.Display.Driver,
		"tick_rate", cfg.Display.TickRate,
	)

	if cfg.Display.Audio {
		if err := audio.InitSpeaker(); err != nil {
			logger.Warn(ctx, "Audio disabled", "error", err)
		} else {
			sounder := audio.NewImpactSounder(bus, audio.DefaultConfig(), nil, logger)
			defer sounder.Close()
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if _, err := os.Stat(opts.configPath); err == nil {
		watcher, err := config.NewWatcher(opts.configPath, config.DefaultDebounce)
		if err != nil {
			logger.Warn(ctx, "Config reload disabled", "error", err)
		} else {
			defer watcher.Close()
			g.Go(func() error {
				watchConfig(gctx, watcher, opts.driver, world, logger)
				return nil
			})
		}
	}

	checker := health.NewChecker()
	checker.AddCheck(health.NewWorldCheck(func() int { return len(world.Simulations()) }))
	checker.AddCheck(health.NewMemoryCheck(memoryLimitMB, nil))

	driverErr := runDriver(gctx, cfg, opts, world, checker, logger, func() {
		if cfg.Display.HealthPort == 0 {
			return
		}
		server := health.NewServer(cfg.Display.HealthPort, checker, logger)
		g.Go(func() error { return server.Run(gctx, nil) })
	})

	cancel()
	if err := g.Wait(); err != nil && driverErr == nil {
		driverErr = err
	}
	return driverErr
}

// runDriver runs the configured driver on the calling goroutine, which the
// windowed drivers need. startHealth is called once the driver's checks
// are registered.
func runDriver(ctx context.Context, cfg *config.AppConfig, opts options, world *engine.World,
	checker *health.Checker, logger *logging.Logger, startHealth func()) error {
	display := cfg.Display

	switch display.Driver {
	case config.DriverHeadless:
		nullRenderer := render.NewNullRenderer(logger)
		runner := engine.NewRunner(world, engine.RunnerConfig{
			TickRate: display.TickRate,
			MaxTicks: opts.ticks,
			Size:     func() (float64, float64) { return display.Width, display.Height },
			OnTick: func(ctx context.Context, w *engine.World) error {
				w.Render(nullRenderer)
				return nil
			},
		}, logger)
		checker.AddCheck(health.NewTickCheck(runner.LastTick, stallLimit(display.TickRate)))
		startHealth()
		return runner.Run(ctx)

	case config.DriverTerminal:
		screen, err := tcell.NewScreen()
		if err != nil {
			return logging.WrapError(err, "open terminal")
		}
		term, err := render.NewTerminal(screen)
		if err != nil {
			return logging.WrapError(err, "init terminal")
		}
		defer term.Close()

		ctx, quit := context.WithCancel(ctx)
		defer quit()
		go term.HandleInput(quit)

		runner := engine.NewRunner(world, term.RunnerConfig(display.TickRate, opts.ticks), logger)
		checker.AddCheck(health.NewTickCheck(runner.LastTick, stallLimit(display.TickRate)))
		startHealth()
		return runner.Run(ctx)

	case config.DriverEngo:
		startHealth()
		return engorender.Run(ctx, world, display, logger)

	case config.DriverEbiten:
		startHealth()
		return ebitenrender.Run(ctx, world, display, logger)
	}
	return fmt.Errorf("unknown driver %q", display.Driver)
}

// stallLimit is how long the runner may go without a tick before it is
// reported as stalled: ten tick periods, at least minStallLimit
func stallLimit(tickRate int) time.Duration {
	if tickRate <= 0 {
		return minStallLimit
	}
	return max(10*time.Second/time.Duration(tickRate), minStallLimit)
}

// watchConfig reloads the configuration on every change until ctx is done.
// Invalid files are logged and ignored; the world keeps its last good
// configuration.
func watchConfig(ctx context.Context, w *config.Watcher, driver string, world *engine.World, logger *logging.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-w.Events:
			if !ok {
				return
			}
			reloadConfig(logging.WithCorrelationID(ctx, logging.GenerateCorrelationID()), path, driver, world, logger)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Error(ctx, "Config watcher failed", err)
		}
	}
}

func reloadConfig(ctx context.Context, path, driver string, world *engine.World, logger *logging.Logger) bool {
	cfg, err := loadConfig(path, driver, false)
	if err != nil {
		logger.Warn(ctx, "Config reload rejected", "config_path", path, "error", err)
		return false
	}
	world.Apply(ctx, cfg)
	logger.Info(ctx, "Config reloaded",
		"config_path", path,
		"simulations", len(cfg.Simulations),
	)
	return true
}
