// cmd/polybounce/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/opd-ai/go-polybounce/pkg/config"
	"github.com/opd-ai/go-polybounce/pkg/logging"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "config.yaml", "Path to configuration file (.yaml, .yml or .json)")
	createDefault := flag.Bool("default", false, "Write the default configuration to -config and exit")
	driver := flag.String("driver", "", "Render driver: headless, terminal, engo or ebiten (overrides config)")
	ticks := flag.Uint64("ticks", 0, "Stop after this many ticks (headless and terminal drivers; 0 runs until interrupted)")
	logPath := flag.String("log", "", "Append logs to this file (terminal driver logs nowhere by default unless stderr is redirected)")
	flag.Parse()

	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	opts := options{
		configPath: *configPath,
		driver:     *driver,
		ticks:      *ticks,
	}

	cfg, err := loadConfig(opts.configPath, opts.driver, true)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"config_path", opts.configPath,
		)
		os.Exit(1)
	}

	if cfg.Display.Driver == config.DriverTerminal || *logPath != "" {
		w, closeLog, err := logWriter(cfg.Display.Driver, *logPath, os.Stderr, term.IsTerminal)
		if err != nil {
			logger.Error(ctx, "Failed to open log file", err, "log_path", *logPath)
			os.Exit(1)
		}
		defer closeLog()
		logger = logging.NewLoggerWithWriter(w)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error(ctx, "Simulation stopped with error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Shut down")
}
