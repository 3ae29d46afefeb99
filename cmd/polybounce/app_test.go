package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/go-polybounce/pkg/config"
	"github.com/opd-ai/go-polybounce/pkg/engine"
	"github.com/opd-ai/go-polybounce/pkg/event"
	"github.com/opd-ai/go-polybounce/pkg/logging"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvTimeScale, config.EnvGravityMultiplier, config.EnvRotationMultiplier,
		config.EnvBouncinessMultiplier, config.EnvDriver, config.EnvTickRate, config.EnvHealthPort,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, path string, cfg *config.AppConfig) {
	t.Helper()
	if err := config.SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
}

func twoSimulations() *config.AppConfig {
	cfg := config.DefaultConfig()
	second := config.DefaultSimulationConfig()
	second.BoundaryID = "second"
	second.Shape = "star"
	cfg.Simulations = append(cfg.Simulations, second)
	return cfg
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.yaml")
	writeConfig(t, valid, twoSimulations())

	invalid := filepath.Join(dir, "invalid.json")
	bad := config.DefaultConfig()
	bad.Simulations[0].VertexCount = 2
	writeConfig(t, invalid, bad)

	tests := []struct {
		name         string
		path         string
		driver       string
		allowMissing bool
		wantErr      bool
		wantSims     int
		wantDriver   string
	}{
		{"missing_file_defaults", filepath.Join(dir, "none.json"), "", true, false, 1, config.DriverHeadless},
		{"missing_file_rejected", filepath.Join(dir, "none.json"), "", false, true, 0, ""},
		{"yaml_file", valid, "", false, false, 2, config.DriverHeadless},
		{"driver_flag_wins", valid, config.DriverTerminal, false, false, 2, config.DriverTerminal},
		{"unknown_driver_flag", valid, "opengl", false, true, 0, ""},
		{"invalid_file", invalid, "", false, true, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(tt.path, tt.driver, tt.allowMissing)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(cfg.Simulations) != tt.wantSims {
				t.Errorf("Expected %d simulations, got %d", tt.wantSims, len(cfg.Simulations))
			}
			if cfg.Display.Driver != tt.wantDriver {
				t.Errorf("Expected driver %q, got %q", tt.wantDriver, cfg.Display.Driver)
			}
		})
	}
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvTimeScale, "0.5")
	t.Setenv(config.EnvDriver, "Terminal")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "none.json"), "", true)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Settings.TimeScale != 0.5 {
		t.Errorf("Expected time scale 0.5, got %v", cfg.Settings.TimeScale)
	}
	if cfg.Display.Driver != config.DriverTerminal {
		t.Errorf("Expected driver from environment, got %q", cfg.Display.Driver)
	}

	t.Setenv(config.EnvTickRate, "fast")
	if _, err := loadConfig(filepath.Join(t.TempDir(), "none.json"), "", true); err == nil {
		t.Error("Expected error for malformed tick rate")
	}
}

func TestLoadConfig_ErrorNamesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	bad := config.DefaultConfig()
	bad.Display.TickRate = 0
	writeConfig(t, path, bad)

	_, err := loadConfig(path, "", false)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.HasPrefix(err.Error(), "invalid configuration "+path+": ") {
		t.Errorf("error %q does not name the file", err)
	}
	if !strings.Contains(err.Error(), "invalid tick rate") {
		t.Errorf("error %q lost the validation detail", err)
	}
}

func TestStallLimit(t *testing.T) {
	tests := []struct {
		tickRate int
		expected time.Duration
	}{
		{0, time.Second},
		{1, 10 * time.Second},
		{5, 2 * time.Second},
		{60, time.Second},
		{1000, time.Second},
	}
	for _, tt := range tests {
		if got := stallLimit(tt.tickRate); got != tt.expected {
			t.Errorf("stallLimit(%d) = %v, expected %v", tt.tickRate, got, tt.expected)
		}
	}
}

func TestReloadConfig(t *testing.T) {
	clearEnv(t)
	ctx := context.Background()
	logger := logging.NewNopLogger()
	world := engine.NewWorld(config.DefaultConfig(), event.NewEventBus(), logger)
	path := filepath.Join(t.TempDir(), "config.json")

	bad := twoSimulations()
	bad.Settings.TimeScale = -1
	writeConfig(t, path, bad)
	if reloadConfig(ctx, path, "", world, logger) {
		t.Error("Expected invalid reload to be rejected")
	}
	if len(world.Simulations()) != 1 {
		t.Errorf("Rejected reload changed the world: %d simulations", len(world.Simulations()))
	}

	writeConfig(t, path, twoSimulations())
	if !reloadConfig(ctx, path, "", world, logger) {
		t.Fatal("Expected valid reload to be applied")
	}
	if len(world.Simulations()) != 2 {
		t.Errorf("Expected 2 simulations after reload, got %d", len(world.Simulations()))
	}
}

func TestWatchConfig_AppliesChanges(t *testing.T) {
	clearEnv(t)
	logger := logging.NewNopLogger()
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, path, config.DefaultConfig())

	world := engine.NewWorld(config.DefaultConfig(), event.NewEventBus(), logger)
	watcher, err := config.NewWatcher(path, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		watchConfig(ctx, watcher, "", world, logger)
		close(done)
	}()

	writeConfig(t, path, twoSimulations())

	deadline := time.Now().Add(5 * time.Second)
	for len(world.Simulations()) != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("Reload not applied, %d simulations", len(world.Simulations()))
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchConfig did not return after cancel")
	}
}

func TestRun_Headless(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := twoSimulations()
	cfg.Display.TickRate = 1000
	cfg.Display.HealthPort = 0
	writeConfig(t, path, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options{configPath: path, ticks: 20}
	if err := run(ctx, cfg, opts, logging.NewNopLogger()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if ctx.Err() != nil {
		t.Error("run only returned after the timeout")
	}
}

func TestRun_CancelIsCleanStop(t *testing.T) {
	clearEnv(t)
	cfg := config.DefaultConfig()
	cfg.Display.TickRate = 1000
	cfg.Display.HealthPort = 0

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, options{configPath: filepath.Join(t.TempDir(), "none.json")}, logging.NewNopLogger())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected clean stop on cancel, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestRunDriver_Unknown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Display.Driver = "opengl"
	err := runDriver(context.Background(), cfg, options{}, nil, nil, logging.NewNopLogger(), func() {})
	if err == nil {
		t.Error("Expected error for unknown driver")
	}
}

func TestLogWriter(t *testing.T) {
	dir := t.TempDir()
	stderr, err := os.Create(filepath.Join(dir, "stderr"))
	if err != nil {
		t.Fatalf("create stderr stand-in: %v", err)
	}
	defer stderr.Close()

	tty := func(int) bool { return true }
	redirected := func(int) bool { return false }

	tests := []struct {
		name       string
		driver     string
		logPath    string
		isTerminal func(int) bool
		expected   string // "file", "stderr" or "discard"
	}{
		{"terminal_on_tty_discards", config.DriverTerminal, "", tty, "discard"},
		{"terminal_redirected_uses_stderr", config.DriverTerminal, "", redirected, "stderr"},
		{"terminal_with_log_file", config.DriverTerminal, filepath.Join(dir, "term.log"), tty, "file"},
		{"headless_with_log_file", config.DriverHeadless, filepath.Join(dir, "headless.log"), tty, "file"},
		{"headless_keeps_stderr", config.DriverHeadless, "", tty, "stderr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, closeLog, err := logWriter(tt.driver, tt.logPath, stderr, tt.isTerminal)
			if err != nil {
				t.Fatalf("logWriter failed: %v", err)
			}
			defer closeLog()

			switch tt.expected {
			case "discard":
				if w != io.Discard {
					t.Errorf("expected io.Discard, got %T", w)
				}
			case "stderr":
				if w != io.Writer(stderr) {
					t.Errorf("expected stderr, got %T", w)
				}
			case "file":
				logging.NewLoggerWithWriter(w).Info(context.Background(), "Written to file")
				data, err := os.ReadFile(tt.logPath)
				if err != nil {
					t.Fatalf("read log file: %v", err)
				}
				if !strings.Contains(string(data), "Written to file") {
					t.Errorf("log file = %q", data)
				}
			}
		})
	}
}

func TestLogWriter_BadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "out.log")
	if _, _, err := logWriter(config.DriverTerminal, path, os.Stderr, func(int) bool { return true }); err == nil {
		t.Error("Expected error for unwritable log path")
	}
}
