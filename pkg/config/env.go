package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables read by ApplyEnvironmentOverrides
const (
	EnvTimeScale            = "POLYBOUNCE_TIME_SCALE"
	EnvGravityMultiplier    = "POLYBOUNCE_GRAVITY_MULTIPLIER"
	EnvRotationMultiplier   = "POLYBOUNCE_ROTATION_MULTIPLIER"
	EnvBouncinessMultiplier = "POLYBOUNCE_BOUNCINESS_MULTIPLIER"
	EnvDriver               = "POLYBOUNCE_DRIVER"
	EnvTickRate             = "POLYBOUNCE_TICK_RATE"
	EnvHealthPort           = "POLYBOUNCE_HEALTH_PORT"
)

// ApplyEnvironmentOverrides replaces settings with values from the
// environment. Unset variables are ignored; malformed ones are an error.
func ApplyEnvironmentOverrides(config *AppConfig) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{EnvTimeScale, &config.Settings.TimeScale},
		{EnvGravityMultiplier, &config.Settings.GravityMultiplier},
		{EnvRotationMultiplier, &config.Settings.RotationMultiplier},
		{EnvBouncinessMultiplier, &config.Settings.BouncinessMultiplier},
	}
	for _, f := range floats {
		if err := getEnvFloat(f.key, f.dst); err != nil {
			return err
		}
	}

	if err := getEnvInt(EnvTickRate, &config.Display.TickRate); err != nil {
		return err
	}
	if err := getEnvInt(EnvHealthPort, &config.Display.HealthPort); err != nil {
		return err
	}
	if driver := strings.TrimSpace(os.Getenv(EnvDriver)); driver != "" {
		config.Display.Driver = strings.ToLower(driver)
	}

	return nil
}

func getEnvFloat(key string, dst *float64) error {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = parsed
	return nil
}

func getEnvInt(key string, dst *int) error {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = parsed
	return nil
}
