// Package validation checks configuration before it reaches the physics
// core, which does not defend against malformed values itself.
package validation

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/opd-ai/go-polybounce/pkg/config"
	"github.com/opd-ai/go-polybounce/pkg/physics"
)

// Limits on configuration values
const (
	MinVertexCount   = 3
	MaxVertexCount   = 64
	MaxBodyCount     = 5000
	MaxBoundaryIDLen = 64
	MinTickRate      = 1
	MaxTickRate      = 1000
	MaxPort          = 65535
)

// ValidateSimulationConfig checks a single simulation. All problems are
// reported together.
func ValidateSimulationConfig(c config.SimulationConfig) error {
	var errs []error

	if c.BoundaryID == "" {
		errs = append(errs, fmt.Errorf("boundary id cannot be empty"))
	} else if len(c.BoundaryID) > MaxBoundaryIDLen {
		errs = append(errs, fmt.Errorf("boundary id too long: %d characters (max %d)", len(c.BoundaryID), MaxBoundaryIDLen))
	}

	kind, err := physics.ParseShapeKind(c.Shape)
	if err != nil {
		errs = append(errs, err)
	}
	if c.VertexCount < MinVertexCount || c.VertexCount > MaxVertexCount {
		errs = append(errs, fmt.Errorf("invalid vertex count: %d (must be %d-%d)", c.VertexCount, MinVertexCount, MaxVertexCount))
	}
	if kind == physics.ShapeStar && (c.InnerRatio <= 0 || c.InnerRatio >= 1) {
		errs = append(errs, fmt.Errorf("invalid star inner ratio: %v (must be in (0, 1))", c.InnerRatio))
	}

	if c.BodyCount < 0 || c.BodyCount > MaxBodyCount {
		errs = append(errs, fmt.Errorf("invalid body count: %d (must be 0-%d)", c.BodyCount, MaxBodyCount))
	}
	if c.BodySize <= 0 {
		errs = append(errs, fmt.Errorf("body size must be positive: %v", c.BodySize))
	}
	if c.InitialSpeed < 0 {
		errs = append(errs, fmt.Errorf("initial speed cannot be negative: %v", c.InitialSpeed))
	}
	if c.Restitution < 0 {
		errs = append(errs, fmt.Errorf("restitution cannot be negative: %v", c.Restitution))
	}
	if c.Friction < 0 {
		errs = append(errs, fmt.Errorf("friction cannot be negative: %v", c.Friction))
	}
	if c.Drag < 0 {
		errs = append(errs, fmt.Errorf("drag cannot be negative: %v", c.Drag))
	}

	errs = append(errs, checkFinite([]namedValue{
		{"gravity", c.Gravity},
		{"friction", c.Friction},
		{"restitution", c.Restitution},
		{"initial speed", c.InitialSpeed},
		{"body size", c.BodySize},
		{"rotation speed", c.RotationSpeed},
		{"inner ratio", c.InnerRatio},
		{"drag", c.Drag},
	})...)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("simulation %q: %w", c.BoundaryID, err)
	}
	return nil
}

// ValidateGlobalSettings checks the shared multipliers
func ValidateGlobalSettings(s config.GlobalSettings) error {
	var errs []error

	if s.TimeScale < 0 {
		errs = append(errs, fmt.Errorf("time scale cannot be negative: %v", s.TimeScale))
	}
	if s.BouncinessMultiplier < 0 {
		errs = append(errs, fmt.Errorf("bounciness multiplier cannot be negative: %v", s.BouncinessMultiplier))
	}
	errs = append(errs, checkFinite([]namedValue{
		{"gravity multiplier", s.GravityMultiplier},
		{"time scale", s.TimeScale},
		{"rotation multiplier", s.RotationMultiplier},
		{"bounciness multiplier", s.BouncinessMultiplier},
	})...)

	return errors.Join(errs...)
}

type namedValue struct {
	name  string
	value float64
}

// checkFinite reports NaN and infinite values in the order given
func checkFinite(values []namedValue) []error {
	var errs []error
	for _, v := range values {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			errs = append(errs, fmt.Errorf("%s must be finite", v.name))
		}
	}
	return errs
}

// ValidateDamping checks that friction damping stays a shrink factor,
// i.e. friction * timeScale lies in [0, 1)
func ValidateDamping(c config.SimulationConfig, s config.GlobalSettings) error {
	damping := c.Friction * s.TimeScale
	if damping < 0 || damping >= 1 {
		return fmt.Errorf("simulation %q: friction * time scale = %v (must be in [0, 1))", c.BoundaryID, damping)
	}
	return nil
}

// ValidateDisplayConfig checks the render driver settings
func ValidateDisplayConfig(d config.DisplayConfig) error {
	var errs []error

	if !slices.Contains(config.Drivers, d.Driver) {
		errs = append(errs, fmt.Errorf("unknown driver %q (must be one of %v)", d.Driver, config.Drivers))
	}
	if d.Width <= 0 || d.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid display size: %vx%v", d.Width, d.Height))
	}
	if d.TickRate < MinTickRate || d.TickRate > MaxTickRate {
		errs = append(errs, fmt.Errorf("invalid tick rate: %d (must be %d-%d)", d.TickRate, MinTickRate, MaxTickRate))
	}
	if d.HealthPort < 0 || d.HealthPort > MaxPort {
		errs = append(errs, fmt.Errorf("invalid health port: %d", d.HealthPort))
	}

	return errors.Join(errs...)
}

// ValidateAppConfig checks a whole configuration
func ValidateAppConfig(c *config.AppConfig) error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error
	seen := make(map[string]bool, len(c.Simulations))
	for _, sim := range c.Simulations {
		if err := ValidateSimulationConfig(sim); err != nil {
			errs = append(errs, err)
		}
		if err := ValidateDamping(sim, c.Settings); err != nil {
			errs = append(errs, err)
		}
		if seen[sim.BoundaryID] {
			errs = append(errs, fmt.Errorf("duplicate boundary id %q", sim.BoundaryID))
		}
		seen[sim.BoundaryID] = true
	}
	if err := ValidateGlobalSettings(c.Settings); err != nil {
		errs = append(errs, fmt.Errorf("settings: %w", err))
	}
	if err := ValidateDisplayConfig(c.Display); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}

	return errors.Join(errs...)
}
