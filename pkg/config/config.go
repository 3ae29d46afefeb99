// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-polybounce/pkg/physics"
)

// AppConfig is the full configuration of a polybounce process
type AppConfig struct {
	Simulations []SimulationConfig `json:"simulations" yaml:"simulations"`
	Settings    GlobalSettings     `json:"settings" yaml:"settings"`
	Display     DisplayConfig      `json:"display" yaml:"display"`
}

// SimulationConfig describes one boundary and the bodies inside it.
// The physics core reads it once per tick and never mutates it.
type SimulationConfig struct {
	BoundaryID    string  `json:"boundaryId" yaml:"boundaryId"`
	Gravity       float64 `json:"gravity" yaml:"gravity"`
	Friction      float64 `json:"friction" yaml:"friction"`
	Restitution   float64 `json:"restitution" yaml:"restitution"`
	InitialSpeed  float64 `json:"initialSpeed" yaml:"initialSpeed"`
	BodyCount     int     `json:"bodyCount" yaml:"bodyCount"`
	BodySize      float64 `json:"bodySize" yaml:"bodySize"`
	RotationSpeed float64 `json:"rotationSpeed" yaml:"rotationSpeed"`
	Shape         string  `json:"shape" yaml:"shape"`
	VertexCount   int     `json:"vertexCount" yaml:"vertexCount"`
	InnerRatio    float64 `json:"innerRatio" yaml:"innerRatio"`
	Drag          float64 `json:"drag" yaml:"drag"`
	Seed          uint64  `json:"seed" yaml:"seed"`
}

// GlobalSettings are multipliers applied to every simulation
type GlobalSettings struct {
	GravityMultiplier    float64 `json:"gravityMultiplier" yaml:"gravityMultiplier"`
	TimeScale            float64 `json:"timeScale" yaml:"timeScale"`
	RotationMultiplier   float64 `json:"rotationMultiplier" yaml:"rotationMultiplier"`
	BouncinessMultiplier float64 `json:"bouncinessMultiplier" yaml:"bouncinessMultiplier"`
}

// DisplayConfig selects and sizes the render driver
type DisplayConfig struct {
	Driver     string  `json:"driver" yaml:"driver"`
	Width      float64 `json:"width" yaml:"width"`
	Height     float64 `json:"height" yaml:"height"`
	TickRate   int     `json:"tickRate" yaml:"tickRate"`
	Fullscreen bool    `json:"fullscreen" yaml:"fullscreen"`
	Audio      bool    `json:"audio" yaml:"audio"`
	HealthPort int     `json:"healthPort" yaml:"healthPort"`
}

// Render drivers understood by cmd/polybounce
const (
	DriverHeadless = "headless"
	DriverTerminal = "terminal"
	DriverEngo     = "engo"
	DriverEbiten   = "ebiten"
)

// Drivers lists every supported render driver
var Drivers = []string{DriverHeadless, DriverTerminal, DriverEngo, DriverEbiten}

// SeedKey holds the fields whose change forces the bodies to be rebuilt
type SeedKey struct {
	BoundaryID   string
	BodyCount    int
	InitialSpeed float64
	BodySize     float64
}

// SeedKey returns the reseed-relevant part of the configuration
func (c SimulationConfig) SeedKey() SeedKey {
	return SeedKey{
		BoundaryID:   c.BoundaryID,
		BodyCount:    c.BodyCount,
		InitialSpeed: c.InitialSpeed,
		BodySize:     c.BodySize,
	}
}

// ShapeKind returns the parsed boundary shape. Unknown names fall back to
// a polygon; validation rejects them before they get here.
func (c SimulationConfig) ShapeKind() physics.ShapeKind {
	kind, err := physics.ParseShapeKind(c.Shape)
	if err != nil {
		return physics.ShapePolygon
	}
	return kind
}

// UnmarshalJSON fills fields missing from data with defaults
func (c *SimulationConfig) UnmarshalJSON(data []byte) error {
	type plain SimulationConfig
	p := plain(DefaultSimulationConfig())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = SimulationConfig(p)
	return nil
}

// UnmarshalYAML fills fields missing from node with defaults
func (c *SimulationConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain SimulationConfig
	p := plain(DefaultSimulationConfig())
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = SimulationConfig(p)
	return nil
}

// LoadConfig loads a configuration from a JSON or YAML file. Fields the
// file leaves out keep their default values.
func LoadConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch format(path) {
	case "yaml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return config, nil
}

// SaveConfig saves a configuration to a file, in YAML when the extension
// says so and JSON otherwise
func SaveConfig(config *AppConfig, path string) error {
	var (
		data []byte
		err  error
	)
	switch format(path) {
	case "yaml":
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// DefaultSimulationConfig returns a single hexagon with a handful of bodies
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		BoundaryID:    "main",
		Gravity:       0.2,
		Friction:      0.001,
		Restitution:   0.9,
		InitialSpeed:  4,
		BodyCount:     40,
		BodySize:      6,
		RotationSpeed: 0.01,
		Shape:         physics.ShapePolygon.String(),
		VertexCount:   6,
		InnerRatio:    0.5,
		Drag:          physics.DragCoefficient,
	}
}

// DefaultSettings returns neutral multipliers
func DefaultSettings() GlobalSettings {
	return GlobalSettings{
		GravityMultiplier:    1,
		TimeScale:            1,
		RotationMultiplier:   1,
		BouncinessMultiplier: 1,
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Simulations: []SimulationConfig{DefaultSimulationConfig()},
		Settings:    DefaultSettings(),
		Display: DisplayConfig{
			Driver:     DriverHeadless,
			Width:      800,
			Height:     600,
			TickRate:   60,
			HealthPort: 8080,
		},
	}
}
