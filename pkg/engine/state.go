// pkg/engine/state.go
package engine

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/opd-ai/go-polybounce/pkg/config"
	"github.com/opd-ai/go-polybounce/pkg/entity"
	"github.com/opd-ai/go-polybounce/pkg/physics"
)

const (
	// ShapeRadiusFactor sizes the boundary from the smaller canvas extent
	ShapeRadiusFactor = 0.45

	// EscapeMargin is how far past the boundary radius a body may drift
	// before it is put back at the centre
	EscapeMargin = 50.0

	// SpawnRadius bounds the disc new bodies are scattered in
	SpawnRadius = 50.0
)

// State is the runtime state of one boundary instance. Only Bodies,
// Rotation and Tick carry over between ticks; everything else is scratch
// space reused to avoid per-tick allocation.
type State struct {
	Bodies   []*entity.Ball
	Rotation float64
	Tick     uint64

	bodies []*physics.Body
	loop   []physics.Vector2D
	grid   *physics.SpatialGrid
	pairs  *physics.PairResolver
	report StepReport
}

// WallHit is a boundary contact of the body at index Body
type WallHit struct {
	Body    int
	Contact physics.WallContact
}

// Escape records a body that was recentred by the safety net
type Escape struct {
	Body     int
	Distance float64
}

// StepReport lists what happened during one tick. Its slices are reused
// and stay valid only until the next Step on the same state. Body indices
// refer to Bodies, which stays the stepped set even if the state is
// reseeded afterwards.
type StepReport struct {
	Tick        uint64
	ShapeRadius float64
	Bodies      []*entity.Ball
	WallHits    []WallHit
	Collisions  []physics.PairContact
	Escapes     []Escape
}

// NewState wraps an existing set of balls
func NewState(balls []*entity.Ball) *State {
	s := &State{
		Bodies: balls,
		bodies: make([]*physics.Body, len(balls)),
		grid:   physics.NewSpatialGrid(1, 0),
		pairs:  physics.NewPairResolver(),
	}
	for i, b := range balls {
		s.bodies[i] = &b.Body
	}
	return s
}

// Loop returns the boundary vertices of the last tick in local space
func (s *State) Loop() []physics.Vector2D {
	return s.loop
}

// Reset builds a fresh state for cfg. Bodies are scattered in a small disc
// around the centre with speed cfg.InitialSpeed in random directions.
// A zero cfg.Seed picks a time based seed.
func Reset(cfg config.SimulationConfig) *State {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	spawn := math.Min(SpawnRadius, float64(cfg.BodyCount)*cfg.BodySize)
	balls := make([]*entity.Ball, cfg.BodyCount)
	for i := range balls {
		// sqrt keeps the spawn density uniform over the disc
		position := physics.FromAngle(rng.Float64()*2*math.Pi, spawn*math.Sqrt(rng.Float64()))
		velocity := physics.FromAngle(rng.Float64()*2*math.Pi, cfg.InitialSpeed)
		balls[i] = entity.NewBall(entity.GenerateID(), position, velocity, cfg.BodySize, entity.PaletteColor(i))
	}

	return NewState(balls)
}

// ShapeFor returns the boundary shape of cfg at the given radius and rotation
func ShapeFor(cfg config.SimulationConfig, radius, rotation float64) physics.Shape {
	return physics.Shape{
		Kind:        cfg.ShapeKind(),
		VertexCount: cfg.VertexCount,
		OuterRadius: radius,
		InnerRadius: radius * cfg.InnerRatio,
		Rotation:    rotation,
	}
}

// Step advances state by one tick on a width x height canvas:
// rotate the boundary, integrate, resolve walls, resolve pairs, then
// recentre any body that escaped. state is mutated in place.
func Step(state *State, cfg config.SimulationConfig, settings config.GlobalSettings, width, height float64) StepReport {
	shapeRadius := math.Min(width, height) * ShapeRadiusFactor
	timeScale := settings.TimeScale

	state.Rotation += cfg.RotationSpeed * settings.RotationMultiplier * timeScale
	state.loop = ShapeFor(cfg, shapeRadius, state.Rotation).Loop(state.loop)
	state.Tick++

	report := &state.report
	report.Tick = state.Tick
	report.ShapeRadius = shapeRadius
	report.Bodies = state.Bodies
	report.WallHits = report.WallHits[:0]
	report.Collisions = report.Collisions[:0]
	report.Escapes = report.Escapes[:0]

	forces := physics.Forces{
		Gravity:   cfg.Gravity * settings.GravityMultiplier,
		Friction:  cfg.Friction,
		Drag:      cfg.Drag,
		TimeScale: timeScale,
	}
	for _, b := range state.bodies {
		physics.Integrate(b, forces)
	}

	bounce := cfg.Restitution * settings.BouncinessMultiplier
	current := 0
	onWall := func(c physics.WallContact) {
		report.WallHits = append(report.WallHits, WallHit{Body: current, Contact: c})
	}
	for i, b := range state.bodies {
		current = i
		physics.ResolveBoundary(b, state.loop, bounce, onWall)
	}

	if len(state.bodies) >= 2 {
		state.grid.Build(state.bodies, cfg.BodySize*physics.CellSizeFactor, shapeRadius*physics.GridOffsetFactor)
		state.pairs.Resolve(state.bodies, state.grid, func(c physics.PairContact) {
			report.Collisions = append(report.Collisions, c)
		})
	}

	report.Escapes = recentreEscaped(state.bodies, shapeRadius+EscapeMargin, report.Escapes)

	return *report
}

// recentreEscaped moves every body farther than limit from the centre back
// to the centre at rest
func recentreEscaped(bodies []*physics.Body, limit float64, escapes []Escape) []Escape {
	for i, b := range bodies {
		if d := b.Position.Length(); d > limit {
			b.Position = physics.Vector2D{}
			b.Velocity = physics.Vector2D{}
			escapes = append(escapes, Escape{Body: i, Distance: d})
		}
	}
	return escapes
}
