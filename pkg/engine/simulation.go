// pkg/engine/simulation.go
package engine

import (
	"context"
	"math"
	"sync"

	"github.com/opd-ai/go-polybounce/pkg/config"
	"github.com/opd-ai/go-polybounce/pkg/entity"
	"github.com/opd-ai/go-polybounce/pkg/event"
	"github.com/opd-ai/go-polybounce/pkg/logging"
	"github.com/opd-ai/go-polybounce/pkg/physics"
)

// statsInterval is how many ticks pass between debug summaries
const statsInterval = 600

// Simulation owns one boundary instance: its configuration, its state and
// the viewport it was last stepped in. Step and Sync may be called from
// any goroutine; they serialise on an internal lock.
type Simulation struct {
	mu       sync.RWMutex
	config   config.SimulationConfig
	seedKey  config.SeedKey
	state    *State
	viewport Viewport
	report   StepReport

	bus    *event.Bus
	logger *logging.Logger
}

// NewSimulation creates a simulation and seeds its bodies. bus and logger
// may be nil.
func NewSimulation(cfg config.SimulationConfig, bus *event.Bus, logger *logging.Logger) *Simulation {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Simulation{
		config:  cfg,
		seedKey: cfg.SeedKey(),
		state:   Reset(cfg),
		bus:     bus,
		logger:  logger.With("boundary", cfg.BoundaryID),
	}
	return s
}

// ID returns the boundary id
func (s *Simulation) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.BoundaryID
}

// Config returns the current configuration
func (s *Simulation) Config() config.SimulationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// BodyCount returns the number of bodies
func (s *Simulation) BodyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Bodies)
}

// Tick returns the number of steps since the last reseed
func (s *Simulation) Tick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Tick
}

// Sync adopts cfg. Bodies are rebuilt only when the boundary id, body
// count, initial speed or body size changed; other fields take effect on
// the next step. It reports whether a reseed happened.
func (s *Simulation) Sync(ctx context.Context, cfg config.SimulationConfig) bool {
	s.mu.Lock()
	s.config = cfg
	key := cfg.SeedKey()
	if key == s.seedKey {
		s.mu.Unlock()
		return false
	}
	s.seedKey = key
	s.state = Reset(cfg)
	s.mu.Unlock()

	s.logger.Info(ctx, "Simulation reseeded",
		"body_count", cfg.BodyCount,
		"body_size", cfg.BodySize,
		"initial_speed", cfg.InitialSpeed,
	)
	s.publish(event.NewSimulationEvent(event.SimulationReset, s, cfg.BoundaryID, cfg.BodyCount))
	return true
}

// Reseed rebuilds the bodies from the current configuration
func (s *Simulation) Reseed(ctx context.Context) {
	s.mu.Lock()
	cfg := s.config
	s.state = Reset(cfg)
	s.mu.Unlock()

	s.logger.Info(ctx, "Simulation reseeded", "body_count", cfg.BodyCount)
	s.publish(event.NewSimulationEvent(event.SimulationReset, s, cfg.BoundaryID, cfg.BodyCount))
}

// Advance steps the physics once inside viewport without publishing
// events. The returned report is valid until the next Advance.
func (s *Simulation) Advance(settings config.GlobalSettings, viewport Viewport) StepReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewport = viewport
	s.report = Step(s.state, s.config, settings, viewport.Width, viewport.Height)
	return s.report
}

// Publish turns a step report into events and log entries. It must run
// before the next Advance, while the report's slices are still valid.
func (s *Simulation) Publish(ctx context.Context, report StepReport) {
	s.mu.RLock()
	id := s.config.BoundaryID
	s.mu.RUnlock()
	bodies := report.Bodies

	for _, esc := range report.Escapes {
		s.logger.Warn(ctx, "Body escaped boundary, recentred",
			"body_id", bodyID(bodies, esc.Body),
			"distance", esc.Distance,
			"tick", report.Tick,
		)
	}
	if report.Tick%statsInterval == 0 {
		s.logger.Debug(ctx, "Simulation stats",
			"tick", report.Tick,
			"bodies", len(bodies),
			"wall_hits", len(report.WallHits),
			"collisions", len(report.Collisions),
		)
	}

	if s.bus == nil {
		return
	}
	if s.bus.HasSubscribers(event.BoundaryHit) {
		for _, hit := range report.WallHits {
			if !hit.Contact.Bounced {
				continue
			}
			s.bus.Publish(event.NewBoundaryEvent(s, id, bodyID(bodies, hit.Body), hit.Contact.Edge, hit.Contact.ImpactSpeed))
		}
	}
	if s.bus.HasSubscribers(event.BodyCollision) {
		for _, c := range report.Collisions {
			if !c.Exchanged {
				continue
			}
			s.bus.Publish(event.NewCollisionEvent(s, id, bodyID(bodies, c.A), bodyID(bodies, c.B), approachSpeed(bodies, c)))
		}
	}
	for _, esc := range report.Escapes {
		s.bus.Publish(event.NewEscapeEvent(s, id, bodyID(bodies, esc.Body), esc.Distance))
	}
}

// Frame returns a world-space snapshot for drawing
func (s *Simulation) Frame() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()

	center := s.viewport.Center()
	radius := math.Min(s.viewport.Width, s.viewport.Height) * ShapeRadiusFactor
	frame := Frame{
		Tick:     s.state.Tick,
		Viewport: s.viewport,
		Boundary: entity.Boundary{
			ID:       s.config.BoundaryID,
			Kind:     s.config.ShapeKind(),
			Center:   center,
			Radius:   radius,
			Vertices: physics.Translate(nil, s.state.loop, center),
		},
		Balls: make([]entity.Ball, len(s.state.Bodies)),
	}
	for i, b := range s.state.Bodies {
		frame.Balls[i] = *b
		frame.Balls[i].Position = b.Position.Add(center)
	}
	return frame
}

func (s *Simulation) publish(e event.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

func bodyID(bodies []*entity.Ball, i int) uint64 {
	if i < 0 || i >= len(bodies) {
		return 0
	}
	return bodies[i].Body.ID
}

// approachSpeed is the normal speed the pair exchanged. After the swap it
// equals their separating speed.
func approachSpeed(bodies []*entity.Ball, c physics.PairContact) float64 {
	if c.A >= len(bodies) || c.B >= len(bodies) {
		return 0
	}
	rel := bodies[c.B].Velocity.Sub(bodies[c.A].Velocity)
	return math.Abs(rel.Dot(c.Normal))
}
