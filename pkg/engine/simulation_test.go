package engine

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/opd-ai/go-polybounce/pkg/config"
	"github.com/opd-ai/go-polybounce/pkg/entity"
	"github.com/opd-ai/go-polybounce/pkg/event"
	"github.com/opd-ai/go-polybounce/pkg/physics"
)

// recorder collects published events
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) handle(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(t event.Type) []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Event
	for _, e := range r.events {
		if e.GetType() == t {
			out = append(out, e)
		}
	}
	return out
}

func newRecordingBus(types ...event.Type) (*event.Bus, *recorder) {
	bus := event.NewEventBus()
	rec := &recorder{}
	for _, t := range types {
		bus.Subscribe(t, rec.handle)
	}
	return bus, rec
}

func ids(sim *Simulation) []uint64 {
	sim.mu.RLock()
	defer sim.mu.RUnlock()
	out := make([]uint64, len(sim.state.Bodies))
	for i, b := range sim.state.Bodies {
		out[i] = b.Body.ID
	}
	return out
}

func TestSimulation_SyncReseedsOnlyOnSeedFields(t *testing.T) {
	ctx := context.Background()
	bus, rec := newRecordingBus(event.SimulationReset)
	cfg := config.DefaultSimulationConfig()
	cfg.Seed = 5
	sim := NewSimulation(cfg, bus, nil)
	original := ids(sim)

	tuned := cfg
	tuned.Gravity = 1.5
	tuned.Shape = "star"
	tuned.VertexCount = 7
	if sim.Sync(ctx, tuned) {
		t.Error("Sync reseeded on a non-seed change")
	}
	if sim.Config().Gravity != 1.5 || sim.Config().ShapeKind() != physics.ShapeStar {
		t.Errorf("Sync did not adopt the new config: %+v", sim.Config())
	}
	if got := ids(sim); got[0] != original[0] {
		t.Error("bodies were rebuilt without a seed change")
	}
	if len(rec.ofType(event.SimulationReset)) != 0 {
		t.Error("reset event published without a reseed")
	}

	resized := tuned
	resized.BodyCount = 12
	if !sim.Sync(ctx, resized) {
		t.Error("Sync did not reseed on a body count change")
	}
	if sim.BodyCount() != 12 || sim.Tick() != 0 {
		t.Errorf("after reseed: %d bodies, tick %d", sim.BodyCount(), sim.Tick())
	}
	resets := rec.ofType(event.SimulationReset)
	if len(resets) != 1 {
		t.Fatalf("expected 1 reset event, got %d", len(resets))
	}
	if e := resets[0].(*event.SimulationEvent); e.BoundaryID != "main" || e.BodyCount != 12 {
		t.Errorf("reset event = %+v", e)
	}
}

func TestSimulation_ReseedRebuildsBodies(t *testing.T) {
	sim := NewSimulation(config.DefaultSimulationConfig(), nil, nil)
	before := ids(sim)
	sim.Reseed(context.Background())
	after := ids(sim)

	if len(after) != len(before) || after[0] == before[0] {
		t.Errorf("Reseed kept the old bodies: %v -> %v", before[:1], after[:1])
	}
}

func TestSimulation_StepPublishesContacts(t *testing.T) {
	ctx := context.Background()
	bus, rec := newRecordingBus(event.BoundaryHit, event.BodyCollision, event.BodyEscaped)
	cfg := stillConfig()
	sim := NewSimulation(cfg, bus, nil)

	apothem := 450 * math.Cos(math.Pi/6)
	sim.state = NewState([]*entity.Ball{
		entity.NewBall(11, physics.Vector2D{X: -10}, physics.Vector2D{X: 5}, 6, entity.PaletteColor(0)),
		entity.NewBall(12, physics.Vector2D{X: 10}, physics.Vector2D{X: -5}, 6, entity.PaletteColor(1)),
		entity.NewBall(13, physics.Vector2D{Y: apothem - 7}, physics.Vector2D{Y: 5}, 6, entity.PaletteColor(2)),
	})

	report := sim.Advance(config.DefaultSettings(), Viewport{Width: 1000, Height: 1000})
	if len(report.WallHits) != 1 || len(report.Collisions) != 1 {
		t.Fatalf("report = %+v", report)
	}
	sim.Publish(ctx, report)

	hits := rec.ofType(event.BoundaryHit)
	if len(hits) != 1 {
		t.Fatalf("expected 1 boundary event, got %d", len(hits))
	}
	hit := hits[0].(*event.BoundaryEvent)
	if hit.BodyID != 13 || hit.BoundaryID != "main" || !approxEqual(hit.ImpactSpeed, 5) {
		t.Errorf("boundary event = %+v", hit)
	}
	if hit.GetSource() != sim {
		t.Error("event source is not the simulation")
	}

	collisions := rec.ofType(event.BodyCollision)
	if len(collisions) != 1 {
		t.Fatalf("expected 1 collision event, got %d", len(collisions))
	}
	c := collisions[0].(*event.CollisionEvent)
	if c.EntityA+c.EntityB != 23 || !approxEqual(c.ImpactSpeed, 10) {
		t.Errorf("collision event = %+v", c)
	}
	if len(rec.ofType(event.BodyEscaped)) != 0 {
		t.Error("unexpected escape event")
	}
}

func TestSimulation_PublishAfterReseedKeepsSteppedIDs(t *testing.T) {
	ctx := context.Background()
	bus, rec := newRecordingBus(event.BodyCollision)
	cfg := stillConfig()
	sim := NewSimulation(cfg, bus, nil)
	sim.state = NewState([]*entity.Ball{
		entity.NewBall(31, physics.Vector2D{X: -5}, physics.Vector2D{X: 2}, 6, entity.PaletteColor(0)),
		entity.NewBall(32, physics.Vector2D{X: 5}, physics.Vector2D{X: -2}, 6, entity.PaletteColor(1)),
	})

	report := sim.Advance(config.DefaultSettings(), Viewport{Width: 1000, Height: 1000})
	if len(report.Collisions) != 1 {
		t.Fatalf("expected 1 collision, got %d", len(report.Collisions))
	}

	cfg.BodyCount = 5
	if !sim.Sync(ctx, cfg) {
		t.Fatal("body count change did not reseed")
	}
	sim.Publish(ctx, report)

	collisions := rec.ofType(event.BodyCollision)
	if len(collisions) != 1 {
		t.Fatalf("expected 1 collision event, got %d", len(collisions))
	}
	c := collisions[0].(*event.CollisionEvent)
	if c.EntityA+c.EntityB != 63 {
		t.Errorf("collision event ids = %d, %d, expected the stepped bodies 31 and 32", c.EntityA, c.EntityB)
	}
	if !approxEqual(c.ImpactSpeed, 4) {
		t.Errorf("impact speed = %v, expected 4", c.ImpactSpeed)
	}
}

func TestSimulation_PublishEscapes(t *testing.T) {
	bus, rec := newRecordingBus(event.BodyEscaped)
	sim := NewSimulation(stillConfig(), bus, nil)
	sim.state = NewState([]*entity.Ball{
		entity.NewBall(21, physics.Vector2D{}, physics.Vector2D{}, 6, entity.PaletteColor(0)),
	})

	sim.Publish(context.Background(), StepReport{
		Tick:    1,
		Bodies:  sim.state.Bodies,
		Escapes: []Escape{{Body: 0, Distance: 321}},
	})

	escapes := rec.ofType(event.BodyEscaped)
	if len(escapes) != 1 {
		t.Fatalf("expected 1 escape event, got %d", len(escapes))
	}
	if e := escapes[0].(*event.EscapeEvent); e.BodyID != 21 || e.Distance != 321 {
		t.Errorf("escape event = %+v", e)
	}
}

func TestSimulation_FrameIsWorldSpace(t *testing.T) {
	cfg := stillConfig()
	cfg.BodyCount = 5
	sim := NewSimulation(cfg, nil, nil)
	view := Viewport{X: 100, Y: 20, Width: 400, Height: 300}

	sim.Advance(config.DefaultSettings(), view)
	frame := sim.Frame()

	center := physics.Vector2D{X: 300, Y: 170}
	if frame.Boundary.Center != center || frame.Viewport != view || frame.Tick != 1 {
		t.Errorf("frame header = %+v", frame)
	}
	if !approxEqual(frame.Boundary.Radius, 135) {
		t.Errorf("boundary radius = %v, expected 135", frame.Boundary.Radius)
	}
	if len(frame.Boundary.Vertices) != cfg.VertexCount {
		t.Fatalf("boundary has %d vertices", len(frame.Boundary.Vertices))
	}
	for i, v := range frame.Boundary.Vertices {
		if !approxEqual(v.Sub(center).Length(), 135) {
			t.Errorf("vertex %d at %v is not on the boundary circle", i, v)
		}
	}

	sim.mu.RLock()
	defer sim.mu.RUnlock()
	for i, b := range frame.Balls {
		local := sim.state.Bodies[i].Position
		if b.Position != local.Add(center) {
			t.Errorf("ball %d at %v, expected %v", i, b.Position, local.Add(center))
		}
		if b.Color != sim.state.Bodies[i].Color || b.Radius != sim.state.Bodies[i].Radius {
			t.Errorf("ball %d lost its display attributes", i)
		}
	}
	frame.Boundary.Vertices[0] = physics.Vector2D{}
	if len(sim.state.loop) > 0 && sim.state.loop[0] == (physics.Vector2D{}) {
		t.Error("frame shares the simulation's loop buffer")
	}
}

func TestFrame_Render(t *testing.T) {
	sim := NewSimulation(stillConfig(), nil, nil)
	sim.Advance(config.DefaultSettings(), Viewport{Width: 200, Height: 200})
	frame := sim.Frame()

	r := &countingRenderer{}
	frame.Render(r)

	if r.clears != 1 || r.presents != 1 || r.boundaries != 1 || r.balls != len(frame.Balls) {
		t.Errorf("renderer calls = %+v", r)
	}
}

// countingRenderer counts calls through entity.Renderer
type countingRenderer struct {
	clears, presents, boundaries, balls int
}

func (c *countingRenderer) RenderBoundary(*entity.Boundary) { c.boundaries++ }
func (c *countingRenderer) RenderBall(*entity.Ball)         { c.balls++ }
func (c *countingRenderer) Clear()                          { c.clears++ }
func (c *countingRenderer) Present()                        { c.presents++ }
