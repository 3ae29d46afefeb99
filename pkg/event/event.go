// pkg/event/event.go
package event

import (
	"sync"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	BoundaryHit       Type = "boundary_hit"
	BodyCollision     Type = "body_collision"
	BodyEscaped       Type = "body_escaped"
	SimulationReset   Type = "simulation_reset"
	SimulationAdded   Type = "simulation_added"
	SimulationRemoved Type = "simulation_removed"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription is a registered handler. Cancel removes it from the bus.
type Subscription struct {
	ID     uint64
	Cancel func()
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching. Handlers run
// synchronously on the publishing goroutine.
type Bus struct {
	handlers map[Type][]subscriber
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscriber),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.handlers[eventType]
	for i, s := range handlers {
		if s.id == id {
			// copy so a concurrent Publish keeps its snapshot intact
			remaining := make([]subscriber, 0, len(handlers)-1)
			remaining = append(remaining, handlers[:i]...)
			b.handlers[eventType] = append(remaining, handlers[i+1:]...)
			return
		}
	}
}

// HasSubscribers reports whether anything listens for eventType
func (b *Bus) HasSubscribers(eventType Type) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType]) > 0
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, s := range handlers {
		s.handler(event)
	}
}

// BoundaryEvent reports a body touching a boundary edge
type BoundaryEvent struct {
	BaseEvent
	BoundaryID  string
	BodyID      uint64
	Edge        int
	ImpactSpeed float64
}

// NewBoundaryEvent creates a new boundary hit event
func NewBoundaryEvent(source interface{}, boundaryID string, bodyID uint64, edge int, impactSpeed float64) *BoundaryEvent {
	return &BoundaryEvent{
		BaseEvent: BaseEvent{
			EventType: BoundaryHit,
			Source:    source,
		},
		BoundaryID:  boundaryID,
		BodyID:      bodyID,
		Edge:        edge,
		ImpactSpeed: impactSpeed,
	}
}

// CollisionEvent contains information about body collisions
type CollisionEvent struct {
	BaseEvent
	BoundaryID  string
	EntityA     uint64
	EntityB     uint64
	ImpactSpeed float64
}

// NewCollisionEvent creates a new collision event
func NewCollisionEvent(source interface{}, boundaryID string, entityA, entityB uint64, impactSpeed float64) *CollisionEvent {
	return &CollisionEvent{
		BaseEvent: BaseEvent{
			EventType: BodyCollision,
			Source:    source,
		},
		BoundaryID:  boundaryID,
		EntityA:     entityA,
		EntityB:     entityB,
		ImpactSpeed: impactSpeed,
	}
}

// EscapeEvent reports a body that left the safety bound and was recentred
type EscapeEvent struct {
	BaseEvent
	BoundaryID string
	BodyID     uint64
	Distance   float64
}

// NewEscapeEvent creates a new escape event
func NewEscapeEvent(source interface{}, boundaryID string, bodyID uint64, distance float64) *EscapeEvent {
	return &EscapeEvent{
		BaseEvent: BaseEvent{
			EventType: BodyEscaped,
			Source:    source,
		},
		BoundaryID: boundaryID,
		BodyID:     bodyID,
		Distance:   distance,
	}
}

// SimulationEvent covers the lifecycle of a simulation instance
type SimulationEvent struct {
	BaseEvent
	BoundaryID string
	BodyCount  int
}

// NewSimulationEvent creates a new lifecycle event
func NewSimulationEvent(eventType Type, source interface{}, boundaryID string, bodyCount int) *SimulationEvent {
	return &SimulationEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		BoundaryID: boundaryID,
		BodyCount:  bodyCount,
	}
}
