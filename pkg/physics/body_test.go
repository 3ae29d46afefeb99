package physics

import (
	"math"
	"testing"
)

func TestIntegrate_SingleTick(t *testing.T) {
	tests := []struct {
		name        string
		body        Body
		forces      Forces
		expectedVel Vector2D
		expectedPos Vector2D
	}{
		{
			name:        "gravity_then_move",
			body:        Body{Radius: 1},
			forces:      Forces{Gravity: 1, TimeScale: 1},
			expectedVel: Vector2D{X: 0, Y: 1},
			expectedPos: Vector2D{X: 0, Y: 1},
		},
		{
			name:        "half_time_scale",
			body:        Body{Radius: 1},
			forces:      Forces{Gravity: 2, TimeScale: 0.5},
			expectedVel: Vector2D{X: 0, Y: 1},
			expectedPos: Vector2D{X: 0, Y: 0.5},
		},
		{
			name:        "linear_friction",
			body:        Body{Velocity: Vector2D{X: 10, Y: 0}, Radius: 1},
			forces:      Forces{Friction: 0.1, TimeScale: 1},
			expectedVel: Vector2D{X: 9, Y: 0},
			expectedPos: Vector2D{X: 9, Y: 0},
		},
		{
			name:        "quadratic_drag",
			body:        Body{Velocity: Vector2D{X: 10, Y: 0}, Radius: 1},
			forces:      Forces{Drag: DragCoefficient, TimeScale: 1},
			expectedVel: Vector2D{X: 9.7, Y: 0},
			expectedPos: Vector2D{X: 9.7, Y: 0},
		},
		{
			name:        "drag_skipped_below_threshold",
			body:        Body{Velocity: Vector2D{X: DragThreshold / 2, Y: 0}, Radius: 1},
			forces:      Forces{Drag: 1, TimeScale: 1},
			expectedVel: Vector2D{X: DragThreshold / 2, Y: 0},
			expectedPos: Vector2D{X: DragThreshold / 2, Y: 0},
		},
		{
			name:        "zero_time_scale_freezes",
			body:        Body{Position: Vector2D{X: 3, Y: 3}, Velocity: Vector2D{X: 5, Y: 5}, Radius: 1},
			forces:      Forces{Gravity: 9, Friction: 0.5, Drag: DragCoefficient, TimeScale: 0},
			expectedVel: Vector2D{X: 5, Y: 5},
			expectedPos: Vector2D{X: 3, Y: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			Integrate(&body, tt.forces)
			if !vecApproxEqual(body.Velocity, tt.expectedVel) {
				t.Errorf("velocity = %v, expected %v", body.Velocity, tt.expectedVel)
			}
			if !vecApproxEqual(body.Position, tt.expectedPos) {
				t.Errorf("position = %v, expected %v", body.Position, tt.expectedPos)
			}
			if body.Radius != tt.body.Radius {
				t.Errorf("radius changed from %v to %v", tt.body.Radius, body.Radius)
			}
		})
	}
}

func TestIntegrate_ConstantVelocityWithoutForces(t *testing.T) {
	body := Body{Velocity: Vector2D{X: 3, Y: -1.5}, Radius: 5}
	loop := GeneratePolygon(6, 1e6, Vector2D{}, 0)

	for i := 0; i < 1000; i++ {
		Integrate(&body, Forces{TimeScale: 1})
		if ResolveBoundary(&body, loop, 1, nil) != 0 {
			t.Fatalf("tick %d: unexpected boundary contact", i)
		}
		if body.Velocity != (Vector2D{X: 3, Y: -1.5}) {
			t.Fatalf("tick %d: velocity drifted to %v", i, body.Velocity)
		}
	}

	if !vecApproxEqual(body.Position, Vector2D{X: 3000, Y: -1500}) {
		t.Errorf("position = %v, expected (3000, -1500)", body.Position)
	}
}

func TestIntegrate_DragSlowsFastBodiesMore(t *testing.T) {
	slow := Body{Velocity: Vector2D{X: 10}}
	fast := Body{Velocity: Vector2D{X: 100}}
	Integrate(&slow, Forces{Drag: DragCoefficient, TimeScale: 1})
	Integrate(&fast, Forces{Drag: DragCoefficient, TimeScale: 1})

	slowLoss := (10 - slow.Velocity.X) / 10
	fastLoss := (100 - fast.Velocity.X) / 100
	if fastLoss <= slowLoss {
		t.Errorf("fractional drag loss fast=%v slow=%v, expected fast > slow", fastLoss, slowLoss)
	}
	if math.Signbit(fast.Velocity.X) {
		t.Errorf("drag reversed direction: %v", fast.Velocity)
	}
}

func BenchmarkIntegrate(b *testing.B) {
	body := Body{Velocity: Vector2D{X: 3, Y: 4}, Radius: 5}
	forces := Forces{Gravity: 0.2, Friction: 0.01, Drag: DragCoefficient, TimeScale: 1}

	for i := 0; i < b.N; i++ {
		Integrate(&body, forces)
	}
}
