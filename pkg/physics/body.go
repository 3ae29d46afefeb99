package physics

const (
	// DragCoefficient is the default quadratic drag factor k in a = -k*|v|*v
	DragCoefficient = 0.003

	// DragThreshold is the speed below which quadratic drag is skipped
	DragThreshold = 1e-3
)

// Body is the physical state of a simulated ball. Radius is fixed at creation.
type Body struct {
	ID       uint64
	Position Vector2D
	Velocity Vector2D
	Radius   float64
}

// Forces holds the per-tick force parameters with global multipliers already applied.
type Forces struct {
	Gravity   float64 // added to velocity.y, before time scaling
	Friction  float64 // linear damping fraction per unit time
	Drag      float64 // quadratic drag coefficient
	TimeScale float64
}

// Integrate advances a body by one tick using semi-implicit Euler:
// gravity, linear friction and quadratic drag update the velocity first,
// then the new velocity moves the position.
//
// Friction*TimeScale is expected to lie in [0,1).
func Integrate(b *Body, f Forces) {
	b.Velocity.Y += f.Gravity * f.TimeScale

	b.Velocity = b.Velocity.Scale(1 - f.Friction*f.TimeScale)

	if speed := b.Velocity.Length(); speed > DragThreshold {
		drag := b.Velocity.Scale(-f.Drag * speed)
		b.Velocity = b.Velocity.Add(drag.Scale(f.TimeScale))
	}

	b.Position = b.Position.Add(b.Velocity.Scale(f.TimeScale))
}
