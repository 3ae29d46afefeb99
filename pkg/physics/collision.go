// pkg/physics/collision.go
package physics

// Circle represents a circular collision shape
type Circle struct {
	Center Vector2D
	Radius float64
}

// CollisionResult contains information about a collision
type CollisionResult struct {
	Collided    bool
	Normal      Vector2D // unit vector from A towards B
	Penetration float64
}

// CheckCollision performs detailed collision detection between two circles.
// Coincident centres report the fixed normal {1, 0}.
func CheckCollision(a, b Circle) CollisionResult {
	delta := b.Center.Sub(a.Center)
	distance := delta.Length()

	overlap := a.Radius + b.Radius - distance
	if overlap <= 0 {
		return CollisionResult{Collided: false}
	}

	normal := Vector2D{X: 1, Y: 0}
	if distance != 0 {
		normal = delta.Scale(1 / distance)
	}

	return CollisionResult{
		Collided:    true,
		Normal:      normal,
		Penetration: overlap,
	}
}

// PairContact describes one resolved body-body overlap
type PairContact struct {
	A, B        int // indices into the body slice
	Normal      Vector2D
	Penetration float64
	Exchanged   bool // normal velocities were swapped
}

// ResolvePair separates two overlapping bodies and, if they are approaching,
// swaps their normal velocity components (equal-mass elastic exchange).
// Tangential components are kept. No restitution is applied.
func ResolvePair(a, b *Body) (CollisionResult, bool) {
	result := CheckCollision(
		Circle{Center: a.Position, Radius: a.Radius},
		Circle{Center: b.Position, Radius: b.Radius},
	)
	if !result.Collided {
		return result, false
	}

	n := result.Normal
	half := n.Scale(result.Penetration / 2)
	a.Position = a.Position.Sub(half)
	b.Position = b.Position.Add(half)

	if b.Velocity.Sub(a.Velocity).Dot(n) >= 0 {
		return result, false
	}

	an := a.Velocity.Dot(n)
	bn := b.Velocity.Dot(n)
	a.Velocity = a.Velocity.Add(n.Scale(bn - an))
	b.Velocity = b.Velocity.Add(n.Scale(an - bn))
	return result, true
}

// PairKey is an unordered pair of body IDs in canonical (low, high) order
type PairKey struct {
	Low  uint64
	High uint64
}

// MakePairKey builds the canonical key for two body IDs
func MakePairKey(a, b uint64) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

// PairResolver runs the narrow phase over grid candidates. It remembers
// which pairs were already checked during the current pass so every pair is
// resolved at most once, and reuses that set between passes.
type PairResolver struct {
	checked map[PairKey]struct{}
}

// NewPairResolver creates a resolver with an empty checked set
func NewPairResolver() *PairResolver {
	return &PairResolver{checked: make(map[PairKey]struct{})}
}

// Resolve checks every unique candidate pair from the grid's 3x3
// neighbourhoods. grid must have been built from bodies. onContact, if
// non-nil, is called for every overlapping pair. It returns the number of
// overlapping pairs.
func (r *PairResolver) Resolve(bodies []*Body, grid *SpatialGrid, onContact func(PairContact)) int {
	clear(r.checked)
	if len(bodies) < 2 {
		return 0
	}

	contacts := 0
	for i, a := range bodies {
		grid.QueryNeighborhood(grid.KeyOf(i), func(j int) {
			if j == i {
				return
			}
			b := bodies[j]
			key := MakePairKey(a.ID, b.ID)
			if _, seen := r.checked[key]; seen {
				return
			}
			r.checked[key] = struct{}{}

			result, exchanged := ResolvePair(a, b)
			if !result.Collided {
				return
			}
			contacts++
			if onContact != nil {
				onContact(PairContact{
					A:           i,
					B:           j,
					Normal:      result.Normal,
					Penetration: result.Penetration,
					Exchanged:   exchanged,
				})
			}
		})
	}
	return contacts
}

// CheckedPairs returns how many unique pairs the last Resolve examined
func (r *PairResolver) CheckedPairs() int {
	return len(r.checked)
}
