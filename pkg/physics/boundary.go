// pkg/physics/boundary.go
package physics

// WallNudge is the outward speed added after a wall bounce so slow bodies
// do not stick to the edge at low restitution.
const WallNudge = 0.1

// WallContact describes one resolved body-edge penetration
type WallContact struct {
	Edge        int
	Normal      Vector2D // inward unit normal of the edge
	Penetration float64
	ImpactSpeed float64 // normal speed into the wall, zero if the body was separating
	Bounced     bool
}

// InwardNormal returns the unit normal of edge p1->p2 oriented towards the
// origin of the loop's local space.
func InwardNormal(p1, p2 Vector2D) Vector2D {
	n := p2.Sub(p1).Perp().Normalize()
	if n.Dot(p1.Neg()) < 0 {
		n = n.Neg()
	}
	return n
}

// ResolveBoundary tests a body against every edge of a local-space loop and
// pushes it back inside edge by edge, in edge order. A body moving into a
// wall has its velocity reflected, scaled by bounce and nudged outwards.
// onContact, if non-nil, is called for each penetrating edge. It returns the
// number of edges that were penetrated.
func ResolveBoundary(b *Body, loop []Vector2D, bounce float64, onContact func(WallContact)) int {
	hits := 0
	for i, p1 := range loop {
		p2 := loop[(i+1)%len(loop)]
		n := InwardNormal(p1, p2)

		d := b.Position.Sub(p1).Dot(n)
		if d >= b.Radius {
			continue
		}
		hits++

		contact := WallContact{Edge: i, Normal: n, Penetration: b.Radius - d}
		b.Position = b.Position.Add(n.Scale(contact.Penetration))

		if vn := b.Velocity.Dot(n); vn < 0 {
			b.Velocity = b.Velocity.Sub(n.Scale(2 * vn))
			b.Velocity = b.Velocity.Scale(bounce)
			b.Velocity = b.Velocity.Add(n.Scale(WallNudge))
			contact.ImpactSpeed = -vn
			contact.Bounced = true
		}

		if onContact != nil {
			onContact(contact)
		}
	}
	return hits
}
