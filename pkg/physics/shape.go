// pkg/physics/shape.go
package physics

import (
	"fmt"
	"math"
	"strings"
)

// ShapeKind selects the boundary outline generator
type ShapeKind int

const (
	ShapePolygon ShapeKind = iota
	ShapeStar
)

// String returns the configuration name of the shape kind
func (k ShapeKind) String() string {
	switch k {
	case ShapePolygon:
		return "polygon"
	case ShapeStar:
		return "star"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// ParseShapeKind converts a configuration name into a ShapeKind.
// The empty string selects ShapePolygon.
func ParseShapeKind(name string) (ShapeKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "polygon":
		return ShapePolygon, nil
	case "star":
		return ShapeStar, nil
	default:
		return ShapePolygon, fmt.Errorf("unknown shape kind %q", name)
	}
}

// Shape describes a boundary outline. The loop is derived from it on demand
// and never stored.
type Shape struct {
	Kind        ShapeKind
	VertexCount int
	OuterRadius float64
	InnerRadius float64 // star only
	Center      Vector2D
	Rotation    float64
}

// Loop returns the closed vertex loop of the shape, reusing dst's storage.
func (s Shape) Loop(dst []Vector2D) []Vector2D {
	switch s.Kind {
	case ShapeStar:
		return AppendStar(dst, s.VertexCount, s.OuterRadius, s.InnerRadius, s.Center, s.Rotation)
	default:
		return AppendPolygon(dst, s.VertexCount, s.OuterRadius, s.Center, s.Rotation)
	}
}

// GeneratePolygon returns the n vertices of a regular polygon, counter-clockwise
// from angle rotation.
func GeneratePolygon(n int, radius float64, center Vector2D, rotation float64) []Vector2D {
	return AppendPolygon(make([]Vector2D, 0, n), n, radius, center, rotation)
}

// AppendPolygon is GeneratePolygon writing into dst.
func AppendPolygon(dst []Vector2D, n int, radius float64, center Vector2D, rotation float64) []Vector2D {
	dst = dst[:0]
	step := 2 * math.Pi / float64(n)
	for i := 0; i < n; i++ {
		dst = append(dst, center.Add(FromAngle(rotation+float64(i)*step, radius)))
	}
	return dst
}

// GenerateStar returns the 2n vertices of a star, alternating between the
// outer radius (even indices) and the inner radius (odd indices).
func GenerateStar(points int, outer, inner float64, center Vector2D, rotation float64) []Vector2D {
	return AppendStar(make([]Vector2D, 0, 2*points), points, outer, inner, center, rotation)
}

// AppendStar is GenerateStar writing into dst.
func AppendStar(dst []Vector2D, points int, outer, inner float64, center Vector2D, rotation float64) []Vector2D {
	dst = dst[:0]
	step := math.Pi / float64(points)
	for i := 0; i < 2*points; i++ {
		radius := outer
		if i%2 == 1 {
			radius = inner
		}
		dst = append(dst, center.Add(FromAngle(rotation+float64(i)*step, radius)))
	}
	return dst
}

// Translate offsets every vertex of loop by delta, reusing dst's storage.
func Translate(dst, loop []Vector2D, delta Vector2D) []Vector2D {
	dst = dst[:0]
	for _, p := range loop {
		dst = append(dst, p.Add(delta))
	}
	return dst
}
