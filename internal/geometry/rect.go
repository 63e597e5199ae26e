package geometry

import "math"

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// RectFromPoints builds the rectangle spanned by two arbitrary corners,
// swapping the anchor when the drag went up or left.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// ContainsStrict reports whether p lies strictly inside r.
func (r Rect) ContainsStrict(p Point) bool {
	return p.X > r.X && p.X < r.Right() && p.Y > r.Y && p.Y < r.Bottom()
}

// Near reports whether p is within tol of c on both axes.
func Near(p, c Point, tol float64) bool {
	return math.Abs(p.X-c.X) < tol && math.Abs(p.Y-c.Y) < tol
}
