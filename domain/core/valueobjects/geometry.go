package valueobjects

import "math"

// Position is a 2D coordinate on the diagram canvas
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPosition creates a position value
func NewPosition(x, y float64) Position {
	return Position{X: x, Y: y}
}

// Equals checks positional equality
func (p Position) Equals(other Position) bool {
	return p.X == other.X && p.Y == other.Y
}

// DistanceTo returns the euclidean distance to another position
func (p Position) DistanceTo(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Size is the optional bounding box of an element
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether no size has been measured
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Equals checks size equality
func (s Size) Equals(other Size) bool {
	return s.Width == other.Width && s.Height == other.Height
}
