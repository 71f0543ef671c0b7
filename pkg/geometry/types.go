// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"fmt"
	"math"
)

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRectInt creates a new RectInt.
func NewRectInt(x, y, width, height int) RectInt {
	return RectInt{X: x, Y: y, Width: width, Height: height}
}

// Empty returns true if the rectangle has no area.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns the rectangle area in pixels.
func (r RectInt) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Center returns the center point of the rectangle.
func (r RectInt) Center() PointInt {
	return PointInt{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains returns true if the point is inside the rectangle.
func (r RectInt) Contains(p PointInt) bool {
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Inside returns true if r lies entirely within the bounds rectangle.
func (r RectInt) Inside(bounds RectInt) bool {
	return r.X >= bounds.X && r.Y >= bounds.Y &&
		r.X+r.Width <= bounds.X+bounds.Width &&
		r.Y+r.Height <= bounds.Y+bounds.Height
}

// Intersect returns the intersection of two rectangles.
// The result is empty if they do not overlap.
func (r RectInt) Intersect(other RectInt) RectInt {
	x1 := max(r.X, other.X)
	y1 := max(r.Y, other.Y)
	x2 := min(r.X+r.Width, other.X+other.Width)
	y2 := min(r.Y+r.Height, other.Y+other.Height)
	if x2 <= x1 || y2 <= y1 {
		return RectInt{}
	}
	return RectInt{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Union returns the smallest rectangle containing both rectangles.
func (r RectInt) Union(other RectInt) RectInt {
	if r.Empty() {
		return other
	}
	if other.Empty() {
		return r
	}
	x1 := min(r.X, other.X)
	y1 := min(r.Y, other.Y)
	x2 := max(r.X+r.Width, other.X+other.Width)
	y2 := max(r.Y+r.Height, other.Y+other.Height)
	return RectInt{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// IoU returns the intersection-over-union overlap ratio in [0, 1].
func (r RectInt) IoU(other RectInt) float64 {
	inter := r.Intersect(other).Area()
	if inter == 0 {
		return 0
	}
	union := r.Area() + other.Area() - inter
	return float64(inter) / float64(union)
}

// AspectRatio returns width/height, or 0 for an empty rectangle.
func (r RectInt) AspectRatio() float64 {
	if r.Height <= 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// NearSquare returns true if width and height differ by no more than
// tolerance (a fraction, e.g. 0.1 for ±10%).
func (r RectInt) NearSquare(tolerance float64) bool {
	if r.Empty() {
		return false
	}
	ratio := r.AspectRatio()
	return math.Abs(ratio-1.0) <= tolerance
}

// Scale returns the rectangle with all coordinates multiplied by factor
// and rounded to the nearest pixel.
func (r RectInt) Scale(factor float64) RectInt {
	return RectInt{
		X:      int(math.Round(float64(r.X) * factor)),
		Y:      int(math.Round(float64(r.Y) * factor)),
		Width:  int(math.Round(float64(r.Width) * factor)),
		Height: int(math.Round(float64(r.Height) * factor)),
	}
}

// Clamp returns the rectangle clipped to lie within bounds.
func (r RectInt) Clamp(bounds RectInt) RectInt {
	return r.Intersect(bounds)
}

func (r RectInt) String() string {
	return fmt.Sprintf("(%d,%d) %dx%d", r.X, r.Y, r.Width, r.Height)
}
