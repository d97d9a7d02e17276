// Package geometry provides the rectangle overlap math used by annotation
// matching.
package geometry

import (
	"math"
)

// Rect is an axis-aligned rectangle with a top-left origin, in pixel
// coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewRect creates a new Rect with the given coordinates.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Area returns the rectangle area. Rectangles with zero or negative width or
// height have zero area.
func (r Rect) Area() float64 {

	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}

	return r.Width * r.Height
}

// IoU calculates the Intersection over Union of two rectangles. The result is
// in [0,1], is symmetric in its arguments and is 0 when either rectangle is
// degenerate or the two do not overlap.
func IoU(a, b Rect) float64 {

	areaA := a.Area()
	areaB := b.Area()

	if areaA == 0 || areaB == 0 {
		return 0
	}

	iou := float64(0)
	iw := math.Min(a.Right(), b.Right()) - math.Max(a.X, b.X)

	if iw > 0 {
		ih := math.Min(a.Bottom(), b.Bottom()) - math.Max(a.Y, b.Y)

		if ih > 0 {
			inter := iw * ih
			iou = inter / (areaA + areaB - inter)
		}
	}

	return iou
}
