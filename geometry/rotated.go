package geometry

import (
	"math"

	clipper "github.com/ctessum/go.clipper"
)

// clipperScale converts float pixel coordinates into clipper's integer
// coordinate space and back.
const clipperScale = 1e4

// RotatedIoU calculates the Intersection over Union of two rectangles rotated
// by angleA and angleB radians around their respective centres. When both
// angles are zero it is equivalent to IoU.
func RotatedIoU(a Rect, angleA float64, b Rect, angleB float64) float64 {

	if angleA == 0 && angleB == 0 {
		return IoU(a, b)
	}

	areaA := a.Area()
	areaB := b.Area()

	if areaA == 0 || areaB == 0 {
		return 0
	}

	inter := intersectionArea(cornerPath(a, angleA), cornerPath(b, angleB))

	if inter <= 0 {
		return 0
	}

	// integer scaling can round the overlap a hair past the true area
	return math.Min(1, inter/(areaA+areaB-inter))
}

// cornerPath converts a rotated rectangle to a closed clipper path by rotating
// its corner points around the rectangle centre.
func cornerPath(r Rect, angle float64) clipper.Path {

	cx := r.X + r.Width/2
	cy := r.Y + r.Height/2

	aCos := math.Cos(angle)
	aSin := math.Sin(angle)

	// corner positions relative to the centre
	cornersX := []float64{-r.Width / 2, -r.Width / 2, r.Width / 2, r.Width / 2}
	cornersY := []float64{-r.Height / 2, r.Height / 2, r.Height / 2, -r.Height / 2}

	path := make(clipper.Path, 0, 4)

	for i := 0; i < 4; i++ {
		x := aCos*cornersX[i] - aSin*cornersY[i] + cx
		y := aSin*cornersX[i] + aCos*cornersY[i] + cy

		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(math.Round(x * clipperScale)),
			Y: clipper.CInt(math.Round(y * clipperScale)),
		})
	}

	return path
}

// intersectionArea clips the two closed paths against each other and returns
// the overlap area in pixel units.
func intersectionArea(subject, clip clipper.Path) float64 {

	c := clipper.NewClipper(clipper.IoNone)
	c.AddPath(subject, clipper.PtSubject, true)
	c.AddPath(clip, clipper.PtClip, true)

	solution, ok := c.Execute1(clipper.CtIntersection, clipper.PftEvenOdd, clipper.PftEvenOdd)

	if !ok {
		return 0
	}

	var area float64

	for _, poly := range solution {
		area += math.Abs(clipper.Area(poly))
	}

	return area / (clipperScale * clipperScale)
}
