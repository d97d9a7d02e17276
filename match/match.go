// Package match pairs predicted annotations against ground-truth annotations
// for one evaluation pass. Detection matching is the greedy one-to-one IoU
// matching used by conventional COCO tooling; classification matching is
// per-sample label comparison.
package match

import (
	"github.com/swdee/go-evalbox/annotation"
	"github.com/swdee/go-evalbox/geometry"
)

// Result records the outcome of matching one ground-truth/prediction pairing
// within a sample. Exactly one of GT and Pred may be nil: a nil GT means a
// spurious prediction, a nil Pred means a missed ground truth. IOU is only
// meaningful when both are set.
type Result struct {
	SampleID string
	GT       *annotation.Annotation
	Pred     *annotation.Annotation
	IOU      float64
}

// Matched reports whether the result pairs a prediction with a ground truth.
func (r Result) Matched() bool {
	return r.GT != nil && r.Pred != nil
}

// CategoryMatch reports whether a matched pair agrees on the class label.
func (r Result) CategoryMatch() bool {
	return r.Matched() && r.GT.Category == r.Pred.Category
}

// AboveConfidence returns the predictions at or above the confidence
// threshold, preserving input order. Annotations without a confidence always
// pass.
func AboveConfidence(predictions []annotation.Annotation, threshold float64) []annotation.Annotation {

	kept := make([]annotation.Annotation, 0, len(predictions))

	for _, p := range predictions {
		if p.ConfidenceValue() >= threshold {
			kept = append(kept, p)
		}
	}

	return kept
}

// boxIoU computes the overlap of two annotation boxes, routing through the
// rotated path when either box carries a rotation. Annotations without a box
// never overlap anything.
func boxIoU(a, b *annotation.Box) float64 {

	if a == nil || b == nil {
		return 0
	}

	ra := geometry.NewRect(a.X, a.Y, a.Width, a.Height)
	rb := geometry.NewRect(b.X, b.Y, b.Width, b.Height)

	if a.Rotation != 0 || b.Rotation != 0 {
		return geometry.RotatedIoU(ra, a.Rotation, rb, b.Rotation)
	}

	return geometry.IoU(ra, rb)
}
