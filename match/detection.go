package match

import (
	"sort"

	"github.com/swdee/go-evalbox/annotation"
	"gonum.org/v1/gonum/mat"
)

// Detection greedily matches predicted boxes against ground-truth boxes.
//
// Predictions below the confidence threshold are dropped. Within each sample
// the surviving predictions are taken in descending confidence order (ties
// keep input order) and each claims the unclaimed ground-truth box with the
// highest IoU, provided that IoU reaches iouThreshold. Matching is
// category-agnostic so that a well-placed box with the wrong label pairs with
// its ground truth instead of producing an unrelated false positive and false
// negative. A ground-truth box is claimed at most once.
//
// The returned results cover every surviving prediction and every
// ground-truth box exactly once, in deterministic order: samples sorted by
// id, predictions in match order, then unclaimed ground truth in input order.
func Detection(groundTruth, predictions []annotation.Annotation, iouThreshold, confidenceThreshold float64) []Result {

	preds := AboveConfidence(predictions, confidenceThreshold)

	gtGroups := annotation.GroupBySample(groundTruth)
	predGroups := annotation.GroupBySample(preds)

	results := make([]Result, 0, len(preds)+len(groundTruth))

	for _, sampleID := range annotation.SampleIDs(groundTruth, preds) {
		results = append(results,
			matchSample(sampleID, gtGroups[sampleID], predGroups[sampleID], iouThreshold)...)
	}

	return results
}

// matchSample pairs one sample's predictions with its ground-truth boxes.
func matchSample(sampleID string, gts, preds []annotation.Annotation, iouThreshold float64) []Result {

	// highest confidence first, ties keep input order
	order := make([]int, len(preds))

	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(i, j int) bool {
		return preds[order[i]].ConfidenceValue() > preds[order[j]].ConfidenceValue()
	})

	ious := iouMatrix(preds, gts)
	claimed := make([]bool, len(gts))
	results := make([]Result, 0, len(preds)+len(gts))

	for _, pi := range order {

		// best unclaimed ground truth by IoU, earliest input index on ties
		best := -1
		bestIoU := float64(0)

		for gi := range gts {
			if claimed[gi] {
				continue
			}

			if v := ious.At(pi, gi); v > bestIoU {
				bestIoU = v
				best = gi
			}
		}

		if best >= 0 && bestIoU >= iouThreshold {
			claimed[best] = true
			results = append(results, Result{
				SampleID: sampleID,
				GT:       &gts[best],
				Pred:     &preds[pi],
				IOU:      bestIoU,
			})
			continue
		}

		// spurious prediction, no ground truth near enough
		results = append(results, Result{SampleID: sampleID, Pred: &preds[pi]})
	}

	// whatever was never claimed is a miss
	for gi := range gts {
		if !claimed[gi] {
			results = append(results, Result{SampleID: sampleID, GT: &gts[gi]})
		}
	}

	return results
}

// iouMatrix computes the pairwise IoU of a sample's predictions against its
// ground-truth boxes as a predictions x ground-truth dense matrix. Returns
// nil when either side is empty.
func iouMatrix(preds, gts []annotation.Annotation) *mat.Dense {

	if len(preds) == 0 || len(gts) == 0 {
		return nil
	}

	m := mat.NewDense(len(preds), len(gts), nil)

	for pi := range preds {
		for gi := range gts {
			m.Set(pi, gi, boxIoU(preds[pi].Box, gts[gi].Box))
		}
	}

	return m
}
