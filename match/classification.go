package match

import (
	"github.com/swdee/go-evalbox/annotation"
)

// Classification compares each labeled sample's ground-truth category against
// its predicted category. A prediction below the confidence threshold counts
// as no prediction at all; annotations without a confidence always pass.
//
// Every sample with ground truth yields exactly one result: a matched pair
// when a prediction exists (categories may differ), or a ground-truth-only
// result when the prediction is missing. Samples carrying only predictions
// are outside the labeled universe and are skipped. When a batch violates the
// one-annotation-per-sample rule, the first annotation per sample and source
// in input order wins.
func Classification(groundTruth, predictions []annotation.Annotation, confidenceThreshold float64) []Result {

	preds := AboveConfidence(predictions, confidenceThreshold)

	gtBySample := firstPerSample(groundTruth)
	predBySample := firstPerSample(preds)

	results := make([]Result, 0, len(gtBySample))

	for _, sampleID := range annotation.SampleIDs(groundTruth) {

		gt := gtBySample[sampleID]
		pred := predBySample[sampleID]

		if pred == nil {
			results = append(results, Result{SampleID: sampleID, GT: gt})
			continue
		}

		results = append(results, Result{SampleID: sampleID, GT: gt, Pred: pred})
	}

	return results
}

// firstPerSample keeps the first annotation per sample in input order.
func firstPerSample(anns []annotation.Annotation) map[string]*annotation.Annotation {

	first := make(map[string]*annotation.Annotation, len(anns))

	for _, a := range anns {
		a := a // per-iteration copy, the stored pointer must not alias the loop variable

		if _, ok := first[a.SampleID]; !ok {
			first[a.SampleID] = &a
		}
	}

	return first
}
