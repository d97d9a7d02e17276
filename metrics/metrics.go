// Package metrics computes evaluation metrics from annotation matches:
// interpolated average precision for detection and accuracy/F1 for
// classification.
package metrics

import (
	"sort"
)

// safeDivide returns num/den, or 0 when the denominator is 0.
func safeDivide(num, den float64) float64 {

	if den == 0 {
		return 0
	}

	return num / den
}

// mergeCategories combines the categories observed in a batch with an
// optional declared class list, sorted and deduplicated.
func mergeCategories(observed, declared []string) []string {

	seen := make(map[string]struct{}, len(observed)+len(declared))
	merged := make([]string, 0, len(observed)+len(declared))

	for _, set := range [][]string{observed, declared} {
		for _, c := range set {
			if _, ok := seen[c]; ok {
				continue
			}

			seen[c] = struct{}{}
			merged = append(merged, c)
		}
	}

	sort.Strings(merged)

	return merged
}
