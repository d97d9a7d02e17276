package metrics

import (
	"github.com/swdee/go-evalbox/match"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ClassScore holds precision, recall and F1 for one class. Support is the
// number of ground-truth samples of the class.
type ClassScore struct {
	Category  string  `json:"category"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ClassificationMetrics is the full classification metric set. MacroF1 is
// the unweighted mean of per-class F1 and WeightedF1 the support-weighted
// mean, both over the classes appearing in the match set.
type ClassificationMetrics struct {
	Accuracy   float64      `json:"accuracy"`
	MacroF1    float64      `json:"macro_f1"`
	WeightedF1 float64      `json:"weighted_f1"`
	PerClass   []ClassScore `json:"per_class"`
}

// ClassificationParams are the classification metric calculator parameters.
type ClassificationParams struct {
	// Categories optionally extends the per-class rows with classes absent
	// from the batch. Extension classes carry zero scores and do not enter
	// the macro or weighted means.
	Categories []string
}

// Classification calculates accuracy and F1 metrics for classification
// batches.
type Classification struct {
	Params ClassificationParams
}

// NewClassification returns a classification metrics calculator with the
// given parameters.
func NewClassification(p ClassificationParams) *Classification {
	return &Classification{Params: p}
}

// Calculate derives accuracy and per-class precision/recall/F1 from the
// match results. A missing prediction counts against accuracy and as a false
// negative for the true class.
func (c *Classification) Calculate(results []match.Result) ClassificationMetrics {

	tp := make(map[string]int)
	fp := make(map[string]int)
	fn := make(map[string]int)
	present := make(map[string]struct{})

	var total, correct int

	for _, r := range results {
		if r.GT == nil {
			continue
		}

		total++
		present[r.GT.Category] = struct{}{}

		if r.Pred != nil {
			present[r.Pred.Category] = struct{}{}
		}

		switch {
		case r.Pred == nil:
			fn[r.GT.Category]++
		case r.GT.Category == r.Pred.Category:
			correct++
			tp[r.GT.Category]++
		default:
			fn[r.GT.Category]++
			fp[r.Pred.Category]++
		}
	}

	observed := make([]string, 0, len(present))

	for cat := range present {
		observed = append(observed, cat)
	}

	categories := mergeCategories(observed, c.Params.Categories)
	perClass := make([]ClassScore, 0, len(categories))

	for _, cat := range categories {
		p := safeDivide(float64(tp[cat]), float64(tp[cat]+fp[cat]))
		r := safeDivide(float64(tp[cat]), float64(tp[cat]+fn[cat]))

		perClass = append(perClass, ClassScore{
			Category:  cat,
			Precision: p,
			Recall:    r,
			F1:        safeDivide(2*p*r, p+r),
			Support:   tp[cat] + fn[cat],
		})
	}

	m := ClassificationMetrics{
		Accuracy: safeDivide(float64(correct), float64(total)),
		PerClass: perClass,
	}

	// macro and weighted means cover the observed classes only
	f1s := make([]float64, 0, len(perClass))
	weights := make([]float64, 0, len(perClass))

	for _, row := range perClass {
		if _, ok := present[row.Category]; !ok {
			continue
		}

		f1s = append(f1s, row.F1)
		weights = append(weights, float64(row.Support))
	}

	if len(f1s) > 0 {
		m.MacroF1 = stat.Mean(f1s, nil)

		if floats.Sum(weights) > 0 {
			m.WeightedF1 = stat.Mean(f1s, weights)
		}
	}

	return m
}
