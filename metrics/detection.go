package metrics

import (
	"sort"

	"github.com/swdee/go-evalbox/annotation"
	"github.com/swdee/go-evalbox/match"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PRPoint is one point on a precision/recall curve, taken at the confidence
// cut of the prediction that produced it.
type PRPoint struct {
	Recall     float64 `json:"recall"`
	Precision  float64 `json:"precision"`
	Confidence float64 `json:"confidence"`
}

// ClassAP holds the average precision figures for one class. AP is measured
// at the evaluation IoU threshold, AP50 and AP75 at 0.50 and 0.75, and AP5095
// is the mean over the threshold grid. Support is the number of ground-truth
// boxes of the class; classes without support report zero AP.
type ClassAP struct {
	Category string    `json:"category"`
	AP       float64   `json:"ap"`
	AP50     float64   `json:"ap50"`
	AP75     float64   `json:"ap75"`
	AP5095   float64   `json:"ap5095"`
	Support  int       `json:"support"`
	Curve    []PRPoint `json:"curve,omitempty"`
}

// DetectionMetrics is the full detection metric set. The headline means are
// macro averages over the classes with ground-truth support.
type DetectionMetrics struct {
	MeanAP     float64   `json:"mean_ap"`
	MeanAP50   float64   `json:"mean_ap50"`
	MeanAP75   float64   `json:"mean_ap75"`
	MeanAP5095 float64   `json:"mean_ap5095"`
	PerClass   []ClassAP `json:"per_class"`
}

// DetectionParams are the detection metric calculator parameters.
type DetectionParams struct {
	// IOUThreshold is the overlap a prediction must reach to count as a
	// true positive in the headline metrics and PR curves.
	IOUThreshold float64
	// ConfidenceThreshold drops predictions below it before any curve is
	// built.
	ConfidenceThreshold float64
	// Grid holds the IoU thresholds averaged into the AP5095 figures. A nil
	// grid selects IOUGrid.
	Grid []float64
	// Categories optionally extends the per-class rows with classes absent
	// from the batch, such as a dataset's full label list.
	Categories []string
}

// DetectionCOCOParams returns the conventional COCO evaluation parameters,
// an IoU threshold of 0.5 with no confidence filtering and the 0.50:0.95
// threshold grid.
func DetectionCOCOParams() DetectionParams {
	return DetectionParams{
		IOUThreshold:        0.5,
		ConfidenceThreshold: 0,
		Grid:                IOUGrid(),
	}
}

// IOUGrid returns the ten COCO IoU thresholds 0.50 to 0.95 in steps of 0.05.
func IOUGrid() []float64 {

	grid := make([]float64, 0, 10)

	for i := 0; i < 10; i++ {
		grid = append(grid, 0.5+0.05*float64(i))
	}

	return grid
}

// Detection calculates average precision metrics for detection batches.
type Detection struct {
	Params DetectionParams
}

// NewDetection returns a detection metrics calculator with the given
// parameters.
func NewDetection(p DetectionParams) *Detection {

	if p.Grid == nil {
		p.Grid = IOUGrid()
	}

	return &Detection{Params: p}
}

// Calculate runs the matcher over the batch at the evaluation threshold and
// every grid threshold and derives the per-class and macro AP figures. It is
// a pure function of its inputs.
func (d *Detection) Calculate(groundTruth, predictions []annotation.Annotation) DetectionMetrics {

	categories := mergeCategories(annotation.Categories(groundTruth, predictions), d.Params.Categories)
	support := supportOf(groundTruth)

	primary, curves := d.classAPs(groundTruth, predictions, d.Params.IOUThreshold, categories, support)
	ap50, _ := d.classAPs(groundTruth, predictions, 0.50, categories, support)
	ap75, _ := d.classAPs(groundTruth, predictions, 0.75, categories, support)

	gridAPs := make([]map[string]float64, 0, len(d.Params.Grid))

	for _, t := range d.Params.Grid {
		aps, _ := d.classAPs(groundTruth, predictions, t, categories, support)
		gridAPs = append(gridAPs, aps)
	}

	perClass := make([]ClassAP, 0, len(categories))

	for _, c := range categories {
		row := ClassAP{
			Category: c,
			AP:       primary[c],
			AP50:     ap50[c],
			AP75:     ap75[c],
			Support:  support[c],
			Curve:    curves[c],
		}

		if len(gridAPs) > 0 && support[c] > 0 {
			vals := make([]float64, 0, len(gridAPs))

			for _, aps := range gridAPs {
				vals = append(vals, aps[c])
			}

			row.AP5095 = stat.Mean(vals, nil)
		}

		perClass = append(perClass, row)
	}

	m := DetectionMetrics{
		MeanAP:   macroAP(categories, primary, support),
		MeanAP50: macroAP(categories, ap50, support),
		MeanAP75: macroAP(categories, ap75, support),
		PerClass: perClass,
	}

	if len(gridAPs) > 0 {
		means := make([]float64, 0, len(gridAPs))

		for _, aps := range gridAPs {
			means = append(means, macroAP(categories, aps, support))
		}

		m.MeanAP5095 = stat.Mean(means, nil)
	}

	return m
}

// scored is one class prediction on a PR sweep, most confident first.
type scored struct {
	confidence float64
	correct    bool
}

// classAPs matches the batch at one IoU threshold and computes the average
// precision and PR curve of every class.
func (d *Detection) classAPs(groundTruth, predictions []annotation.Annotation, iouThreshold float64,
	categories []string, support map[string]int) (map[string]float64, map[string][]PRPoint) {

	results := match.Detection(groundTruth, predictions, iouThreshold, d.Params.ConfidenceThreshold)

	// bucket predictions by predicted class, flagging correct matches
	byClass := make(map[string][]scored)

	for _, r := range results {
		if r.Pred == nil {
			continue
		}

		byClass[r.Pred.Category] = append(byClass[r.Pred.Category], scored{
			confidence: r.Pred.ConfidenceValue(),
			correct:    r.CategoryMatch(),
		})
	}

	aps := make(map[string]float64, len(categories))
	curves := make(map[string][]PRPoint, len(categories))

	for _, c := range categories {
		ap, curve := averagePrecision(byClass[c], support[c])
		aps[c] = ap

		if curve != nil {
			curves[c] = curve
		}
	}

	return aps, curves
}

// averagePrecision computes the 101-point interpolated average precision of
// one class from its predictions and ground-truth support. This follows the
// COCO definition exactly: cumulative precision/recall swept over descending
// confidence, a backward maximum envelope, then the envelope sampled at the
// 101 recall levels 0.00 to 1.00.
func averagePrecision(preds []scored, support int) (float64, []PRPoint) {

	if support == 0 || len(preds) == 0 {
		return 0, nil
	}

	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].confidence > preds[j].confidence
	})

	curve := make([]PRPoint, 0, len(preds))
	tp, fp := 0, 0

	for _, p := range preds {
		if p.correct {
			tp++
		} else {
			fp++
		}

		curve = append(curve, PRPoint{
			Recall:     float64(tp) / float64(support),
			Precision:  float64(tp) / float64(tp+fp),
			Confidence: p.confidence,
		})
	}

	// backward envelope, precision at recall r is the best precision seen at
	// any recall >= r
	envelope := make([]float64, len(curve))

	for i := len(curve) - 1; i >= 0; i-- {
		envelope[i] = curve[i].Precision

		if i < len(curve)-1 && envelope[i+1] > envelope[i] {
			envelope[i] = envelope[i+1]
		}
	}

	// sample the envelope at each recall level using the first curve point
	// at or beyond it, zero past the end of the curve
	sampled := make([]float64, 0, 101)

	for i := 0; i <= 100; i++ {
		r := float64(i) / 100

		idx := sort.Search(len(curve), func(j int) bool {
			return curve[j].Recall >= r
		})

		if idx < len(curve) {
			sampled = append(sampled, envelope[idx])
		}
	}

	return floats.Sum(sampled) / 101, curve
}

// macroAP averages per-class AP over the classes with ground-truth support.
func macroAP(categories []string, aps map[string]float64, support map[string]int) float64 {

	vals := make([]float64, 0, len(categories))

	for _, c := range categories {
		if support[c] > 0 {
			vals = append(vals, aps[c])
		}
	}

	if len(vals) == 0 {
		return 0
	}

	return stat.Mean(vals, nil)
}

// supportOf counts ground-truth instances per category.
func supportOf(groundTruth []annotation.Annotation) map[string]int {

	support := make(map[string]int)

	for _, a := range groundTruth {
		support[a.Category]++
	}

	return support
}
