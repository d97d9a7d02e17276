package evalbox

import (
	"fmt"
	"sync"

	"github.com/swdee/go-evalbox/annotation"
	"github.com/swdee/go-evalbox/confusion"
	"github.com/swdee/go-evalbox/match"
	"github.com/swdee/go-evalbox/metrics"
	"github.com/swdee/go-evalbox/triage"
)

// DefaultIOUThreshold is the IoU cutoff used when Params leaves it unset.
const DefaultIOUThreshold = 0.5

// Params configures an evaluation run.
type Params struct {
	// Task selects detection or classification scoring.
	Task annotation.TaskType
	// IOUThreshold is the minimum IoU for a prediction to claim a ground
	// truth box, in [0, 1]. Zero selects DefaultIOUThreshold. Detection
	// only, setting it for classification is an error.
	IOUThreshold float64
	// ConfidenceThreshold drops predictions scored below it before
	// evaluation, in [0, 1]. Zero keeps every prediction.
	ConfidenceThreshold float64
	// Categories lists classes to report on in addition to those observed
	// in the annotations. Optional.
	Categories []string
}

// Evaluate scores predictions against ground truth and returns the task
// specific result, a *DetectionResult or a *ClassificationResult.
//
// Empty inputs are not an error, the result carries zero metrics and the
// GroundTruths and Predictions counts expose the emptiness to the caller.
func Evaluate(groundTruth, predictions []annotation.Annotation, p Params) (Result, error) {

	if err := p.validate(); err != nil {
		return nil, err
	}

	if p.Task == annotation.TaskDetection {
		return evaluateDetection(groundTruth, predictions, p), nil
	}

	return evaluateClassification(groundTruth, predictions, p), nil
}

// validate checks parameter ranges and task compatibility.
func (p Params) validate() error {

	if !p.Task.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTask, p.Task)
	}

	if p.IOUThreshold < 0 || p.IOUThreshold > 1 {
		return fmt.Errorf("%w: iou threshold %v", ErrInvalidThreshold,
			p.IOUThreshold)
	}

	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence threshold %v", ErrInvalidThreshold,
			p.ConfidenceThreshold)
	}

	if p.Task == annotation.TaskClassification && p.IOUThreshold != 0 {
		return fmt.Errorf("%w: iou threshold %v set for classification",
			ErrTaskMismatch, p.IOUThreshold)
	}

	return nil
}

// evaluateDetection matches boxes at the primary IoU threshold and computes
// metrics, confusion matrix, and error taxonomy concurrently.
func evaluateDetection(groundTruth, predictions []annotation.Annotation,
	p Params) *DetectionResult {

	iou := p.IOUThreshold

	if iou == 0 {
		iou = DefaultIOUThreshold
	}

	matches := match.Detection(groundTruth, predictions, iou,
		p.ConfidenceThreshold)

	res := &DetectionResult{
		Task:                annotation.TaskDetection,
		IOUThreshold:        iou,
		ConfidenceThreshold: p.ConfidenceThreshold,
		GroundTruths:        len(groundTruth),
		Predictions: len(match.AboveConfidence(predictions,
			p.ConfidenceThreshold)),
	}

	calc := metrics.NewDetection(metrics.DetectionParams{
		IOUThreshold:        iou,
		ConfidenceThreshold: p.ConfidenceThreshold,
		Categories:          p.Categories,
	})

	// the three views are independent so build them in parallel
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		res.Metrics = calc.Calculate(groundTruth, predictions)
	}()

	go func() {
		defer wg.Done()
		res.Confusion = confusion.FromDetection(matches)
	}()

	go func() {
		defer wg.Done()
		res.Errors = triage.Detection(matches)
	}()

	wg.Wait()

	return res
}

// evaluateClassification pairs labels per sample and computes metrics,
// confusion matrix, and error taxonomy concurrently.
func evaluateClassification(groundTruth, predictions []annotation.Annotation,
	p Params) *ClassificationResult {

	results := match.Classification(groundTruth, predictions,
		p.ConfidenceThreshold)

	res := &ClassificationResult{
		Task:                annotation.TaskClassification,
		ConfidenceThreshold: p.ConfidenceThreshold,
		GroundTruths:        len(groundTruth),
		Predictions: len(match.AboveConfidence(predictions,
			p.ConfidenceThreshold)),
		Samples: len(results),
	}

	calc := metrics.NewClassification(metrics.ClassificationParams{
		Categories: p.Categories,
	})

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		res.Metrics = calc.Calculate(results)
	}()

	go func() {
		defer wg.Done()
		res.Confusion = confusion.FromClassification(results)
	}()

	go func() {
		defer wg.Done()
		res.Errors = triage.Classification(results)
	}()

	wg.Wait()

	return res
}
