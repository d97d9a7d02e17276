package evalbox

import (
	"github.com/swdee/go-evalbox/annotation"
	"github.com/swdee/go-evalbox/confusion"
	"github.com/swdee/go-evalbox/metrics"
	"github.com/swdee/go-evalbox/triage"
)

// Result is the outcome of an evaluation run. The concrete type depends on
// the task evaluated, use a type switch to recover it.
//
//	switch res := result.(type) {
//	case *evalbox.DetectionResult:
//	  fmt.Println(res.Metrics.MeanAP50)
//	case *evalbox.ClassificationResult:
//	  fmt.Println(res.Metrics.Accuracy)
//	}
type Result interface {
	// TaskType returns the task the result was produced for.
	TaskType() annotation.TaskType
}

// DetectionResult holds the full output of a detection evaluation.
type DetectionResult struct {
	// Task is always annotation.TaskDetection.
	Task annotation.TaskType `json:"task"`
	// IOUThreshold is the IoU cutoff the evaluation ran with.
	IOUThreshold float64 `json:"iou_threshold"`
	// ConfidenceThreshold is the confidence cutoff the evaluation ran with.
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	// GroundTruths counts the ground-truth annotations evaluated.
	GroundTruths int `json:"ground_truths"`
	// Predictions counts the predictions that survived the confidence
	// threshold.
	Predictions int `json:"predictions"`
	// Metrics holds average precision aggregates and per-class PR curves.
	Metrics metrics.DetectionMetrics `json:"metrics"`
	// Confusion is the class confusion matrix including the background row
	// and column.
	Confusion *confusion.Matrix `json:"confusion"`
	// Errors files every matched and unmatched annotation into the error
	// taxonomy.
	Errors *triage.Report `json:"errors"`
}

// TaskType returns annotation.TaskDetection.
func (r *DetectionResult) TaskType() annotation.TaskType {

	return r.Task
}

// ClassificationResult holds the full output of a classification evaluation.
type ClassificationResult struct {
	// Task is always annotation.TaskClassification.
	Task annotation.TaskType `json:"task"`
	// ConfidenceThreshold is the confidence cutoff the evaluation ran with.
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	// GroundTruths counts the ground-truth annotations evaluated.
	GroundTruths int `json:"ground_truths"`
	// Predictions counts the predictions that survived the confidence
	// threshold.
	Predictions int `json:"predictions"`
	// Samples counts the labeled samples scored.
	Samples int `json:"samples"`
	// Metrics holds accuracy and per-class precision, recall, and F1.
	Metrics metrics.ClassificationMetrics `json:"metrics"`
	// Confusion is the class confusion matrix, no background class.
	Confusion *confusion.Matrix `json:"confusion"`
	// Errors files every sample into the error taxonomy.
	Errors *triage.Report `json:"errors"`
}

// TaskType returns annotation.TaskClassification.
func (r *ClassificationResult) TaskType() annotation.TaskType {

	return r.Task
}
