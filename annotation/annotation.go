// Package annotation defines the label value objects exchanged with the
// evaluation engine.
package annotation

import (
	"sort"
)

// TaskType declares how a dataset is labeled and therefore how it must be
// evaluated. It is dataset configuration supplied by the caller, never
// inferred from annotation shapes.
type TaskType string

const (
	// TaskDetection marks datasets labeled with bounding boxes.
	TaskDetection TaskType = "detection"

	// TaskClassification marks datasets labeled with one image-level class.
	TaskClassification TaskType = "classification"
)

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	return t == TaskDetection || t == TaskClassification
}

// SourceGroundTruth is the reserved source name for ground-truth labels.
// Any other source name identifies a prediction run.
const SourceGroundTruth = "ground_truth"

// Box is a rectangle in pixel coordinates. Rotation is the angle in radians
// around the box centre and is zero for ordinary axis-aligned boxes.
type Box struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation,omitempty"`
}

// Annotation is one ground-truth or predicted label attached to an image.
// Predictions carry a confidence and, for detection tasks, a box. The engine
// treats annotation batches as immutable inputs.
type Annotation struct {
	// ID is an opaque identifier, unique within its source.
	ID string `json:"id"`

	// SampleID identifies the image the annotation belongs to.
	SampleID string `json:"sample_id"`

	// Source is SourceGroundTruth or the name of the prediction run.
	Source string `json:"source"`

	// Category is the class label.
	Category string `json:"category"`

	// Confidence is the prediction score in [0,1]. It is nil for ground
	// truth and for predictions made without a score.
	Confidence *float64 `json:"confidence,omitempty"`

	// Box is the spatial extent for detection tasks, nil for classification.
	Box *Box `json:"box,omitempty"`
}

// IsGroundTruth reports whether the annotation comes from the ground-truth
// source.
func (a Annotation) IsGroundTruth() bool {
	return a.Source == SourceGroundTruth
}

// ConfidenceValue returns the confidence, or 1 when none is set. Ground truth
// and unscored predictions always pass confidence filtering.
func (a Annotation) ConfidenceValue() float64 {

	if a.Confidence == nil {
		return 1
	}

	return *a.Confidence
}

// Conf is a convenience for building prediction literals.
func Conf(v float64) *float64 {
	return &v
}

// GroupBySample buckets annotations by their SampleID, preserving input order
// within each bucket.
func GroupBySample(anns []Annotation) map[string][]Annotation {

	groups := make(map[string][]Annotation)

	for _, a := range anns {
		groups[a.SampleID] = append(groups[a.SampleID], a)
	}

	return groups
}

// SampleIDs returns the distinct sample ids across the given batches, sorted
// for deterministic iteration.
func SampleIDs(batches ...[]Annotation) []string {

	seen := make(map[string]struct{})

	for _, batch := range batches {
		for _, a := range batch {
			seen[a.SampleID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))

	for id := range seen {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// Categories returns the distinct class labels across the given batches,
// sorted for deterministic iteration.
func Categories(batches ...[]Annotation) []string {

	seen := make(map[string]struct{})

	for _, batch := range batches {
		for _, a := range batch {
			seen[a.Category] = struct{}{}
		}
	}

	cats := make([]string, 0, len(seen))

	for c := range seen {
		cats = append(cats, c)
	}

	sort.Strings(cats)

	return cats
}
