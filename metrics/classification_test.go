package metrics

import (
	"testing"

	"github.com/swdee/go-evalbox/annotation"
	"github.com/swdee/go-evalbox/match"
)

func classResult(sampleID, actual, predicted string, conf float64) match.Result {

	gt := annotation.Annotation{
		ID:       "g-" + sampleID,
		SampleID: sampleID,
		Source:   annotation.SourceGroundTruth,
		Category: actual,
	}

	r := match.Result{SampleID: sampleID, GT: &gt}

	if predicted != "" {
		pred := annotation.Annotation{
			ID:         "p-" + sampleID,
			SampleID:   sampleID,
			Source:     "model",
			Category:   predicted,
			Confidence: annotation.Conf(conf),
		}
		r.Pred = &pred
	}

	return r
}

func TestClassificationAlternatingLabels(t *testing.T) {

	// ten samples alternating a/b, every prediction says a
	results := make([]match.Result, 0, 10)

	for i := 0; i < 10; i++ {
		actual := "a"

		if i%2 == 1 {
			actual = "b"
		}

		results = append(results, classResult(sampleID(i), actual, "a", 0.9))
	}

	m := NewClassification(ClassificationParams{}).Calculate(results)

	if !almostEqual(m.Accuracy, 0.5, 1e-9) {
		t.Errorf("Accuracy = %v; want 0.5", m.Accuracy)
	}

	byClass := make(map[string]ClassScore)

	for _, row := range m.PerClass {
		byClass[row.Category] = row
	}

	a := byClass["a"]
	b := byClass["b"]

	if !almostEqual(a.Recall, 1, 1e-9) {
		t.Errorf("recall(a) = %v; want 1", a.Recall)
	}

	if b.Recall != 0 {
		t.Errorf("recall(b) = %v; want 0", b.Recall)
	}

	if !almostEqual(a.Precision, 0.5, 1e-9) {
		t.Errorf("precision(a) = %v; want 0.5", a.Precision)
	}

	if a.Support != 5 || b.Support != 5 {
		t.Errorf("support = (%d, %d); want (5, 5)", a.Support, b.Support)
	}

	// F1(a) = 2/3, F1(b) = 0
	if !almostEqual(m.MacroF1, 1.0/3.0, 1e-9) {
		t.Errorf("MacroF1 = %v; want 1/3", m.MacroF1)
	}

	if !almostEqual(m.WeightedF1, 1.0/3.0, 1e-9) {
		t.Errorf("WeightedF1 = %v; want 1/3", m.WeightedF1)
	}
}

func sampleID(i int) string {
	return string(rune('a'+i)) + "-sample"
}

func TestClassificationMissingPrediction(t *testing.T) {

	results := []match.Result{
		classResult("img1", "cat", "cat", 0.9),
		classResult("img2", "dog", "", 0),
	}

	m := NewClassification(ClassificationParams{}).Calculate(results)

	// the missing prediction counts against accuracy and dog recall
	if !almostEqual(m.Accuracy, 0.5, 1e-9) {
		t.Errorf("Accuracy = %v; want 0.5", m.Accuracy)
	}

	for _, row := range m.PerClass {
		if row.Category == "dog" {
			if row.Recall != 0 || row.Support != 1 {
				t.Errorf("dog row = %+v; want zero recall, support 1", row)
			}
		}
	}
}

func TestClassificationDeclaredCategories(t *testing.T) {

	results := []match.Result{classResult("img1", "cat", "cat", 0.9)}

	m := NewClassification(ClassificationParams{Categories: []string{"zebra"}}).Calculate(results)

	if len(m.PerClass) != 2 {
		t.Fatalf("PerClass has %d rows; want 2", len(m.PerClass))
	}

	// declared but absent classes stay out of the means
	if !almostEqual(m.MacroF1, 1, 1e-9) {
		t.Errorf("MacroF1 = %v; want 1", m.MacroF1)
	}
}

func TestClassificationEmptyResults(t *testing.T) {

	m := NewClassification(ClassificationParams{}).Calculate(nil)

	if m.Accuracy != 0 || m.MacroF1 != 0 || m.WeightedF1 != 0 {
		t.Errorf("empty metrics = %+v; want all zero", m)
	}
}
