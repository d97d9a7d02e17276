package triage

import (
	"reflect"
	"testing"

	"github.com/swdee/go-evalbox/annotation"
	"github.com/swdee/go-evalbox/confusion"
	"github.com/swdee/go-evalbox/match"
)

func gtBox(id, sampleID, category string, x, y, w, h float64) annotation.Annotation {
	return annotation.Annotation{
		ID:       id,
		SampleID: sampleID,
		Source:   annotation.SourceGroundTruth,
		Category: category,
		Box:      &annotation.Box{X: x, Y: y, Width: w, Height: h},
	}
}

func predBox(id, sampleID, category string, conf float64, x, y, w, h float64) annotation.Annotation {
	return annotation.Annotation{
		ID:         id,
		SampleID:   sampleID,
		Source:     "model",
		Category:   category,
		Confidence: annotation.Conf(conf),
		Box:        &annotation.Box{X: x, Y: y, Width: w, Height: h},
	}
}

// detectionScenario exercises every detection kind: a true positive on img1,
// a label error on img2, a hard false positive on img4 and a miss on img3.
func detectionScenario() []match.Result {

	gt := []annotation.Annotation{
		gtBox("g1", "img1", "cat", 0, 0, 10, 10),
		gtBox("g2", "img2", "dog", 0, 0, 10, 10),
		gtBox("g3", "img3", "horse", 0, 0, 10, 10),
	}
	preds := []annotation.Annotation{
		predBox("p1", "img1", "cat", 0.95, 0, 0, 10, 10),
		predBox("p2", "img2", "cat", 0.9, 0, 0, 10, 10),
		predBox("p3", "img4", "bird", 0.8, 0, 0, 10, 10),
	}

	return match.Detection(gt, preds, 0.5, 0.25)
}

func TestDetectionTaxonomy(t *testing.T) {

	rep := Detection(detectionScenario())

	want := map[Kind]int{
		TruePositive:      1,
		LabelError:        1,
		HardFalsePositive: 1,
		FalseNegative:     1,
	}

	if !reflect.DeepEqual(rep.Totals, want) {
		t.Errorf("Totals = %v; want %v", rep.Totals, want)
	}
}

func TestDetectionConservation(t *testing.T) {

	rep := Detection(detectionScenario())

	preds := rep.Totals[TruePositive] + rep.Totals[LabelError] + rep.Totals[HardFalsePositive]

	if preds != 3 {
		t.Errorf("TP+LE+HFP = %d; want 3 surviving predictions", preds)
	}

	gts := rep.Totals[TruePositive] + rep.Totals[LabelError] + rep.Totals[FalseNegative]

	if gts != 3 {
		t.Errorf("TP+LE+FN = %d; want 3 ground truths", gts)
	}
}

func TestRecordsMostConfidentFirst(t *testing.T) {

	rep := Detection(detectionScenario())

	wantSamples := []string{"img1", "img2", "img4", "img3"}
	got := make([]string, 0, len(rep.Records))

	for _, rec := range rep.Records {
		got = append(got, rec.SampleID)
	}

	if !reflect.DeepEqual(got, wantSamples) {
		t.Errorf("record order = %v; want %v", got, wantSamples)
	}

	// the miss has no prediction and sorts last
	last := rep.Records[len(rep.Records)-1]

	if last.Kind != FalseNegative {
		t.Errorf("last record kind = %s; want %s", last.Kind, FalseNegative)
	}
}

func TestPerClassKeyedByGroundTruth(t *testing.T) {

	rep := Detection(detectionScenario())

	if got := rep.PerClass["cat"][TruePositive]; got != 1 {
		t.Errorf("PerClass[cat][true_positive] = %d; want 1", got)
	}

	if got := rep.PerClass["dog"][LabelError]; got != 1 {
		t.Errorf("PerClass[dog][label_error] = %d; want 1", got)
	}

	if got := rep.PerClass["horse"][FalseNegative]; got != 1 {
		t.Errorf("PerClass[horse][false_negative] = %d; want 1", got)
	}

	// hard false positives carry no ground-truth class
	if _, ok := rep.PerClass["bird"]; ok {
		t.Errorf("PerClass contains bird; hard false positives have no ground-truth class")
	}
}

func TestSamplesFor(t *testing.T) {

	rep := Detection(detectionScenario())

	if got := rep.SamplesFor(LabelError); !reflect.DeepEqual(got, []string{"img2"}) {
		t.Errorf("SamplesFor(label_error) = %v; want [img2]", got)
	}

	if got := rep.SamplesFor(FalseNegative); !reflect.DeepEqual(got, []string{"img3"}) {
		t.Errorf("SamplesFor(false_negative) = %v; want [img3]", got)
	}
}

func TestSamplesForPair(t *testing.T) {

	rep := Detection(detectionScenario())

	tests := []struct {
		actual, predicted string
		want              []string
	}{
		{"dog", "cat", []string{"img2"}},
		{confusion.Background, "bird", []string{"img4"}},
		{"horse", confusion.Background, []string{"img3"}},
		{"cat", "cat", []string{"img1"}},
		{"cat", "bird", []string{}},
	}

	for _, tc := range tests {
		if got := rep.SamplesForPair(tc.actual, tc.predicted); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SamplesForPair(%s, %s) = %v; want %v", tc.actual, tc.predicted, got, tc.want)
		}
	}
}

func TestOffenders(t *testing.T) {

	rep := Detection(detectionScenario())
	offenders := rep.Offenders()

	if len(offenders) != 3 {
		t.Fatalf("Offenders() returned %d records; want 3", len(offenders))
	}

	for _, rec := range offenders {
		if rec.Kind == TruePositive {
			t.Errorf("Offenders() contains a true positive: %+v", rec)
		}
	}
}

func TestClassificationTaxonomy(t *testing.T) {

	gt := []annotation.Annotation{
		{ID: "g1", SampleID: "img1", Source: annotation.SourceGroundTruth, Category: "cat"},
		{ID: "g2", SampleID: "img2", Source: annotation.SourceGroundTruth, Category: "dog"},
		{ID: "g3", SampleID: "img3", Source: annotation.SourceGroundTruth, Category: "cat"},
	}
	preds := []annotation.Annotation{
		{ID: "p1", SampleID: "img1", Source: "model", Category: "cat", Confidence: annotation.Conf(0.9)},
		{ID: "p2", SampleID: "img2", Source: "model", Category: "cat", Confidence: annotation.Conf(0.8)},
	}

	rep := Classification(match.Classification(gt, preds, 0.25))

	want := map[Kind]int{
		Correct:           1,
		Misclassified:     1,
		MissingPrediction: 1,
	}

	if !reflect.DeepEqual(rep.Totals, want) {
		t.Errorf("Totals = %v; want %v", rep.Totals, want)
	}

	if got := rep.SamplesFor(Misclassified); !reflect.DeepEqual(got, []string{"img2"}) {
		t.Errorf("SamplesFor(misclassified) = %v; want [img2]", got)
	}
}
