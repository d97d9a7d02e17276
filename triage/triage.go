// Package triage classifies match results into the error taxonomy consumed
// by review tooling, and indexes the offending samples for drill-down.
package triage

import (
	"sort"

	"github.com/swdee/go-evalbox/confusion"
	"github.com/swdee/go-evalbox/match"
)

// Kind is one value of the error taxonomy. The detection and classification
// taxonomies are disjoint; each is exhaustive and mutually exclusive over its
// match results.
type Kind string

// Detection taxonomy.
const (
	// TruePositive is a matched pair with the right class.
	TruePositive Kind = "true_positive"

	// HardFalsePositive is a prediction with no sufficiently overlapping
	// ground truth of any class.
	HardFalsePositive Kind = "hard_false_positive"

	// LabelError is a prediction overlapping a ground-truth box well enough
	// but naming the wrong class.
	LabelError Kind = "label_error"

	// FalseNegative is a ground-truth box no prediction claimed.
	FalseNegative Kind = "false_negative"
)

// Classification taxonomy.
const (
	// Correct is a prediction agreeing with the ground-truth label.
	Correct Kind = "correct"

	// Misclassified is a prediction naming the wrong label.
	Misclassified Kind = "misclassified"

	// MissingPrediction is a labeled sample with no surviving prediction.
	MissingPrediction Kind = "missing_prediction"
)

// Mistake reports whether the kind describes something other than a correct
// outcome.
func (k Kind) Mistake() bool {
	return k != TruePositive && k != Correct
}

// Record ties one match outcome to its sample for drill-down. Actual is
// empty for hard false positives, Predicted is empty for misses and missing
// predictions, and IOU is set only for matched pairs.
type Record struct {
	SampleID   string  `json:"sample_id"`
	GTID       string  `json:"gt_id,omitempty"`
	PredID     string  `json:"pred_id,omitempty"`
	Actual     string  `json:"actual,omitempty"`
	Predicted  string  `json:"predicted,omitempty"`
	Confidence float64 `json:"confidence"`
	IOU        float64 `json:"iou,omitempty"`
	Kind       Kind    `json:"kind"`
}

// Report aggregates the taxonomy over one evaluation. Records are ordered
// most confident first (records without a prediction last, then by sample
// id) so the most confident mistakes surface first. PerClass is keyed by
// ground-truth class; hard false positives have none and appear only in
// Totals and Records.
type Report struct {
	Records  []Record                `json:"records"`
	Totals   map[Kind]int            `json:"totals"`
	PerClass map[string]map[Kind]int `json:"per_class"`
}

// Detection categorizes detection match results.
func Detection(results []match.Result) *Report {
	return build(results, detectionKind)
}

// Classification categorizes classification match results.
func Classification(results []match.Result) *Report {
	return build(results, classificationKind)
}

// detectionKind maps one detection match result to its taxonomy value.
func detectionKind(r match.Result) Kind {

	switch {
	case r.Matched() && r.CategoryMatch():
		return TruePositive
	case r.Matched():
		return LabelError
	case r.Pred != nil:
		return HardFalsePositive
	default:
		return FalseNegative
	}
}

// classificationKind maps one classification match result to its taxonomy
// value.
func classificationKind(r match.Result) Kind {

	switch {
	case r.Matched() && r.CategoryMatch():
		return Correct
	case r.Matched():
		return Misclassified
	default:
		return MissingPrediction
	}
}

// build assembles the report from match results and a taxonomy.
func build(results []match.Result, kindOf func(match.Result) Kind) *Report {

	rep := &Report{
		Records:  make([]Record, 0, len(results)),
		Totals:   make(map[Kind]int),
		PerClass: make(map[string]map[Kind]int),
	}

	for _, r := range results {

		kind := kindOf(r)
		rec := Record{SampleID: r.SampleID, Kind: kind}

		if r.GT != nil {
			rec.GTID = r.GT.ID
			rec.Actual = r.GT.Category
		}

		if r.Pred != nil {
			rec.PredID = r.Pred.ID
			rec.Predicted = r.Pred.Category
			rec.Confidence = r.Pred.ConfidenceValue()
		}

		if r.Matched() {
			rec.IOU = r.IOU
		}

		rep.Records = append(rep.Records, rec)
		rep.Totals[kind]++

		if rec.Actual != "" {
			perKind := rep.PerClass[rec.Actual]

			if perKind == nil {
				perKind = make(map[Kind]int)
				rep.PerClass[rec.Actual] = perKind
			}

			perKind[kind]++
		}
	}

	sort.SliceStable(rep.Records, func(i, j int) bool {
		a := sortKey(rep.Records[i])
		b := sortKey(rep.Records[j])

		if a != b {
			return a > b
		}

		return rep.Records[i].SampleID < rep.Records[j].SampleID
	})

	return rep
}

// sortKey orders records by prediction confidence, pushing records without
// any prediction behind every scored one.
func sortKey(r Record) float64 {

	if r.Kind == FalseNegative || r.Kind == MissingPrediction {
		return -1
	}

	return r.Confidence
}

// Offenders returns the records describing mistakes, most confident first.
func (r *Report) Offenders() []Record {

	out := make([]Record, 0, len(r.Records))

	for _, rec := range r.Records {
		if rec.Kind.Mistake() {
			out = append(out, rec)
		}
	}

	return out
}

// SamplesFor returns the distinct sample ids recorded with the given kind,
// most confident first.
func (r *Report) SamplesFor(kind Kind) []string {

	ids := make([]string, 0)
	seen := make(map[string]struct{})

	for _, rec := range r.Records {
		if rec.Kind != kind {
			continue
		}

		if _, ok := seen[rec.SampleID]; ok {
			continue
		}

		seen[rec.SampleID] = struct{}{}
		ids = append(ids, rec.SampleID)
	}

	return ids
}

// SamplesForPair returns the distinct sample ids contributing to one
// confusion cell, most confident first. The confusion.Background name
// addresses the synthetic detection cells: spurious predictions sit on the
// background row and misses in the background column.
func (r *Report) SamplesForPair(actual, predicted string) []string {

	if actual == confusion.Background {
		actual = ""
	}

	if predicted == confusion.Background {
		predicted = ""
	}

	ids := make([]string, 0)
	seen := make(map[string]struct{})

	for _, rec := range r.Records {
		if rec.Actual != actual || rec.Predicted != predicted {
			continue
		}

		if _, ok := seen[rec.SampleID]; ok {
			continue
		}

		seen[rec.SampleID] = struct{}{}
		ids = append(ids, rec.SampleID)
	}

	return ids
}
