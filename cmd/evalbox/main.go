package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/swdee/go-evalbox"
	"github.com/swdee/go-evalbox/annotation"
	"github.com/swdee/go-evalbox/dataset"
	"github.com/swdee/go-evalbox/triage"
)

// maxOffenders caps the error listing in the text summary.
const maxOffenders = 10

func main() {
	gtPath := flag.String("gt", "", "Path to ground truth file (JSONL or COCO instances)")
	predPath := flag.String("pred", "", "Path to predictions file, omit when the JSONL holds both")
	format := flag.String("format", "jsonl", "Annotation format (jsonl, coco)")
	task := flag.String("task", "detection", "Task type (detection, classification)")
	iou := flag.Float64("iou", 0.5, "IoU threshold for box matching")
	conf := flag.Float64("conf", 0, "Confidence threshold, predictions below are dropped")
	source := flag.String("source", "", "Prediction source to score, required when several are present")
	split := flag.String("split", "", "Restrict scoring to one dataset split")
	categoriesPath := flag.String("categories", "", "Path to a class list file, one class per line")
	jsonOut := flag.Bool("json", false, "Emit the full result as JSON")
	minMAP := flag.Float64("min-map", -1, "Fail if mAP is below this value (disabled if <0)")
	minAccuracy := flag.Float64("min-accuracy", -1, "Fail if accuracy is below this value (disabled if <0)")
	flag.Parse()

	if *gtPath == "" {
		fmt.Fprintln(os.Stderr, "missing required -gt flag")
		flag.Usage()
		os.Exit(1)
	}

	taskType := annotation.TaskType(*task)

	groundTruth, predictions, err := loadAnnotations(*format, *gtPath, *predPath,
		*source, *split, taskType)
	if err != nil {
		fail("failed to load annotations: %v", err)
	}

	var categories []string

	if *categoriesPath != "" {
		categories, err = dataset.LoadCategories(*categoriesPath)
		if err != nil {
			fail("failed to load categories: %v", err)
		}
	}

	params := evalbox.Params{
		Task:                taskType,
		ConfidenceThreshold: *conf,
		Categories:          categories,
	}

	if taskType == annotation.TaskDetection || iouFlagSet() {
		params.IOUThreshold = *iou
	}

	result, err := evalbox.Evaluate(groundTruth, predictions, params)
	if err != nil {
		fail("evaluation failed: %v", err)
	}

	if *jsonOut {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fail("failed to encode result: %v", err)
		}

		fmt.Println(string(out))
	} else {
		printResult(result)
	}

	applyGates(result, *minMAP, *minAccuracy)
}

// iouFlagSet reports whether -iou was passed explicitly, so a classification
// run with one gets the task mismatch error instead of a silent ignore.
func iouFlagSet() bool {
	set := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "iou" {
			set = true
		}
	})

	return set
}

func loadAnnotations(format, gtPath, predPath, source, split string,
	task annotation.TaskType) (groundTruth, predictions []annotation.Annotation, err error) {
	switch format {
	case "jsonl":
		return loadJSONL(gtPath, predPath, source, split)
	case "coco":
		if task != annotation.TaskDetection {
			return nil, nil, fmt.Errorf("coco format only holds detection annotations")
		}

		return loadCOCO(gtPath, predPath, source)
	default:
		return nil, nil, fmt.Errorf("unknown format %q", format)
	}
}

// loadJSONL reads ground truth and predictions from JSONL files. Predictions
// come from the ground truth file itself unless a separate one is given.
func loadJSONL(gtPath, predPath, source, split string) (groundTruth, predictions []annotation.Annotation, err error) {
	records, err := dataset.LoadJSONL(gtPath)
	if err != nil {
		return nil, nil, err
	}

	groundTruth = dataset.Filter(records, annotation.SourceGroundTruth, split)

	predRecords := records

	if predPath != "" {
		predRecords, err = dataset.LoadJSONL(predPath)
		if err != nil {
			return nil, nil, err
		}
	}

	if source == "" {
		sources := dataset.Sources(predRecords)

		switch len(sources) {
		case 0:
			return nil, nil, fmt.Errorf("no prediction sources found")
		case 1:
			source = sources[0]
		default:
			return nil, nil, fmt.Errorf("multiple prediction sources %v, pass -source", sources)
		}
	}

	predictions = dataset.Filter(predRecords, source, split)

	return groundTruth, predictions, nil
}

// loadCOCO reads a COCO instances file and a results file, resolving the
// numeric ids in the results against the instances.
func loadCOCO(gtPath, predPath, source string) (groundTruth, predictions []annotation.Annotation, err error) {
	if predPath == "" {
		return nil, nil, fmt.Errorf("coco format needs -pred with a results file")
	}

	groundTruth, index, err := dataset.LoadCOCOGroundTruth(gtPath)
	if err != nil {
		return nil, nil, err
	}

	if source == "" {
		source = "predictions"
	}

	predictions, err = dataset.LoadCOCOPredictions(predPath, source, index)
	if err != nil {
		return nil, nil, err
	}

	return groundTruth, predictions, nil
}

func printResult(result evalbox.Result) {
	switch res := result.(type) {
	case *evalbox.DetectionResult:
		printDetection(res)
	case *evalbox.ClassificationResult:
		printClassification(res)
	}
}

func printDetection(res *evalbox.DetectionResult) {
	fmt.Printf("Detection Evaluation\n")
	fmt.Printf("  Ground truths: %d  Predictions: %d\n", res.GroundTruths, res.Predictions)
	fmt.Printf("  Thresholds: iou>=%.2f confidence>=%.2f\n", res.IOUThreshold, res.ConfidenceThreshold)
	fmt.Printf("  mAP@%.2f: %.3f\n", res.IOUThreshold, res.Metrics.MeanAP)
	fmt.Printf("  mAP@0.50: %.3f\n", res.Metrics.MeanAP50)
	fmt.Printf("  mAP@0.75: %.3f\n", res.Metrics.MeanAP75)
	fmt.Printf("  mAP@[0.50:0.95]: %.3f\n", res.Metrics.MeanAP5095)

	if len(res.Metrics.PerClass) > 0 {
		fmt.Printf("  Per class:\n")

		for _, c := range res.Metrics.PerClass {
			fmt.Printf("    %-16s AP=%.3f AP50=%.3f AP75=%.3f support=%d\n",
				c.Category, c.AP, c.AP50, c.AP75, c.Support)
		}
	}

	totals := res.Errors.Totals
	fmt.Printf("  Errors: TP=%d HFP=%d LE=%d FN=%d\n",
		totals[triage.TruePositive], totals[triage.HardFalsePositive],
		totals[triage.LabelError], totals[triage.FalseNegative])

	printOffenders(res.Errors)
}

func printClassification(res *evalbox.ClassificationResult) {
	fmt.Printf("Classification Evaluation\n")
	fmt.Printf("  Ground truths: %d  Predictions: %d  Samples: %d\n",
		res.GroundTruths, res.Predictions, res.Samples)
	fmt.Printf("  Threshold: confidence>=%.2f\n", res.ConfidenceThreshold)
	fmt.Printf("  Accuracy: %.3f\n", res.Metrics.Accuracy)
	fmt.Printf("  MacroF1: %.3f\n", res.Metrics.MacroF1)
	fmt.Printf("  WeightedF1: %.3f\n", res.Metrics.WeightedF1)

	if len(res.Metrics.PerClass) > 0 {
		fmt.Printf("  Per class:\n")

		for _, c := range res.Metrics.PerClass {
			fmt.Printf("    %-16s P=%.3f R=%.3f F1=%.3f support=%d\n",
				c.Category, c.Precision, c.Recall, c.F1, c.Support)
		}
	}

	totals := res.Errors.Totals
	fmt.Printf("  Errors: correct=%d misclassified=%d missing=%d\n",
		totals[triage.Correct], totals[triage.Misclassified],
		totals[triage.MissingPrediction])

	printOffenders(res.Errors)
}

// printOffenders lists the most confident mistakes.
func printOffenders(report *triage.Report) {
	offenders := report.Offenders()

	if len(offenders) == 0 {
		return
	}

	if len(offenders) > maxOffenders {
		offenders = offenders[:maxOffenders]
	}

	fmt.Printf("  Top errors:\n")

	for _, rec := range offenders {
		switch rec.Kind {
		case triage.FalseNegative, triage.MissingPrediction:
			fmt.Printf("    [%s] %s %s missed\n", rec.Kind, rec.SampleID, rec.Actual)
		case triage.HardFalsePositive:
			fmt.Printf("    [%s] %s %s conf=%.2f\n", rec.Kind, rec.SampleID,
				rec.Predicted, rec.Confidence)
		default:
			fmt.Printf("    [%s] %s %s->%s conf=%.2f\n", rec.Kind, rec.SampleID,
				rec.Actual, rec.Predicted, rec.Confidence)
		}
	}
}

// applyGates exits nonzero when a CI quality gate fails.
func applyGates(result evalbox.Result, minMAP, minAccuracy float64) {
	switch res := result.(type) {
	case *evalbox.DetectionResult:
		if minMAP >= 0 && res.Metrics.MeanAP < minMAP {
			fail("mAP %.3f is below threshold %.3f", res.Metrics.MeanAP, minMAP)
		}
	case *evalbox.ClassificationResult:
		if minAccuracy >= 0 && res.Metrics.Accuracy < minAccuracy {
			fail("accuracy %.3f is below threshold %.3f", res.Metrics.Accuracy, minAccuracy)
		}
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
