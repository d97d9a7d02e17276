package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/swdee/go-evalbox/annotation"
)

// COCOIndex maps COCO numeric identifiers to evaluator names. It is built
// while loading a ground truth file and lets prediction files, which carry
// only numeric ids, resolve to the same sample and class names.
type COCOIndex struct {
	// Categories maps category id to class name.
	Categories map[int]string
	// Images maps image id to sample id.
	Images map[int]string
}

// cocoInstances is the COCO object detection ground truth layout.
type cocoInstances struct {
	Images      []cocoImage      `json:"images"`
	Annotations []cocoAnnotation `json:"annotations"`
	Categories  []cocoCategory   `json:"categories"`
}

type cocoImage struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
}

type cocoAnnotation struct {
	ID         int       `json:"id"`
	ImageID    int       `json:"image_id"`
	CategoryID int       `json:"category_id"`
	BBox       []float64 `json:"bbox"`
}

type cocoCategory struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// cocoPrediction is one entry of a COCO detection results array.
type cocoPrediction struct {
	ImageID    int       `json:"image_id"`
	CategoryID int       `json:"category_id"`
	BBox       []float64 `json:"bbox"`
	Score      float64   `json:"score"`
}

// LoadCOCOGroundTruth reads a COCO instances file and converts its
// annotations to ground truth. Samples are named by image file name when
// present, otherwise by numeric image id. The returned index translates the
// numeric ids of a matching predictions file.
func LoadCOCOGroundTruth(file string) ([]annotation.Annotation, *COCOIndex, error) {

	data, err := os.ReadFile(file)

	if err != nil {
		return nil, nil, fmt.Errorf("error reading file: %w", err)
	}

	var inst cocoInstances

	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, nil, fmt.Errorf("error parsing file: %w", err)
	}

	index := &COCOIndex{
		Categories: make(map[int]string, len(inst.Categories)),
		Images:     make(map[int]string, len(inst.Images)),
	}

	for _, cat := range inst.Categories {
		index.Categories[cat.ID] = cat.Name
	}

	for _, img := range inst.Images {

		name := img.FileName

		if name == "" {
			name = strconv.Itoa(img.ID)
		}

		index.Images[img.ID] = name
	}

	anns := make([]annotation.Annotation, 0, len(inst.Annotations))

	for _, a := range inst.Annotations {

		box, err := cocoBox(a.BBox)

		if err != nil {
			return nil, nil, fmt.Errorf("error in annotation %d: %w", a.ID, err)
		}

		category, ok := index.Categories[a.CategoryID]

		if !ok {
			return nil, nil, fmt.Errorf("error in annotation %d: unknown category id %d",
				a.ID, a.CategoryID)
		}

		anns = append(anns, annotation.Annotation{
			ID:       strconv.Itoa(a.ID),
			SampleID: index.sample(a.ImageID),
			Source:   annotation.SourceGroundTruth,
			Category: category,
			Box:      box,
		})
	}

	return anns, index, nil
}

// LoadCOCOPredictions reads a COCO detection results file, a JSON array of
// scored boxes, and converts it to predictions attributed to source. A nil
// index leaves sample and class names as their numeric ids, which only lines
// up with ground truth loaded the same way.
func LoadCOCOPredictions(file, source string,
	index *COCOIndex) ([]annotation.Annotation, error) {

	data, err := os.ReadFile(file)

	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	var preds []cocoPrediction

	if err := json.Unmarshal(data, &preds); err != nil {
		return nil, fmt.Errorf("error parsing file: %w", err)
	}

	anns := make([]annotation.Annotation, 0, len(preds))

	for i, p := range preds {

		box, err := cocoBox(p.BBox)

		if err != nil {
			return nil, fmt.Errorf("error in prediction %d: %w", i, err)
		}

		seed := fmt.Sprintf("%s/%d/%d", source, p.ImageID, i)

		anns = append(anns, annotation.Annotation{
			ID:         uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String(),
			SampleID:   index.sample(p.ImageID),
			Source:     source,
			Category:   index.category(p.CategoryID),
			Confidence: annotation.Conf(p.Score),
			Box:        box,
		})
	}

	return anns, nil
}

// cocoBox converts a COCO [x, y, width, height] bbox.
func cocoBox(bbox []float64) (*annotation.Box, error) {

	if len(bbox) != 4 {
		return nil, fmt.Errorf("bbox has %d values, want 4", len(bbox))
	}

	return &annotation.Box{
		X:      bbox[0],
		Y:      bbox[1],
		Width:  bbox[2],
		Height: bbox[3],
	}, nil
}

// sample resolves an image id to a sample name, falling back to the numeric
// id when the index does not know it.
func (x *COCOIndex) sample(imageID int) string {

	if x != nil {
		if name, ok := x.Images[imageID]; ok {
			return name
		}
	}

	return strconv.Itoa(imageID)
}

// category resolves a category id to a class name, falling back to the
// numeric id when the index does not know it.
func (x *COCOIndex) category(categoryID int) string {

	if x != nil {
		if name, ok := x.Categories[categoryID]; ok {
			return name
		}
	}

	return strconv.Itoa(categoryID)
}
