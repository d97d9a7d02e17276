package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/swdee/go-evalbox/annotation"
)

const (
	// ManifestFile is the descriptor name inside a dataset directory.
	ManifestFile = "dataset.json"

	// DefaultAnnotationsFile is used when the manifest names no
	// annotations file.
	DefaultAnnotationsFile = "annotations.jsonl"
)

// Manifest describes a dataset directory, which holds a dataset.json
// descriptor next to its annotation files.
type Manifest struct {
	// Name identifies the dataset. Defaults to the directory name.
	Name string `json:"name"`
	// Task is the task type the annotations support.
	Task annotation.TaskType `json:"task"`
	// Annotations names the JSONL annotation file, relative to the
	// directory. Defaults to annotations.jsonl.
	Annotations string `json:"annotations,omitempty"`
	// IOUThreshold optionally sets the IoU cutoff to evaluate with.
	IOUThreshold float64 `json:"iou_threshold,omitempty"`
	// ConfidenceThreshold optionally sets the confidence cutoff to
	// evaluate with.
	ConfidenceThreshold float64 `json:"confidence_threshold,omitempty"`
	// Categories optionally names a class list file, one class per line.
	Categories string `json:"categories,omitempty"`
}

// LoadManifest reads and validates the manifest of dataset directory dir.
func LoadManifest(dir string) (*Manifest, error) {

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))

	if err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	var m Manifest

	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error parsing manifest: %w", err)
	}

	if !m.Task.Valid() {
		return nil, fmt.Errorf("error in manifest: unknown task %q", m.Task)
	}

	if m.Name == "" {
		m.Name = filepath.Base(dir)
	}

	if m.Annotations == "" {
		m.Annotations = DefaultAnnotationsFile
	}

	return &m, nil
}

// Load reads the annotation records of the dataset at dir.
func (m *Manifest) Load(dir string) ([]Record, error) {

	return LoadJSONL(filepath.Join(dir, m.Annotations))
}

// LoadCategoryList reads the optional class list of the dataset at dir. It
// returns nil when the manifest names none.
func (m *Manifest) LoadCategoryList(dir string) ([]string, error) {

	if m.Categories == "" {
		return nil, nil
	}

	return LoadCategories(filepath.Join(dir, m.Categories))
}

// Discover returns the names of dataset directories under root, those
// holding a manifest, in directory order.
func Discover(root string) ([]string, error) {

	entries, err := os.ReadDir(root)

	if err != nil {
		return nil, fmt.Errorf("error reading directory: %w", err)
	}

	var names []string

	for _, entry := range entries {

		if !entry.IsDir() {
			continue
		}

		manifest := filepath.Join(root, entry.Name(), ManifestFile)

		if _, err := os.Stat(manifest); err != nil {
			continue
		}

		names = append(names, entry.Name())
	}

	return names, nil
}
