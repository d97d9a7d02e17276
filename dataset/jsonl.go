// Package dataset loads annotation batches from JSONL files, COCO exports,
// and dataset directories described by a manifest.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/swdee/go-evalbox/annotation"
)

// maxLineBytes caps the size of a single JSONL line.
const maxLineBytes = 1024 * 1024

// Record is one line of an annotation JSONL file. It embeds the annotation
// fields and adds dataset bookkeeping.
type Record struct {
	annotation.Annotation
	// Split tags the record with a dataset split such as train or val.
	Split string `json:"split,omitempty"`
}

// LoadJSONL reads annotation records from the given JSONL file, one JSON
// object per line. Blank lines are skipped. Records without an ID are
// assigned a deterministic one derived from their sample, source, and
// position, so repeated loads of the same file agree.
func LoadJSONL(file string) ([]Record, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	// create a scanner to read the file.
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var records []Record

	line := 0

	// read and parse each line
	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())

		if text == "" {
			continue
		}

		var rec Record

		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("error parsing line %d: %w", line, err)
		}

		if rec.ID == "" {
			rec.ID = recordID(rec.SampleID, rec.Source, len(records))
		}

		records = append(records, rec)
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return records, nil
}

// recordID derives a stable identifier for a record that carries none.
func recordID(sample, source string, index int) string {

	seed := fmt.Sprintf("%s/%s/%d", sample, source, index)

	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// Filter returns the annotations of records matching the given source and
// split. An empty source or split matches everything on that axis.
func Filter(records []Record, source, split string) []annotation.Annotation {

	anns := make([]annotation.Annotation, 0, len(records))

	for _, rec := range records {

		if source != "" && rec.Source != source {
			continue
		}

		if split != "" && rec.Split != split {
			continue
		}

		anns = append(anns, rec.Annotation)
	}

	return anns
}

// Sources returns the distinct source names present in the records, ground
// truth excluded, sorted alphabetically.
func Sources(records []Record) []string {

	seen := make(map[string]struct{})

	var names []string

	for _, rec := range records {

		if rec.IsGroundTruth() {
			continue
		}

		if _, ok := seen[rec.Source]; ok {
			continue
		}

		seen[rec.Source] = struct{}{}
		names = append(names, rec.Source)
	}

	sort.Strings(names)

	return names
}
