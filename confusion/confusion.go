// Package confusion builds actual-class by predicted-class count matrices
// from annotation matches.
package confusion

import (
	"sort"

	"github.com/swdee/go-evalbox/match"
)

// Background is the synthetic detection class absorbing unmatched boxes:
// spurious predictions come out of it and missed ground truth disappears
// into it. Classification matrices never use it.
const Background = "background"

// Matrix is a dense actual-class by predicted-class count grid. Classes
// holds the canonical label order (class names sorted, Background last for
// detection) and Counts is indexed [actual][predicted] in that order.
type Matrix struct {
	Classes []string `json:"classes"`
	Counts  [][]int  `json:"counts"`
}

// newMatrix allocates a zeroed square matrix over the given classes.
func newMatrix(classes []string) *Matrix {

	counts := make([][]int, len(classes))

	for i := range counts {
		counts[i] = make([]int, len(classes))
	}

	return &Matrix{Classes: classes, Counts: counts}
}

// index returns the position of a class in the canonical order, or -1 when
// the class is not part of the matrix.
func (m *Matrix) index(class string) int {

	for i, c := range m.Classes {
		if c == class {
			return i
		}
	}

	return -1
}

// add increments the (actual, predicted) cell.
func (m *Matrix) add(actual, predicted string) {

	ai := m.index(actual)
	pi := m.index(predicted)

	if ai < 0 || pi < 0 {
		return
	}

	m.Counts[ai][pi]++
}

// Count returns the number of pairs recorded at (actual, predicted).
func (m *Matrix) Count(actual, predicted string) int {

	ai := m.index(actual)
	pi := m.index(predicted)

	if ai < 0 || pi < 0 {
		return 0
	}

	return m.Counts[ai][pi]
}

// Total returns the sum over all cells.
func (m *Matrix) Total() int {

	total := 0

	for _, row := range m.Counts {
		for _, v := range row {
			total += v
		}
	}

	return total
}

// Diagonal returns the sum of the agreement cells.
func (m *Matrix) Diagonal() int {

	total := 0

	for i := range m.Counts {
		total += m.Counts[i][i]
	}

	return total
}

// RowSums returns the per-actual-class totals in canonical class order.
func (m *Matrix) RowSums() []int {

	sums := make([]int, len(m.Counts))

	for i, row := range m.Counts {
		for _, v := range row {
			sums[i] += v
		}
	}

	return sums
}

// ColSums returns the per-predicted-class totals in canonical class order.
func (m *Matrix) ColSums() []int {

	sums := make([]int, len(m.Classes))

	for _, row := range m.Counts {
		for j, v := range row {
			sums[j] += v
		}
	}

	return sums
}

// Normalized returns the row-normalized matrix as fresh float slices, each
// row expressing the fraction of that actual class predicted as each class.
// Rows with no counts stay zero. The stored integer counts are untouched;
// normalization is a presentation concern.
func (m *Matrix) Normalized() [][]float64 {

	out := make([][]float64, len(m.Counts))
	sums := m.RowSums()

	for i, row := range m.Counts {
		out[i] = make([]float64, len(row))

		if sums[i] == 0 {
			continue
		}

		for j, v := range row {
			out[i][j] = float64(v) / float64(sums[i])
		}
	}

	return out
}

// FromDetection builds the detection confusion matrix over the classes
// present in the match set plus the synthetic Background class. A matched
// pair lands at (actual, predicted) whether or not the categories agree, a
// spurious prediction at (Background, predicted) and a miss at
// (actual, Background).
func FromDetection(results []match.Result) *Matrix {

	m := newMatrix(append(classesOf(results), Background))

	for _, r := range results {
		switch {
		case r.Matched():
			m.add(r.GT.Category, r.Pred.Category)
		case r.Pred != nil:
			m.add(Background, r.Pred.Category)
		default:
			m.add(r.GT.Category, Background)
		}
	}

	return m
}

// FromClassification builds the classification confusion matrix. Every
// labeled sample with a prediction contributes exactly one increment; samples
// with a missing prediction appear only in the error report, never here.
func FromClassification(results []match.Result) *Matrix {

	m := newMatrix(classesOf(results))

	for _, r := range results {
		if !r.Matched() {
			continue
		}

		m.add(r.GT.Category, r.Pred.Category)
	}

	return m
}

// classesOf collects the distinct categories on either side of the match
// set, sorted.
func classesOf(results []match.Result) []string {

	seen := make(map[string]struct{})

	for _, r := range results {
		if r.GT != nil {
			seen[r.GT.Category] = struct{}{}
		}

		if r.Pred != nil {
			seen[r.Pred.Category] = struct{}{}
		}
	}

	classes := make([]string, 0, len(seen))

	for c := range seen {
		classes = append(classes, c)
	}

	sort.Strings(classes)

	return classes
}
