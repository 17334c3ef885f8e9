// Package probs provides the dense numeric matrix used to carry decoded
// genotype probabilities, replacing the dynamically typed "array-like"
// objects used by duck-typed implementations of this format.
package probs

import "math"

// Matrix is a dense n_samples x width table of genotype probabilities,
// row-major, with NaN marking missing values.
type Matrix struct {
	NSamples int
	Width    int
	data     []float64
}

// NewMatrix allocates a Matrix of the given shape, filled with NaN.
func NewMatrix(nSamples, width int) Matrix {
	data := make([]float64, nSamples*width)
	for i := range data {
		data[i] = math.NaN()
	}
	return Matrix{NSamples: nSamples, Width: width, data: data}
}

// Row returns the width-length slice of probabilities for sample i. The
// returned slice aliases the Matrix's backing array.
func (m Matrix) Row(i int) []float64 {
	return m.data[i*m.Width : (i+1)*m.Width]
}

// Set stores v at (sample, col).
func (m Matrix) Set(sample, col int, v float64) {
	m.data[sample*m.Width+col] = v
}

// At returns the value at (sample, col).
func (m Matrix) At(sample, col int) float64 {
	return m.data[sample*m.Width+col]
}

// RowIsMissing reports whether every value in sample i's row is NaN.
func (m Matrix) RowIsMissing(i int) bool {
	for _, v := range m.Row(i) {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

// FillRowNaN sets every value in sample i's row to NaN.
func (m Matrix) FillRowNaN(i int) {
	row := m.Row(i)
	for j := range row {
		row[j] = math.NaN()
	}
}
