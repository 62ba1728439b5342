// Package scaling provides reversible per-column standardization of the
// feature matrix.
package scaling

import (
	"errors"
	"math"
)

// ErrEmptyMatrix is returned when fitting on no rows.
var ErrEmptyMatrix = errors.New("cannot fit scaler on empty matrix")

// StandardScaler rescales each column to zero mean and unit variance and
// retains the fitted parameters so any point, centroids included, maps back
// to original units via the exact inverse affine transform.
type StandardScaler struct {
	Mean []float64
	Std  []float64 // scale factors; a zero-variance column gets factor 1
}

// Fit computes column-wise mean and population standard deviation over all
// rows. A column with zero variance is treated as already centered: its
// scale factor is 1, never a division by zero.
func Fit(matrix [][]float64) (*StandardScaler, error) {
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return nil, ErrEmptyMatrix
	}

	rows := len(matrix)
	cols := len(matrix[0])

	mean := make([]float64, cols)
	for _, row := range matrix {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(rows)
	}

	std := make([]float64, cols)
	for _, row := range matrix {
		for j, v := range row {
			diff := v - mean[j]
			std[j] += diff * diff
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(rows))
		if std[j] == 0 {
			std[j] = 1
		}
	}

	return &StandardScaler{Mean: mean, Std: std}, nil
}

// FitTransform fits the scaler and returns the standardized matrix.
func FitTransform(matrix [][]float64) ([][]float64, *StandardScaler, error) {
	scaler, err := Fit(matrix)
	if err != nil {
		return nil, nil, err
	}
	return scaler.Transform(matrix), scaler, nil
}

// Transform maps every row to (x - mean) / std. Returns a new matrix, the
// input is never mutated.
func (s *StandardScaler) Transform(matrix [][]float64) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = scaled
	}
	return out
}

// InverseTransform maps standardized rows back to original units:
// x*std + mean. Round-trips Transform within floating-point tolerance.
func (s *StandardScaler) InverseTransform(matrix [][]float64) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		original := make([]float64, len(row))
		for j, v := range row {
			original[j] = v*s.Std[j] + s.Mean[j]
		}
		out[i] = original
	}
	return out
}

// InverseRow maps a single standardized point back to original units.
func (s *StandardScaler) InverseRow(row []float64) []float64 {
	original := make([]float64, len(row))
	for j, v := range row {
		original[j] = v*s.Std[j] + s.Mean[j]
	}
	return original
}
