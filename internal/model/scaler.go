package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes features to zero mean and unit variance using
// statistics fitted on the training split.
type Scaler struct {
	FeatureNames []string  `json:"feature_names"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// FitScaler computes per-column mean and population standard deviation.
// Columns with zero variance get a scale of 1 so they pass through centered.
func FitScaler(x [][]float64, names []string) (*Scaler, error) {
	if len(x) == 0 {
		return nil, errors.New("fit scaler: no rows")
	}
	cols := len(x[0])
	if len(names) != 0 && len(names) != cols {
		return nil, fmt.Errorf("fit scaler: %d names for %d columns", len(names), cols)
	}

	s := &Scaler{
		FeatureNames: names,
		Mean:         make([]float64, cols),
		Scale:        make([]float64, cols),
	}
	col := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i, row := range x {
			if len(row) != cols {
				return nil, fmt.Errorf("fit scaler: row %d has %d columns, want %d", i, len(row), cols)
			}
			col[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return s, nil
}

// Transform returns a standardized copy of features.
func (s *Scaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(features))
	}
	out := make([]float64, len(features))
	for i, v := range features {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}

// TransformAll standardizes every row.
func (s *Scaler) TransformAll(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		t, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

func (s *Scaler) validate() error {
	if len(s.Mean) == 0 {
		return errors.New("scaler has no features")
	}
	if len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("scaler mean/scale length mismatch: %d vs %d", len(s.Mean), len(s.Scale))
	}
	for i, v := range s.Scale {
		if v == 0 {
			return fmt.Errorf("scaler feature %d has zero scale", i)
		}
	}
	return nil
}
