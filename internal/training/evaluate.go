package training

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics summarizes regression quality on a held-out set.
type Metrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// Evaluate compares predictions against actual values.
func Evaluate(predicted, actual []float64) (Metrics, error) {
	if len(predicted) == 0 || len(predicted) != len(actual) {
		return Metrics{}, errors.New("evaluate: predictions and actuals must be non-empty and equal length")
	}
	var absSum, sqSum float64
	for i := range predicted {
		d := predicted[i] - actual[i]
		absSum += math.Abs(d)
		sqSum += d * d
	}
	n := float64(len(actual))
	return Metrics{
		MAE:  absSum / n,
		RMSE: math.Sqrt(sqSum / n),
		R2:   stat.RSquaredFrom(predicted, actual, nil),
	}, nil
}
