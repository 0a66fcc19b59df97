package training

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/aqi-predictor/internal/model"
	"github.com/jonboulle/clockwork"
)

// Options control a training run.
type Options struct {
	TestSize float64
	Seed     uint64
	Params   model.Params
}

// DefaultOptions returns an 80/20 split with the production hyperparameters.
func DefaultOptions() Options {
	return Options{
		TestSize: 0.2,
		Seed:     42,
		Params:   model.DefaultParams(),
	}
}

// Result is everything a training run produces.
type Result struct {
	Scaler   *model.Scaler
	Model    *model.Ensemble
	Metrics  Metrics
	Stats    LoadStats
	TrainLen int
	TestLen  int

	// First held-out row, for a quick sanity check of the persisted pair.
	SamplePredicted float64
	SampleActual    float64
}

// Trainer runs the load, split, scale, fit, evaluate pipeline.
type Trainer struct {
	opts   Options
	logger *slog.Logger
	clock  clockwork.Clock
}

// NewTrainer creates a Trainer. A nil clock uses real time.
func NewTrainer(opts Options, logger *slog.Logger, clock clockwork.Clock) *Trainer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Trainer{opts: opts, logger: logger, clock: clock}
}

// Run trains a scaler and model from CSV data.
func (t *Trainer) Run(r io.Reader) (*Result, error) {
	t.logger.Info("loading dataset")
	ds, stats, err := LoadDataset(r)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	t.logger.Info("dataset loaded",
		"rows", stats.Rows,
		"dropped_no_aqi", stats.DroppedNoAQI,
		"filled_missing", stats.FilledMissing,
		"features", len(FeatureColumns),
	)

	train, test, err := Split(ds, t.opts.TestSize, t.opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}

	t.logger.Info("scaling features", "train_rows", train.Len(), "test_rows", test.Len())
	scaler, err := model.FitScaler(train.X, FeatureColumns)
	if err != nil {
		return nil, err
	}
	trainX, err := scaler.TransformAll(train.X)
	if err != nil {
		return nil, fmt.Errorf("scale train split: %w", err)
	}
	testX, err := scaler.TransformAll(test.X)
	if err != nil {
		return nil, fmt.Errorf("scale test split: %w", err)
	}

	p := t.opts.Params
	t.logger.Info("training model",
		"learning_rate", p.LearningRate,
		"max_depth", p.MaxDepth,
		"n_estimators", p.NEstimators,
	)
	start := t.clock.Now()
	ensemble, err := model.FitEnsemble(trainX, train.Y, FeatureColumns, p)
	if err != nil {
		return nil, err
	}
	t.logger.Info("model trained", "duration", t.clock.Since(start).Round(time.Millisecond))

	predicted := make([]float64, len(testX))
	for i, row := range testX {
		v, err := ensemble.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("evaluate row %d: %w", i, err)
		}
		predicted[i] = v
	}
	metrics, err := Evaluate(predicted, test.Y)
	if err != nil {
		return nil, err
	}

	return &Result{
		Scaler:          scaler,
		Model:           ensemble,
		Metrics:         metrics,
		Stats:           stats,
		TrainLen:        train.Len(),
		TestLen:         test.Len(),
		SamplePredicted: predicted[0],
		SampleActual:    test.Y[0],
	}, nil
}

// Save persists the scaler and model artifacts.
func (r *Result) Save(modelPath, scalerPath string) error {
	if err := model.SaveEnsemble(modelPath, r.Model); err != nil {
		return err
	}
	return model.SaveScaler(scalerPath, r.Scaler)
}
