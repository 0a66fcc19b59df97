// Command train fits the feature scaler and AQI model from a city-day CSV
// and writes both artifacts for the server to load.
//
// Usage:
//
//	go run ./cmd/train -data city_day.csv -model best_aqi_model.json -scaler scaler.json
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/couchcryptid/aqi-predictor/internal/config"
	"github.com/couchcryptid/aqi-predictor/internal/observability"
	"github.com/couchcryptid/aqi-predictor/internal/training"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	defaults := training.DefaultOptions()
	dataPath := flag.String("data", "city_day.csv", "path to the training CSV")
	modelPath := flag.String("model", cfg.ModelPath, "output path for the model artifact")
	scalerPath := flag.String("scaler", cfg.ScalerPath, "output path for the scaler artifact")
	testSize := flag.Float64("test-size", defaults.TestSize, "fraction of rows held out for evaluation")
	seed := flag.Uint64("seed", defaults.Seed, "shuffle seed for the train/test split")
	flag.Parse()

	opts := defaults
	opts.TestSize = *testSize
	opts.Seed = *seed

	if err := run(logger, *dataPath, *modelPath, *scalerPath, opts); err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, dataPath, modelPath, scalerPath string, opts training.Options) error {
	f, err := os.Open(dataPath)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	res, err := training.NewTrainer(opts, logger, nil).Run(f)
	if err != nil {
		return err
	}

	logger.Info("model performance",
		"mae", round2(res.Metrics.MAE),
		"rmse", round2(res.Metrics.RMSE),
		"r2", round4(res.Metrics.R2),
	)
	logger.Info("sample prediction",
		"predicted", round2(res.SamplePredicted),
		"actual", round2(res.SampleActual),
		"difference", round2(math.Abs(res.SamplePredicted-res.SampleActual)),
	)

	if err := res.Save(modelPath, scalerPath); err != nil {
		return err
	}
	logger.Info("artifacts saved", "model", modelPath, "scaler", scalerPath)
	return nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }
