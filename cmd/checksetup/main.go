// Command checksetup verifies that the service is ready to run: artifacts are
// present and loadable, inference works end to end, and the WAQI token is
// configured. With -online it also performs a live lookup.
//
// Usage:
//
//	go run ./cmd/checksetup
//	go run ./cmd/checksetup -online -location delhi
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/aqi-predictor/internal/adapter/waqi"
	"github.com/couchcryptid/aqi-predictor/internal/config"
	"github.com/couchcryptid/aqi-predictor/internal/domain"
	"github.com/couchcryptid/aqi-predictor/internal/model"
	"github.com/couchcryptid/aqi-predictor/internal/observability"
	"github.com/couchcryptid/aqi-predictor/internal/service"
)

// phase tracks pass/fail for a check phase. Non-critical phases only warn.
type phase struct {
	name     string
	critical bool
	skipped  bool
	errors   []string
	notes    []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	online := flag.Bool("online", false, "perform a live WAQI lookup")
	location := flag.String("location", "delhi", "location used by the live lookup")
	dataPath := flag.String("data", "city_day.csv", "training CSV (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	if code := run(os.Stdout, cfg, *dataPath, *online, *location); code != 0 {
		os.Exit(code)
	}
}

func run(out io.Writer, cfg *config.Config, dataPath string, online bool, location string) int {
	fmt.Fprintln(out, "=== AQI Predictor Setup Check ===")
	fmt.Fprintln(out)

	files := checkFiles(cfg, dataPath)
	load, scaler, ensemble := checkArtifacts(cfg)
	phases := []*phase{
		files,
		load,
		checkInference(scaler, ensemble),
		checkToken(cfg),
		checkLive(cfg, online, location),
	}

	fmt.Fprintln(out)
	criticalFailed := false
	for _, p := range phases {
		var status string
		switch {
		case p.skipped:
			status = "\033[33mSKIP\033[0m"
		case p.passed():
			status = "\033[32mPASS\033[0m"
		case p.critical:
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			criticalFailed = true
		default:
			status = "\033[33mWARN\033[0m"
		}
		fmt.Fprintf(out, "  %-32s %s\n", p.name, status)
		for _, n := range p.notes {
			fmt.Fprintf(out, "      %s\n", n)
		}
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if criticalFailed {
		fmt.Fprintln(out, "\nSetup check FAILED.")
		if !load.passed() {
			fmt.Fprintln(out, "Train new artifacts with: go run ./cmd/train -data city_day.csv")
		}
		return 1
	}
	fmt.Fprintln(out, "\nAll critical checks passed. Start the server with: go run ./cmd/server")
	return 0
}

func checkFiles(cfg *config.Config, dataPath string) *phase {
	p := &phase{name: "Artifact files", critical: true}
	for _, path := range []string{cfg.ModelPath, cfg.ScalerPath} {
		if _, err := os.Stat(path); err != nil {
			p.errorf("%s: %v", path, err)
		}
	}
	if _, err := os.Stat(dataPath); err != nil {
		// The dataset is only needed for retraining.
		p.notef("training data %s not found", dataPath)
	}
	return p
}

func checkArtifacts(cfg *config.Config) (*phase, *model.Scaler, *model.Ensemble) {
	p := &phase{name: "Artifact loading", critical: true}
	scaler, err := model.LoadScaler(cfg.ScalerPath)
	if err != nil {
		p.errorf("scaler: %v", err)
	}
	ensemble, err := model.LoadEnsemble(cfg.ModelPath)
	if err != nil {
		p.errorf("model: %v", err)
	}
	if scaler != nil && ensemble != nil && len(scaler.Mean) != ensemble.NumFeatures {
		p.errorf("scaler has %d features but model expects %d", len(scaler.Mean), ensemble.NumFeatures)
	}
	return p, scaler, ensemble
}

// checkInference predicts a known reading through the same service the
// server uses.
func checkInference(scaler *model.Scaler, ensemble *model.Ensemble) *phase {
	p := &phase{name: "Inference smoke test", critical: true}
	if scaler == nil || ensemble == nil {
		p.skipped = true
		return p
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	predictor := service.NewPredictor(scaler, ensemble, nil, observability.NewMetricsForTesting(), logger)
	pred, err := predictor.Predict(context.Background(), map[string]any{"pm25": 120, "pm10": 150})
	if err != nil {
		p.errorf("predict: %v", err)
		return p
	}
	if domain.Classify(pred.PredictedAQI).Color != pred.Color {
		p.errorf("category %q does not match predicted AQI %.2f", pred.Category, pred.PredictedAQI)
	}
	p.notef("pm25=120 pm10=150 predicts AQI %.2f (%s)", pred.PredictedAQI, pred.Category)
	return p
}

func checkToken(cfg *config.Config) *phase {
	p := &phase{name: "WAQI token"}
	if !cfg.APIConfigured() {
		p.errorf("WAQI_TOKEN is not set; get one from https://aqicn.org/data-platform/token/")
	}
	return p
}

func checkLive(cfg *config.Config, online bool, location string) *phase {
	p := &phase{name: "Live WAQI lookup", critical: true}
	if !online {
		p.skipped = true
		return p
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := waqi.NewClient(cfg.WAQIBaseURL, cfg.WAQIToken, cfg.WAQITimeout, observability.NewMetricsForTesting(), logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.WAQITimeout+5*time.Second)
	defer cancel()
	sample, err := client.Fetch(ctx, location)
	if err != nil {
		p.errorf("fetch %q: %v", location, err)
		return p
	}
	p.notef("%s reports AQI %s", sample.City, formatAQI(sample.CurrentAQI))
	return p
}

func formatAQI(v *int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprint(*v)
}
