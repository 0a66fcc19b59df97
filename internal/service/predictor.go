package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/aqi-predictor/internal/domain"
	"github.com/couchcryptid/aqi-predictor/internal/observability"
)

// Predictor runs AQI inference against artifacts loaded once at startup.
// Either artifact may be absent; Predict then fails with ErrModelUnavailable.
type Predictor struct {
	scaler    domain.Scaler
	model     domain.Regressor
	publisher EventPublisher
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewPredictor creates a Predictor. Pass nil for an artifact that failed to
// load. A nil publisher disables event publication.
func NewPredictor(scaler domain.Scaler, model domain.Regressor, publisher EventPublisher, metrics *observability.Metrics, logger *slog.Logger) *Predictor {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	p := &Predictor{
		scaler:    scaler,
		model:     model,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
	metrics.ArtifactsLoaded.WithLabelValues("model").Set(boolGauge(p.ModelLoaded()))
	metrics.ArtifactsLoaded.WithLabelValues("scaler").Set(boolGauge(p.ScalerLoaded()))
	return p
}

// ModelLoaded reports whether the regression model is available.
func (p *Predictor) ModelLoaded() bool { return p.model != nil }

// ScalerLoaded reports whether the feature scaler is available.
func (p *Predictor) ScalerLoaded() bool { return p.scaler != nil }

// CheckReadiness returns nil once both artifacts are loaded.
func (p *Predictor) CheckReadiness(_ context.Context) error {
	if !p.ModelLoaded() || !p.ScalerLoaded() {
		return domain.ErrModelUnavailable
	}
	return nil
}

// Predict builds the feature vector from raw pollutant values, runs
// inference, rounds to two decimals and classifies the rounded value.
func (p *Predictor) Predict(ctx context.Context, raw map[string]any) (domain.Prediction, error) {
	if err := p.CheckReadiness(ctx); err != nil {
		p.metrics.PredictionErrors.WithLabelValues("unavailable").Inc()
		return domain.Prediction{}, err
	}

	reading, err := domain.ParsePollutants(raw)
	if err != nil {
		p.metrics.PredictionErrors.WithLabelValues("invalid").Inc()
		return domain.Prediction{}, fmt.Errorf("%w: %w", domain.ErrPrediction, err)
	}

	value, err := p.infer(reading.Features())
	if err != nil {
		p.metrics.PredictionErrors.WithLabelValues("internal").Inc()
		return domain.Prediction{}, err
	}

	rounded := math.Round(value*100) / 100
	category := domain.Classify(rounded)
	pred := domain.Prediction{
		PredictedAQI: rounded,
		Category:     category.Label,
		Color:        category.Color,
	}
	p.metrics.Predictions.WithLabelValues(category.Label).Inc()
	p.logger.Debug("prediction served", "features", reading.Features(), "predicted_aqi", rounded, "category", category.Label)

	publish(ctx, p.publisher, domain.NewPredictionEvent(reading, pred), p.logger)
	return pred, nil
}

// infer scales and predicts. Panics from a malformed artifact are converted
// to ErrPrediction so they never reach the HTTP layer.
func (p *Predictor) infer(features []float64) (value float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: inference panic: %v", domain.ErrPrediction, r)
		}
	}()

	scaled, err := p.scaler.Transform(features)
	if err != nil {
		return 0, fmt.Errorf("%w: scale features: %w", domain.ErrPrediction, err)
	}
	value, err = p.model.Predict(scaled)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrPrediction, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: model returned %v", domain.ErrPrediction, value)
	}
	return value, nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
