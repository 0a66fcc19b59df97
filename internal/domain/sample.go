package domain

import (
	"context"
	"time"
)

// AirQualitySample is a live reading for one location.
type AirQualitySample struct {
	Pollutants PollutantReading `json:"pollutants"`
	CurrentAQI *int             `json:"current_aqi"` // nil when the station reports no overall index
	City       string           `json:"city"`
	FetchedAt  time.Time        `json:"fetched_at"`
}

// Prediction is the model output for one feature vector.
type Prediction struct {
	PredictedAQI float64 `json:"predicted_aqi"`
	Category     string  `json:"category"`
	Color        string  `json:"color"`
}

// Fetcher retrieves live air-quality readings for a free-text location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (AirQualitySample, error)
}

// Scaler standardizes a feature vector before inference.
type Scaler interface {
	Transform(features []float64) ([]float64, error)
}

// Regressor maps a scaled feature vector to an AQI estimate.
type Regressor interface {
	Predict(features []float64) (float64, error)
}
