package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event types published to the event sink.
const (
	EventSample     = "air_quality_sample"
	EventPrediction = "aqi_prediction"
)

// Event records a completed fetch or prediction for downstream consumers.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Location   string            `json:"location,omitempty"`
	Sample     *AirQualitySample `json:"sample,omitempty"`
	Pollutants *PollutantReading `json:"pollutants,omitempty"`
	Prediction *Prediction       `json:"prediction,omitempty"`
}

// NewSampleEvent wraps a fetched sample.
func NewSampleEvent(location string, s AirQualitySample) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       EventSample,
		OccurredAt: Now(),
		Location:   location,
		Sample:     &s,
	}
}

// NewPredictionEvent wraps a prediction together with the inputs that produced it.
func NewPredictionEvent(in PollutantReading, p Prediction) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       EventPrediction,
		OccurredAt: Now(),
		Pollutants: &in,
		Prediction: &p,
	}
}
