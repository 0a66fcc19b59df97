package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/aqi-predictor/internal/domain"
)

// AirQuality looks up live readings for user-supplied locations.
type AirQuality struct {
	fetcher   domain.Fetcher
	publisher EventPublisher
	logger    *slog.Logger
}

// NewAirQuality creates the lookup service. A nil publisher disables event
// publication.
func NewAirQuality(fetcher domain.Fetcher, publisher EventPublisher, logger *slog.Logger) *AirQuality {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &AirQuality{fetcher: fetcher, publisher: publisher, logger: logger}
}

// Fetch trims the location, rejects empty input with ErrValidation, and
// returns the provider's current reading.
func (s *AirQuality) Fetch(ctx context.Context, location string) (domain.AirQualitySample, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return domain.AirQualitySample{}, fmt.Errorf("%w: location is required", domain.ErrValidation)
	}

	sample, err := s.fetcher.Fetch(ctx, location)
	if err != nil {
		return domain.AirQualitySample{}, err
	}

	publish(ctx, s.publisher, domain.NewSampleEvent(location, sample), s.logger)
	return sample, nil
}
