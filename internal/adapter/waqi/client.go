package waqi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/aqi-predictor/internal/domain"
	"github.com/couchcryptid/aqi-predictor/internal/observability"
)

// DefaultBaseURL is the public WAQI JSON API.
const DefaultBaseURL = "https://api.waqi.info"

// Client implements domain.Fetcher using the WAQI city feed API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a WAQI feed client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch returns the current reading for a city name, station id ("@1451"),
// or geo query ("geo:28.6;77.2").
func (c *Client) Fetch(ctx context.Context, location string) (domain.AirQualitySample, error) {
	u := fmt.Sprintf("%s/feed/%s/?%s", c.baseURL, url.PathEscape(location), url.Values{"token": {c.token}}.Encode())

	start := time.Now()
	sample, err := c.doRequest(ctx, u)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	c.metrics.FetchRequests.WithLabelValues(outcome(err)).Inc()

	if err != nil {
		c.logger.Warn("waqi fetch failed", "location", location, "error", err)
		return domain.AirQualitySample{}, err
	}
	c.logger.Info("waqi fetch succeeded", "location", location, "city", sample.City)
	return sample, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.AirQualitySample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.AirQualitySample{}, fmt.Errorf("%w: create request: %w", domain.ErrNetwork, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return domain.AirQualitySample{}, fmt.Errorf("%w: %w", domain.ErrTimeout, err)
		}
		return domain.AirQualitySample{}, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var feed response
	if err := dec.Decode(&feed); err != nil {
		if isTimeout(err) {
			return domain.AirQualitySample{}, fmt.Errorf("%w: read body: %w", domain.ErrTimeout, err)
		}
		return domain.AirQualitySample{}, &domain.RemoteDataError{
			Message: fmt.Sprintf("malformed payload (HTTP %d): %v", resp.StatusCode, err),
		}
	}

	if feed.Status != "ok" {
		return domain.AirQualitySample{}, &domain.RemoteDataError{Message: providerMessage(feed.Data)}
	}

	return parseFeed(feed.Data)
}

// parseFeed converts an "ok" data object into a sample. Absent and null
// pollutant readings become zero.
func parseFeed(raw json.RawMessage) (domain.AirQualitySample, error) {
	var data feedData
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return domain.AirQualitySample{}, &domain.RemoteDataError{Message: fmt.Sprintf("malformed payload: %v", err)}
	}
	if data.City == nil || data.City.Name == nil {
		return domain.AirQualitySample{}, &domain.RemoteDataError{Message: "malformed payload: missing city name"}
	}

	values := make(map[string]any, len(data.IAQI))
	for key, v := range data.IAQI {
		values[key] = v.V
	}
	pollutants, err := domain.ParsePollutants(values)
	if err != nil {
		return domain.AirQualitySample{}, &domain.RemoteDataError{Message: fmt.Sprintf("malformed payload: %v", err)}
	}

	return domain.AirQualitySample{
		Pollutants: pollutants,
		CurrentAQI: parseAQI(data.AQI),
		City:       *data.City.Name,
		FetchedAt:  domain.Now(),
	}, nil
}

// parseAQI reads the station's overall index. Stations without one report
// "-" or omit the field.
func parseAQI(v any) *int {
	var f float64
	switch x := v.(type) {
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return nil
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		f = n
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	aqi := int(f)
	return &aqi
}

// providerMessage extracts the error text WAQI puts in "data" on failure,
// e.g. {"status":"error","data":"Unknown station"}.
func providerMessage(raw json.RawMessage) string {
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil && msg != "" {
		return msg
	}
	return "Location not found or API error"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrNetwork):
		return "network"
	default:
		return "remote"
	}
}

// WAQI API response types.

type response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type feedData struct {
	AQI  any                    `json:"aqi"`
	IAQI map[string]iaqiReading `json:"iaqi"`
	City *city                  `json:"city"`
}

type iaqiReading struct {
	V any `json:"v"`
}

type city struct {
	Name *string `json:"name"`
}
