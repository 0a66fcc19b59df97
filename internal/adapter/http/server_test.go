package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/aqi-predictor/internal/adapter/http"
	"github.com/couchcryptid/aqi-predictor/internal/domain"
	"github.com/couchcryptid/aqi-predictor/internal/model"
	"github.com/couchcryptid/aqi-predictor/internal/observability"
	"github.com/couchcryptid/aqi-predictor/internal/service"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAirQuality struct {
	sample   domain.AirQualitySample
	err      error
	location string
}

func (m *mockAirQuality) Fetch(_ context.Context, location string) (domain.AirQualitySample, error) {
	m.location = location
	return m.sample, m.err
}

type mockPredictor struct {
	pred   domain.Prediction
	err    error
	loaded bool
	raw    map[string]any
}

func (m *mockPredictor) CheckReadiness(_ context.Context) error {
	if !m.loaded {
		return domain.ErrModelUnavailable
	}
	return nil
}

func (m *mockPredictor) Predict(_ context.Context, raw map[string]any) (domain.Prediction, error) {
	m.raw = raw
	return m.pred, m.err
}

func (m *mockPredictor) ModelLoaded() bool  { return m.loaded }
func (m *mockPredictor) ScalerLoaded() bool { return m.loaded }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(aq httpadapter.AirQualityService, p httpadapter.PredictionService) (*httpadapter.Server, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return httpadapter.NewServer(":0", aq, p, true, m, discardLogger()), m
}

func do(srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestIndexServesPage(t *testing.T) {
	srv, _ := newTestServer(&mockAirQuality{}, &mockPredictor{})
	rec := do(srv, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "AQI Predictor")
}

func TestUnknownPathReturns404(t *testing.T) {
	srv, _ := newTestServer(&mockAirQuality{}, &mockPredictor{})
	rec := do(srv, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAirQuality(t *testing.T) {
	aqi := 154
	aq := &mockAirQuality{sample: domain.AirQualitySample{
		Pollutants: domain.PollutantReading{PM25: 154, PM10: 80},
		CurrentAQI: &aqi,
		City:       "Delhi",
	}}
	srv, _ := newTestServer(aq, &mockPredictor{})

	rec := do(srv, http.MethodPost, "/get_air_quality", `{"location":"delhi"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "delhi", aq.location)
	body := decodeBody(t, rec)
	assert.Equal(t, "Delhi", body["city"])
	assert.InDelta(t, 154.0, body["current_aqi"], 0)
	pollutants, ok := body["pollutants"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, pollutants, 12)
	assert.InDelta(t, 80.0, pollutants["pm10"], 0)
}

func TestGetAirQuality_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		status  int
		message string
	}{
		{name: "empty location", body: `{"location":"   "}`, status: http.StatusBadRequest, message: "Location is required"},
		{name: "missing location", body: `{}`, status: http.StatusBadRequest, message: "Location is required"},
		{name: "timeout", body: `{"location":"x"}`, err: domain.ErrTimeout, status: http.StatusBadRequest, message: "Request timeout. Please try again."},
		{name: "network", body: `{"location":"x"}`, err: errors.Join(domain.ErrNetwork, errors.New("connection refused")), status: http.StatusBadRequest},
		{name: "provider", body: `{"location":"atlantis"}`, err: &domain.RemoteDataError{Message: "Unknown station"}, status: http.StatusBadRequest, message: "Error: Unknown station"},
		{name: "undecodable body", body: `{"location":`, status: http.StatusBadRequest},
		{name: "unexpected", body: `{"location":"x"}`, err: errors.New("boom"), status: http.StatusInternalServerError, message: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(&mockAirQuality{err: tt.err}, &mockPredictor{})
			rec := do(srv, http.MethodPost, "/get_air_quality", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			require.Contains(t, body, "error")
			if tt.message != "" {
				assert.Equal(t, tt.message, body["error"])
			}
		})
	}
}

func TestGetAirQuality_NetworkMessage(t *testing.T) {
	err := &wrapped{msg: "network error: dial tcp: connection refused", target: domain.ErrNetwork}
	srv, _ := newTestServer(&mockAirQuality{err: err}, &mockPredictor{})

	rec := do(srv, http.MethodPost, "/get_air_quality", `{"location":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Network error: dial tcp: connection refused", decodeBody(t, rec)["error"])
}

type wrapped struct {
	msg    string
	target error
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.target }

func TestPredictAQI(t *testing.T) {
	p := &mockPredictor{loaded: true, pred: domain.Prediction{PredictedAQI: 171.3, Category: "Unhealthy", Color: "#FF0000"}}
	srv, _ := newTestServer(&mockAirQuality{}, p)

	rec := do(srv, http.MethodPost, "/predict_aqi", `{"pollutants":{"pm25":120,"pm10":"150"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"predicted_aqi":171.3,"category":"Unhealthy","color":"#FF0000"}`, rec.Body.String())
	assert.Equal(t, json.Number("120"), p.raw["pm25"])
	assert.Equal(t, "150", p.raw["pm10"])
}

func TestPredictAQI_ModelNotLoaded(t *testing.T) {
	srv, _ := newTestServer(&mockAirQuality{}, &mockPredictor{loaded: false})

	rec := do(srv, http.MethodPost, "/predict_aqi", `{"pollutants":{"pm25":120}}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	msg, _ := decodeBody(t, rec)["error"].(string)
	assert.True(t, strings.HasPrefix(msg, "Model not loaded."), msg)
	assert.NotContains(t, rec.Body.String(), "goroutine")
}

func TestPredictAQI_PredictionError(t *testing.T) {
	p := &mockPredictor{loaded: true, err: errors.Join(domain.ErrPrediction, errors.New("bad feature"))}
	srv, _ := newTestServer(&mockAirQuality{}, p)

	rec := do(srv, http.MethodPost, "/predict_aqi", `{"pollutants":{"co":"heavy"}}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	msg, _ := decodeBody(t, rec)["error"].(string)
	assert.True(t, strings.HasPrefix(msg, "Prediction error: "), msg)
}

func TestPredictAQI_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(&mockAirQuality{}, &mockPredictor{loaded: true})

	rec := do(srv, http.MethodPost, "/predict_aqi", `{"pollutants":[1,2]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	msg, _ := decodeBody(t, rec)["error"].(string)
	assert.True(t, strings.HasPrefix(msg, "Prediction error: "), msg)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(&mockAirQuality{}, &mockPredictor{loaded: false})
	rec := do(srv, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","model_loaded":false,"scaler_loaded":false,"api_configured":true}`, rec.Body.String())
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(&mockAirQuality{}, &mockPredictor{})
	rec := do(srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	srv, _ := newTestServer(&mockAirQuality{}, &mockPredictor{loaded: true})
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/readyz", "").Code)

	srv, _ = newTestServer(&mockAirQuality{}, &mockPredictor{loaded: false})
	assert.Equal(t, http.StatusServiceUnavailable, do(srv, http.MethodGet, "/readyz", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(&mockAirQuality{}, &mockPredictor{})
	rec := do(srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMiddleware_RequestIDAndMetrics(t *testing.T) {
	srv, m := newTestServer(&mockAirQuality{}, &mockPredictor{})

	rec := do(srv, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	do(srv, http.MethodPost, "/get_air_quality", `{}`)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET /health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST /get_air_quality", "400")))
}

// End to end through the real predictor with artifacts fitted on a small
// synthetic dataset.
func TestPredictAQI_EndToEnd(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := range 60 {
		row := make([]float64, domain.FeatureCount)
		row[0] = float64(i * 5)
		row[1] = float64(i * 6)
		x = append(x, row)
		y = append(y, 0.8*row[0]+0.3*row[1])
	}
	scaler, err := model.FitScaler(x, nil)
	require.NoError(t, err)
	scaled, err := scaler.TransformAll(x)
	require.NoError(t, err)
	ens, err := model.FitEnsemble(scaled, y, nil, model.DefaultParams())
	require.NoError(t, err)

	m := observability.NewMetricsForTesting()
	predictor := service.NewPredictor(scaler, ens, nil, m, discardLogger())
	srv := httpadapter.NewServer(":0", &mockAirQuality{}, predictor, false, m, discardLogger())

	rec := do(srv, http.MethodPost, "/predict_aqi", `{"pollutants":{"pm25":120,"pm10":150}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var pred domain.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pred))
	assert.Greater(t, pred.PredictedAQI, 0.0)

	var match *domain.Category
	for _, c := range domain.Categories() {
		if c.Label == pred.Category {
			match = &c
		}
	}
	require.NotNil(t, match, "category %q is not a known label", pred.Category)
	assert.Equal(t, match.Color, pred.Color)
	assert.Equal(t, domain.Classify(pred.PredictedAQI), *match)
}
