package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/aqi-predictor/internal/domain"
	"github.com/couchcryptid/aqi-predictor/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

const modelNotLoadedMessage = "Model not loaded. Please ensure best_aqi_model.json and scaler.json are present."

//go:embed static/index.html
var indexHTML []byte

// AirQualityService looks up live readings for a location.
type AirQualityService interface {
	Fetch(ctx context.Context, location string) (domain.AirQualitySample, error)
}

// PredictionService runs AQI inference and reports artifact state.
type PredictionService interface {
	sharedobs.ReadinessChecker
	Predict(ctx context.Context, raw map[string]any) (domain.Prediction, error)
	ModelLoaded() bool
	ScalerLoaded() bool
}

// Server exposes the application routes plus health, readiness, and metrics.
type Server struct {
	httpServer    *http.Server
	airQuality    AirQualityService
	predictor     PredictionService
	apiConfigured bool
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewServer creates an HTTP server with the page, API, /health, /healthz,
// /readyz, and /metrics routes.
func NewServer(addr string, airQuality AirQualityService, predictor PredictionService, apiConfigured bool, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		airQuality:    airQuality,
		predictor:     predictor,
		apiConfigured: apiConfigured,
		metrics:       metrics,
		logger:        logger,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.instrument(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /get_air_quality", s.handleAirQuality)
	mux.HandleFunc("POST /predict_aqi", s.handlePredict)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(predictor))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(indexHTML) //nolint:errcheck // client may have gone away
}

type airQualityRequest struct {
	Location string `json:"location"`
}

func (s *Server) handleAirQuality(w http.ResponseWriter, r *http.Request) {
	var req airQualityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Location) == "" {
		writeError(w, http.StatusBadRequest, "Location is required")
		return
	}

	sample, err := s.airQuality.Fetch(r.Context(), req.Location)
	if err != nil {
		status, msg := fetchErrorResponse(err)
		s.requestLogger(r).Warn("air quality lookup failed", "location", req.Location, "error", err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

// fetchErrorResponse maps fetch failures to the messages shown to the user.
func fetchErrorResponse(err error) (int, string) {
	var remote *domain.RemoteDataError
	switch {
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusBadRequest, "Request timeout. Please try again."
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusBadRequest, "Network error: " + detail(err, domain.ErrNetwork)
	case errors.As(err, &remote):
		return http.StatusBadRequest, "Error: " + remote.Message
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "Location is required"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

type predictRequest struct {
	Pollutants map[string]any `json:"pollutants"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if err := s.predictor.CheckReadiness(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, modelNotLoadedMessage)
		return
	}

	var req predictRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusInternalServerError, "Prediction error: "+err.Error())
		return
	}

	pred, err := s.predictor.Predict(r.Context(), req.Pollutants)
	if err != nil {
		if errors.Is(err, domain.ErrModelUnavailable) {
			writeError(w, http.StatusInternalServerError, modelNotLoadedMessage)
			return
		}
		s.requestLogger(r).Error("prediction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Prediction error: "+detail(err, domain.ErrPrediction))
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

type healthResponse struct {
	Status        string `json:"status"`
	ModelLoaded   bool   `json:"model_loaded"`
	ScalerLoaded  bool   `json:"scaler_loaded"`
	APIConfigured bool   `json:"api_configured"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "healthy",
		ModelLoaded:   s.predictor.ModelLoaded(),
		ScalerLoaded:  s.predictor.ScalerLoaded(),
		APIConfigured: s.apiConfigured,
	})
}

// decodeJSON reads a single JSON object, keeping numbers as json.Number.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	return dec.Decode(v)
}

// detail strips the sentinel prefix from a wrapped error message.
func detail(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
