package predict

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/nutriscan-ai/platform/pkg/common/logger"
	"github.com/nutriscan-ai/platform/pkg/common/models"
	"github.com/nutriscan-ai/platform/pkg/inference"
	"github.com/nutriscan-ai/platform/pkg/observability/metrics"
	"github.com/nutriscan-ai/platform/pkg/profile"
)

// ResultCache is the optional read-through cache collaborator.
type ResultCache interface {
	Get(ctx context.Context, fingerprint string) (*models.PredictionResult, bool)
	Put(ctx context.Context, fingerprint string, result *models.PredictionResult)
}

// Recorder persists completed predictions for serving analytics.
type Recorder interface {
	RecordPrediction(ctx context.Context, requestID string, p profile.SubjectProfile, result *models.PredictionResult, latency time.Duration) error
}

// Publisher emits prediction lifecycle events.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// HTTPHandler is the thin boundary over the orchestrator. Cache, recorder,
// and publisher are optional; a nil collaborator disables that concern.
type HTTPHandler struct {
	orch      *Orchestrator
	cache     ResultCache
	recorder  Recorder
	publisher Publisher
	modelDir  string
	maxBody   int64
}

func NewHTTPHandler(orch *Orchestrator, modelDir string, maxBody int64) *HTTPHandler {
	return &HTTPHandler{orch: orch, modelDir: modelDir, maxBody: maxBody}
}

func (h *HTTPHandler) WithCache(cache ResultCache) *HTTPHandler {
	h.cache = cache
	return h
}

func (h *HTTPHandler) WithRecorder(recorder Recorder) *HTTPHandler {
	h.recorder = recorder
	return h
}

func (h *HTTPHandler) WithPublisher(publisher Publisher) *HTTPHandler {
	h.publisher = publisher
	return h
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/metrics", h.handleMetrics).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/predict", h.handlePredict).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/features", h.handleFeatures).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/models", h.handleModels).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/models/reload", h.handleReload).Methods(http.MethodPost)
}

// RequestWrapper is the raw request body shape for /api/v1/predict.
type RequestWrapper struct {
	Age            int     `json:"age"`
	Gender         string  `json:"gender"`
	Race           string  `json:"race"`
	Weight         float64 `json:"weight"`
	Height         float64 `json:"height"`
	Education      string  `json:"education"`
	MaritalStatus  string  `json:"marital_status"`
	CountryOfBirth string  `json:"country_of_birth"`
}

func (r RequestWrapper) ToProfile() profile.SubjectProfile {
	gender := profile.Gender(r.Gender)
	switch gender {
	case profile.GenderMale, profile.GenderFemale:
	default:
		gender = profile.GenderOther
	}
	return profile.SubjectProfile{
		Age:            r.Age,
		Gender:         gender,
		Race:           r.Race,
		Weight:         r.Weight,
		Height:         r.Height,
		Education:      r.Education,
		MaritalStatus:  r.MaritalStatus,
		CountryOfBirth: r.CountryOfBirth,
	}
}

func (h *HTTPHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !h.orch.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "models not loaded")
		return
	}

	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	var req RequestWrapper
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.WithError(err).Warn("invalid prediction payload")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	subject := req.ToProfile()
	ctx := r.Context()

	fingerprint := subject.Fingerprint()
	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, fingerprint); ok {
			metrics.ObserveCache(true)
			writeJSON(w, http.StatusOK, cached)
			return
		}
		metrics.ObserveCache(false)
	}

	result, err := h.orch.Predict(ctx, subject)
	if err != nil {
		if profile.IsInvalidProfile(err) {
			metrics.ObserveInvalidProfile()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if inference.IsSchemaMismatch(err) {
			logger.Log.WithError(err).Error("schema mismatch between vector and bundle")
			metrics.ObservePredictionFailure()
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		logger.Log.WithError(err).Error("prediction failed")
		metrics.ObservePredictionFailure()
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result.RequestID = uuid.New().String()
	latency := time.Since(start)

	failed := 0
	for _, pred := range result.Predictions {
		if pred.Failed() {
			failed++
		}
	}
	metrics.ObservePrediction(latency.Milliseconds(), failed)

	if h.cache != nil {
		h.cache.Put(ctx, fingerprint, result)
	}
	if h.recorder != nil {
		if err := h.recorder.RecordPrediction(ctx, result.RequestID, subject, result, latency); err != nil {
			logger.Log.WithError(err).Warn("failed to record prediction")
		}
	}
	if h.publisher != nil {
		levels := map[string]interface{}{}
		for cond, pred := range result.Predictions {
			if !pred.Failed() {
				levels[string(cond)] = string(pred.RiskLevel)
			}
		}
		if err := h.publisher.PublishEvent(ctx, "prediction.completed", "prediction-service", map[string]interface{}{
			"request_id":     result.RequestID,
			"risk_levels":    levels,
			"wellness_score": result.WellnessScore,
			"latency_ms":     latency.Milliseconds(),
		}); err != nil {
			logger.Log.WithError(err).Warn("failed to publish prediction event")
		}
	}

	logger.Log.WithFields(map[string]interface{}{
		"request_id": result.RequestID,
		"latency_ms": latency.Milliseconds(),
		"failed":     failed,
	}).Info("Prediction completed")

	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	loaded := h.orch.Loaded()
	status := "healthy"
	code := http.StatusOK
	if !loaded {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":        status,
		"models_loaded": loaded,
		"service":       "prediction-service",
		"models":        h.orch.BundleMetadata(),
	})
}

func (h *HTTPHandler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics.WritePrometheus(w)
}

func (h *HTTPHandler) handleFeatures(w http.ResponseWriter, r *http.Request) {
	if !h.orch.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "models not loaded")
		return
	}
	schema := h.orch.FeatureSchema()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"features":       schema,
		"total_features": len(schema),
	})
}

func (h *HTTPHandler) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.BundleMetadata())
}

func (h *HTTPHandler) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.Reload(h.modelDir); err != nil {
		logger.Log.WithError(err).Error("bundle reload failed, previous set kept")
		writeError(w, http.StatusInternalServerError, "reload failed")
		return
	}
	logger.Log.Info("Bundles reloaded")
	writeJSON(w, http.StatusOK, h.orch.BundleMetadata())
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
