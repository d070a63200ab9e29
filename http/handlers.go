package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"heartapi/db"
	"heartapi/ml"
	"heartapi/monitoring"
	"heartapi/schema"
)

const (
	apiMessage         = "Heart Disease Prediction API"
	statusLoaded       = "Model loaded successfully"
	statusNotLoaded    = "Model not loaded"
	detailNotTrained   = "Model not loaded. Please ensure the model was trained."
	detailNotLoaded    = "Model not loaded"
	detailInternal     = "internal server error"
	detailTooLarge     = "request body too large"
	detailNotFound     = "Not Found"
	maxPredictionsPage = 1000
)

// routes lists the registered paths; anything else is reported as
// "unmatched" in request metrics.
var routes = map[string]bool{
	"/":              true,
	"/predict":       true,
	"/batch-predict": true,
	"/model-info":    true,
	"/metrics":       true,
	"/predictions":   true,
}

func routeLabel(path string) string {
	if routes[path] {
		return path
	}
	return "unmatched"
}

// AuditRecorder persists served predictions.
type AuditRecorder interface {
	SavePredictions(ctx context.Context, entries []db.PredictionEntry) error
	Recent(ctx context.Context, limit int) ([]db.PredictionEntry, error)
}

// Handlers serves the prediction API. A nil predictor is a valid, unloaded
// model state.
type Handlers struct {
	predictor *ml.Predictor
	audit     AuditRecorder
	metrics   *monitoring.MetricsCollector
	logger    *zap.Logger
}

// HandlerOption configures Handlers.
type HandlerOption func(*Handlers)

// WithAudit records every served prediction.
func WithAudit(audit AuditRecorder) HandlerOption {
	return func(h *Handlers) { h.audit = audit }
}

// WithMetrics enables request and prediction metrics.
func WithMetrics(metrics *monitoring.MetricsCollector) HandlerOption {
	return func(h *Handlers) { h.metrics = metrics }
}

func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handlers) { h.logger = logger }
}

// NewHandlers builds the API handlers around predictor, which may be nil.
func NewHandlers(predictor *ml.Predictor, opts ...HandlerOption) *Handlers {
	h := &Handlers{predictor: predictor, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	loaded := 0.0
	if predictor.Loaded() {
		loaded = 1
	}
	h.metrics.SetGauge(monitoring.MetricModelLoaded, loaded, nil)
	return h
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("POST /predict", h.handlePredict)
	mux.HandleFunc("POST /batch-predict", h.handleBatchPredict)
	mux.HandleFunc("GET /model-info", h.handleModelInfo)
	mux.HandleFunc("GET /metrics", h.handleMetrics)
	mux.HandleFunc("GET /predictions", h.handlePredictions)
}

type rootResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type batchResponse struct {
	Predictions []ml.Prediction `json:"predictions"`
	Count       int             `json:"count"`
}

func (h *Handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	status := statusNotLoaded
	if h.predictor.Loaded() {
		status = statusLoaded
	}
	respondJSON(w, http.StatusOK, rootResponse{Message: apiMessage, Status: status})
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	rec, err := schema.DecodePatient(body)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !h.predictor.Loaded() {
		h.respondError(w, r, ml.ErrModelUnavailable)
		return
	}

	pred, err := h.predictor.Predict(rec)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.record(r.Context(), []schema.PatientRecord{rec}, []ml.Prediction{pred})
	respondJSON(w, http.StatusOK, pred)
}

func (h *Handlers) handleBatchPredict(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	records, err := schema.DecodeBatch(body)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !h.predictor.Loaded() {
		h.respondError(w, r, ml.ErrModelUnavailable)
		return
	}

	preds, err := h.predictor.PredictBatch(records)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.record(r.Context(), records, preds)
	respondJSON(w, http.StatusOK, batchResponse{Predictions: preds, Count: len(preds)})
}

func (h *Handlers) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.predictor.Info()
	if errors.Is(err, ml.ErrModelUnavailable) {
		respondDetail(w, http.StatusInternalServerError, detailNotLoaded)
		return
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (h *Handlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		respondDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	respondJSON(w, http.StatusOK, h.metrics.Snapshot())
}

func (h *Handlers) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		respondDetail(w, http.StatusNotFound, detailNotFound)
		return
	}

	limit := db.DefaultRecentLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxPredictionsPage {
			respondDetail(w, http.StatusUnprocessableEntity, []schema.FieldError{{
				Loc:  []any{"query", "limit"},
				Msg:  "limit must be an integer between 1 and " + strconv.Itoa(maxPredictionsPage),
				Type: schema.ErrTypeInteger,
			}})
			return
		}
		limit = n
	}

	entries, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"predictions": entries,
		"count":       len(entries),
	})
}

func (h *Handlers) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err == nil {
		return body, true
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		respondDetail(w, http.StatusRequestEntityTooLarge, detailTooLarge)
		return nil, false
	}
	h.logger.Warn("failed to read request body",
		zap.String("request_id", GetRequestID(r.Context())),
		zap.Error(err),
	)
	respondDetail(w, http.StatusBadRequest, "failed to read request body")
	return nil, false
}

// record stores served predictions in the audit log. Failures are logged and
// never affect the response.
func (h *Handlers) record(ctx context.Context, records []schema.PatientRecord, preds []ml.Prediction) {
	for _, p := range preds {
		h.metrics.IncrCounter(monitoring.MetricPredictions, 1, map[string]string{"label": strconv.Itoa(p.Label)})
	}
	if h.audit == nil || len(preds) == 0 {
		return
	}

	requestID := GetRequestID(ctx)
	entries := make([]db.PredictionEntry, 0, len(preds))
	for i, p := range preds {
		vec, err := h.predictor.Vector(records[i])
		if err != nil {
			return
		}
		entries = append(entries, db.PredictionEntry{
			RequestID:   requestID,
			BatchIndex:  i,
			Features:    vec,
			Prediction:  p.Label,
			Probability: p.Probability,
			Label:       p.DisplayLabel,
		})
	}
	if err := h.audit.SavePredictions(ctx, entries); err != nil {
		h.logger.Error("failed to record predictions",
			zap.String("request_id", requestID),
			zap.Int("count", len(entries)),
			zap.Error(err),
		)
	}
}

// respondError maps an error to its HTTP response. Validation errors belong
// to the client; everything else is a server fault.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr  *schema.ValidationError
		drift *ml.DriftError
	)
	requestID := GetRequestID(r.Context())

	switch {
	case errors.As(err, &verr):
		respondDetail(w, http.StatusUnprocessableEntity, verr.Errors)
	case errors.Is(err, ml.ErrModelUnavailable):
		h.metrics.IncrCounter(monitoring.MetricPredictionErrors, 1, map[string]string{"reason": "model_unavailable"})
		h.logger.Warn("prediction requested without a loaded model",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
		)
		respondDetail(w, http.StatusInternalServerError, detailNotTrained)
	case errors.As(err, &drift):
		h.metrics.IncrCounter(monitoring.MetricPredictionErrors, 1, map[string]string{"reason": "drift"})
		h.logger.Error("model artifacts do not match the patient schema",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		respondDetail(w, http.StatusInternalServerError, detailInternal)
	default:
		h.metrics.IncrCounter(monitoring.MetricPredictionErrors, 1, map[string]string{"reason": "internal"})
		h.logger.Error("request failed",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondDetail(w, http.StatusInternalServerError, detailInternal)
	}
}

func respondDetail(w http.ResponseWriter, status int, detail any) {
	respondJSON(w, status, map[string]any{"detail": detail})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
