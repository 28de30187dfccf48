// Package httptransport is the thin HTTP layer over the pipeline services.
// Handlers decode, delegate, and encode; policy lives in the services.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	conformalmodels "modelguard/internal/conformal/models"
	deploymodels "modelguard/internal/deploy/models"
	driftmodels "modelguard/internal/drift/models"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
	"modelguard/pkg/platform/httputil"
)

// Predictor serves interval-carrying predictions.
type Predictor interface {
	PredictWithInterval(ctx context.Context, pointPrediction float64, modelID domain.ModelID, level conformalmodels.CoverageLevel) (*conformalmodels.ConformalInterval, error)
	IsNarrow(interval *conformalmodels.ConformalInterval) bool
}

// DriftReader exposes the latest detection outcome per model.
type DriftReader interface {
	Latest(modelID domain.ModelID) []*driftmodels.DriftReport
}

// Deployer validates and activates trained candidates.
type Deployer interface {
	ValidateAndActivate(ctx context.Context, candidate *deploymodels.CandidateModel) (deploymodels.ValidationResult, error)
}

// Handler wires pipeline endpoints to their services.
type Handler struct {
	predictor Predictor
	drift     DriftReader
	deployer  Deployer
	logger    *slog.Logger
}

// New constructs the handler with its dependencies.
func New(predictor Predictor, drift DriftReader, deployer Deployer, logger *slog.Logger) *Handler {
	return &Handler{
		predictor: predictor,
		drift:     drift,
		deployer:  deployer,
		logger:    logger,
	}
}

// Register mounts the pipeline endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/predict-interval", h.HandlePredictInterval)
	r.Get("/v1/drift/{modelID}", h.HandleDriftStatus)
	r.Post("/v1/candidates", h.HandleCandidate)
}

// PredictIntervalRequest is the wire form of an interval request.
type PredictIntervalRequest struct {
	ModelID       string  `json:"model_id"`
	PointEstimate float64 `json:"point_estimate"`
	// CoverageLevel is optional; zero selects the configured default.
	CoverageLevel int `json:"coverage_level,omitempty"`
}

// PredictIntervalResponse carries the point estimate and, when calibration
// data exists, its interval. A missing interval is not an error: the caller
// falls back to the point estimate alone.
type PredictIntervalResponse struct {
	ModelID       string                             `json:"model_id"`
	PointEstimate float64                            `json:"point_estimate"`
	Interval      *conformalmodels.ConformalInterval `json:"interval,omitempty"`
	Narrow        bool                               `json:"narrow"`
}

// HandlePredictInterval handles POST /v1/predict-interval.
func (h *Handler) HandlePredictInterval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[PredictIntervalRequest](w, r, h.logger)
	if !ok {
		return
	}
	modelID, err := domain.ParseModelID(req.ModelID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.PointEstimate < 0 || req.PointEstimate > 1 {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeValidation,
			"point estimate must be in [0, 1], got %v", req.PointEstimate))
		return
	}
	level := conformalmodels.CoverageLevel(req.CoverageLevel)
	if req.CoverageLevel != 0 {
		if err := level.Validate(); err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "unsupported coverage level"))
			return
		}
	}

	interval, err := h.predictor.PredictWithInterval(ctx, req.PointEstimate, modelID, level)
	if err != nil {
		h.logger.ErrorContext(ctx, "interval computation failed",
			"model_id", modelID.Key(), "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, PredictIntervalResponse{
		ModelID:       modelID.Key(),
		PointEstimate: req.PointEstimate,
		Interval:      interval,
		Narrow:        h.predictor.IsNarrow(interval),
	})
}

// DriftStatusResponse carries the latest detection pass for a model.
type DriftStatusResponse struct {
	ModelID string                     `json:"model_id"`
	Reports []*driftmodels.DriftReport `json:"reports"`
}

// HandleDriftStatus handles GET /v1/drift/{modelID}.
func (h *Handler) HandleDriftStatus(w http.ResponseWriter, r *http.Request) {
	modelID, err := domain.ParseModelID(chi.URLParam(r, "modelID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reports := h.drift.Latest(modelID)
	if reports == nil {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeNotFound,
			"no detection pass recorded for %s", modelID.Key()))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DriftStatusResponse{
		ModelID: modelID.Key(),
		Reports: reports,
	})
}

// CandidateRequest is the wire form of a trained candidate submission.
type CandidateRequest struct {
	ModelID           string                         `json:"model_id"`
	ValidationMetrics deploymodels.ValidationMetrics `json:"validation_metrics"`
	ValidationSamples int                            `json:"validation_samples"`
}

// HandleCandidate handles POST /v1/candidates: validation and, on a pass,
// atomic activation. A threshold miss returns 200 with valid=false.
func (h *Handler) HandleCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[CandidateRequest](w, r, h.logger)
	if !ok {
		return
	}
	modelID, err := domain.ParseModelID(req.ModelID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.deployer.ValidateAndActivate(ctx, &deploymodels.CandidateModel{
		ModelID:           modelID,
		ValidationMetrics: req.ValidationMetrics,
		ValidationSamples: req.ValidationSamples,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "candidate processing failed",
			"model_id", modelID.Key(), "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
