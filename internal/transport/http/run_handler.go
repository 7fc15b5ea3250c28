package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "ecompulse/internal/errors"
	"ecompulse/internal/infrastructure"
	"ecompulse/internal/operations"
	"ecompulse/internal/services"
)

var validate = validator.New()

// RunHandler handles pipeline run HTTP requests.
type RunHandler struct {
	service RunServiceInterface
	logger  *slog.Logger
}

// NewRunHandler creates a run handler.
func NewRunHandler(service RunServiceInterface, logger *slog.Logger) *RunHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RunHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "runs")),
	}
}

// StartRunRequest is the body of POST /api/runs. An empty data_dir selects
// the configured data directory; an empty stage list runs the full pipeline.
type StartRunRequest struct {
	DataDir string   `json:"data_dir" validate:"omitempty"`
	Stages  []string `json:"stages" validate:"omitempty,dive,required"`
}

// Bind implements render.Binder.
func (req *StartRunRequest) Bind(r *http.Request) error {
	return validate.Struct(req)
}

// Routes returns a chi router for run endpoints.
func (h *RunHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListRuns)
	r.Post("/", h.StartRun)
	r.Get("/{runID}", h.GetRun)
	r.Get("/{runID}/artifacts", h.ListArtifacts)
	r.Post("/{runID}/cancel", h.CancelRun)
	r.Post("/{runID}/stages/{stageID}", h.RerunStage)

	return r
}

// StartRun handles POST /api/runs.
func (h *RunHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := infrastructure.RequestIDFrom(ctx)
	tracer := otel.Tracer("run-handler")

	ctx, span := tracer.Start(ctx, "run_handler.start_run",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/runs"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	data := &StartRunRequest{}
	if err := render.Bind(r, data); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "request_validation"))

		h.logger.ErrorContext(ctx, "failed to bind run request",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		problem := apierrors.ErrValidationFailed.Problem(r.URL.Path + "#" + reqID).
			WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx))
		problem.Detail = err.Error()
		render.Render(w, r, problem)
		return
	}

	span.SetAttributes(
		attribute.String("run.data_dir", data.DataDir),
		attribute.Int("run.stages_count", len(data.Stages)),
	)

	snap, err := h.service.Launch(ctx, data.DataDir, data.Stages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run launch failed")

		h.logger.ErrorContext(ctx, "failed to launch run",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		h.renderError(w, r, err, "")
		return
	}

	span.SetAttributes(attribute.String("run.id", snap.ID))
	h.logger.InfoContext(ctx, "run accepted",
		slog.String("run_id", snap.ID),
		slog.String("request_id", reqID))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, snap)
}

// ListRuns handles GET /api/runs.
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := infrastructure.RequestIDFrom(ctx)
	tracer := otel.Tracer("run-handler")

	ctx, span := tracer.Start(ctx, "run_handler.list_runs",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/runs"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	manifests, err := h.service.ListRuns(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run listing failed")

		h.logger.ErrorContext(ctx, "failed to list runs",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		h.renderError(w, r, err, "")
		return
	}

	span.SetAttributes(attribute.Int("runs.count", len(manifests)))
	render.JSON(w, r, map[string]interface{}{
		"runs":  manifests,
		"count": len(manifests),
	})
}

// GetRun handles GET /api/runs/{runID}.
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "runID")
	reqID := infrastructure.RequestIDFrom(ctx)
	tracer := otel.Tracer("run-handler")

	ctx, span := tracer.Start(ctx, "run_handler.get_run",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/runs/{runID}"),
			attribute.String("run.id", runID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	manifest, err := h.service.GetManifest(ctx, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "manifest load failed")

		h.logger.ErrorContext(ctx, "failed to load run manifest",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		h.renderError(w, r, err, runID)
		return
	}

	span.SetAttributes(attribute.String("run.status", string(manifest.Status)))
	render.JSON(w, r, manifest)
}

// ListArtifacts handles GET /api/runs/{runID}/artifacts.
func (h *RunHandler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "runID")
	reqID := infrastructure.RequestIDFrom(ctx)
	tracer := otel.Tracer("run-handler")

	ctx, span := tracer.Start(ctx, "run_handler.list_artifacts",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/runs/{runID}/artifacts"),
			attribute.String("run.id", runID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	artifacts, err := h.service.Artifacts(ctx, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "artifact listing failed")

		h.logger.ErrorContext(ctx, "failed to list artifacts",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		h.renderError(w, r, err, runID)
		return
	}

	span.SetAttributes(attribute.Int("artifacts.count", len(artifacts)))
	render.JSON(w, r, map[string]interface{}{
		"run_id":    runID,
		"artifacts": artifacts,
		"count":     len(artifacts),
	})
}

// CancelRun handles POST /api/runs/{runID}/cancel.
func (h *RunHandler) CancelRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "runID")
	reqID := infrastructure.RequestIDFrom(ctx)
	tracer := otel.Tracer("run-handler")

	ctx, span := tracer.Start(ctx, "run_handler.cancel_run",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/runs/{runID}/cancel"),
			attribute.String("run.id", runID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	if err := h.service.Cancel(ctx, runID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run cancellation failed")

		h.logger.ErrorContext(ctx, "failed to cancel run",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		h.renderError(w, r, err, runID)
		return
	}

	h.logger.InfoContext(ctx, "run cancellation requested",
		slog.String("run_id", runID),
		slog.String("request_id", reqID))

	render.JSON(w, r, map[string]string{
		"message": "run cancellation requested",
		"run_id":  runID,
	})
}

// RerunStage handles POST /api/runs/{runID}/stages/{stageID}. The stage runs
// synchronously; the response carries the final step statuses.
func (h *RunHandler) RerunStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "runID")
	stageID := chi.URLParam(r, "stageID")
	reqID := infrastructure.RequestIDFrom(ctx)
	tracer := otel.Tracer("run-handler")

	ctx, span := tracer.Start(ctx, "run_handler.rerun_stage",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/runs/{runID}/stages/{stageID}"),
			attribute.String("run.id", runID),
			attribute.String("stage.id", stageID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.InfoContext(ctx, "stage rerun request",
		slog.String("run_id", runID),
		slog.String("stage_id", stageID),
		slog.String("request_id", reqID))

	snap, err := h.service.RerunStage(ctx, runID, stageID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stage rerun failed")

		h.logger.ErrorContext(ctx, "stage rerun failed",
			slog.String("run_id", runID),
			slog.String("stage_id", stageID),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		switch {
		case errors.Is(err, operations.ErrRunNotFound),
			errors.Is(err, operations.ErrUnknownStage),
			errors.Is(err, operations.ErrRunActive),
			errors.Is(err, operations.ErrMissingArtifact):
			h.renderError(w, r, err, runID)
		default:
			// The stage executed and failed; the snapshot in the problem
			// extensions is not needed, the manifest already records it.
			problem := apierrors.ErrRunFailed.Problem(r.URL.Path + "#" + reqID).
				WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx)).
				WithExtension("run_id", runID).
				WithExtension("stage_id", stageID)
			problem.Detail = err.Error()
			render.Render(w, r, problem)
		}
		return
	}

	span.SetAttributes(attribute.String("run.status", string(snap.Status)))
	h.logger.InfoContext(ctx, "stage rerun completed",
		slog.String("run_id", runID),
		slog.String("stage_id", stageID),
		slog.String("request_id", reqID))

	render.JSON(w, r, snap)
}

// ListStages handles GET /api/stages.
func (h *RunHandler) ListStages(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"stages":           h.service.StageIDs(),
		"default_data_dir": h.service.DataDir(),
	})
}

// renderError maps service and pipeline errors onto problem documents.
func (h *RunHandler) renderError(w http.ResponseWriter, r *http.Request, err error, runID string) {
	ctx := r.Context()
	reqID := infrastructure.RequestIDFrom(ctx)

	var apiErr *apierrors.APIError
	switch {
	case errors.Is(err, operations.ErrRunActive):
		apiErr = apierrors.ErrRunActive
	case errors.Is(err, operations.ErrRunNotFound):
		apiErr = apierrors.ErrRunNotFound
	case errors.Is(err, operations.ErrRunNotActive):
		apiErr = apierrors.ErrConflict
	case errors.Is(err, operations.ErrUnknownStage):
		apiErr = apierrors.ErrInvalidParameter
	case errors.Is(err, operations.ErrMissingArtifact):
		apiErr = apierrors.ErrConflict
	case errors.Is(err, services.ErrDataDirNotFound):
		apiErr = apierrors.ErrDatasetNotFound
	case errors.Is(err, services.ErrArtifactNotFound):
		apiErr = apierrors.ErrArtifactNotFound
	case errors.Is(err, services.ErrInvalidArtifactPath):
		apiErr = apierrors.ErrInvalidParameter
	default:
		apiErr = apierrors.ErrInternalServer
	}

	problem := apiErr.Problem(r.URL.Path + "#" + reqID).
		WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx))
	if runID != "" {
		problem.WithExtension("run_id", runID)
	}
	problem.Detail = err.Error()

	render.Render(w, r, problem)
}
