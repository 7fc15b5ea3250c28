package http

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"ecompulse/internal/config"
	apierrors "ecompulse/internal/errors"
	"ecompulse/internal/infrastructure"
	"ecompulse/internal/services"
)

// ArtifactHandler serves run artifacts from disk: the interactive dashboard
// and the static report files.
type ArtifactHandler struct {
	service RunServiceInterface
	logger  *slog.Logger
}

// NewArtifactHandler creates an artifact handler.
func NewArtifactHandler(service RunServiceInterface, logger *slog.Logger) *ArtifactHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "artifacts")),
	}
}

// ServeDashboard handles GET /dashboard/{runID}.
func (h *ArtifactHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, chi.URLParam(r, "runID"), config.DashboardFile)
}

// ServeReport handles GET /reports/{runID}/*. The wildcard path is resolved
// inside the run directory, so charts and generated code stay reachable
// through their relative links in the report pages.
func (h *ArtifactHandler) ServeReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" {
		name = config.FinalReportHTML
	}
	h.serveArtifact(w, r, chi.URLParam(r, "runID"), name)
}

func (h *ArtifactHandler) serveArtifact(w http.ResponseWriter, r *http.Request, runID, name string) {
	ctx := r.Context()
	reqID := infrastructure.RequestIDFrom(ctx)

	full, err := h.service.ResolveArtifact(runID, name)
	if err != nil {
		h.logger.WarnContext(ctx, "artifact not served",
			slog.String("run_id", runID),
			slog.String("artifact", name),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		h.renderError(w, r, err, runID, name)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(name))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, full)
}

func (h *ArtifactHandler) renderError(w http.ResponseWriter, r *http.Request, err error, runID, name string) {
	ctx := r.Context()
	reqID := infrastructure.RequestIDFrom(ctx)

	apiErr := apierrors.ErrArtifactNotFound
	if errors.Is(err, services.ErrInvalidArtifactPath) {
		apiErr = apierrors.ErrInvalidParameter
	}

	problem := apiErr.Problem(r.URL.Path + "#" + reqID).
		WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx)).
		WithExtension("run_id", runID).
		WithExtension("artifact", name)
	problem.Detail = err.Error()
	render.Render(w, r, problem)
}

// contentTypeFor maps artifact extensions onto content types. Everything the
// pipeline writes is covered; unknown extensions download as binary.
func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".txt", ".log", ".go":
		return "text/plain; charset=utf-8"
	case ".png":
		return "image/png"
	case ".svg":
		return "image/svg+xml"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
