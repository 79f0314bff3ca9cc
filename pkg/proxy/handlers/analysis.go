package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"mercator-hq/chatgate/pkg/analysis"
	"mercator-hq/chatgate/pkg/proxy"
	"mercator-hq/chatgate/pkg/proxy/types"
)

// AnalysisHandler serves the /api/analysis endpoints. Each endpoint decodes
// its body, runs one analysis operation and encodes the result as JSON.
type AnalysisHandler struct {
	analyzer Analyzer
	limits   proxy.Limits
	logger   *slog.Logger
}

// NewAnalysisHandler creates a handler for the analysis endpoints.
func NewAnalysisHandler(analyzer Analyzer, limits proxy.Limits, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{analyzer: analyzer, limits: limits, logger: logger}
}

// Document serves POST /api/analysis/document.
func (h *AnalysisHandler) Document(w http.ResponseWriter, r *http.Request) {
	var req types.DocumentRequest
	h.serve(w, r, &req, "document", func(ctx context.Context) (any, error) {
		return h.analyzer.Document(ctx, req.Text)
	})
}

// Classify serves POST /api/analysis/classify.
func (h *AnalysisHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req types.ClassifyRequest
	h.serve(w, r, &req, "classify", func(ctx context.Context) (any, error) {
		return h.analyzer.Classify(ctx, req.Text, req.Categories)
	})
}

// Batch serves POST /api/analysis/batch.
func (h *AnalysisHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req types.BatchRequest
	h.serve(w, r, &req, "batch", func(ctx context.Context) (any, error) {
		op := analysis.Operation(req.Operation)
		if op == "" {
			op = analysis.OpSummarize
		}
		return h.analyzer.Batch(ctx, req.Texts, op)
	})
}

func (h *AnalysisHandler) serve(w http.ResponseWriter, r *http.Request, body any, op string, run func(ctx context.Context) (any, error)) {
	ctx := r.Context()

	if err := proxy.DecodeJSON(r, h.limits, body); err != nil {
		h.logger.WarnContext(ctx, "failed to parse request", "operation", op, "error", err)
		h.writeError(ctx, w, err)
		return
	}

	result, err := run(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "analysis failed", "operation", op, "error", err)
		h.writeError(ctx, w, err)
		return
	}

	if err := proxy.WriteJSONResponse(w, http.StatusOK, result); err != nil {
		h.logger.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

func (h *AnalysisHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if ctx.Err() != nil {
		return
	}
	if err := proxy.WriteErrorResponse(w, proxy.HandleError(err)); err != nil {
		h.logger.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}
