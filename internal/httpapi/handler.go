package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lorebind/lorebind/internal/domain"
	"github.com/lorebind/lorebind/internal/observability"
	"go.uber.org/zap"
)

// Completer obtains one merged completion for a request, issuing whatever
// continuation and retry calls that takes.
type Completer interface {
	Complete(ctx context.Context, req *domain.CompletionRequest) (string, error)
}

// CompletionResponse is the wire shape of a successful completion.
type CompletionResponse struct {
	Text string `json:"text"`
}

// Handler handles HTTP requests.
type Handler struct {
	engine Completer
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(engine Completer) *Handler {
	return &Handler{
		engine: engine,
	}
}

// HandleCompletion processes completion requests.
func (h *Handler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	ctx = observability.WithModel(ctx, req.Model)

	logger := observability.FromContext(ctx)
	logger.Info("completion request received",
		zap.String("model", req.Model),
		zap.Bool("structured", req.Structured),
	)

	text, err := h.engine.Complete(ctx, &req)
	if err != nil {
		logger.Error("completion failed", zap.Error(err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	logger.Info("completion succeeded", zap.Int("length", len(text)))

	w.Header().Set("Content-Type", "application/json")
	if encodeErr := json.NewEncoder(w).Encode(CompletionResponse{Text: text}); encodeErr != nil {
		logger.Error("failed to encode response", zap.Error(encodeErr))
		http.Error(w, fmt.Sprintf("failed to encode response: %v", encodeErr), http.StatusInternalServerError)
		return
	}
}

// statusFor maps chain outcomes onto HTTP status codes. A fatal chain is an
// upstream failure from the caller's point of view, not a server bug.
func statusFor(err error) int {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}

	if domain.IsFatal(err) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}
