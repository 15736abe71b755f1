// Package admin exposes operator-only endpoints. Callers authenticate with
// a shared token checked against a bcrypt hash from configuration.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"bullishbrief/internal/platform/secrets"
	"bullishbrief/internal/transport/http/shared"
	dErrors "bullishbrief/pkg/domain-errors"
	"bullishbrief/pkg/requestcontext"
)

const adminTokenHeader = "X-Admin-Token"

// Handler triggers site rebuilds after content changes. The build hook is
// best-effort: the response reports whether the trigger was attempted, not
// whether the build succeeded.
type Handler struct {
	logger       *slog.Logger
	tokenHash    string // bcrypt hash of the operator token
	buildHookURL string // empty disables the trigger
	client       *http.Client
}

func New(tokenHash, buildHookURL string, logger *slog.Logger) *Handler {
	return &Handler{
		logger:       logger,
		tokenHash:    tokenHash,
		buildHookURL: buildHookURL,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

// Register registers the admin routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/revalidate", h.handleRevalidate)
}

func (h *Handler) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.tokenHash == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin endpoint is not configured"))
		return
	}

	token := strings.TrimSpace(r.Header.Get(adminTokenHeader))
	if err := secrets.Verify(token, h.tokenHash); err != nil {
		h.logger.WarnContext(ctx, "admin token rejected",
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid admin token"))
		return
	}

	triggered := h.triggerBuild(ctx)
	shared.WriteJSON(w, http.StatusAccepted, map[string]any{
		"success":   true,
		"triggered": triggered,
	})
}

// triggerBuild fires the deploy hook. Failures are logged and reported in
// the response body, never as an HTTP error.
func (h *Handler) triggerBuild(ctx context.Context) bool {
	if h.buildHookURL == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.buildHookURL, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "building deploy hook request failed", "error", err.Error())
		return false
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.ErrorContext(ctx, "deploy hook failed", "error", err.Error())
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		h.logger.ErrorContext(ctx, "deploy hook returned error status", "status", resp.StatusCode)
		return false
	}
	return true
}
