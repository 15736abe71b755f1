package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bullishbrief/internal/platform/middleware"
	"bullishbrief/internal/subscription"
	"bullishbrief/internal/transport/http/shared"
	dErrors "bullishbrief/pkg/domain-errors"
)

// Handler exposes the email capture endpoints.
type Handler struct {
	logger  *slog.Logger
	service *subscription.Service
}

func New(service *subscription.Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the anonymous submission route.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/emails", h.handleSubmit)
}

// RegisterAuthenticated registers the session-backed route. Mount behind the
// auth middleware; the handler reads the session email from context.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/api/emails/me", h.handleSubmitAuthenticated)
}

type submitRequest struct {
	Email    string `json:"email"`
	BriefID  string `json:"briefId,omitempty"`
	AuthorID string `json:"authorId,omitempty"`
	Source   string `json:"source,omitempty"`
	UserID   string `json:"userId,omitempty"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFailure(w, dErrors.New(dErrors.CodeValidation, "Email is required"))
		return
	}

	sub, err := h.service.Submit(r.Context(), subscription.Input{
		Email:    req.Email,
		BriefID:  req.BriefID,
		AuthorID: req.AuthorID,
		Source:   subscription.Source(req.Source),
		UserID:   req.UserID,
	})
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeSuccess(w, sub)
}

func (h *Handler) handleSubmitAuthenticated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeFailure(w, dErrors.New(dErrors.CodeValidation, "Email is required"))
			return
		}
	}

	sub, err := h.service.SubmitAuthenticated(ctx,
		middleware.GetSessionEmail(ctx),
		middleware.GetUserID(ctx),
		subscription.Input{
			BriefID:  req.BriefID,
			AuthorID: req.AuthorID,
			Source:   subscription.Source(req.Source),
		})
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeSuccess(w, sub)
}

func (h *Handler) writeSuccess(w http.ResponseWriter, sub *subscription.Subscription) {
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"emailId": sub.ID.String(),
	})
}

// writeFailure maps domain errors onto the submission response envelope.
// Validation and conflict messages pass through verbatim; everything else
// is already a generic message with the detail logged server-side.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		status = shared.DomainCodeToHTTPStatus(domainErr.Code)
		message = domainErr.Message
	}

	shared.WriteJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
