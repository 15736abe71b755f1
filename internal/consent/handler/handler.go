package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bullishbrief/internal/consent"
	"bullishbrief/internal/device"
	"bullishbrief/internal/platform/middleware"
	"bullishbrief/internal/transport/http/shared"
	dErrors "bullishbrief/pkg/domain-errors"
	"bullishbrief/pkg/requestcontext"
)

// deviceCookie identifies the browser across visits so consent records have
// a stable key. Its lifetime matches the consent retention window.
const (
	deviceCookie       = "bb_device"
	deviceCookieMaxAge = consent.RetentionMonths * 31 * 24 * 60 * 60
)

// RegionResolver resolves a client IP to a region; used when a GeoIP
// database is configured, with the timezone heuristic as fallback.
type RegionResolver interface {
	Resolve(ip string) consent.Region
}

// Handler exposes the consent endpoints. It is a thin layer: visibility and
// propagation rules live in the consent package.
type Handler struct {
	logger *slog.Logger
	store  *consent.Store
	sync   *consent.Synchronizer
	geo    RegionResolver // nil when no database is configured
	ipSalt string
}

// New creates a consent Handler. geo may be nil.
func New(store *consent.Store, sync *consent.Synchronizer, geo RegionResolver, ipSalt string, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		store:  store,
		sync:   sync,
		geo:    geo,
		ipSalt: ipSalt,
	}
}

// Register registers the consent routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/consent", h.handleGetState)
	r.Post("/api/consent", h.handleUpdateCategory)
	r.Post("/api/consent/accept", h.handleAcceptAll)
	r.Post("/api/consent/reject", h.handleRejectAll)
	r.Post("/api/consent/withdraw", h.handleWithdraw)
}

type stateResponse struct {
	Consent         consent.Decision                       `json:"consent"`
	Region          consent.Region                         `json:"region"`
	ConsentRequired bool                                   `json:"consentRequired"`
	Presentation    consent.PresentationState              `json:"presentation"`
	Signals         map[consent.Signal]consent.SignalState `json:"signals"`
}

// handleGetState reports the stored decision, the detected region, and the
// derived banner visibility for this device.
func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID := h.deviceID(w, r)

	region := h.resolveRegion(r)
	required := h.store.ConsentRequired(region)
	hasHistory := h.store.HasHistory(ctx, deviceID)
	decision := h.store.Load(ctx, deviceID)

	shared.WriteJSON(w, http.StatusOK, stateResponse{
		Consent:         decision,
		Region:          region,
		ConsentRequired: required,
		Presentation:    consent.InitialState().AfterInit(required, hasHistory),
		Signals:         consent.Signals(decision),
	})
}

type updateRequest struct {
	Category consent.Category `json:"category"`
	Granted  bool             `json:"granted"`
}

func (h *Handler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID := h.deviceID(w, r)

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid consent update request",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	switch req.Category {
	case consent.CategoryEssential, consent.CategoryAnalytics, consent.CategoryMarketing:
	default:
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown consent category"))
		return
	}

	decision := h.sync.UpdateCategory(ctx, deviceID, req.Category, req.Granted, h.meta(ctx))
	h.writeDecision(w, decision)
}

func (h *Handler) handleAcceptAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	decision := h.sync.AcceptAll(ctx, h.deviceID(w, r), h.meta(ctx))
	h.writeDecision(w, decision)
}

func (h *Handler) handleRejectAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	decision := h.sync.RejectAll(ctx, h.deviceID(w, r), h.meta(ctx))
	h.writeDecision(w, decision)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	decision := h.sync.Withdraw(ctx, h.deviceID(w, r), h.meta(ctx))
	h.writeDecision(w, decision)
}

func (h *Handler) writeDecision(w http.ResponseWriter, decision consent.Decision) {
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"consent":      decision,
		"signals":      consent.Signals(decision),
		"presentation": consent.InitialState().AfterDecision(),
	})
}

// resolveRegion prefers GeoIP when configured; otherwise the client-supplied
// timezone identifier drives the heuristic.
func (h *Handler) resolveRegion(r *http.Request) consent.Region {
	if h.geo != nil {
		if ip := requestcontext.ClientIP(r.Context()); ip != "" {
			return h.geo.Resolve(ip)
		}
	}

	tz := r.URL.Query().Get("tz")
	if tz == "" {
		tz = r.Header.Get("X-Timezone")
	}
	return consent.RegionFromTimezone(tz)
}

// deviceID reads the device cookie, minting one on first contact.
func (h *Handler) deviceID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(deviceCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     deviceCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   deviceCookieMaxAge,
		Expires:  time.Now().Add(deviceCookieMaxAge * time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// meta builds the audit metadata for a decision. The raw IP never leaves
// this function; only its salted hash is stored.
func (h *Handler) meta(ctx context.Context) consent.Meta {
	return consent.Meta{
		IPHash:    device.HashIP(requestcontext.ClientIP(ctx), h.ipSalt),
		UserAgent: device.Describe(requestcontext.UserAgent(ctx)),
	}
}
