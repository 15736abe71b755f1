package consent

import (
	"context"
	"log/slog"

	"bullishbrief/internal/audit"
	"bullishbrief/internal/platform/metrics"
	"bullishbrief/pkg/requestcontext"
)

// TagManagerReceiver accepts a consent-mode update: the five-key grant/deny
// map derived from the tri-category decision.
type TagManagerReceiver interface {
	UpdateConsent(ctx context.Context, signals map[Signal]SignalState) error
}

// AnalyticsReceiver accepts a single boolean consent toggle for the session
// analytics vendor.
type AnalyticsReceiver interface {
	SetConsent(ctx context.Context, granted bool) error
}

// Synchronizer propagates consent decisions to the two external signal
// receivers and the record store. The three steps look like one transaction
// to the caller, but there is no cross-system atomicity: each step is
// independent and best-effort, no step rolls back a previous one, and
// propagation never fails the caller. Absent receivers (nil) are silent
// no-ops.
type Synchronizer struct {
	store      *Store
	tagManager TagManagerReceiver
	analytics  AnalyticsReceiver
	publisher  *audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewSynchronizer(
	store *Store,
	tagManager TagManagerReceiver,
	analytics AnalyticsReceiver,
	publisher *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Synchronizer {
	return &Synchronizer{
		store:      store,
		tagManager: tagManager,
		analytics:  analytics,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
	}
}

// UpdateCategory flips a single category and propagates. Essential is
// immutable: the call is a no-op that returns the current state untouched.
func (s *Synchronizer) UpdateCategory(ctx context.Context, deviceID string, category Category, granted bool, meta Meta) Decision {
	decision := s.store.Load(ctx, deviceID)
	if category == CategoryEssential {
		return decision
	}

	switch category {
	case CategoryAnalytics:
		decision.Analytics = granted
	case CategoryMarketing:
		decision.Marketing = granted
	default:
		s.logger.WarnContext(ctx, "ignoring unknown consent category", "category", string(category))
		return decision
	}
	decision.Initialized = true

	s.propagate(ctx, deviceID, decision, meta)
	s.recordAudit(ctx, deviceID, actionFor(granted), string(category), meta)
	return decision
}

// AcceptAll grants analytics and marketing and propagates.
func (s *Synchronizer) AcceptAll(ctx context.Context, deviceID string, meta Meta) Decision {
	decision := Decision{Essential: true, Analytics: true, Marketing: true, Initialized: true}
	s.propagate(ctx, deviceID, decision, meta)
	s.recordAudit(ctx, deviceID, audit.ActionGranted, string(CategoryAnalytics), meta)
	s.recordAudit(ctx, deviceID, audit.ActionGranted, string(CategoryMarketing), meta)
	return decision
}

// RejectAll denies analytics and marketing and propagates. Essential stays
// granted; it is not a choice.
func (s *Synchronizer) RejectAll(ctx context.Context, deviceID string, meta Meta) Decision {
	decision := Decision{Essential: true, Analytics: false, Marketing: false, Initialized: true}
	s.propagate(ctx, deviceID, decision, meta)
	s.recordAudit(ctx, deviceID, audit.ActionDenied, string(CategoryAnalytics), meta)
	s.recordAudit(ctx, deviceID, audit.ActionDenied, string(CategoryMarketing), meta)
	return decision
}

// Withdraw removes the stored record entirely. The visitor is re-prompted on
// the next load, as if they had never decided.
func (s *Synchronizer) Withdraw(ctx context.Context, deviceID string, meta Meta) Decision {
	s.store.Clear(ctx, deviceID)

	decision := DefaultDecision()
	s.pushSignals(ctx, decision)
	s.recordAudit(ctx, deviceID, audit.ActionWithdrawn, string(CategoryAnalytics), meta)
	s.recordAudit(ctx, deviceID, audit.ActionWithdrawn, string(CategoryMarketing), meta)
	return decision
}

// propagate runs the three-step fan-out in a fixed order: tag-manager
// signals, analytics toggle, then persistence. A failed push never prevents
// the save.
func (s *Synchronizer) propagate(ctx context.Context, deviceID string, decision Decision, meta Meta) {
	s.pushSignals(ctx, decision)
	s.store.Save(ctx, deviceID, decision, meta)
}

func (s *Synchronizer) pushSignals(ctx context.Context, decision Decision) {
	if s.tagManager != nil {
		if err := s.tagManager.UpdateConsent(ctx, Signals(decision)); err != nil {
			s.logger.WarnContext(ctx, "tag manager consent push failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	if s.analytics != nil {
		if err := s.analytics.SetConsent(ctx, decision.Analytics); err != nil {
			s.logger.WarnContext(ctx, "analytics consent push failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
}

func (s *Synchronizer) recordAudit(ctx context.Context, deviceID string, action audit.Action, category string, meta Meta) {
	if s.metrics != nil {
		s.metrics.IncrementConsentDecisions(string(action))
	}
	if s.publisher == nil {
		return
	}
	s.publisher.Emit(ctx, audit.Event{
		SessionID: deviceID,
		Action:    action,
		Category:  category,
		IPHash:    meta.IPHash,
		UserAgent: meta.UserAgent,
	})
}

func actionFor(granted bool) audit.Action {
	if granted {
		return audit.ActionGranted
	}
	return audit.ActionDenied
}
