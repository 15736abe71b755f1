package consent

import (
	"context"
	"log/slog"
	"time"

	"bullishbrief/pkg/requestcontext"
)

// RecordStore is the raw persistence contract for consent records, keyed by
// device ID. Implementations report existence honestly; retention and
// version policy live in Store, not here.
type RecordStore interface {
	Get(ctx context.Context, deviceID string) (StoredRecord, bool, error)
	Put(ctx context.Context, deviceID string, record StoredRecord) error
	Delete(ctx context.Context, deviceID string) error
}

// Store owns versioned, expiring consent persistence. It wraps a RecordStore
// with the retention and version policy: stale or mismatched records are
// discarded on load and the caller sees pristine defaults.
type Store struct {
	records RecordStore
	version string
	logger  *slog.Logger

	// devOverride forces ConsentRequired to true regardless of region, for
	// local testing of the banner flow.
	devOverride bool
}

func NewStore(records RecordStore, version string, devOverride bool, logger *slog.Logger) *Store {
	return &Store{
		records:     records,
		version:     version,
		devOverride: devOverride,
		logger:      logger,
	}
}

// Load returns the visitor's decision. A missing, expired, or
// version-mismatched record yields defaults, and the stale record is
// discarded as a side effect so the next HasHistory reflects reality.
func (s *Store) Load(ctx context.Context, deviceID string) Decision {
	record, ok, err := s.records.Get(ctx, deviceID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load consent record, using defaults",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return DefaultDecision()
	}
	if !ok {
		return DefaultDecision()
	}

	if record.Version != s.version || record.Expired(requestcontext.Now(ctx)) {
		s.Clear(ctx, deviceID)
		return DefaultDecision()
	}

	return record.Decision()
}

// Save persists the decision stamped with the current version and timestamp.
// Write failures are swallowed: the visitor proceeds as if consent were
// saved and is simply re-prompted next load if it wasn't.
func (s *Store) Save(ctx context.Context, deviceID string, decision Decision, meta Meta) {
	record := StoredRecord{
		Version:   s.version,
		Timestamp: requestcontext.Now(ctx).UnixMilli(),
		Analytics: decision.Analytics,
		Marketing: decision.Marketing,
		IPHash:    meta.IPHash,
		UserAgent: meta.UserAgent,
	}
	if err := s.records.Put(ctx, deviceID, record); err != nil {
		s.logger.WarnContext(ctx, "failed to persist consent record",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// Clear removes the persisted record entirely; used on expiry, version
// mismatch, and explicit withdrawal.
func (s *Store) Clear(ctx context.Context, deviceID string) {
	if err := s.records.Delete(ctx, deviceID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear consent record",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// HasHistory reports whether any record is currently persisted. Existence
// only: an expired record still counts until a Load discards it.
func (s *Store) HasHistory(ctx context.Context, deviceID string) bool {
	_, ok, err := s.records.Get(ctx, deviceID)
	if err != nil {
		return false
	}
	return ok
}

// ConsentRequired reports whether the visitor must be shown a consent
// prompt, based on the detected region or the dev override.
func (s *Store) ConsentRequired(region Region) bool {
	if s.devOverride {
		return true
	}
	return region.Required()
}

// retentionTTL is the upper bound handed to TTL-capable backends. Load still
// checks the precise month arithmetic; the TTL only garbage-collects.
func retentionTTL() time.Duration {
	return time.Duration(RetentionMonths) * 31 * 24 * time.Hour
}
