package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bullishbrief/internal/platform/metrics"
	dErrors "bullishbrief/pkg/domain-errors"
	"bullishbrief/pkg/email"
	"bullishbrief/pkg/requestcontext"
	"bullishbrief/pkg/sentinel"
)

// mailerTimeout bounds the fire-and-forget mailing-list sync so a dead
// provider cannot pile up goroutines.
const mailerTimeout = 10 * time.Second

// Mailer delivers a captured email to the external mailing-list provider.
// The transport is opaque: callers cannot reliably tell success from
// failure, and the service treats every attempt as best-effort.
type Mailer interface {
	Subscribe(ctx context.Context, address string, tags []string) error
}

// Input is one submission attempt. BriefID and AuthorID are mutually
// exclusive; when both are set, BriefID wins.
type Input struct {
	Email    string
	BriefID  string
	AuthorID string
	Source   Source
	UserID   string
}

// Service orchestrates email capture: validate, check for a duplicate in the
// same scope, insert, then sync to the mailing list without blocking the
// response.
type Service struct {
	store   Store
	mailer  Mailer // nil when no provider is configured
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

func NewService(store Store, mailer Mailer, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		mailer:  mailer,
		metrics: m,
		tracer:  otel.Tracer("bullishbrief/subscription"),
		logger:  logger,
	}
}

// Submit runs the anonymous submission flow and returns the new row's ID.
// Error messages on every failure path are user-facing contract strings.
func (s *Service) Submit(ctx context.Context, in Input) (*Subscription, error) {
	start := time.Now()
	scope := ResolveScope(in.BriefID, in.AuthorID)

	ctx, span := s.tracer.Start(ctx, "subscription.submit",
		trace.WithAttributes(
			attribute.String("subscription.scope", scope.Label()),
			attribute.String("subscription.source", string(in.Source)),
		))
	defer span.End()

	if err := email.Validate(in.Email); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	exists, err := s.store.Exists(ctx, in.Email, scope)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "duplicate check failed")
		s.logger.ErrorContext(ctx, "duplicate check failed",
			"error", err.Error(),
			"scope", scope.Label(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "Database error")
	}
	if exists {
		if s.metrics != nil {
			s.metrics.IncrementDuplicatesBlocked(scope.Label())
		}
		span.SetStatus(codes.Error, "duplicate")
		return nil, dErrors.New(dErrors.CodeConflict,
			"You're already subscribed to updates for this "+scope.Label())
	}

	source := in.Source
	if source == "" {
		source = DefaultSource
	}

	sub := &Subscription{
		Email:    in.Email,
		BriefID:  scope.BriefID,
		AuthorID: scope.AuthorID,
		UserID:   in.UserID,
		Source:   source,
	}
	if err := s.store.Insert(ctx, sub); err != nil {
		// A duplicate that raced past the existence check and hit a unique
		// index is still a conflict to the caller, not a storage failure.
		if errors.Is(err, sentinel.ErrConflict) {
			if s.metrics != nil {
				s.metrics.IncrementDuplicatesBlocked(scope.Label())
			}
			span.SetStatus(codes.Error, "duplicate")
			return nil, dErrors.New(dErrors.CodeConflict,
				"You're already subscribed to updates for this "+scope.Label())
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		s.logger.ErrorContext(ctx, "subscription insert failed",
			"error", err.Error(),
			"scope", scope.Label(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "Failed to save email")
	}

	if s.metrics != nil {
		s.metrics.IncrementSubscriptionsCreated(scope.Label())
		s.metrics.ObserveSubmission(start)
	}
	span.SetAttributes(attribute.String("subscription.id", sub.ID.String()))

	s.syncMailingList(ctx, sub, scope)
	return sub, nil
}

// SubmitAuthenticated is the session-backed entry point. It never trusts a
// client-supplied address; the session's own email is used or the attempt
// fails before any duplicate check.
func (s *Service) SubmitAuthenticated(ctx context.Context, sessionEmail, userID string, in Input) (*Subscription, error) {
	if sessionEmail == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "User email not found")
	}

	in.Email = sessionEmail
	in.UserID = userID
	if in.Source == "" {
		in.Source = SourceAccount
	}
	return s.Submit(ctx, in)
}

// syncMailingList hands the address to the provider on a detached goroutine.
// The row is already durable; nothing here can fail the submission.
func (s *Service) syncMailingList(ctx context.Context, sub *Subscription, scope Scope) {
	if s.mailer == nil {
		return
	}

	tags := []string{scope.Label()}
	logger := s.logger.With("subscription_id", sub.ID.String(), "request_id", requestcontext.RequestID(ctx))

	go func() {
		syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailerTimeout)
		defer cancel()

		if err := s.mailer.Subscribe(syncCtx, sub.Email, tags); err != nil {
			logger.Warn("mailing-list sync failed", "error", err.Error())
		}
	}()
}
