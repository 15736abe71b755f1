package consent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"bullishbrief/internal/audit"
)

// fakeTagManager captures pushed signal maps and can simulate failure.
type fakeTagManager struct {
	pushes []map[Signal]SignalState
	err    error
}

func (f *fakeTagManager) UpdateConsent(_ context.Context, signals map[Signal]SignalState) error {
	f.pushes = append(f.pushes, signals)
	return f.err
}

// fakeAnalytics captures boolean toggles and can simulate failure.
type fakeAnalytics struct {
	toggles []bool
	err     error
}

func (f *fakeAnalytics) SetConsent(_ context.Context, granted bool) error {
	f.toggles = append(f.toggles, granted)
	return f.err
}

type SynchronizerSuite struct {
	suite.Suite
	records    *InMemoryRecordStore
	store      *Store
	tagManager *fakeTagManager
	analytics  *fakeAnalytics
	auditStore *audit.InMemoryStore
	inbox      chan audit.Event
	sync       *Synchronizer
	ctx        context.Context
}

func (s *SynchronizerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.records = NewInMemoryRecordStore()
	s.store = NewStore(s.records, testVersion, false, logger)
	s.tagManager = &fakeTagManager{}
	s.analytics = &fakeAnalytics{}
	s.auditStore = audit.NewInMemoryStore()
	s.inbox = make(chan audit.Event, 16)
	publisher := audit.NewPublisher(s.inbox, logger)
	s.sync = NewSynchronizer(s.store, s.tagManager, s.analytics, publisher, nil, logger)
	s.ctx = context.Background()
}

func TestSynchronizerSuite(t *testing.T) {
	suite.Run(t, new(SynchronizerSuite))
}

// drainAudit collects everything emitted so far.
func (s *SynchronizerSuite) drainAudit() []audit.Event {
	var events []audit.Event
	for {
		select {
		case e := <-s.inbox:
			events = append(events, e)
		default:
			return events
		}
	}
}

func (s *SynchronizerSuite) TestEssentialIsImmutable() {
	s.sync.AcceptAll(s.ctx, "dev-1", Meta{})

	decision := s.sync.UpdateCategory(s.ctx, "dev-1", CategoryEssential, false, Meta{})

	s.True(decision.Essential)
	s.True(decision.Analytics, "analytics untouched by essential no-op")
	s.True(decision.Marketing, "marketing untouched by essential no-op")
}

func (s *SynchronizerSuite) TestAcceptAllPropagatesAllGranted() {
	decision := s.sync.AcceptAll(s.ctx, "dev-1", Meta{IPHash: "h1", UserAgent: "Firefox on Linux"})

	s.True(decision.Analytics)
	s.True(decision.Marketing)

	s.Require().Len(s.tagManager.pushes, 1)
	for signal, state := range s.tagManager.pushes[0] {
		s.Equal(SignalGranted, state, string(signal))
	}

	s.Require().Len(s.analytics.toggles, 1)
	s.True(s.analytics.toggles[0])

	record, ok, err := s.records.Get(s.ctx, "dev-1")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.True(record.Analytics)
	s.True(record.Marketing)
	s.Equal("h1", record.IPHash)
}

func (s *SynchronizerSuite) TestRejectAllPropagatesDenials() {
	decision := s.sync.RejectAll(s.ctx, "dev-1", Meta{})

	s.True(decision.Essential)
	s.False(decision.Analytics)
	s.False(decision.Marketing)

	s.Require().Len(s.tagManager.pushes, 1)
	push := s.tagManager.pushes[0]
	s.Equal(SignalDenied, push[SignalAnalyticsStorage])
	s.Equal(SignalDenied, push[SignalAdStorage])
	s.Equal(SignalGranted, push[SignalFunctionalityStorage])
	s.Equal(SignalGranted, push[SignalSecurityStorage])

	s.Require().Len(s.analytics.toggles, 1)
	s.False(s.analytics.toggles[0])
}

func (s *SynchronizerSuite) TestUpdateCategorySingleFlip() {
	decision := s.sync.UpdateCategory(s.ctx, "dev-1", CategoryAnalytics, true, Meta{})

	s.True(decision.Analytics)
	s.False(decision.Marketing)
	s.True(decision.Initialized)

	s.Require().Len(s.tagManager.pushes, 1)
	push := s.tagManager.pushes[0]
	s.Equal(SignalGranted, push[SignalAnalyticsStorage])
	s.Equal(SignalDenied, push[SignalAdStorage])
}

// TestReceiverFailureDoesNotBlockSave breaks both receivers and expects the
// record to still be written.
func (s *SynchronizerSuite) TestReceiverFailureDoesNotBlockSave() {
	s.tagManager.err = errors.New("script not loaded")
	s.analytics.err = errors.New("vendor down")

	decision := s.sync.AcceptAll(s.ctx, "dev-1", Meta{})

	s.True(decision.Analytics)
	_, ok, err := s.records.Get(s.ctx, "dev-1")
	s.Require().NoError(err)
	s.True(ok, "save must happen despite receiver failures")
}

// TestAbsentReceiversAreNoOps wires nil receivers; propagation should only
// touch the store.
func (s *SynchronizerSuite) TestAbsentReceiversAreNoOps() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sync := NewSynchronizer(s.store, nil, nil, nil, nil, logger)

	decision := sync.AcceptAll(s.ctx, "dev-1", Meta{})

	s.True(decision.Analytics)
	s.True(s.store.HasHistory(s.ctx, "dev-1"))
}

func (s *SynchronizerSuite) TestWithdrawClearsRecord() {
	s.sync.AcceptAll(s.ctx, "dev-1", Meta{})
	s.Require().True(s.store.HasHistory(s.ctx, "dev-1"))

	decision := s.sync.Withdraw(s.ctx, "dev-1", Meta{})

	s.False(decision.Initialized)
	s.False(s.store.HasHistory(s.ctx, "dev-1"))

	events := s.drainAudit()
	var withdrawn int
	for _, e := range events {
		if e.Action == audit.ActionWithdrawn {
			withdrawn++
		}
	}
	s.Equal(2, withdrawn, "one withdrawal event per optional category")
}

func (s *SynchronizerSuite) TestAuditTrailForCategoryUpdate() {
	s.sync.UpdateCategory(s.ctx, "dev-1", CategoryMarketing, true, Meta{IPHash: "h2", UserAgent: "Safari on iOS"})
	s.sync.UpdateCategory(s.ctx, "dev-1", CategoryMarketing, false, Meta{})

	events := s.drainAudit()
	s.Require().Len(events, 2)
	s.Equal(audit.ActionGranted, events[0].Action)
	s.Equal("marketing", events[0].Category)
	s.Equal("h2", events[0].IPHash)
	s.Equal(audit.ActionDenied, events[1].Action)
}
