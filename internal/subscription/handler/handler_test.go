package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"bullishbrief/internal/platform/middleware"
	"bullishbrief/internal/subscription"
)

// sessionInjector stands in for the auth middleware in tests.
func sessionInjector(userID, email string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
			ctx = context.WithValue(ctx, middleware.ContextKeyEmail, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type HandlerSuite struct {
	suite.Suite
	store  *subscription.InMemoryStore
	router chi.Router
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = subscription.NewInMemoryStore()
	service := subscription.NewService(s.store, nil, nil, logger)

	h := New(service, logger)
	s.router = chi.NewRouter()
	h.Register(s.router)
	s.router.Group(func(r chi.Router) {
		r.Use(sessionInjector("user-1", "reader@x.com"))
		h.RegisterAuthenticated(r)
	})
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) post(target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var payload map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func (s *HandlerSuite) TestSuccessfulSubmission() {
	rec := s.post("/api/emails", `{"email":"reader@x.com","briefId":"brief-1"}`)

	s.Equal(http.StatusOK, rec.Code)
	payload := s.decode(rec)
	s.Equal(true, payload["success"])
	s.NotEmpty(payload["emailId"])

	rows := s.store.All()
	s.Require().Len(rows, 1)
	s.Equal("brief-1", rows[0].BriefID)
	s.Equal(subscription.SourcePopup, rows[0].Source, "source defaults to popup")
}

func (s *HandlerSuite) TestMissingEmail() {
	rec := s.post("/api/emails", `{}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	payload := s.decode(rec)
	s.Equal(false, payload["success"])
	s.Equal("Email is required", payload["error"])
}

func (s *HandlerSuite) TestInvalidEmail() {
	rec := s.post("/api/emails", `{"email":"not-an-email"}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid email format", s.decode(rec)["error"])
}

func (s *HandlerSuite) TestDuplicateConflict() {
	first := s.post("/api/emails", `{"email":"reader@x.com","authorId":"author-1"}`)
	s.Require().Equal(http.StatusOK, first.Code)

	second := s.post("/api/emails", `{"email":"reader@x.com","authorId":"author-1"}`)

	s.Equal(http.StatusConflict, second.Code)
	payload := s.decode(second)
	s.Equal(false, payload["success"])
	s.Equal("You're already subscribed to updates for this author", payload["error"])
}

func (s *HandlerSuite) TestGeneralScopeConflictMessage() {
	s.post("/api/emails", `{"email":"reader@x.com"}`)
	rec := s.post("/api/emails", `{"email":"reader@x.com"}`)

	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("You're already subscribed to updates for this newsletter", s.decode(rec)["error"])
}

func (s *HandlerSuite) TestMalformedBody() {
	rec := s.post("/api/emails", `{"email":`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Email is required", s.decode(rec)["error"])
}

func (s *HandlerSuite) TestAuthenticatedSubmission() {
	rec := s.post("/api/emails/me", `{}`)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal(true, s.decode(rec)["success"])

	rows := s.store.All()
	s.Require().Len(rows, 1)
	s.Equal("reader@x.com", rows[0].Email)
	s.Equal("user-1", rows[0].UserID)
	s.Equal("", rows[0].BriefID)
	s.Equal("", rows[0].AuthorID)
}

// TestAuthenticatedIgnoresBodyEmail: the session email always wins over a
// client-typed address on the authenticated route.
func (s *HandlerSuite) TestAuthenticatedIgnoresBodyEmail() {
	rec := s.post("/api/emails/me", `{"email":"attacker@evil.example"}`)

	s.Equal(http.StatusOK, rec.Code)
	rows := s.store.All()
	s.Require().Len(rows, 1)
	s.Equal("reader@x.com", rows[0].Email)
}

func (s *HandlerSuite) TestAuthenticatedWithoutSessionEmail() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := subscription.NewService(subscription.NewInMemoryStore(), nil, nil, logger)
	h := New(service, logger)

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(sessionInjector("user-1", ""))
		h.RegisterAuthenticated(r)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/emails/me", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
	var payload map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &payload))
	s.Equal("User email not found", payload["error"])
}
