package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"bullishbrief/internal/audit"
	"bullishbrief/internal/consent"
)

type HandlerSuite struct {
	suite.Suite
	records *consent.InMemoryRecordStore
	router  chi.Router
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.records = consent.NewInMemoryRecordStore()
	store := consent.NewStore(s.records, "1.0", false, logger)
	publisher := audit.NewPublisher(make(chan audit.Event, 16), logger)
	sync := consent.NewSynchronizer(store, nil, nil, publisher, nil, logger)

	h := New(store, sync, nil, "test-salt", logger)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) request(method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var payload map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func deviceCookieFrom(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == deviceCookie {
			return c
		}
	}
	return nil
}

func (s *HandlerSuite) TestFirstVisitFromRegulatedRegion() {
	rec := s.request(http.MethodGet, "/api/consent?tz=Europe/Berlin", "", nil)

	s.Equal(http.StatusOK, rec.Code)
	payload := s.decode(rec)
	s.Equal("EEA", payload["region"])
	s.Equal(true, payload["consentRequired"])

	presentation := payload["presentation"].(map[string]any)
	s.Equal(true, presentation["bannerVisible"])

	consentBody := payload["consent"].(map[string]any)
	s.Equal(true, consentBody["essential"])
	s.Equal(false, consentBody["analytics"])

	signals := payload["signals"].(map[string]any)
	s.Equal("denied", signals["analytics_storage"])
	s.Equal("granted", signals["security_storage"])

	s.Require().NotNil(deviceCookieFrom(rec), "first contact must mint a device cookie")
}

func (s *HandlerSuite) TestUnregulatedRegionSkipsBanner() {
	rec := s.request(http.MethodGet, "/api/consent?tz=Asia/Tokyo", "", nil)

	payload := s.decode(rec)
	s.Equal(false, payload["consentRequired"])
	presentation := payload["presentation"].(map[string]any)
	s.Equal(false, presentation["bannerVisible"])
}

// TestMissingTimezoneFailsSafe: no tz parameter must land in the strictest
// regime, not silently skip the prompt.
func (s *HandlerSuite) TestMissingTimezoneFailsSafe() {
	rec := s.request(http.MethodGet, "/api/consent", "", nil)

	payload := s.decode(rec)
	s.Equal("EEA", payload["region"])
	s.Equal(true, payload["consentRequired"])
}

func (s *HandlerSuite) TestAcceptThenReturnVisit() {
	first := s.request(http.MethodPost, "/api/consent/accept", "", nil)
	s.Equal(http.StatusOK, first.Code)
	cookie := deviceCookieFrom(first)
	s.Require().NotNil(cookie)

	payload := s.decode(first)
	consentBody := payload["consent"].(map[string]any)
	s.Equal(true, consentBody["analytics"])
	s.Equal(true, consentBody["marketing"])

	second := s.request(http.MethodGet, "/api/consent?tz=Europe/Berlin", "", cookie)
	payload = s.decode(second)
	presentation := payload["presentation"].(map[string]any)
	s.Equal(false, presentation["bannerVisible"], "returning visitor with history sees no banner")
	consentBody = payload["consent"].(map[string]any)
	s.Equal(true, consentBody["analytics"])
}

func (s *HandlerSuite) TestCategoryUpdate() {
	rec := s.request(http.MethodPost, "/api/consent", `{"category":"analytics","granted":true}`, nil)

	s.Equal(http.StatusOK, rec.Code)
	payload := s.decode(rec)
	consentBody := payload["consent"].(map[string]any)
	s.Equal(true, consentBody["analytics"])
	s.Equal(false, consentBody["marketing"])

	signals := payload["signals"].(map[string]any)
	s.Equal("granted", signals["analytics_storage"])
	s.Equal("denied", signals["ad_storage"])
}

func (s *HandlerSuite) TestRejectAll() {
	rec := s.request(http.MethodPost, "/api/consent/reject", "", nil)

	payload := s.decode(rec)
	consentBody := payload["consent"].(map[string]any)
	s.Equal(true, consentBody["essential"])
	s.Equal(false, consentBody["analytics"])
	s.Equal(false, consentBody["marketing"])
}

func (s *HandlerSuite) TestWithdrawForgetsDevice() {
	first := s.request(http.MethodPost, "/api/consent/accept", "", nil)
	cookie := deviceCookieFrom(first)
	s.Require().NotNil(cookie)

	s.request(http.MethodPost, "/api/consent/withdraw", "", cookie)

	rec := s.request(http.MethodGet, "/api/consent?tz=Europe/Berlin", "", cookie)
	payload := s.decode(rec)
	consentBody := payload["consent"].(map[string]any)
	s.Equal(false, consentBody["analytics"])
	presentation := payload["presentation"].(map[string]any)
	s.Equal(true, presentation["bannerVisible"], "withdrawal re-prompts on next visit")
}

func (s *HandlerSuite) TestMalformedBodyRejected() {
	rec := s.request(http.MethodPost, "/api/consent", `{"category":`, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestUnknownCategoryRejected() {
	rec := s.request(http.MethodPost, "/api/consent", `{"category":"advertising","granted":true}`, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}
