package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullishbrief/internal/platform/secrets"
)

func newRouter(t *testing.T, token, buildHookURL string) chi.Router {
	t.Helper()

	hash, err := secrets.Hash(token)
	require.NoError(t, err)

	h := New(hash, buildHookURL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func revalidate(router chi.Router, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin/revalidate", nil)
	if token != "" {
		req.Header.Set(adminTokenHeader, token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRevalidateTriggersBuildHook(t *testing.T) {
	var hits atomic.Int32
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer hook.Close()

	router := newRouter(t, "operator-token", hook.URL)
	rec := revalidate(router, "operator-token")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"triggered":true`)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRevalidateRejectsBadToken(t *testing.T) {
	router := newRouter(t, "operator-token", "")

	assert.Equal(t, http.StatusUnauthorized, revalidate(router, "wrong-token").Code)
	assert.Equal(t, http.StatusUnauthorized, revalidate(router, "").Code)
}

func TestRevalidateUnconfigured(t *testing.T) {
	h := New("", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)

	assert.Equal(t, http.StatusForbidden, revalidate(r, "anything").Code)
}

// TestRevalidateSurvivesHookFailure: a dead deploy hook still returns 202,
// with triggered reported false.
func TestRevalidateSurvivesHookFailure(t *testing.T) {
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer hook.Close()

	router := newRouter(t, "operator-token", hook.URL)
	rec := revalidate(router, "operator-token")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"triggered":false`)
}
