package mailer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribePostsFormFields(t *testing.T) {
	var got struct {
		contentType string
		form        map[string]string
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got.contentType = r.Header.Get("Content-Type")
		got.form = map[string]string{
			"EMAIL": r.PostForm.Get("EMAIL"),
			"FNAME": r.PostForm.Get("FNAME"),
			"LNAME": r.PostForm.Get("LNAME"),
			"tags":  r.PostForm.Get("tags"),
		}
		w.Write([]byte("<html>thanks</html>"))
	}))
	defer server.Close()

	m := NewMailchimp(server.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := m.Subscribe(context.Background(), "jane.doe@example.com", []string{"brief"})

	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", got.contentType)
	assert.Equal(t, "jane.doe@example.com", got.form["EMAIL"])
	assert.Equal(t, "Jane", got.form["FNAME"])
	assert.Equal(t, "Doe", got.form["LNAME"])
	assert.Equal(t, "brief", got.form["tags"])
}

// TestSubscribeIgnoresResponseStatus: the embedded-form endpoint is opaque;
// even an error page counts as attempted.
func TestSubscribeIgnoresResponseStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	m := NewMailchimp(server.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, m.Subscribe(context.Background(), "reader@x.com", nil))
}

func TestSubscribeSurfacesTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // connection refused from here on

	m := NewMailchimp(server.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, m.Subscribe(context.Background(), "reader@x.com", nil))
}
