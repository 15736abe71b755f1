// Package mailer delivers captured emails to the mailing-list provider.
// The provider's embedded-form endpoint returns an opaque response, so every
// delivery is attempted, never confirmed.
package mailer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bullishbrief/pkg/email"
)

// Mailchimp posts form-encoded signups to a Mailchimp embedded-form URL.
type Mailchimp struct {
	formURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewMailchimp(formURL string, logger *slog.Logger) *Mailchimp {
	return &Mailchimp{
		formURL: formURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// Subscribe submits the address with derived name fields and scope tags.
// The form endpoint replies with an HTML page regardless of outcome; the
// body is discarded and only transport-level failures surface.
func (m *Mailchimp) Subscribe(ctx context.Context, address string, tags []string) error {
	first, last := email.DeriveNameFromEmail(address)

	form := url.Values{}
	form.Set("EMAIL", address)
	form.Set("FNAME", first)
	form.Set("LNAME", last)
	if len(tags) > 0 {
		form.Set("tags", strings.Join(tags, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.formURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building mailchimp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to mailchimp: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	m.logger.DebugContext(ctx, "mailchimp signup attempted", "status", resp.StatusCode)
	return nil
}
