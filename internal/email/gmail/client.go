package gmail

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/vijay-prabhu/mailphone/internal/email"
)

// DefaultMaxResults is the largest page messages.list returns in one call
const DefaultMaxResults = 500

// me addresses the authenticated user
const me = "me"

// createGmailService creates a Gmail API service. Overridden in tests.
var createGmailService = func(ctx context.Context, opts ...option.ClientOption) (*gmail.Service, error) {
	return gmail.NewService(ctx, opts...)
}

// Client implements email.Source for Gmail
type Client struct {
	service *gmail.Service
}

var _ email.Source = (*Client)(nil)

// New creates a Gmail client on top of an authenticated HTTP client
func New(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	service, err := createGmailService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{service: service}, nil
}

// ListMessages runs a single messages.list call capped at max results.
// Matches beyond the cap are not fetched; the result reports whether
// more may exist instead.
func (c *Client) ListMessages(ctx context.Context, query string, max int64) (*email.ListResult, error) {
	if max <= 0 {
		max = DefaultMaxResults
	}

	resp, err := c.service.Users.Messages.List(me).
		Q(query).
		MaxResults(max).
		Context(ctx).
		Do()
	if err != nil {
		return nil, &email.FetchError{Query: query, Err: err}
	}

	msgs := resp.Messages
	// resultSizeEstimate is too rough to decide truncation on
	truncated := resp.NextPageToken != ""
	if int64(len(msgs)) > max {
		msgs = msgs[:max]
		truncated = true
	}

	refs := make([]email.MessageRef, 0, len(msgs))
	for _, m := range msgs {
		refs = append(refs, email.MessageRef{ID: m.Id})
	}

	return &email.ListResult{
		Refs:      refs,
		Cap:       max,
		Estimate:  resp.ResultSizeEstimate,
		Truncated: truncated,
	}, nil
}
