package gmail

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"

	"github.com/vijay-prabhu/mailphone/internal/email"
)

// Header names requested in metadata format
const (
	HeaderTo   = "To"
	HeaderDate = "Date"
)

var metadataHeaders = []string{HeaderTo, HeaderDate}

// Extract fetches the To and Date headers and internal timestamp of one
// message. It never fails: errors are returned inside the record.
func (c *Client) Extract(ctx context.Context, ref email.MessageRef) email.Record {
	msg, err := c.service.Users.Messages.Get(me, ref.ID).
		Format("metadata").
		MetadataHeaders(metadataHeaders...).
		Context(ctx).
		Do()
	if err != nil {
		return email.FailedRecord(ref.ID, fmt.Errorf("failed to get message: %w", err))
	}

	return convertMessage(ref.ID, msg)
}

// ExtractAll extracts every ref concurrently and waits for all of them.
// Records keep the order of refs; a failure only affects its own record.
func (c *Client) ExtractAll(ctx context.Context, refs []email.MessageRef, opts email.ExtractOptions) []email.Record {
	records := make([]email.Record, len(refs))
	if len(refs) == 0 {
		return records
	}

	var g errgroup.Group
	if opts.MaxInFlight > 0 {
		g.SetLimit(opts.MaxInFlight)
	}

	var (
		mu   sync.Mutex
		done int
	)

	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			msgCtx := ctx
			if opts.RequestTimeout > 0 {
				var cancel context.CancelFunc
				msgCtx, cancel = context.WithTimeout(ctx, opts.RequestTimeout)
				defer cancel()
			}

			records[i] = c.Extract(msgCtx, ref)

			mu.Lock()
			done++
			if opts.Progress != nil {
				opts.Progress(done, len(refs))
			}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return records
}

// convertMessage converts a metadata-format Gmail message to a record
func convertMessage(id string, msg *gmail.Message) email.Record {
	r := email.Record{ID: id}
	if msg.Id != "" {
		r.ID = msg.Id
	}

	if msg.Payload != nil {
		r.To = findHeader(msg.Payload.Headers, HeaderTo)
		r.Date = findHeader(msg.Payload.Headers, HeaderDate)
	}

	if msg.InternalDate != 0 {
		ts := msg.InternalDate
		r.InternalDate = &ts
	}

	return r
}

// findHeader returns the value of the first header whose name matches exactly
func findHeader(headers []*gmail.MessagePartHeader, name string) *string {
	for _, h := range headers {
		if h != nil && h.Name == name {
			v := h.Value
			return &v
		}
	}
	return nil
}
