package email

import (
	"context"
	"time"
)

// Source defines the message operations the pipeline needs from a provider
type Source interface {
	// ListMessages runs one search capped at max results
	ListMessages(ctx context.Context, query string, max int64) (*ListResult, error)

	// ExtractAll fetches metadata for every ref, one record per ref in order
	ExtractAll(ctx context.Context, refs []MessageRef, opts ExtractOptions) []Record
}

// ProgressCallback is called as extraction results settle
type ProgressCallback func(done, total int)

// ExtractOptions configures metadata extraction
type ExtractOptions struct {
	MaxInFlight    int           // 0 = no limit
	RequestTimeout time.Duration // per message, 0 = none
	Progress       ProgressCallback
}
