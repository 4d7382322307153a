package domain

import (
	"context"
	"io"
)

// OpportunityStore persists ranked scan results.
type OpportunityStore interface {
	// SaveBatch inserts all opportunities from one scan.
	SaveBatch(ctx context.Context, opps []Opportunity) error
	// ListByScan returns a scan's opportunities ordered as ranked.
	ListByScan(ctx context.Context, scanID string) ([]Opportunity, error)
	// LatestScanID returns the most recent scan's ID, or ErrNotFound.
	LatestScanID(ctx context.Context) (string, error)
}

// BlobWriter uploads an object to cold storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
