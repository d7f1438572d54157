package types

import (
	"context"
	"time"

	"remotejobs-engine/internal/domain"
)

// ScrapeResult is the raw payload of one fetch, metadata element included.
type ScrapeResult struct {
	Source    string
	Listings  []domain.RawListing
	FetchedAt time.Time
}

type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (ScrapeResult, error)
}
