// Package store holds the in-memory job board: the last successfully fetched
// set of records plus the status of the most recent refresh.
package store

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"remotejobs-engine/internal/domain"
	"remotejobs-engine/internal/scrape/types"
)

type OutcomeKind string

const (
	Loaded OutcomeKind = "loaded"
	Empty  OutcomeKind = "empty"
	Failed OutcomeKind = "failed"
	Cached OutcomeKind = "cached"
)

// Outcome describes one Refresh call. Count is the size of the board after it.
type Outcome struct {
	Kind      OutcomeKind `json:"kind"`
	Source    string      `json:"source"`
	Count     int         `json:"count"`
	FetchedAt time.Time   `json:"fetched_at,omitzero"`
	Error     string      `json:"error,omitempty"`

	Err error `json:"-"`
}

type Status struct {
	LastRunAt  string `json:"last_run_at"`
	LastOkAt   string `json:"last_ok_at"`
	LastError  string `json:"last_error"`
	LastLoaded int    `json:"last_loaded"`
	Running    bool   `json:"running"`
}

// Snapshot is an immutable view of the board. Callers must not modify Jobs.
type Snapshot struct {
	Jobs      []domain.JobRecord
	FetchedAt time.Time
}

// ParseFunc turns a raw payload into records.
type ParseFunc func([]domain.RawListing) []domain.JobRecord

type Option func(*Board)

// WithCacheTTL lets a non-forced Refresh reuse a successful fetch younger than
// ttl. Zero disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(b *Board) { b.ttl = ttl }
}

// WithOnChange registers fn to be called after every Refresh.
func WithOnChange(fn func(Outcome)) Option {
	return func(b *Board) { b.onChange = fn }
}

func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

type Board struct {
	fetcher  types.Fetcher
	parse    ParseFunc
	ttl      time.Duration
	now      func() time.Time
	onChange func(Outcome)

	mu        sync.Mutex // serializes Refresh
	attempted time.Time  // last fetch start, guarded by mu
	snap      atomic.Pointer[Snapshot]
	status    atomic.Value // Status
}

func NewBoard(f types.Fetcher, parse ParseFunc, opts ...Option) *Board {
	b := &Board{
		fetcher: f,
		parse:   parse,
		now:     time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	b.status.Store(Status{})
	return b
}

// Jobs returns the current records, nil before the first successful fetch.
func (b *Board) Jobs() []domain.JobRecord {
	return b.Snapshot().Jobs
}

func (b *Board) Snapshot() Snapshot {
	if s := b.snap.Load(); s != nil {
		return *s
	}
	return Snapshot{}
}

func (b *Board) Status() Status {
	return b.status.Load().(Status)
}

// Refresh fetches and normalizes a new payload. On success, including an empty
// one, the snapshot is replaced in one step. On failure the previous snapshot
// stays and the error is recorded in Status. Concurrent calls run one at a time.
func (b *Board) Refresh(ctx context.Context, force bool) Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.refresh(ctx, force)
	if b.onChange != nil {
		b.onChange(out)
	}
	return out
}

// RefreshIfStale is the refresh for read paths. It fetches only when no fetch
// has been attempted yet, or when the cache is enabled and the last attempt,
// failed or not, is at least one TTL old. A non-nil allow can still veto the
// fetch. Otherwise it describes the board as it stands and OnChange is not
// called.
func (b *Board) RefreshIfStale(ctx context.Context, allow func() bool) Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	stale := b.attempted.IsZero() || (b.ttl > 0 && b.now().Sub(b.attempted) >= b.ttl)
	if !stale || (allow != nil && !allow()) {
		return b.current()
	}
	out := b.refresh(ctx, true)
	if b.onChange != nil {
		b.onChange(out)
	}
	return out
}

// current is Failed while the last attempt failed, Empty before any data and
// Cached otherwise.
func (b *Board) current() Outcome {
	out := Outcome{Kind: Cached, Source: b.fetcher.Name()}
	if cur := b.snap.Load(); cur != nil {
		out.Count = len(cur.Jobs)
		out.FetchedAt = cur.FetchedAt
	} else {
		out.Kind = Empty
	}
	if st := b.Status(); st.LastError != "" {
		out.Kind = Failed
		out.Error = st.LastError
	}
	return out
}

func (b *Board) refresh(ctx context.Context, force bool) Outcome {
	cur := b.snap.Load()
	if !force && b.ttl > 0 && cur != nil && b.now().Sub(cur.FetchedAt) < b.ttl {
		slog.Debug("using cached listings", "source", b.fetcher.Name(), "age", b.now().Sub(cur.FetchedAt))
		return Outcome{Kind: Cached, Source: b.fetcher.Name(), Count: len(cur.Jobs), FetchedAt: cur.FetchedAt}
	}

	b.attempted = b.now()
	st := b.Status()
	st.Running = true
	st.LastRunAt = b.now().Format(time.RFC3339)
	b.status.Store(st)

	res, err := b.fetcher.Fetch(ctx)

	st.Running = false
	if err != nil {
		slog.Warn("fetch failed", "source", b.fetcher.Name(), "err", err)
		st.LastError = err.Error()
		b.status.Store(st)
		n := 0
		if cur != nil {
			n = len(cur.Jobs)
		}
		return Outcome{Kind: Failed, Source: b.fetcher.Name(), Count: n, Error: err.Error(), Err: err}
	}

	jobs := b.parse(res.Listings)
	fetchedAt := res.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = b.now()
	}
	b.snap.Store(&Snapshot{Jobs: jobs, FetchedAt: fetchedAt})

	st.LastError = ""
	st.LastOkAt = fetchedAt.Format(time.RFC3339)
	st.LastLoaded = len(jobs)
	b.status.Store(st)

	kind := Loaded
	if len(jobs) == 0 {
		kind = Empty
	}
	slog.Info("board refreshed", "source", res.Source, "kind", kind, "count", len(jobs))
	return Outcome{Kind: kind, Source: b.fetcher.Name(), Count: len(jobs), FetchedAt: fetchedAt}
}
