package httpapi

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"remotejobs-engine/internal/config"
	"remotejobs-engine/internal/events"
	"remotejobs-engine/internal/store"
)

type Deps struct {
	Board *store.Board
	Hub   *events.Hub

	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// RefreshLimiter guards POST /jobs/refresh and the fetches that reads
	// trigger. Nil means unlimited.
	RefreshLimiter *rate.Limiter

	// PingInterval spaces SSE keep-alive pings. Zero uses 25s.
	PingInterval time.Duration

	// Now is the filter clock. Nil uses time.Now.
	Now func() time.Time
}

// NewRefreshLimiter allows perMinute refreshes per minute with the given burst.
func NewRefreshLimiter(perMinute float64, burst int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(perMinute/60), burst)
}
