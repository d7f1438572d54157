package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"remotejobs-engine/internal/config"
	"remotejobs-engine/internal/domain"
	"remotejobs-engine/internal/export"
	"remotejobs-engine/internal/filter"
	"remotejobs-engine/internal/store"
)

type JobsHandler struct {
	Board   *store.Board
	CfgVal  *atomic.Value // config.Config
	Limiter *rate.Limiter // shared with POST /jobs/refresh
	Now     func() time.Time
}

type JobsResponse struct {
	Stats     filter.Stats       `json:"stats"`
	Criteria  filter.Criteria    `json:"criteria"`
	Outcome   store.Outcome      `json:"outcome"`
	FetchedAt time.Time          `json:"fetched_at,omitzero"`
	Jobs      []domain.JobRecord `json:"jobs"`
}

// List filters the board with the criteria given as query parameters. The
// board is loaded on first use and reloaded at most once per cache TTL.
func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	all, c, out, ok := h.load(w, r)
	if !ok {
		return
	}
	jobs := h.engine().Run(all.Jobs, c)

	writeJSON(w, JobsResponse{
		Stats:     filter.ComputeStats(all.Jobs, jobs),
		Criteria:  c,
		Outcome:   out,
		FetchedAt: all.FetchedAt,
		Jobs:      jobs,
	})
}

func (h JobsHandler) ExportByPath(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(strings.TrimPrefix(r.URL.Path, "/export/"))
	if err != nil {
		WriteError(w, r, http.StatusNotFound, codeNotFound, err.Error())
		return
	}

	all, c, _, ok := h.load(w, r)
	if !ok {
		return
	}
	jobs := h.engine().Run(all.Jobs, c)

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.FileName()))
	if err := export.Write(w, f, jobs); err != nil {
		// Headers are gone by now; the client sees a truncated body.
		slog.Error("export failed", "request_id", RequestIDFrom(r.Context()), "format", f, "err", err)
	}
}

// load parses criteria and returns the current snapshot. It writes the error
// response itself and reports ok=false when the request cannot proceed.
func (h JobsHandler) load(w http.ResponseWriter, r *http.Request) (store.Snapshot, filter.Criteria, store.Outcome, bool) {
	cfg := h.CfgVal.Load().(config.Config)

	c, err := filter.CriteriaFromValues(r.URL.Query(), cfg.Filters.DefaultDays)
	if err == nil {
		err = c.Validate(cfg.FilterLimits())
	}
	if err != nil {
		code := codeBadRequest
		if errors.Is(err, filter.ErrInvalidCriteria) {
			code = codeInvalidCriteria
		}
		WriteError(w, r, http.StatusBadRequest, code, err.Error())
		return store.Snapshot{}, c, store.Outcome{}, false
	}

	// A dropped client must not fail the shared fetch. The fetcher carries
	// its own timeout.
	ctx := context.WithoutCancel(r.Context())
	out := h.Board.RefreshIfStale(ctx, h.allowFetch)
	return h.Board.Snapshot(), c, out, true
}

func (h JobsHandler) allowFetch() bool {
	return h.Limiter == nil || h.Limiter.Allow()
}

func (h JobsHandler) engine() filter.Engine {
	e := h.CfgVal.Load().(config.Config).FilterEngine()
	e.Now = h.Now
	return e
}
