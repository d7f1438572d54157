package httpapi_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"remotejobs-engine/internal/config"
	"remotejobs-engine/internal/events"
	"remotejobs-engine/internal/filter"
	"remotejobs-engine/internal/httpapi"
	"remotejobs-engine/internal/scrape/remoteok"
	"remotejobs-engine/internal/store"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func upstreamPayload() string {
	return fmt.Sprintf(`[
		{"legal": "terms"},
		{"position": "Senior Go Engineer", "company": "Acme", "tags": ["golang", "backend", "$100k"], "url": "https://x/1", "epoch": %d},
		{"position": "Junior Designer", "company": "Beta", "tags": ["design"], "url": "https://x/2", "epoch": %d},
		{"position": "Python Dev", "company": "Acme", "tags": ["python"], "url": "https://x/3"}
	]`, now.Add(-2*time.Hour).Unix(), now.Add(-10*24*time.Hour).Unix())
}

type env struct {
	api     *httptest.Server
	hits    *atomic.Int32
	fail    *atomic.Bool
	hub     *events.Hub
	cfgVal  *atomic.Value
	cfgPath string
}

type envOpts struct {
	limiter *rate.Limiter
	ttl     time.Duration
}

func newEnv(t *testing.T, o envOpts) *env {
	t.Helper()

	e := &env{hits: &atomic.Int32{}, fail: &atomic.Bool{}, hub: events.NewHub()}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.hits.Add(1)
		if e.fail.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, upstreamPayload())
	}))
	t.Cleanup(upstream.Close)

	e.cfgPath = t.TempDir() + "/" + config.FileName
	cfg := config.Default()
	cfg.Source.URL = upstream.URL
	require.NoError(t, config.SaveAtomic(e.cfgPath, cfg), "Setup: could not write config")
	e.cfgVal = &atomic.Value{}
	e.cfgVal.Store(cfg)

	board := store.NewBoard(remoteok.New(cfg.ScraperConfig()), remoteok.Parse,
		store.WithCacheTTL(o.ttl),
		store.WithOnChange(func(out store.Outcome) {
			if msg, ok := events.FromOutcome("", out); ok {
				e.hub.Publish(msg)
			}
		}))

	e.api = httptest.NewServer(httpapi.Handler(httpapi.Deps{
		Board:          board,
		Hub:            e.hub,
		CfgVal:         e.cfgVal,
		UserCfgPath:    e.cfgPath,
		LoadCfg:        func() (config.Config, error) { return config.Load(e.cfgPath) },
		RefreshLimiter: o.limiter,
		PingInterval:   time.Hour,
		Now:            func() time.Time { return now },
	}))
	t.Cleanup(e.api.Close)
	return e
}

func (e *env) do(t *testing.T, method, path string, body io.Reader) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, e.api.URL+path, body)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func decodeAPIError(t *testing.T, b []byte) httpapi.APIError {
	t.Helper()
	var e httpapi.APIError
	require.NoError(t, json.Unmarshal(b, &e), "body should be an error envelope: %s", b)
	return e
}

func TestHealth(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOpts{})
	resp, b := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(b))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestJobsList(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		query string

		wantStatus int
		wantURLs   []string
		wantStats  filter.Stats
		wantCode   string
	}{
		"Default window drops unknown and old postings": {
			query:      "",
			wantStatus: http.StatusOK,
			wantURLs:   []string{"https://x/1", "https://x/2"},
			wantStats:  filter.Stats{Total: 3, Filtered: 2, Companies: 2},
		},
		"Zero days keeps everything": {
			query:      "?days=0",
			wantStatus: http.StatusOK,
			wantURLs:   []string{"https://x/1", "https://x/2", "https://x/3"},
			wantStats:  filter.Stats{Total: 3, Filtered: 3, Companies: 2},
		},
		"Skill and salary": {
			query:      "?days=0&skill=golang&salary_only=1",
			wantStatus: http.StatusOK,
			wantURLs:   []string{"https://x/1"},
			wantStats:  filter.Stats{Total: 3, Filtered: 1, Companies: 1},
		},
		"Search on company": {
			query:      "?days=0&q=acme",
			wantStatus: http.StatusOK,
			wantURLs:   []string{"https://x/1", "https://x/3"},
			wantStats:  filter.Stats{Total: 3, Filtered: 2, Companies: 1},
		},
		"Seniority": {
			query:      "?seniority=junior",
			wantStatus: http.StatusOK,
			wantURLs:   []string{"https://x/2"},
			wantStats:  filter.Stats{Total: 3, Filtered: 1, Companies: 1},
		},

		"Error on days over the limit": {query: "?days=90", wantStatus: http.StatusBadRequest, wantCode: "invalid_criteria"},
		"Error on unknown seniority":   {query: "?seniority=staff", wantStatus: http.StatusBadRequest, wantCode: "invalid_criteria"},
		"Error on malformed days":      {query: "?days=abc", wantStatus: http.StatusBadRequest, wantCode: "invalid_criteria"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t, envOpts{})
			resp, b := e.do(t, http.MethodGet, "/jobs"+tc.query, nil)
			require.Equal(t, tc.wantStatus, resp.StatusCode, "body: %s", b)

			if tc.wantCode != "" {
				apiErr := decodeAPIError(t, b)
				assert.Equal(t, tc.wantCode, apiErr.Error.Code)
				assert.Equal(t, resp.Header.Get("X-Request-ID"), apiErr.Error.RequestID)
				assert.Zero(t, e.hits.Load(), "invalid criteria must not reach upstream")
				return
			}

			var got httpapi.JobsResponse
			require.NoError(t, json.Unmarshal(b, &got))
			urls := []string{}
			for _, j := range got.Jobs {
				urls = append(urls, j.URL)
			}
			assert.Equal(t, tc.wantURLs, urls)
			assert.Equal(t, tc.wantStats, got.Stats)
			assert.Equal(t, store.Loaded, got.Outcome.Kind)
		})
	}
}

func TestJobsListUsesCache(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOpts{ttl: time.Minute})
	for range 3 {
		resp, _ := e.do(t, http.MethodGet, "/jobs", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.EqualValues(t, 1, e.hits.Load())
}

func TestJobsListKeepsDataOnFailure(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOpts{})
	resp, _ := e.do(t, http.MethodGet, "/jobs?days=0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	e.fail.Store(true)
	resp, _ = e.do(t, http.MethodPost, "/jobs/refresh?force=1", nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp, b := e.do(t, http.MethodGet, "/jobs?days=0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got httpapi.JobsResponse
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, store.Failed, got.Outcome.Kind)
	assert.Contains(t, got.Outcome.Error, "503")
	assert.Len(t, got.Jobs, 3, "previous records are still served")
	assert.EqualValues(t, 2, e.hits.Load())
}

func TestJobsReadsBoundUpstreamFetches(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts envOpts
		down bool

		wantHits int32
		wantKind store.OutcomeKind
		wantJobs int
	}{
		"Cache disabled loads once": {
			opts:     envOpts{limiter: httpapi.NewRefreshLimiter(1, 2)},
			wantHits: 1,
			wantKind: store.Cached,
			wantJobs: 3,
		},
		"Upstream down is tried once per TTL": {
			opts:     envOpts{limiter: httpapi.NewRefreshLimiter(1, 2), ttl: 300 * time.Second},
			down:     true,
			wantHits: 1,
			wantKind: store.Failed,
		},
		"Exhausted limiter blocks the first load": {
			opts:     envOpts{limiter: httpapi.NewRefreshLimiter(1, 0)},
			wantHits: 0,
			wantKind: store.Empty,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t, tc.opts)
			e.fail.Store(tc.down)

			var got httpapi.JobsResponse
			for range 10 {
				resp, b := e.do(t, http.MethodGet, "/jobs?days=0", nil)
				require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", b)
				require.NoError(t, json.Unmarshal(b, &got))
			}
			assert.Equal(t, tc.wantHits, e.hits.Load())
			assert.Equal(t, tc.wantKind, got.Outcome.Kind)
			assert.Len(t, got.Jobs, tc.wantJobs)
		})
	}
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOpts{ttl: time.Hour})

	resp, b := e.do(t, http.MethodPost, "/jobs/refresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out store.Outcome
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, store.Loaded, out.Kind)
	assert.Equal(t, 3, out.Count)

	_, b = e.do(t, http.MethodPost, "/jobs/refresh", nil)
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, store.Cached, out.Kind)

	_, b = e.do(t, http.MethodPost, "/jobs/refresh?force=1", nil)
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, store.Loaded, out.Kind)
	assert.EqualValues(t, 2, e.hits.Load())

	e.fail.Store(true)
	resp, b = e.do(t, http.MethodPost, "/jobs/refresh?force=true", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, store.Failed, out.Kind)
	assert.Contains(t, out.Error, "503")

	resp, b = e.do(t, http.MethodGet, "/scrape/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st store.Status
	require.NoError(t, json.Unmarshal(b, &st))
	assert.False(t, st.Running)
	assert.Equal(t, 3, st.LastLoaded)
	assert.Contains(t, st.LastError, "503")
}

func TestRefreshRateLimited(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOpts{limiter: httpapi.NewRefreshLimiter(1, 2)})

	for i := range 2 {
		resp, _ := e.do(t, http.MethodPost, "/jobs/refresh?force=1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d is within the burst", i)
	}

	resp, b := e.do(t, http.MethodPost, "/jobs/refresh?force=1", nil)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate_limited", decodeAPIError(t, b).Error.Code)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.EqualValues(t, 2, e.hits.Load(), "limited request must not reach upstream")
}

func TestExport(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		path string

		wantStatus int
		wantType   string
	}{
		"CSV":            {path: "/export/csv?days=0&q=acme", wantStatus: http.StatusOK, wantType: "text/csv; charset=utf-8"},
		"JSON":           {path: "/export/json?days=0&q=acme", wantStatus: http.StatusOK, wantType: "application/json"},
		"XLSX":           {path: "/export/xlsx?days=0&q=acme", wantStatus: http.StatusOK, wantType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		"Unknown format": {path: "/export/pdf", wantStatus: http.StatusNotFound},
		"Bad criteria":   {path: "/export/csv?days=-1", wantStatus: http.StatusBadRequest},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t, envOpts{})
			resp, b := e.do(t, http.MethodGet, tc.path, nil)
			require.Equal(t, tc.wantStatus, resp.StatusCode, "body: %s", b)
			if tc.wantType == "" {
				decodeAPIError(t, b)
				return
			}
			assert.Equal(t, tc.wantType, resp.Header.Get("Content-Type"))
			assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

			switch {
			case strings.HasPrefix(tc.path, "/export/csv"):
				rows, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
				require.NoError(t, err)
				require.Len(t, rows, 3, "header plus the two Acme jobs")
				assert.Equal(t, []string{"title", "company", "tags", "url"}, rows[0])
				assert.Equal(t, "golang, backend, $100k", rows[1][2])
			case strings.HasPrefix(tc.path, "/export/json"):
				var recs []map[string]any
				require.NoError(t, json.Unmarshal(b, &recs))
				require.Len(t, recs, 2)
				assert.Len(t, recs[0], 8)
			default:
				assert.Equal(t, "PK", string(b[:2]), "XLSX is a zip archive")
			}
		})
	}
}

func TestConfig(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOpts{})

	resp, b := e.do(t, http.MethodGet, "/config", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cfg config.Config
	require.NoError(t, json.Unmarshal(b, &cfg))
	assert.Equal(t, 38471, cfg.App.Port)

	cfg.Filters.DefaultDays = 7
	cfg.Filters.SalaryKeywords = []string{"EUR", "eur"}
	body, err := json.Marshal(cfg)
	require.NoError(t, err)
	resp, b = e.do(t, http.MethodPut, "/config", bytes.NewReader(body))
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", b)

	saved, err := config.Load(e.cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 7, saved.Filters.DefaultDays)
	assert.Equal(t, []string{"eur"}, saved.Filters.SalaryKeywords)
	assert.Equal(t, saved, e.cfgVal.Load().(config.Config), "live config is reloaded")

	cfg.App.Port = 0
	body, err = json.Marshal(cfg)
	require.NoError(t, err)
	resp, b = e.do(t, http.MethodPut, "/config", bytes.NewReader(body))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var vr config.Validation
	require.NoError(t, json.Unmarshal(b, &vr))
	assert.NotEmpty(t, vr.Errors)

	resp, b = e.do(t, http.MethodPut, "/config", strings.NewReader(`{"nope":1}`))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", decodeAPIError(t, b).Error.Code)

	resp, b = e.do(t, http.MethodGet, "/config/path", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), config.FileName)

	resp, b = e.do(t, http.MethodGet, "/config/validate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report config.Validation
	require.NoError(t, json.Unmarshal(b, &report))
	assert.Empty(t, report.Errors)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOpts{})
	resp, b := e.do(t, http.MethodDelete, "/jobs", nil)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET", resp.Header.Get("Allow"))
	assert.Equal(t, "method_not_allowed", decodeAPIError(t, b).Error.Code)
}

func TestCorsPreflight(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOpts{})
	req, err := http.NewRequest(http.MethodOptions, e.api.URL+"/jobs", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsKept(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOpts{})
	req, err := http.NewRequest(http.MethodGet, e.api.URL+"/jobs?days=999", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "abc-123", decodeAPIError(t, b).Error.RequestID)
}

func TestEventsStream(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOpts{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.api.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() events.Event {
		t.Helper()
		for lines.Scan() {
			data, ok := strings.CutPrefix(lines.Text(), "data: ")
			if !ok {
				continue
			}
			var ev events.Event
			require.NoError(t, json.Unmarshal([]byte(data), &ev))
			return ev
		}
		require.FailNow(t, "stream ended", "err: %v", lines.Err())
		return events.Event{}
	}

	assert.Equal(t, events.TypePing, next().Type)
	require.Eventually(t, func() bool { return e.hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	r, _ := e.do(t, http.MethodPost, "/jobs/refresh", nil)
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, events.TypeJobsLoaded, next().Type)

	e.fail.Store(true)
	r, _ = e.do(t, http.MethodPost, "/jobs/refresh?force=1", nil)
	require.Equal(t, http.StatusBadGateway, r.StatusCode)
	assert.Equal(t, events.TypeFetchFailed, next().Type)
}
