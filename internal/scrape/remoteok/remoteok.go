package remoteok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ubuntu/decorate"

	"remotejobs-engine/internal/domain"
	"remotejobs-engine/internal/scrape/types"
)

const (
	DefaultURL       = "https://remoteok.com/api"
	DefaultUserAgent = "remotejobs/1.0 (+local)"
	DefaultTimeout   = 20 * time.Second

	maxBodyBytes = 32 << 20
)

type Config struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
}

// ProgressFunc wraps the response body; size is -1 when unknown.
type ProgressFunc func(body io.Reader, size int64) io.Reader

type Option func(*Scraper)

// WithHTTPClient replaces the default client. Timeout still comes from Config.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Scraper) { s.hc = hc }
}

func WithProgress(fn ProgressFunc) Option {
	return func(s *Scraper) { s.progress = fn }
}

type Scraper struct {
	cfg      Config
	hc       *http.Client
	progress ProgressFunc
}

func New(cfg Config, opts ...Option) *Scraper {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	s := &Scraper{
		cfg: cfg,
		hc:  &http.Client{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Scraper) Name() string { return "remoteok" }

// Fetch issues a single GET and decodes the payload array. Element 0 is still
// present in the result; Parse drops it. There is no retry.
func (s *Scraper) Fetch(ctx context.Context) (res types.ScrapeResult, err error) {
	defer decorate.OnError(&err, "remoteok fetch")

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return res, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.hc.Do(req)
	if err != nil {
		return res, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		slog.Debug("upstream error body", "source", s.Name(), "status", resp.StatusCode, "body", string(b))
		return res, fmt.Errorf("remoteok status %d", resp.StatusCode)
	}

	var body io.Reader = io.LimitReader(resp.Body, maxBodyBytes)
	if s.progress != nil {
		body = s.progress(body, resp.ContentLength)
	}

	listings, err := decodeListings(body)
	if err != nil {
		return res, err
	}

	slog.Info("fetched listings", "source", s.Name(), "elements", len(listings),
		"dur_ms", time.Since(start).Milliseconds())

	return types.ScrapeResult{
		Source:    s.Name(),
		Listings:  listings,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// decodeListings requires a top-level array. Elements that are not objects
// become nil listings so one bad entry never fails the batch.
func decodeListings(r io.Reader) ([]domain.RawListing, error) {
	var elems []json.RawMessage
	if err := json.NewDecoder(r).Decode(&elems); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	out := make([]domain.RawListing, 0, len(elems))
	for _, e := range elems {
		out = append(out, decodeListing(e))
	}
	return out, nil
}

func decodeListing(raw json.RawMessage) domain.RawListing {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil
	}
	return domain.RawListing(m)
}
