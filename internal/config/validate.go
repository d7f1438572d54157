package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalid = errors.New("config validation failed")

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err is nil when there are no errors. Warnings never fail.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("%w:\n- %s", ErrInvalid, strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a normalized copy of cfg and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Source.URL = strings.TrimSpace(out.Source.URL)
	out.Source.UserAgent = strings.TrimSpace(out.Source.UserAgent)
	if out.Source.UserAgent == "" {
		out.Source.UserAgent = Default().Source.UserAgent
	}
	out.Filters.SalaryKeywords = lowerList(out.Filters.SalaryKeywords)
	out.Filters.SeniorityLevels = lowerList(out.Filters.SeniorityLevels)

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if strings.TrimSpace(out.App.DataDir) == "" {
		res.addErr("app.data_dir is required")
	}
	if strings.TrimSpace(out.App.ExportDir) == "" {
		res.addErr("app.export_dir is required")
	}

	if u, err := url.Parse(out.Source.URL); err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		res.addErr("source.url must be an absolute http(s) URL, got %q", out.Source.URL)
	}
	if out.Source.TimeoutSeconds <= 0 {
		res.addErr("source.timeout_seconds must be > 0")
	} else if out.Source.TimeoutSeconds < 3 {
		res.addWarn("source.timeout_seconds is very low (%d); slow responses will fail.", out.Source.TimeoutSeconds)
	}
	if out.Source.CacheTTLSeconds < 0 {
		res.addErr("source.cache_ttl_seconds must be >= 0")
	}

	if out.Filters.MaxDays < 0 {
		res.addErr("filters.max_days must be >= 0")
	}
	if out.Filters.DefaultDays < 0 || out.Filters.DefaultDays > out.Filters.MaxDays {
		res.addErr("filters.default_days must be within 0..filters.max_days (%d)", out.Filters.MaxDays)
	}
	if len(out.Filters.SalaryKeywords) == 0 {
		res.addWarn("filters.salary_keywords is empty; built-in keywords will be used.")
	}
	if len(out.Filters.SeniorityLevels) == 0 {
		res.addWarn("filters.seniority_levels is empty; only \"none\" will be accepted.")
	}
	for _, s := range out.Filters.SeniorityLevels {
		if s == "none" {
			res.addErr("filters.seniority_levels cannot contain \"none\"")
		}
	}

	if out.HTTP.RefreshPerMinute <= 0 {
		res.addErr("http.refresh_per_minute must be > 0")
	}
	if out.HTTP.RefreshBurst <= 0 {
		res.addErr("http.refresh_burst must be > 0")
	}

	if out.Logging.Verbosity < 0 {
		res.addWarn("logging.verbosity is negative; treated as 0.")
		out.Logging.Verbosity = 0
	}

	return out, res
}

// lowerList trims, lower-cases and dedupes xs, keeping first occurrences.
func lowerList(xs []string) []string {
	seen := map[string]bool{}
	var ys []string
	for _, x := range xs {
		x = strings.ToLower(strings.TrimSpace(x))
		if x == "" || seen[x] {
			continue
		}
		seen[x] = true
		ys = append(ys, x)
	}
	return ys
}
