package filter

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"remotejobs-engine/internal/domain"
)

// SeniorityNone disables the seniority filter.
const SeniorityNone = "none"

var DefaultSeniorityLevels = []string{"junior", "mid", "senior"}

// Criteria is what a dashboard can ask for. Zero values disable a filter;
// Days == 0 means no recency window.
type Criteria struct {
	Skill      string `json:"skill,omitempty"`
	Keyword    string `json:"keyword,omitempty"`
	Seniority  string `json:"seniority,omitempty"`
	Location   string `json:"location,omitempty"`
	Days       int    `json:"days,omitempty"`
	SalaryOnly bool   `json:"salary_only,omitempty"`
	MultiSkill string `json:"multi_skill,omitempty"`
	Search     string `json:"search,omitempty"`
}

// Skills splits MultiSkill on commas and trims each item. Empty items are
// dropped, so "python," asks for python alone rather than also requiring an
// empty tag that no record has.
func (c Criteria) Skills() []string {
	var out []string
	for _, s := range strings.Split(c.MultiSkill, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c Criteria) seniority() string {
	s := strings.ToLower(strings.TrimSpace(c.Seniority))
	if s == SeniorityNone {
		return ""
	}
	return s
}

// Limits bound what Validate accepts.
type Limits struct {
	MaxDays         int
	SeniorityLevels []string
}

func DefaultLimits() Limits {
	return Limits{MaxDays: 30, SeniorityLevels: DefaultSeniorityLevels}
}

var ErrInvalidCriteria = errors.New("invalid criteria")

func (c Criteria) Validate(lim Limits) error {
	var errs []error
	if c.Days < 0 || c.Days > lim.MaxDays {
		errs = append(errs, fmt.Errorf("days must be within 0..%d, got %d", lim.MaxDays, c.Days))
	}
	if s := c.seniority(); s != "" && !slices.Contains(lim.SeniorityLevels, s) {
		errs = append(errs, fmt.Errorf("seniority must be one of none, %s; got %q",
			strings.Join(lim.SeniorityLevels, ", "), c.Seniority))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidCriteria, errors.Join(errs...))
}

// CriteriaFromValues reads query parameters: skill, keyword, seniority,
// location, days, salary_only, multi_skill, q. A missing days parameter takes
// defaultDays.
func CriteriaFromValues(v url.Values, defaultDays int) (Criteria, error) {
	c := Criteria{
		Skill:      v.Get("skill"),
		Keyword:    v.Get("keyword"),
		Seniority:  v.Get("seniority"),
		Location:   v.Get("location"),
		Days:       defaultDays,
		MultiSkill: v.Get("multi_skill"),
		Search:     v.Get("q"),
	}
	if raw := strings.TrimSpace(v.Get("days")); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			return c, fmt.Errorf("%w: days: %w", ErrInvalidCriteria, err)
		}
		c.Days = d
	}
	if raw := strings.TrimSpace(v.Get("salary_only")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return c, fmt.Errorf("%w: salary_only: %w", ErrInvalidCriteria, err)
		}
		c.SalaryOnly = b
	}
	return c, nil
}

// Engine applies Criteria with the configured keyword sets.
type Engine struct {
	SalaryKeywords []string
	Now            func() time.Time
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Predicates returns the active filters in dashboard order: skill, keyword,
// seniority, location, date, salary, multi-skill, search.
func (e Engine) Predicates(c Criteria) []Predicate {
	var ps []Predicate
	if strings.TrimSpace(c.Skill) != "" {
		ps = append(ps, Skill(c.Skill))
	}
	if strings.TrimSpace(c.Keyword) != "" {
		ps = append(ps, Keyword(c.Keyword))
	}
	if s := c.seniority(); s != "" {
		ps = append(ps, Seniority(s))
	}
	if strings.TrimSpace(c.Location) != "" {
		ps = append(ps, Location(c.Location))
	}
	if c.Days != 0 {
		ps = append(ps, PostedWithin(c.Days, e.now()))
	}
	if c.SalaryOnly {
		ps = append(ps, SalaryTagged(e.SalaryKeywords...))
	}
	if skills := c.Skills(); len(skills) > 0 {
		ps = append(ps, AllSkills(skills))
	}
	if strings.TrimSpace(c.Search) != "" {
		ps = append(ps, Search(c.Search))
	}
	return ps
}

// Run keeps the records matching every active predicate. The result is a new
// slice even when no filter is active.
func (e Engine) Run(jobs []domain.JobRecord, c Criteria) []domain.JobRecord {
	return Apply(jobs, All(e.Predicates(c)...))
}

type Stats struct {
	Total     int `json:"total"`
	Filtered  int `json:"filtered"`
	Companies int `json:"companies"`
}

func ComputeStats(all, filtered []domain.JobRecord) Stats {
	seen := make(map[string]struct{}, len(filtered))
	for _, j := range filtered {
		seen[j.Company] = struct{}{}
	}
	return Stats{Total: len(all), Filtered: len(filtered), Companies: len(seen)}
}
