// Package filter narrows a list of job records. Every filter is a per-record
// predicate: it keeps or drops a record without looking at the others, and
// kept records stay in their original order. Chained filters therefore give
// the same result in any order, and re-applying one changes nothing.
package filter

import (
	"strings"
	"time"

	"remotejobs-engine/internal/domain"
)

// DefaultSalaryKeywords are matched as substrings of the lowercased tag line.
var DefaultSalaryKeywords = []string{"$", "k", "usd", "eur", "salary"}

type Predicate func(domain.JobRecord) bool

// Apply returns the records that satisfy keep. The input is never modified.
func Apply(jobs []domain.JobRecord, keep Predicate) []domain.JobRecord {
	out := make([]domain.JobRecord, 0, len(jobs))
	for _, j := range jobs {
		if keep(j) {
			out = append(out, j)
		}
	}
	return out
}

// All combines predicates; an empty list keeps everything.
func All(preds ...Predicate) Predicate {
	return func(j domain.JobRecord) bool {
		for _, p := range preds {
			if !p(j) {
				return false
			}
		}
		return true
	}
}

func Skill(skill string) Predicate {
	skill = strings.ToLower(skill)
	return func(j domain.JobRecord) bool {
		return hasTag(j, skill)
	}
}

func Keyword(keyword string) Predicate {
	keyword = strings.ToLower(keyword)
	return func(j domain.JobRecord) bool {
		return strings.Contains(strings.ToLower(j.Title), keyword)
	}
}

// Seniority looks at the title only.
func Seniority(level string) Predicate {
	return Keyword(level)
}

func Location(location string) Predicate {
	location = strings.ToLower(location)
	return func(j domain.JobRecord) bool {
		return strings.Contains(strings.ToLower(j.Location), location) || hasTag(j, location)
	}
}

// PostedWithin keeps records whose age in whole days (rounded down) is at most
// days. Records without a posting time are dropped.
func PostedWithin(days int, now time.Time) Predicate {
	return func(j domain.JobRecord) bool {
		if j.Epoch == nil {
			return false
		}
		return ageInDays(now, time.Unix(*j.Epoch, 0)) <= int64(days)
	}
}

// SalaryTagged matches keywords against the tags joined by spaces. With no
// keywords, DefaultSalaryKeywords are used.
func SalaryTagged(keywords ...string) Predicate {
	if len(keywords) == 0 {
		keywords = DefaultSalaryKeywords
	}
	kws := make([]string, 0, len(keywords))
	for _, k := range keywords {
		kws = append(kws, strings.ToLower(k))
	}
	return func(j domain.JobRecord) bool {
		line := strings.ToLower(strings.Join(j.Tags, " "))
		for _, k := range kws {
			if strings.Contains(line, k) {
				return true
			}
		}
		return false
	}
}

// AllSkills requires every skill as a tag. No skills keeps every record.
func AllSkills(skills []string) Predicate {
	want := make([]string, 0, len(skills))
	for _, s := range skills {
		want = append(want, strings.ToLower(s))
	}
	return func(j domain.JobRecord) bool {
		for _, s := range want {
			if !hasTag(j, s) {
				return false
			}
		}
		return true
	}
}

// Search matches title, company or any tag as a substring.
func Search(query string) Predicate {
	q := strings.ToLower(query)
	return func(j domain.JobRecord) bool {
		if strings.Contains(strings.ToLower(j.Title), q) ||
			strings.Contains(strings.ToLower(j.Company), q) {
			return true
		}
		for _, t := range j.Tags {
			if strings.Contains(strings.ToLower(t), q) {
				return true
			}
		}
		return false
	}
}

func BySkill(jobs []domain.JobRecord, skill string) []domain.JobRecord {
	return Apply(jobs, Skill(skill))
}

func ByKeyword(jobs []domain.JobRecord, keyword string) []domain.JobRecord {
	return Apply(jobs, Keyword(keyword))
}

func BySeniority(jobs []domain.JobRecord, level string) []domain.JobRecord {
	return Apply(jobs, Seniority(level))
}

func ByLocation(jobs []domain.JobRecord, location string) []domain.JobRecord {
	return Apply(jobs, Location(location))
}

func ByDate(jobs []domain.JobRecord, days int, now time.Time) []domain.JobRecord {
	return Apply(jobs, PostedWithin(days, now))
}

func BySalaryTag(jobs []domain.JobRecord, keywords ...string) []domain.JobRecord {
	return Apply(jobs, SalaryTagged(keywords...))
}

func ByMultiSkill(jobs []domain.JobRecord, skills []string) []domain.JobRecord {
	return Apply(jobs, AllSkills(skills))
}

func BySearch(jobs []domain.JobRecord, query string) []domain.JobRecord {
	return Apply(jobs, Search(query))
}

func hasTag(j domain.JobRecord, lowered string) bool {
	for _, t := range j.Tags {
		if strings.ToLower(t) == lowered {
			return true
		}
	}
	return false
}

// ageInDays is floor((now-posted)/24h), so future postings count as -1 days.
func ageInDays(now, posted time.Time) int64 {
	const day = 24 * time.Hour
	d := now.Sub(posted)
	n := int64(d / day)
	if d < 0 && d%day != 0 {
		n--
	}
	return n
}
