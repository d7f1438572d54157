package remoteok

import (
	"encoding/json"
	"strconv"
	"strings"

	"remotejobs-engine/internal/domain"
)

const (
	defaultTitle   = "Untitled Job"
	defaultCompany = "Unknown Company"
	defaultURL     = "#"
)

// Parse normalizes a RemoteOK payload. Element 0 is API metadata and is always
// dropped; payloads with fewer than two elements yield no jobs. Every other
// element produces exactly one record, in input order.
func Parse(raw []domain.RawListing) []domain.JobRecord {
	if len(raw) < 2 {
		return []domain.JobRecord{}
	}

	out := make([]domain.JobRecord, 0, len(raw)-1)
	for _, l := range raw[1:] {
		out = append(out, parseListing(l))
	}
	return out
}

func parseListing(l domain.RawListing) domain.JobRecord {
	return domain.JobRecord{
		Title:       firstString(l, defaultTitle, "position", "title"),
		Company:     firstString(l, defaultCompany, "company", "company_name"),
		Tags:        stringList(l["tags"]),
		URL:         firstString(l, defaultURL, "url", "apply_url"),
		Epoch:       epoch(l["epoch"]),
		Description: firstString(l, "", "description", "body"),
		Location:    firstString(l, "", "location"),
		Logo:        firstString(l, "", "company_logo", "logo"),
	}
}

// firstString returns the first key holding a non-empty string, else def.
// Values of any other type count as missing.
func firstString(l domain.RawListing, def string, keys ...string) string {
	for _, k := range keys {
		if s, ok := l[k].(string); ok && s != "" {
			return s
		}
	}
	return def
}

func stringList(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// epoch accepts the numeric shapes a decoder may hand us. Zero, negative and
// non-numeric values mean the posting time is unknown.
func epoch(v any) *int64 {
	var n int64
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			n = i
		} else if f, err := x.Float64(); err == nil {
			n = int64(f)
		}
	case float64:
		n = int64(x)
	case int:
		n = int64(x)
	case int64:
		n = x
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil
		}
		n = i
	default:
		return nil
	}
	if n <= 0 {
		return nil
	}
	return &n
}
