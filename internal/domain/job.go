package domain

// RawListing is one element of the upstream payload, decoded as a JSON object.
// Numbers are kept as json.Number. A nil RawListing means the element was not an object.
type RawListing map[string]any

// JobRecord is the normalized listing. Every field is always set.
type JobRecord struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Tags        []string `json:"tags"`
	URL         string   `json:"url"`
	Epoch       *int64   `json:"epoch"` // unix seconds; nil when unknown
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Logo        string   `json:"logo"`
}

// HasEpoch reports whether the posting time is known.
func (j JobRecord) HasEpoch() bool { return j.Epoch != nil }
