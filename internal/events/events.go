package events

import (
	"encoding/json"
	"time"

	"remotejobs-engine/internal/store"
)

// Event types sent to dashboard subscribers.
const (
	TypeJobsLoaded  = "jobs_loaded"
	TypeFetchFailed = "fetch_failed"
	TypePing        = "ping"
)

const version = 1

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MakeEvent encodes an envelope. data is omitted when nil or not encodable.
func MakeEvent(reqID, typ string, data any) string {
	var raw json.RawMessage
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			raw = b
		}
	}
	b, _ := json.Marshal(Event{
		Type:      typ,
		Version:   version,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	})
	return string(b)
}

// FromOutcome maps a board refresh to an event. Cached refreshes change
// nothing and produce no event.
func FromOutcome(reqID string, o store.Outcome) (string, bool) {
	switch o.Kind {
	case store.Loaded, store.Empty:
		return MakeEvent(reqID, TypeJobsLoaded, o), true
	case store.Failed:
		return MakeEvent(reqID, TypeFetchFailed, o), true
	}
	return "", false
}
