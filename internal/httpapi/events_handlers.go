package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"remotejobs-engine/internal/events"
)

const defaultPingInterval = 25 * time.Second

type EventsHandler struct {
	Hub          *events.Hub
	PingInterval time.Duration
}

func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	reqID := RequestIDFrom(r.Context())
	ch, cancel := h.Hub.Subscribe()
	slog.Debug("event stream opened", "request_id", reqID, "subscribers", h.Hub.Subscribers())
	defer func() {
		cancel()
		slog.Debug("event stream closed", "request_id", reqID, "subscribers", h.Hub.Subscribers())
	}()

	every := h.PingInterval
	if every <= 0 {
		every = defaultPingInterval
	}
	t := time.NewTicker(every)
	defer t.Stop()

	send := func(msg string) {
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
		flusher.Flush()
	}

	send(events.MakeEvent(reqID, events.TypePing, nil))
	for {
		select {
		case <-r.Context().Done():
			return
		case <-t.C:
			send(events.MakeEvent(reqID, events.TypePing, nil))
		case msg, ok := <-ch:
			if !ok {
				return
			}
			send(msg)
		}
	}
}
