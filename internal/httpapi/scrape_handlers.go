package httpapi

import (
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"remotejobs-engine/internal/store"
)

type ScrapeHandler struct {
	Board   *store.Board
	Limiter *rate.Limiter
}

func (h ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Board.Status())
}

// Refresh runs one fetch and returns its outcome. force=1 skips the cache.
// A failed fetch answers 502 with the outcome as body.
func (h ScrapeHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil {
		res := h.Limiter.Reserve()
		if d := res.Delay(); !res.OK() || d > 0 {
			res.Cancel()
			if res.OK() {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
			}
			WriteError(w, r, http.StatusTooManyRequests, codeRateLimited, "too many refresh requests")
			return
		}
	}

	out := h.Board.Refresh(r.Context(), queryFlag(r, "force"))
	status := http.StatusOK
	if out.Kind == store.Failed {
		status = http.StatusBadGateway
	}
	WriteJSON(w, status, out)
}
