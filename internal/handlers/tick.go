package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/Saul-Punybz/hnbrief/internal/pipeline"
)

type TickRunner interface {
	RunTick(ctx context.Context, keyword string) pipeline.Stats
}

// TickHandler triggers a pipeline tick outside the schedule. At most one
// triggered tick runs at a time.
type TickHandler struct {
	Runner  TickRunner
	Keyword string

	running atomic.Bool
	// done is signalled after each background tick; tests use it.
	done func(pipeline.Stats)
}

// Trigger handles POST /api/tick with an optional {"keyword": "..."} body.
func (h *TickHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Keyword string `json:"keyword"`
	}
	if r.ContentLength != 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	}
	keyword := strings.TrimSpace(body.Keyword)
	if keyword == "" {
		keyword = h.Keyword
	}

	if !h.running.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "tick already running")
		return
	}

	go func() {
		stats := h.Runner.RunTick(context.Background(), keyword)
		h.running.Store(false)
		slog.Info("manual tick finished", "keyword", keyword, "delivered", stats.Delivered)
		if h.done != nil {
			h.done(stats)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "running", "keyword": keyword})
}
