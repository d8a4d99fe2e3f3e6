package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kazz187/agentboard/internal/auth"
	"github.com/kazz187/agentboard/pkg/panicerr"
)

const heartbeatInterval = 25 * time.Second

// handleEvents streams the caller's board events as Server-Sent Events.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := auth.UserID(ctx)
	if uid == "" {
		http.Error(w, "sign in required", http.StatusUnauthorized)
		return
	}
	rc := http.NewResponseController(w)

	subID, ch := h.bus.Subscribe(16)
	defer h.bus.Unsubscribe(subID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	err := panicerr.SafeContext(func(ctx context.Context) error {
		if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
			return err
		}
		if err := rc.Flush(); err != nil {
			return err
		}
		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return err
				}
			case event, ok := <-ch:
				if !ok {
					return nil
				}
				if event.UserID != uid {
					continue
				}
				data, err := json.Marshal(event)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(w, "id: %s\nevent: message\ndata: %s\n\n", event.ID, data); err != nil {
					return err
				}
			}
			if err := rc.Flush(); err != nil {
				return err
			}
		}
	})(ctx)
	if err != nil && ctx.Err() == nil {
		slog.WarnContext(ctx, "event stream closed", "error", err)
	}
}
