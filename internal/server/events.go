package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tordrt/schemadraft/internal/reconcile"
	"github.com/tordrt/schemadraft/internal/schema"
)

// eventBuffer is how many events a slow stream client may lag behind
// before events are dropped for it.
const eventBuffer = 16

type eventView struct {
	Version   uint64         `json:"version"`
	Mode      reconcile.Mode `json:"mode"`
	Changed   []string       `json:"changed"`
	Removed   []string       `json:"removed"`
	Streaming bool           `json:"streaming"`
	Status    string         `json:"status"`
	Schema    *schema.Schema `json:"schema"`
}

// handleEvents streams session changes as server-sent events until the
// client goes away or the session is deleted.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	events, unsubscribe := sess.Subscribe(eventBuffer)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		s.logger.Warn("event stream cannot flush", "error", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.streams.Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(eventView{
				Version:   ev.Version,
				Mode:      ev.Mode,
				Changed:   ev.Changed,
				Removed:   ev.Removed,
				Streaming: ev.Streaming,
				Status:    reconcile.StatusLine(ev.Streaming, ev.Mode, ev.Schema.Len()),
				Schema:    ev.Schema,
			})
			if err != nil {
				s.logger.Error("failed to encode event", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: schema\ndata: %s\n\n", ev.Version, data)
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
