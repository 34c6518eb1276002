package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"photo-map/gallery"
	"photo-map/mapview"
)

// SessionHandlers gives every streaming client its own viewport session.
// Snapshots go out as Server-Sent Events; viewport events come back as
// POSTs addressed to the session id.
type SessionHandlers struct {
	Map      *MapHandlers
	Debounce time.Duration

	mu       sync.Mutex
	sessions map[string]*mapview.Session
}

// eventRequest is the wire form of a viewport event.
// kind: "zoom", "refresh", "select" or "mode"
type eventRequest struct {
	Kind      string  `json:"kind"`
	Zoom      float64 `json:"zoom"`
	ClusterID string  `json:"clusterId"`
	Mode      string  `json:"mode"`
}

func (h *SessionHandlers) Register(r *mux.Router) {
	r.HandleFunc("/api/session/stream", h.handleStream).Methods(http.MethodGet)
	r.HandleFunc("/api/session/{id}/events", h.handleEvent).Methods(http.MethodPost)
}

func (h *SessionHandlers) handleStream(w http.ResponseWriter, r *http.Request) {
	zoom, err := parseZoom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	session := mapview.NewSession(ctx, h.Map.Catalog, h.Map.Clusterer, h.Map.Builder, h.Map.Log, mapview.Options{
		InitialZoom: zoom,
		Debounce:    h.Debounce,
	})
	id := uuid.NewString()
	h.add(id, session)
	defer h.remove(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprintf(w, "event: session\ndata: %s\n\n", id)
	flusher.Flush()

	h.Map.Log.Debug("session opened", zap.String("session", id))
	for {
		select {
		case <-ctx.Done():
			h.Map.Log.Debug("session closed", zap.String("session", id))
			return
		case snap, ok := <-session.Updates():
			if !ok {
				return
			}
			b, err := json.Marshal(snap)
			if err != nil {
				h.Map.Log.Error("failed to encode snapshot", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		}
	}
}

func (h *SessionHandlers) handleEvent(w http.ResponseWriter, r *http.Request) {
	session, ok := h.get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := session.Send(r.Context(), ev); err != nil {
		writeError(w, http.StatusGone, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (req eventRequest) toEvent() (mapview.Event, error) {
	switch req.Kind {
	case "zoom":
		if !validZoom(req.Zoom) {
			return mapview.Event{}, fmt.Errorf("zoom must be between 0 and %d", maxZoom)
		}
		return mapview.ZoomEnd(req.Zoom), nil
	case "refresh":
		return mapview.Refresh(), nil
	case "select":
		return mapview.Select(req.ClusterID), nil
	case "mode":
		layout, err := gallery.ParseLayout(req.Mode)
		if err != nil {
			return mapview.Event{}, err
		}
		return mapview.SetMode(layout), nil
	}
	return mapview.Event{}, fmt.Errorf("unknown event kind %q", req.Kind)
}

func (h *SessionHandlers) add(id string, s *mapview.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions == nil {
		h.sessions = make(map[string]*mapview.Session)
	}
	h.sessions[id] = s
}

func (h *SessionHandlers) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

func (h *SessionHandlers) get(id string) (*mapview.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	return s, ok
}
