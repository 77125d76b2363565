package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/derrickgolden/easyisp-engine/pkg/connectivity"
	"github.com/derrickgolden/easyisp-engine/pkg/httputil"
)

// WatchHandlers exposes the live-status pollers. An operator opening a
// subscriber's status pane starts a watch; the pane then polls the cached
// result here instead of hitting the accounting backend on every refresh.
type WatchHandlers struct {
	manager *connectivity.Manager

	mu     sync.Mutex
	latest map[int64]*watchedStatus
}

type watchedStatus struct {
	Status    *connectivity.TechnicalStatus `json:"status"`
	FetchedAt time.Time                     `json:"fetched_at"`
}

// NewWatchHandlers creates handlers for live-status watches. manager may be
// nil when the accounting feed is not configured.
func NewWatchHandlers(manager *connectivity.Manager) *WatchHandlers {
	return &WatchHandlers{
		manager: manager,
		latest:  make(map[int64]*watchedStatus),
	}
}

// RegisterRoutes registers watch routes on the router.
func (h *WatchHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/subscribers/{id}/watch", h.StartWatch).Methods("POST")
	router.HandleFunc("/subscribers/{id}/watch", h.GetWatch).Methods("GET")
	router.HandleFunc("/subscribers/{id}/watch", h.StopWatch).Methods("DELETE")
}

// StartWatch begins polling the subscriber's session. Idempotent: watching
// an already-watched subscriber keeps the existing poller.
func (h *WatchHandlers) StartWatch(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if h.manager == nil {
		httputil.WriteServiceUnavailable(w, "accounting feed not configured")
		return
	}

	// The poller must outlive this request.
	h.manager.Watch(context.Background(), id, func(status *connectivity.TechnicalStatus) {
		h.mu.Lock()
		h.latest[id] = &watchedStatus{Status: status, FetchedAt: time.Now()}
		h.mu.Unlock()
	})

	httputil.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"subscriber_id": id,
		"watching":      true,
	})
}

// GetWatch returns the most recent status the poller fetched.
func (h *WatchHandlers) GetWatch(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if h.manager == nil || !h.manager.Watching(id) {
		httputil.WriteNotFoundError(w, "subscriber is not being watched")
		return
	}

	h.mu.Lock()
	latest := h.latest[id]
	h.mu.Unlock()

	if latest == nil {
		// Poller started but the first refresh has not landed yet.
		httputil.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
			"subscriber_id": id,
			"watching":      true,
		})
		return
	}

	httputil.WriteSuccess(w, latest)
}

// StopWatch releases the subscriber's poller.
func (h *WatchHandlers) StopWatch(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if h.manager != nil {
		h.manager.Release(id)
	}

	h.mu.Lock()
	delete(h.latest, id)
	h.mu.Unlock()

	httputil.WriteNoContent(w)
}
