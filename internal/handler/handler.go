package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"refractor/internal/config"
	"refractor/internal/relay"
	"refractor/internal/store"
	"refractor/internal/thumbs"
)

// ThumbnailLister lists thumbnail assets. nil disables the endpoint.
type ThumbnailLister interface {
	Thumbnails(ctx context.Context) (thumbs.List, error)
}

// Handler holds application dependencies
type Handler struct {
	Config    config.Config
	Store     *store.Store
	Relay     *relay.Relay
	Thumbs    ThumbnailLister
	startedAt time.Time
}

// New creates a new Handler with the given dependencies
func New(cfg config.Config, st *store.Store, r *relay.Relay, thumbs ThumbnailLister) *Handler {
	return &Handler{
		Config:    cfg,
		Store:     st,
		Relay:     r,
		Thumbs:    thumbs,
		startedAt: time.Now(),
	}
}

// SetupRouter configures and returns the HTTP router
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", h.Root).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")

	// REST API（キャッシュさせない）
	api := r.PathPrefix("/api").Subrouter()
	api.Use(noCache)
	api.HandleFunc("/conversations", h.GetConversations).Methods("GET")
	api.HandleFunc("/conversations/{id}", h.GetConversation).Methods("GET")
	api.HandleFunc("/comments", h.GetComments).Methods("GET")
	api.HandleFunc("/comments/{sceneId}", h.GetSceneComments).Methods("GET")
	api.HandleFunc("/videos", h.GetVideos).Methods("GET")
	api.HandleFunc("/videos", h.CreateVideo).Methods("POST")
	api.HandleFunc("/videos/{id}", h.GetVideo).Methods("GET")
	api.HandleFunc("/thumbnails", h.GetThumbnails).Methods("GET")

	// WebSocket
	r.HandleFunc(h.Config.WSPath, h.Relay.HandleWebSocket).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	return r
}

// noCache disables caching for API routes.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

// respondJSON writes one JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
