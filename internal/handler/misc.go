package handler

import (
	"log"
	"net/http"
	"time"

	"refractor/internal/model"
)

// Root handles GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message":   "Refract0r Server is running!",
		"timestamp": model.ISOTime(time.Now()),
	})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"uptime":    time.Since(h.startedAt).Seconds(),
		"timestamp": model.ISOTime(time.Now()),
	})
}

// GetThumbnails handles GET /api/thumbnails
func (h *Handler) GetThumbnails(w http.ResponseWriter, r *http.Request) {
	log.Printf("[GET /api/thumbnails] Request received from %s", r.RemoteAddr)

	if h.Thumbs == nil {
		log.Printf("[GET /api/thumbnails] ⚠️ Storage client not configured")
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "Thumbnail storage unavailable",
			"message": "Google Cloud Storage client is not configured",
		})
		return
	}

	list, err := h.Thumbs.Thumbnails(r.Context())
	if err != nil {
		log.Printf("[GET /api/thumbnails] ❌ %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to fetch thumbnails from Google Cloud Storage",
			"message": err.Error(),
		})
		return
	}

	log.Printf("[GET /api/thumbnails] ✅ Returned %d thumbnails", list.Count)
	respondJSON(w, http.StatusOK, list)
}

// NotFound handles every unmatched route.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	log.Printf("⚠️ Route not found: %s %s", r.Method, r.URL.Path)
	respondJSON(w, http.StatusNotFound, map[string]string{
		"error": "Route not found",
		"path":  r.URL.Path,
	})
}
