package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// GetVideos handles GET /api/videos
func (h *Handler) GetVideos(w http.ResponseWriter, r *http.Request) {
	log.Printf("[GET /api/videos] Request received from %s", r.RemoteAddr)

	videos := h.Store.Videos()

	log.Printf("[GET /api/videos] ✅ Returned %d videos", len(videos))
	respondJSON(w, http.StatusOK, videos)
}

// GetVideo handles GET /api/videos/{id}
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log.Printf("[GET /api/videos/%s] Request received from %s", id, r.RemoteAddr)

	video := h.Store.Video(id)

	log.Printf("[GET /api/videos/%s] ✅ Returned video", id)
	respondJSON(w, http.StatusOK, video)
}

// CreateVideo handles POST /api/videos. The collaborator never
// persists anything, so this only echoes a plausible creation result.
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	log.Printf("[POST /api/videos] Request received from %s", r.RemoteAddr)

	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Channel     string `json:"channel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Printf("[POST /api/videos] ❌ Invalid body: %v", err)
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Invalid request body",
			"message": "Request body must be valid JSON",
		})
		return
	}

	video := h.Store.CreateVideo(body.Title, body.Description, body.Channel)

	log.Printf("[POST /api/videos] ✅ Created video %d", video.ID)
	respondJSON(w, http.StatusCreated, video)
}
