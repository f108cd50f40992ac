package handler

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// GetComments handles GET /api/comments
func (h *Handler) GetComments(w http.ResponseWriter, r *http.Request) {
	log.Printf("[GET /api/comments] Request received from %s", r.RemoteAddr)

	comments := h.Store.Comments()

	log.Printf("[GET /api/comments] ✅ Returned %d comments", len(comments))
	respondJSON(w, http.StatusOK, comments)
}

// GetSceneComments handles GET /api/comments/{sceneId}
// Scene comment sets live as static JSON files under the static
// directory and are re-read on every request.
func (h *Handler) GetSceneComments(w http.ResponseWriter, r *http.Request) {
	sceneID := mux.Vars(r)["sceneId"]
	log.Printf("[GET /api/comments/%s] Request received from %s", sceneID, r.RemoteAddr)

	comments, err := h.Store.SceneComments(sceneID)
	if err != nil {
		log.Printf("[GET /api/comments/%s] ❌ %v", sceneID, err)
		respondJSON(w, http.StatusNotFound, map[string]string{
			"error":   "Scene comments not found",
			"message": fmt.Sprintf("No comments file for scene %s", sceneID),
		})
		return
	}

	log.Printf("[GET /api/comments/%s] ✅ Returned %d comments", sceneID, len(comments))
	respondJSON(w, http.StatusOK, comments)
}
