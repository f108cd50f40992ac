package handler

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// GetConversations handles GET /api/conversations
func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	log.Printf("[GET /api/conversations] Request received from %s", r.RemoteAddr)

	conversations := h.Store.Conversations()

	log.Printf("[GET /api/conversations] ✅ Returned %d conversations", len(conversations))
	respondJSON(w, http.StatusOK, conversations)
}

// GetConversation handles GET /api/conversations/{id}
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log.Printf("[GET /api/conversations/%s] Request received from %s", id, r.RemoteAddr)

	detail, ok := h.Store.ConversationDetail(id)
	if !ok {
		log.Printf("[GET /api/conversations/%s] ❌ Not Found", id)
		respondJSON(w, http.StatusNotFound, map[string]string{
			"error":   "Conversation not found",
			"message": fmt.Sprintf("Conversation with id %s does not exist", id),
		})
		return
	}

	log.Printf("[GET /api/conversations/%s] ✅ Returned %d messages", id, len(detail.Messages))
	respondJSON(w, http.StatusOK, detail)
}
