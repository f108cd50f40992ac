// Package store serves the fixed mock data behind the collaborator
// API. Nothing here is durable on purpose: the relay layer above it
// must work against a collaborator that never persists writes.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"refractor/internal/model"
)

// Store holds the mock data sets and the directory scene files load from.
type Store struct {
	staticDir     string
	conversations []model.Conversation
	messages      map[string][]model.ChatMessage
	users         map[string]model.User
	comments      []model.Comment
	videos        []model.Video
}

// New seeds a Store with the built-in mock data. staticDir is where
// per-scene comment files live.
func New(staticDir string) *Store {
	return &Store{
		staticDir:     staticDir,
		conversations: mockConversations(),
		messages:      mockMessages(),
		users:         mockUsers(),
		comments:      mockComments(),
		videos:        mockVideos(),
	}
}

// Conversations returns all conversation summaries.
func (s *Store) Conversations() []model.Conversation {
	out := make([]model.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// ConversationDetail returns one conversation with its history and the
// participant directory. ok is false for unknown ids.
func (s *Store) ConversationDetail(id string) (model.ConversationDetail, bool) {
	for _, conv := range s.conversations {
		if conv.ID == id {
			msgs := s.messages[id]
			out := make([]model.ChatMessage, len(msgs))
			copy(out, msgs)
			return model.ConversationDetail{
				Conversation: conv,
				Messages:     out,
				Users:        s.users,
			}, true
		}
	}
	return model.ConversationDetail{}, false
}

// Comments returns the queued audience comments.
func (s *Store) Comments() []model.Comment {
	out := make([]model.Comment, len(s.comments))
	copy(out, s.comments)
	return out
}

// SceneComments loads the comment queue for one scene from a static
// JSON file. The file is re-read on every call so edits show up
// without a restart.
func (s *Store) SceneComments(sceneID string) ([]model.Comment, error) {
	var out []model.Comment
	path := filepath.Join("comments", sceneID+".json")
	if err := s.loadFile(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Videos returns the video catalogue.
func (s *Store) Videos() []model.Video {
	out := make([]model.Video, len(s.videos))
	copy(out, s.videos)
	return out
}

// Video synthesizes a single-video response for any id.
func (s *Store) Video(id string) model.Video {
	numericID, _ := strconv.ParseInt(id, 10, 64)
	return model.Video{
		ID:          numericID,
		Title:       fmt.Sprintf("Video %s", id),
		Description: fmt.Sprintf("Description for video %s", id),
		Thumbnail:   "https://via.placeholder.com/320x180",
		Channel:     "Sample Channel",
		Views:       1000,
		Duration:    "10:30",
		UploadDate:  "2024-01-15",
		Likes:       150,
		Dislikes:    5,
	}
}

// CreateVideo builds the mock creation response. Nothing is stored.
func (s *Store) CreateVideo(title, description, channel string) model.Video {
	if title == "" {
		title = "New Video"
	}
	if description == "" {
		description = "New video description"
	}
	if channel == "" {
		channel = "New Channel"
	}
	return model.Video{
		ID:          time.Now().UnixMilli(),
		Title:       title,
		Description: description,
		Channel:     channel,
		Views:       0,
		UploadDate:  time.Now().UTC().Format("2006-01-02"),
	}
}

// loadFile reads and parses one static JSON file. No caching.
func (s *Store) loadFile(name string, v any) error {
	fullPath := filepath.Join(s.staticDir, name)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return fmt.Errorf("failed to load static file %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse static file %s: %w", name, err)
	}
	return nil
}
