package store

import "refractor/internal/model"

// モックデータ。APIルートが返す固定データ。

func mockConversations() []model.Conversation {
	return []model.Conversation{
		{
			ID:          "cirno",
			Name:        "Cirno_tv",
			LastMessage: "sounds good to me",
			Time:        "5:45pm",
			Unread:      true,
			Status:      "online",
		},
		{
			ID:           "main-menu-group",
			Name:         "Main Menu Group Room",
			LastMessage:  "Time for the new emotes to come...",
			Time:         "5:44pm",
			Participants: 12,
			IsGroup:      true,
			Status:       "active",
		},
		{
			ID:          "omgisle",
			Name:        "OMGEisIe",
			LastMessage: "LOL",
			Time:        "3:45pm",
			Status:      "away",
		},
		{
			ID:          "shark",
			Name:        "Shark",
			LastMessage: "Thanks buddy.",
			Time:        "8:26am",
			Status:      "offline",
		},
		{
			ID:          "geoff",
			Name:        "Geoff",
			LastMessage: "hope to see you in the cast friend",
			Time:        "yesterday",
			Status:      "offline",
		},
	}
}

func mockUsers() map[string]model.User {
	return map[string]model.User{
		"iKasperr": {
			ID:        "user1",
			Username:  "iKasperr",
			Email:     "ikasperr@example.com",
			CreatedAt: "2024-01-01",
		},
		"Brotatoe": {
			ID:        "user2",
			Username:  "Brotatoe",
			Email:     "brotatoe@example.com",
			CreatedAt: "2024-01-02",
		},
		"tehMorag": {
			ID:        "user3",
			Username:  "tehMorag",
			Email:     "tehmorag@example.com",
			Avatar:    "https://placehold.co/20x20/FF0000/FFFFFF?text=T",
			CreatedAt: "2024-01-03",
		},
		"Thundercast": {
			ID:        "user4",
			Username:  "Thundercast",
			Email:     "thundercast@example.com",
			CreatedAt: "2024-01-04",
		},
		"HJTanchi": {
			ID:        "user5",
			Username:  "HJTanchi",
			Email:     "hjtanchi@example.com",
			CreatedAt: "2024-01-05",
		},
	}
}

func mockMessages() map[string][]model.ChatMessage {
	return map[string][]model.ChatMessage{
		"main-menu-group": {
			{ID: "1", User: "iKasperr", Time: "4:45pm", Text: "and bryan with the wasabi..."},
			{ID: "2", User: "iKasperr", Time: "4:45pm", Text: "Topic: Darkest Dungeon Keys"},
			{ID: "3", User: "Brotatoe", Time: "5:40pm", Text: "PHEW."},
			{ID: "4", User: "tehMorag", Time: "5:41pm", Text: "you put my worries to REST hardcore", Avatar: "https://placehold.co/20x20/FF0000/FFFFFF?text=T"},
			{ID: "5", Kind: model.KindDate, Date: "Thursday. February 5th"},
			{ID: "6", User: "Brotatoe", Time: "5:41pm", Text: "That was worrying"},
			{ID: "7", User: "Brotatoe", Time: "5:41pm", Text: `Was getting scared we would be like "TIME TO DRAW IT ON PAPER"`},
			{ID: "8", User: "Thundercast", Time: "5:42pm", Text: "So yeah, game night was fun. Pitchford's house is crazy. Big home theater and a game room with like every board board game and lego set ever."},
			{ID: "9", User: "HJTanchi", Time: "5:44pm", Text: "Nice!", Emoji: "🎉"},
			{ID: "10", User: "tehMorag", Time: "5:45pm", Text: "so, what job were you offered this time?", Avatar: "https://placehold.co/20x20/FF0000/FFFFFF?text=T"},
		},
		"cirno": {
			{ID: "1", User: "Cirno_tv", Time: "5:45pm", Text: "sounds good to me"},
		},
		"omgisle": {
			{ID: "1", User: "OMGEisIe", Time: "3:45pm", Text: "LOL"},
		},
		"shark": {
			{ID: "1", User: "Shark", Time: "8:26am", Text: "Thanks buddy."},
		},
		"geoff": {
			{ID: "1", User: "Geoff", Time: "yesterday", Text: "hope to see you in the cast friend"},
		},
	}
}

func mockComments() []model.Comment {
	return []model.Comment{
		{ID: 1, User: "TechGuru42", Message: "Great stream! Love the content", Timestamp: "2:30 PM"},
		{ID: 2, User: "StreamFan99", Message: "How long have you been streaming?", Timestamp: "2:32 PM"},
		{ID: 3, User: "Viewer123", Message: "Can you show u,ls that trick again?", Timestamp: "2:35 PM"},
		{ID: 4, User: "ChatMaster", Message: "🔥🔥🔥", Timestamp: "2:36 PM"},
		{ID: 5, User: "NewViewer", Message: "First time here, loving the vibe!", Timestamp: "2:38 PM"},
		{ID: 6, User: "RegularFan", Message: "Missed yesterday's stream, glad I caught this one", Timestamp: "2:40 PM"},
		{ID: 7, User: "TechGuru42", Message: "Thanks everyone for tuning in!", Timestamp: "2:42 PM"},
		{ID: 8, User: "StreamFan99", Message: "What's next on the agenda?", Timestamp: "2:43 PM"},
	}
}

func mockVideos() []model.Video {
	return []model.Video{
		{
			ID:          1,
			Title:       "Sample Video 1",
			Description: "This is a sample video description",
			Thumbnail:   "https://via.placeholder.com/320x180",
			Channel:     "Sample Channel",
			Views:       1000,
			Duration:    "10:30",
			UploadDate:  "2024-01-15",
		},
		{
			ID:          2,
			Title:       "Sample Video 2",
			Description: "Another sample video description",
			Thumbnail:   "https://via.placeholder.com/320x180",
			Channel:     "Another Channel",
			Views:       2500,
			Duration:    "15:45",
			UploadDate:  "2024-01-14",
		},
		{
			ID:          3,
			Title:       "Sample Video 3",
			Description: "Yet another sample video description",
			Thumbnail:   "https://via.placeholder.com/320x180",
			Channel:     "Third Channel",
			Views:       500,
			Duration:    "8:20",
			UploadDate:  "2024-01-13",
		},
	}
}
