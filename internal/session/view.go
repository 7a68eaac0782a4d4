package session

import (
	"time"

	"anonchat/internal/domain"
)

// UnknownLabel is shown for a sender with no alias in the chatroom.
const UnknownLabel = "Anonymous"

// MessageView is one message as it should be displayed to the bound user.
type MessageView struct {
	ID     string
	Sender string
	Text   string
	IsHost bool
	IsOwn  bool
	SentAt time.Time
}

// Render returns the local snapshot's messages in stored order. Host messages carry the
// host label in place of the sender's alias and have the marker stripped from their text.
func (s *Session) Render() []MessageView {
	return RenderMessages(s.Chatroom(), s.userID)
}

// RenderMessages builds the views of chatroom's messages as seen by viewerID.
func RenderMessages(chatroom domain.Chatroom, viewerID string) []MessageView {
	views := make([]MessageView, 0, len(chatroom.Messages))
	for _, m := range chatroom.Messages {
		text, isHost := domain.ParseContent(m.Content)
		views = append(views, MessageView{
			ID:     m.ID,
			Sender: senderLabel(chatroom, m.SenderID, isHost),
			Text:   text,
			IsHost: isHost,
			IsOwn:  m.SenderID == viewerID,
			SentAt: m.SentAt(),
		})
	}
	return views
}

// Alias returns the bound user's own alias in the chatroom.
func (s *Session) Alias() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatroom.Alias(s.userID)
}

func senderLabel(chatroom domain.Chatroom, senderID string, isHost bool) string {
	if isHost {
		return domain.HostLabel
	}
	if name := chatroom.Alias(senderID); name != "" {
		return name
	}
	return UnknownLabel
}
