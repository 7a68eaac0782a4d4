package domain

import (
	"strings"
	"time"
)

// HostMarker prefixes the content of messages the creator posted as host.
const HostMarker = "[HOST]"

// HostLabel is shown instead of the sender's alias on host messages.
const HostLabel = "Host"

// ChatMessage is one entry of a chatroom's append-only history
type ChatMessage struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// SentAt returns the message timestamp as a time.Time.
func (m ChatMessage) SentAt() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// FormatContent returns the stored content for text, carrying the host marker when asHost.
func FormatContent(text string, asHost bool) string {
	if asHost {
		return HostMarker + " " + text
	}
	return text
}

// ParseContent splits stored content into its display text and whether it was posted as
// host. Any content starting with the marker counts as host; only the first "[HOST] "
// occurrence is removed from the text.
func ParseContent(content string) (text string, isHost bool) {
	if !strings.HasPrefix(content, HostMarker) {
		return content, false
	}
	return strings.Replace(content, HostMarker+" ", "", 1), true
}
