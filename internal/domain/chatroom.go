package domain

import (
	"context"
	"errors"
	"maps"
	"slices"
)

var (
	ErrChatroomNotFound = errors.New("chatroom not found")
	ErrNotAParticipant  = errors.New("user is not a participant of this chatroom")
	ErrNotHost          = errors.New("only the chatroom creator can post as host")
)

// ChatroomsKey is the store key of the persisted chatroom collection.
const ChatroomsKey = "chatrooms"

// Chatroom is an anonymous group chat. Participants and AnonymousNames are fixed at
// creation; Messages only grows.
type Chatroom struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	CreatedBy      string            `json:"createdBy"`
	Participants   []string          `json:"participants"`
	Messages       []ChatMessage     `json:"messages"`
	AnonymousNames map[string]string `json:"anonymousNames"`
}

// IsParticipant reports whether userID was snapshotted into the chatroom at creation.
func (c Chatroom) IsParticipant(userID string) bool {
	return slices.Contains(c.Participants, userID)
}

// IsHost reports whether userID created the chatroom.
func (c Chatroom) IsHost(userID string) bool {
	return c.CreatedBy == userID
}

// Alias returns the anonymous name assigned to userID, or "" if none.
func (c Chatroom) Alias(userID string) string {
	return c.AnonymousNames[userID]
}

// Clone returns a deep copy so callers can hold a snapshot without sharing slices or maps.
func (c Chatroom) Clone() Chatroom {
	c.Participants = slices.Clone(c.Participants)
	c.Messages = slices.Clone(c.Messages)
	c.AnonymousNames = maps.Clone(c.AnonymousNames)
	return c
}

// ChatroomRepository defines whole-collection access to persisted chatrooms
type ChatroomRepository interface {
	List(ctx context.Context) ([]Chatroom, error)
	Get(ctx context.Context, id string) (Chatroom, error)
	Create(ctx context.Context, chatroom Chatroom) error
	Update(ctx context.Context, chatroom Chatroom) error
	ListForUser(ctx context.Context, userID string) ([]Chatroom, error)
	AppendMessage(ctx context.Context, chatroomID string, message ChatMessage) (Chatroom, error)
}
