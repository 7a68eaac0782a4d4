package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"anonchat/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// nextID generates a unique ID for test fixtures
func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// UserOptions allows customizing user fixture creation
type UserOptions struct {
	ID        string
	Name      string
	Email     string
	Password  string
	Friends   []string
	Chatrooms []string
}

// NewTestUser creates a stored test user with sensible defaults
// Pass options to override specific fields
func NewTestUser(opts ...func(*UserOptions)) domain.StoredUser {
	o := &UserOptions{
		ID:       nextID("user"),
		Password: "password123",
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.Name == "" {
		o.Name = "Test User " + o.ID
	}
	// Set email based on id if not provided
	if o.Email == "" {
		o.Email = o.ID + "@example.com"
	}
	if o.Friends == nil {
		o.Friends = []string{}
	}
	if o.Chatrooms == nil {
		o.Chatrooms = []string{}
	}

	return domain.StoredUser{
		User: domain.User{
			ID:        o.ID,
			Email:     o.Email,
			Name:      o.Name,
			Friends:   o.Friends,
			Chatrooms: o.Chatrooms,
		},
		Password: o.Password,
	}
}

// User option functions

// WithUserID sets the user ID
func WithUserID(id string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.ID = id
	}
}

// WithName sets the display name
func WithName(name string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Name = name
	}
}

// WithEmail sets the email
func WithEmail(email string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Email = email
	}
}

// WithPassword sets the stored password, plaintext or bcrypt
func WithPassword(password string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Password = password
	}
}

// WithFriends sets the friend list
func WithFriends(ids ...string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Friends = ids
	}
}

// WithUserChatrooms sets the chatroom id list
func WithUserChatrooms(ids ...string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Chatrooms = ids
	}
}

// ChatroomOptions allows customizing chatroom fixture creation
type ChatroomOptions struct {
	ID             string
	Name           string
	CreatedBy      string
	Participants   []string
	Messages       []domain.ChatMessage
	AnonymousNames map[string]string
}

// NewTestChatroom creates a test chatroom. Participants default to the creator and every
// participant without an explicit alias gets "Alias <id>".
func NewTestChatroom(opts ...func(*ChatroomOptions)) domain.Chatroom {
	o := &ChatroomOptions{
		ID:   nextID("room"),
		Name: fmt.Sprintf("Test Room %d", idCounter.Load()),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.CreatedBy == "" {
		o.CreatedBy = nextID("user")
	}
	if len(o.Participants) == 0 {
		o.Participants = []string{o.CreatedBy}
	}
	if o.Messages == nil {
		o.Messages = []domain.ChatMessage{}
	}
	if o.AnonymousNames == nil {
		o.AnonymousNames = make(map[string]string, len(o.Participants))
	}
	for _, id := range o.Participants {
		if _, ok := o.AnonymousNames[id]; !ok {
			o.AnonymousNames[id] = "Alias " + id
		}
	}

	return domain.Chatroom{
		ID:             o.ID,
		Name:           o.Name,
		CreatedBy:      o.CreatedBy,
		Participants:   o.Participants,
		Messages:       o.Messages,
		AnonymousNames: o.AnonymousNames,
	}
}

// Chatroom option functions

// WithChatroomID sets the chatroom ID
func WithChatroomID(id string) func(*ChatroomOptions) {
	return func(o *ChatroomOptions) {
		o.ID = id
	}
}

// WithChatroomName sets the chatroom name
func WithChatroomName(name string) func(*ChatroomOptions) {
	return func(o *ChatroomOptions) {
		o.Name = name
	}
}

// WithCreatedBy sets the creator
func WithCreatedBy(userID string) func(*ChatroomOptions) {
	return func(o *ChatroomOptions) {
		o.CreatedBy = userID
	}
}

// WithParticipants sets the participant list; include the creator
func WithParticipants(ids ...string) func(*ChatroomOptions) {
	return func(o *ChatroomOptions) {
		o.Participants = ids
	}
}

// WithAliases sets explicit anonymous names
func WithAliases(names map[string]string) func(*ChatroomOptions) {
	return func(o *ChatroomOptions) {
		o.AnonymousNames = names
	}
}

// WithMessages sets the message history
func WithMessages(messages ...domain.ChatMessage) func(*ChatroomOptions) {
	return func(o *ChatroomOptions) {
		o.Messages = messages
	}
}

// NewTestMessage creates a message from senderID with content sent at a fixed instant
func NewTestMessage(senderID, content string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        nextID("msg"),
		SenderID:  senderID,
		Content:   content,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).UnixMilli() + idCounter.Load(),
	}
}
