package repository

import (
	"context"
	"slices"

	"anonchat/internal/domain"

	"github.com/samber/lo"
)

var _ domain.ChatroomRepository = (*ChatroomRepository)(nil)

// ChatroomRepository implements domain.ChatroomRepository over the "chatrooms" collection
type ChatroomRepository struct {
	rooms *collection[domain.Chatroom]
}

// NewChatroomRepository creates a chatroom repository on store
func NewChatroomRepository(store domain.Store, opts Options) *ChatroomRepository {
	return &ChatroomRepository{rooms: newCollection[domain.Chatroom](store, domain.ChatroomsKey, opts)}
}

// List returns every chatroom in stored order
func (r *ChatroomRepository) List(ctx context.Context) ([]domain.Chatroom, error) {
	rooms, _, err := r.rooms.load(ctx)
	return rooms, err
}

// Get returns the chatroom with id or domain.ErrChatroomNotFound
func (r *ChatroomRepository) Get(ctx context.Context, id string) (domain.Chatroom, error) {
	rooms, _, err := r.rooms.load(ctx)
	if err != nil {
		return domain.Chatroom{}, err
	}
	room, ok := lo.Find(rooms, func(c domain.Chatroom) bool { return c.ID == id })
	if !ok {
		return domain.Chatroom{}, domain.ErrChatroomNotFound
	}
	return room, nil
}

// Create appends chatroom to the collection
func (r *ChatroomRepository) Create(ctx context.Context, chatroom domain.Chatroom) error {
	chatroom = normalizeChatroom(chatroom)
	return r.rooms.mutate(ctx, func(rooms []domain.Chatroom) ([]domain.Chatroom, error) {
		return append(rooms, chatroom), nil
	})
}

// Update replaces the chatroom with the same id. Unknown ids are ignored without writing.
func (r *ChatroomRepository) Update(ctx context.Context, chatroom domain.Chatroom) error {
	chatroom = normalizeChatroom(chatroom)
	return r.rooms.mutate(ctx, func(rooms []domain.Chatroom) ([]domain.Chatroom, error) {
		idx := slices.IndexFunc(rooms, func(c domain.Chatroom) bool { return c.ID == chatroom.ID })
		if idx == -1 {
			return nil, errUnchanged
		}
		rooms[idx] = chatroom
		return rooms, nil
	})
}

// ListForUser returns the chatrooms whose participants include userID
func (r *ChatroomRepository) ListForUser(ctx context.Context, userID string) ([]domain.Chatroom, error) {
	rooms, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(rooms, func(c domain.Chatroom, _ int) bool { return c.IsParticipant(userID) }), nil
}

// AppendMessage adds message to the chatroom's history and returns the chatroom as
// written. The sender must be a participant in the snapshot being modified.
func (r *ChatroomRepository) AppendMessage(ctx context.Context, chatroomID string, message domain.ChatMessage) (domain.Chatroom, error) {
	var written domain.Chatroom
	err := r.rooms.mutate(ctx, func(rooms []domain.Chatroom) ([]domain.Chatroom, error) {
		idx := slices.IndexFunc(rooms, func(c domain.Chatroom) bool { return c.ID == chatroomID })
		if idx == -1 {
			return nil, domain.ErrChatroomNotFound
		}
		room := rooms[idx]
		if !room.IsParticipant(message.SenderID) {
			return nil, domain.ErrNotAParticipant
		}
		room.Messages = append(slices.Clone(room.Messages), message)
		rooms[idx] = room
		written = room.Clone()
		return rooms, nil
	})
	if err != nil {
		return domain.Chatroom{}, err
	}
	return written, nil
}

// normalizeChatroom keeps empty collections encoded as [] and {} rather than null.
func normalizeChatroom(c domain.Chatroom) domain.Chatroom {
	if c.Participants == nil {
		c.Participants = []string{}
	}
	if c.Messages == nil {
		c.Messages = []domain.ChatMessage{}
	}
	if c.AnonymousNames == nil {
		c.AnonymousNames = map[string]string{}
	}
	return c
}
