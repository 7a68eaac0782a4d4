package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"anonchat/internal/domain"
	"anonchat/internal/observability"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// AliasAllocator assigns a distinct anonymous name to each participant.
type AliasAllocator interface {
	Assign(participantIDs []string) map[string]string
}

type ChatService struct {
	chatroomRepo domain.ChatroomRepository
	userRepo     domain.UserRepository
	aliases      AliasAllocator
	log          *slog.Logger
	now          func() time.Time
}

type ChatOption func(*ChatService)

// WithClock replaces the wall clock used for message timestamps.
func WithClock(now func() time.Time) ChatOption {
	return func(s *ChatService) {
		s.now = now
	}
}

// WithChatLogger sets the service logger.
func WithChatLogger(log *slog.Logger) ChatOption {
	return func(s *ChatService) {
		s.log = log
	}
}

func NewChatService(chatroomRepo domain.ChatroomRepository, userRepo domain.UserRepository, aliases AliasAllocator, opts ...ChatOption) *ChatService {
	s := &ChatService{
		chatroomRepo: chatroomRepo,
		userRepo:     userRepo,
		aliases:      aliases,
		log:          observability.Logger(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateChatroom stores a new chatroom for the creator and invitees with freshly assigned
// aliases, then records the chatroom id on every participant that exists in the directory.
func (s *ChatService) CreateChatroom(ctx context.Context, name, creatorID string, inviteeIDs []string) (domain.Chatroom, error) {
	name = strings.TrimSpace(name)
	if err := validateStruct(createChatroomRequest{Name: name, CreatorID: creatorID}); err != nil {
		return domain.Chatroom{}, err
	}

	participants := lo.Uniq(append([]string{creatorID}, lo.Compact(inviteeIDs)...))

	chatroom := domain.Chatroom{
		ID:             uuid.NewString(),
		Name:           name,
		CreatedBy:      creatorID,
		Participants:   participants,
		Messages:       []domain.ChatMessage{},
		AnonymousNames: s.aliases.Assign(participants),
	}

	if err := s.chatroomRepo.Create(ctx, chatroom); err != nil {
		return domain.Chatroom{}, err
	}

	ctx = observability.WithChatroomID(ctx, chatroom.ID)
	log := observability.With(ctx, s.log)

	// A failure here leaves the chatroom stored and only some users pointing at it.
	for _, id := range participants {
		if err := s.attachToUser(ctx, id, chatroom.ID); err != nil {
			return domain.Chatroom{}, err
		}
	}

	observability.ChatroomsCreated.Inc()
	log.Info("chatroom created", "participants", len(participants))

	return chatroom, nil
}

func (s *ChatService) attachToUser(ctx context.Context, userID, chatroomID string) error {
	user, err := s.userRepo.Get(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		observability.With(ctx, s.log).Warn("participant not in directory", "participant_id", userID)
		return nil
	}
	if err != nil {
		return err
	}
	if lo.Contains(user.Chatrooms, chatroomID) {
		return nil
	}
	user.Chatrooms = append(user.Chatrooms, chatroomID)
	return s.userRepo.Update(ctx, user)
}

// AddMessage appends content from senderID and returns the chatroom as written.
func (s *ChatService) AddMessage(ctx context.Context, chatroomID, senderID, content string) (domain.Chatroom, error) {
	// Empty ids are left to AppendMessage: they never resolve to a chatroom or a participant.
	msg := domain.ChatMessage{
		ID:        uuid.NewString(),
		SenderID:  senderID,
		Content:   content,
		Timestamp: s.now().UnixMilli(),
	}

	chatroom, err := s.chatroomRepo.AppendMessage(ctx, chatroomID, msg)
	if err != nil {
		return domain.Chatroom{}, err
	}

	kind := "plain"
	if _, isHost := domain.ParseContent(content); isHost {
		kind = "host"
	}
	observability.MessagesAppended.WithLabelValues(kind).Inc()

	return chatroom, nil
}

// Get satisfies the session's chatroom reader.
func (s *ChatService) Get(ctx context.Context, chatroomID string) (domain.Chatroom, error) {
	return s.GetChatroom(ctx, chatroomID)
}

func (s *ChatService) GetChatroom(ctx context.Context, chatroomID string) (domain.Chatroom, error) {
	return s.chatroomRepo.Get(ctx, chatroomID)
}

func (s *ChatService) ListChatrooms(ctx context.Context) ([]domain.Chatroom, error) {
	return s.chatroomRepo.List(ctx)
}

func (s *ChatService) ListUserChatrooms(ctx context.Context, userID string) ([]domain.Chatroom, error) {
	return s.chatroomRepo.ListForUser(ctx, userID)
}
