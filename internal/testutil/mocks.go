// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the anonchat application.
package testutil

import (
	"context"
	"errors"
	"slices"
	"sync"

	"anonchat/internal/domain"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockStore          = errors.New("mock: store unavailable")
)

// MockUserRepository implements domain.UserRepository for testing
type MockUserRepository struct {
	mu sync.RWMutex

	// Function overrides - set these to customize behavior
	ListFunc       func(ctx context.Context) ([]domain.StoredUser, error)
	GetFunc        func(ctx context.Context, id string) (domain.StoredUser, error)
	GetByEmailFunc func(ctx context.Context, email string) (domain.StoredUser, error)
	CreateFunc     func(ctx context.Context, user domain.StoredUser) error
	UpdateFunc     func(ctx context.Context, user domain.StoredUser) error

	// In-memory storage for simple tests, in insertion order
	Users []domain.StoredUser
}

// NewMockUserRepository creates a MockUserRepository seeded with users
func NewMockUserRepository(users ...domain.StoredUser) *MockUserRepository {
	return &MockUserRepository{Users: slices.Clone(users)}
}

func (m *MockUserRepository) List(ctx context.Context) ([]domain.StoredUser, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.Users), nil
}

func (m *MockUserRepository) Get(ctx context.Context, id string) (domain.StoredUser, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return m.find(func(u domain.StoredUser) bool { return u.ID == id })
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (domain.StoredUser, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return m.find(func(u domain.StoredUser) bool { return u.Email == email })
}

func (m *MockUserRepository) Create(ctx context.Context, user domain.StoredUser) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if slices.ContainsFunc(m.Users, func(u domain.StoredUser) bool { return u.Email == user.Email }) {
		return domain.ErrEmailExists
	}
	m.Users = append(m.Users, user)
	return nil
}

func (m *MockUserRepository) Update(ctx context.Context, user domain.StoredUser) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx := slices.IndexFunc(m.Users, func(u domain.StoredUser) bool { return u.ID == user.ID }); idx != -1 {
		m.Users[idx] = user
	}
	return nil
}

func (m *MockUserRepository) find(match func(domain.StoredUser) bool) (domain.StoredUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if idx := slices.IndexFunc(m.Users, match); idx != -1 {
		return m.Users[idx], nil
	}
	return domain.StoredUser{}, domain.ErrUserNotFound
}

// MockChatroomRepository implements domain.ChatroomRepository for testing
type MockChatroomRepository struct {
	mu sync.RWMutex

	// Function overrides
	ListFunc          func(ctx context.Context) ([]domain.Chatroom, error)
	GetFunc           func(ctx context.Context, id string) (domain.Chatroom, error)
	CreateFunc        func(ctx context.Context, chatroom domain.Chatroom) error
	UpdateFunc        func(ctx context.Context, chatroom domain.Chatroom) error
	ListForUserFunc   func(ctx context.Context, userID string) ([]domain.Chatroom, error)
	AppendMessageFunc func(ctx context.Context, chatroomID string, message domain.ChatMessage) (domain.Chatroom, error)

	// In-memory storage
	Chatrooms []domain.Chatroom

	// Call tracking
	GetCalls int
}

// NewMockChatroomRepository creates a MockChatroomRepository seeded with chatrooms
func NewMockChatroomRepository(chatrooms ...domain.Chatroom) *MockChatroomRepository {
	return &MockChatroomRepository{Chatrooms: slices.Clone(chatrooms)}
}

func (m *MockChatroomRepository) List(ctx context.Context) ([]domain.Chatroom, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneRooms(m.Chatrooms), nil
}

func (m *MockChatroomRepository) Get(ctx context.Context, id string) (domain.Chatroom, error) {
	m.mu.Lock()
	m.GetCalls++
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if idx := m.index(id); idx != -1 {
		return m.Chatrooms[idx].Clone(), nil
	}
	return domain.Chatroom{}, domain.ErrChatroomNotFound
}

func (m *MockChatroomRepository) Create(ctx context.Context, chatroom domain.Chatroom) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, chatroom)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Chatrooms = append(m.Chatrooms, chatroom.Clone())
	return nil
}

func (m *MockChatroomRepository) Update(ctx context.Context, chatroom domain.Chatroom) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, chatroom)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx := m.index(chatroom.ID); idx != -1 {
		m.Chatrooms[idx] = chatroom.Clone()
	}
	return nil
}

func (m *MockChatroomRepository) ListForUser(ctx context.Context, userID string) ([]domain.Chatroom, error) {
	if m.ListForUserFunc != nil {
		return m.ListForUserFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []domain.Chatroom
	for _, c := range m.Chatrooms {
		if c.IsParticipant(userID) {
			result = append(result, c.Clone())
		}
	}
	return result, nil
}

func (m *MockChatroomRepository) AppendMessage(ctx context.Context, chatroomID string, message domain.ChatMessage) (domain.Chatroom, error) {
	if m.AppendMessageFunc != nil {
		return m.AppendMessageFunc(ctx, chatroomID, message)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.index(chatroomID)
	if idx == -1 {
		return domain.Chatroom{}, domain.ErrChatroomNotFound
	}
	if !m.Chatrooms[idx].IsParticipant(message.SenderID) {
		return domain.Chatroom{}, domain.ErrNotAParticipant
	}
	m.Chatrooms[idx].Messages = append(m.Chatrooms[idx].Messages, message)
	return m.Chatrooms[idx].Clone(), nil
}

// GetCallCount returns how many times Get has been called.
func (m *MockChatroomRepository) GetCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.GetCalls
}

// Snapshot returns a copy of the stored chatroom with id, or false.
func (m *MockChatroomRepository) Snapshot(id string) (domain.Chatroom, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if idx := m.index(id); idx != -1 {
		return m.Chatrooms[idx].Clone(), true
	}
	return domain.Chatroom{}, false
}

func (m *MockChatroomRepository) index(id string) int {
	return slices.IndexFunc(m.Chatrooms, func(c domain.Chatroom) bool { return c.ID == id })
}

func cloneRooms(rooms []domain.Chatroom) []domain.Chatroom {
	out := make([]domain.Chatroom, len(rooms))
	for i, c := range rooms {
		out[i] = c.Clone()
	}
	return out
}

// StubAllocator assigns fixed aliases and records every call
type StubAllocator struct {
	mu    sync.Mutex
	Calls [][]string
	// Names is consulted first; other ids get "Alias A", "Alias B", ... by position.
	Names map[string]string
}

func (s *StubAllocator) Assign(participantIDs []string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Calls = append(s.Calls, slices.Clone(participantIDs))
	out := make(map[string]string, len(participantIDs))
	for i, id := range participantIDs {
		if name, ok := s.Names[id]; ok {
			out[id] = name
			continue
		}
		out[id] = "Alias " + string(rune('A'+i))
	}
	return out
}
