// Package session binds one user to one chatroom and keeps a local copy of the chatroom in
// step with the store by polling.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"anonchat/internal/domain"
	"anonchat/internal/observability"
)

// DefaultInterval is the polling period used when none is configured.
const DefaultInterval = time.Second

// Backend is what a session reads from and writes through.
type Backend interface {
	Get(ctx context.Context, chatroomID string) (domain.Chatroom, error)
	AddMessage(ctx context.Context, chatroomID, senderID, content string) (domain.Chatroom, error)
}

type Option func(*Session)

// WithInterval sets the polling period.
func WithInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithOnUpdate registers fn to receive every snapshot the session installs, from polling
// or from its own sends. fn runs without the session lock held.
func WithOnUpdate(fn func(domain.Chatroom)) Option {
	return func(s *Session) {
		s.onUpdate = fn
	}
}

// WithLogger sets the base logger; chatroom and user ids are attached to it.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// Session is the runtime view of one user in one chatroom.
type Session struct {
	backend    Backend
	userID     string
	chatroomID string
	interval   time.Duration
	onUpdate   func(domain.Chatroom)
	log        *slog.Logger

	// syncMu serializes polls with sends so a poll fetched before a write cannot install
	// its stale result after the write.
	syncMu sync.Mutex

	mu       sync.Mutex
	chatroom domain.Chatroom
	draft    string

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Open binds userID to the given chatroom snapshot and starts polling. Polling stops when
// Close is called or ctx is cancelled.
func Open(ctx context.Context, backend Backend, userID string, chatroom domain.Chatroom, opts ...Option) *Session {
	s := &Session{
		backend:    backend,
		userID:     userID,
		chatroomID: chatroom.ID,
		interval:   DefaultInterval,
		log:        observability.Logger(),
		chatroom:   chatroom.Clone(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx = observability.WithUserID(observability.WithChatroomID(ctx, chatroom.ID), userID)
	s.log = observability.With(ctx, s.log)

	ctx, s.cancel = context.WithCancel(ctx)

	observability.SessionsActive.Inc()
	go s.run(ctx)

	s.log.Debug("session opened", "interval", s.interval)
	return s
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer observability.SessionsActive.Dec()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// poll fetches the persisted chatroom and installs it when its message count differs from
// the local one. Equal counts are treated as unchanged even if content differs.
func (s *Session) poll(ctx context.Context) {
	fetched, changed, err := s.reconcile(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		outcome := "error"
		if errors.Is(err, domain.ErrChatroomNotFound) {
			outcome = "missing"
		}
		observability.SessionPolls.WithLabelValues(outcome).Inc()
		s.log.Debug("poll skipped", "outcome", outcome, "error", err)
		return
	}

	if !changed {
		observability.SessionPolls.WithLabelValues("unchanged").Inc()
		return
	}

	observability.SessionPolls.WithLabelValues("updated").Inc()
	s.log.Debug("snapshot replaced", "messages", len(fetched.Messages))
	s.notify(fetched)
}

func (s *Session) reconcile(ctx context.Context) (domain.Chatroom, bool, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	fetched, err := s.backend.Get(ctx, s.chatroomID)
	if err != nil {
		return domain.Chatroom{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(fetched.Messages) == len(s.chatroom.Messages) {
		return fetched, false, nil
	}
	s.chatroom = fetched.Clone()
	return fetched, true, nil
}

// SendMessage posts text to the chatroom, marked as host when asHost is set. Text that is
// empty after trimming is ignored. On success the local snapshot becomes the state the
// store returned for the write.
func (s *Session) SendMessage(ctx context.Context, text string, asHost bool) error {
	_, err := s.send(ctx, text, asHost)
	return err
}

func (s *Session) send(ctx context.Context, text string, asHost bool) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}
	if asHost && !s.CanSendAsHost() {
		return false, domain.ErrNotHost
	}

	written, err := s.write(ctx, domain.FormatContent(text, asHost))
	if err != nil {
		s.log.Warn("send failed", "error", err)
		return false, err
	}

	s.notify(written)
	return true, nil
}

func (s *Session) write(ctx context.Context, content string) (domain.Chatroom, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	written, err := s.backend.AddMessage(ctx, s.chatroomID, s.userID, content)
	if err != nil {
		return domain.Chatroom{}, err
	}

	s.mu.Lock()
	s.chatroom = written.Clone()
	s.mu.Unlock()
	return written, nil
}

// SetDraft replaces the text being composed.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
}

// Draft returns the text being composed.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Submit sends the draft. The draft is cleared only when a message was written, so a
// failed send can be retried as is.
func (s *Session) Submit(ctx context.Context, asHost bool) error {
	sent, err := s.send(ctx, s.Draft(), asHost)
	if err != nil || !sent {
		return err
	}
	s.SetDraft("")
	return nil
}

// CanSendAsHost reports whether the bound user created the chatroom.
func (s *Session) CanSendAsHost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatroom.IsHost(s.userID)
}

// Chatroom returns a copy of the local snapshot.
func (s *Session) Chatroom() domain.Chatroom {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatroom.Clone()
}

// MessageCount returns the number of messages in the local snapshot.
func (s *Session) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chatroom.Messages)
}

// UserID returns the bound user.
func (s *Session) UserID() string {
	return s.userID
}

// Done is closed once polling has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close stops polling and waits for the poller to exit. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
		s.log.Debug("session closed")
	})
}

func (s *Session) notify(chatroom domain.Chatroom) {
	if s.onUpdate != nil {
		s.onUpdate(chatroom.Clone())
	}
}
