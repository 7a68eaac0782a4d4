package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"anonchat/internal/alias"
	"anonchat/internal/domain"
	"anonchat/internal/observability"
	"anonchat/internal/repository"
	"anonchat/internal/service"
	"anonchat/internal/session"
	"anonchat/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer lets the test read output while a session goroutine writes it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newServices() Services {
	store := memory.New()
	opts := repository.Options{Logger: observability.Discard()}
	users := repository.NewUserRepository(store, opts)
	rooms := repository.NewChatroomRepository(store, opts)
	return Services{
		Auth:      service.NewAuthService(users, false),
		Directory: service.NewDirectoryService(users),
		Chat: service.NewChatService(rooms, users, alias.NewAllocator(alias.WithLogger(observability.Discard())),
			service.WithChatLogger(observability.Discard())),
	}
}

func newApp(t *testing.T, svc Services) (*App, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	app := New(svc, out, WithPollInterval(10*time.Millisecond), WithLogger(observability.Discard()))
	t.Cleanup(app.leaveRoom)
	return app, out
}

func register(t *testing.T, svc Services, name, email string) domain.User {
	t.Helper()
	u, err := svc.Auth.Register(context.Background(), name, email, "pw")
	require.NoError(t, err)
	return u
}

func exec(t *testing.T, app *App, lines ...string) {
	t.Helper()
	for _, line := range lines {
		require.NoError(t, app.Exec(context.Background(), line), "line %q", line)
	}
}

func TestApp_Run_AccountFlow(t *testing.T) {
	out := &syncBuffer{}
	app := New(newServices(), out, WithLogger(observability.Discard()))

	input := strings.Join([]string{
		"whoami",
		"register ada@example.com secret Ada Lovelace",
		"whoami",
		"logout",
		"login ada@example.com wrong",
		"login ada@example.com secret",
		"quit",
		"whoami",
	}, "\n")

	require.NoError(t, app.Run(context.Background(), strings.NewReader(input)))

	got := out.String()
	assert.Contains(t, got, `unknown command "whoami" (sign in first)`)
	assert.Contains(t, got, "welcome Ada Lovelace")
	assert.Contains(t, got, "Ada Lovelace <ada@example.com>")
	assert.Contains(t, got, "signed out Ada Lovelace")
	assert.Contains(t, got, "error: unknown email or wrong password")
	assert.Contains(t, got, "signed in as Ada Lovelace")
	assert.Contains(t, got, "bye")
	assert.Equal(t, 1, strings.Count(got, "Ada Lovelace <ada@example.com>"), "input after quit must not run")
}

func TestApp_Run_StopsAtEOF(t *testing.T) {
	app := New(newServices(), &syncBuffer{}, WithLogger(observability.Discard()))

	assert.NoError(t, app.Run(context.Background(), strings.NewReader("help\n")))
}

func TestApp_Run_CancelClosesOpenRoom(t *testing.T) {
	svc := newServices()
	ada := register(t, svc, "Ada", "ada@example.com")
	room, err := svc.Chat.CreateChatroom(context.Background(), "Night Owls", ada.ID, nil)
	require.NoError(t, err)

	in, w := io.Pipe()
	t.Cleanup(func() { w.Close() })

	out := &syncBuffer{}
	app := New(svc, out, WithPollInterval(10*time.Millisecond), WithLogger(observability.Discard()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx, in) }()

	_, err = fmt.Fprintf(w, "login ada@example.com pw\nopen %s\n", room.ID)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "== Night Owls ==") }, 2*time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation while waiting for input")
	}
	assert.Nil(t, app.room)
}

func TestApp_Register_Usage(t *testing.T) {
	app, _ := newApp(t, newServices())

	err := app.Exec(context.Background(), "register only@example.com")
	assert.ErrorContains(t, err, "usage: register")

	err = app.Exec(context.Background(), "register not-an-email pw Name")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApp_Friends(t *testing.T) {
	svc := newServices()
	bob := register(t, svc, "Bob", "bob@example.com")
	register(t, svc, "Ada", "ada@example.com")

	app, out := newApp(t, svc)
	exec(t, app, "login ada@example.com pw", "friends")
	assert.Contains(t, out.String(), "no friends yet")

	exec(t, app, "users", "friend "+bob.ID, "friends")

	got := out.String()
	assert.Contains(t, got, bob.ID)
	assert.Contains(t, got, "bob@example.com")
	assert.Contains(t, got, "added "+bob.ID)

	exec(t, app, "friend "+bob.ID)
	assert.Contains(t, out.String(), "removed "+bob.ID)

	assert.ErrorIs(t, app.Exec(context.Background(), "friend nobody"), domain.ErrUserNotFound)
}

func TestApp_ChatroomFlow(t *testing.T) {
	svc := newServices()
	ada := register(t, svc, "Ada", "ada@example.com")
	bob := register(t, svc, "Bob", "bob@example.com")

	app, out := newApp(t, svc)
	exec(t, app, "login ada@example.com pw", "rooms")
	assert.Contains(t, out.String(), "no chatrooms yet")

	exec(t, app, "create Night Owls with "+bob.ID)

	rooms, err := svc.Chat.ListUserChatrooms(context.Background(), ada.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	room := rooms[0]
	assert.Equal(t, "Night Owls", room.Name)
	assert.ElementsMatch(t, []string{ada.ID, bob.ID}, room.Participants)
	assert.Contains(t, out.String(), fmt.Sprintf("created %q (id %s)", "Night Owls", room.ID))

	exec(t, app, "rooms")
	assert.Contains(t, out.String(), room.Alias(ada.ID))

	exec(t, app, "open "+room.ID, "hello", "   ", "/host hi")

	got := out.String()
	assert.Contains(t, got, "(host: '/host <text>' posts as Host)")
	assert.Contains(t, got, room.Alias(ada.ID)+": hello (you)")
	assert.Contains(t, got, "Host: hi")

	stored, err := svc.Chat.GetChatroom(context.Background(), room.ID)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "[HOST] hi", stored.Messages[1].Content)

	exec(t, app, "/leave", "whoami")
	assert.Nil(t, app.room)
}

func TestApp_GuestCannotPostAsHost(t *testing.T) {
	svc := newServices()
	ada := register(t, svc, "Ada", "ada@example.com")
	bob := register(t, svc, "Bob", "bob@example.com")
	room, err := svc.Chat.CreateChatroom(context.Background(), "Room", ada.ID, []string{bob.ID})
	require.NoError(t, err)

	app, _ := newApp(t, svc)
	exec(t, app, "login bob@example.com pw", "open "+room.ID)

	err = app.Exec(context.Background(), "/host boo")
	assert.ErrorIs(t, err, domain.ErrNotHost)
	assert.Equal(t, "boo", app.room.Draft())
}

func TestApp_OpenRequiresParticipant(t *testing.T) {
	svc := newServices()
	ada := register(t, svc, "Ada", "ada@example.com")
	register(t, svc, "Eve", "eve@example.com")
	room, err := svc.Chat.CreateChatroom(context.Background(), "Private", ada.ID, nil)
	require.NoError(t, err)

	app, _ := newApp(t, svc)
	exec(t, app, "login eve@example.com pw")

	assert.ErrorIs(t, app.Exec(context.Background(), "open "+room.ID), domain.ErrNotAParticipant)
	assert.ErrorIs(t, app.Exec(context.Background(), "open missing"), domain.ErrChatroomNotFound)
	assert.Nil(t, app.room)
}

func TestApp_TwoTerminalsConverge(t *testing.T) {
	svc := newServices()
	ada := register(t, svc, "Ada", "ada@example.com")
	bob := register(t, svc, "Bob", "bob@example.com")
	room, err := svc.Chat.CreateChatroom(context.Background(), "Night Owls", ada.ID, []string{bob.ID})
	require.NoError(t, err)

	adaApp, _ := newApp(t, svc)
	bobApp, bobOut := newApp(t, svc)
	exec(t, adaApp, "login ada@example.com pw", "open "+room.ID)
	exec(t, bobApp, "login bob@example.com pw", "open "+room.ID)

	exec(t, adaApp, "hello", "/host hi")

	assert.Eventually(t, func() bool {
		got := bobOut.String()
		return strings.Contains(got, room.Alias(ada.ID)+": hello") && strings.Contains(got, "Host: hi")
	}, 2*time.Second, 5*time.Millisecond)

	assert.NotContains(t, bobOut.String(), "(you)")
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrChatroomNotFound, "that chatroom no longer exists"},
		{fmt.Errorf("wrapped: %w", domain.ErrNotAParticipant), "you are not a participant of that chatroom"},
		{domain.ErrNotHost, "only the chatroom creator can post as Host"},
		{domain.ErrVersionConflict, "the chatroom was busy, try again"},
		{domain.ErrInvalidPassword, "unknown email or wrong password"},
		{errors.New("disk full"), "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.err))
		})
	}
}

func TestFormatMessage(t *testing.T) {
	at := time.Date(2024, 1, 1, 23, 5, 0, 0, time.Local)

	assert.Equal(t, "[23:05] Silent Fox: hi", formatMessage(session.MessageView{Sender: "Silent Fox", Text: "hi", SentAt: at}, false))
	assert.Equal(t, "[23:05] Silent Fox: hi (you)", formatMessage(session.MessageView{Sender: "Silent Fox", Text: "hi", IsOwn: true, SentAt: at}, false))
	assert.Equal(t, "[23:05] Host: hi", formatMessage(session.MessageView{Sender: "Host", Text: "hi", IsHost: true, IsOwn: true, SentAt: at}, false))
}
