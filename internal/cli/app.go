// Package cli is the interactive terminal front-end: sign-up and sign-in, the friend
// directory, chatroom creation and a live chatroom view backed by a polling session.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"anonchat/internal/domain"
	"anonchat/internal/observability"
	"anonchat/internal/service"
	"anonchat/internal/session"
)

// ErrQuit is returned by Exec when the user asked to leave.
var ErrQuit = errors.New("quit")

// Services groups what the terminal drives.
type Services struct {
	Auth      *service.AuthService
	Directory *service.DirectoryService
	Chat      *service.ChatService
}

type Option func(*App)

// WithPollInterval sets the polling period of chatroom sessions.
func WithPollInterval(d time.Duration) Option {
	return func(a *App) {
		a.pollInterval = d
	}
}

// WithColors enables coloured host messages.
func WithColors(enabled bool) Option {
	return func(a *App) {
		a.colors = enabled
	}
}

// WithLogger sets the logger handed to sessions.
func WithLogger(log *slog.Logger) Option {
	return func(a *App) {
		a.log = log
	}
}

// App holds the state of one terminal: the signed-in user and the open chatroom, if any.
type App struct {
	svc          Services
	pollInterval time.Duration
	colors       bool
	log          *slog.Logger

	// mu guards out and printed; sessions print from their polling goroutine.
	mu      sync.Mutex
	out     io.Writer
	printed int

	user *domain.User
	room *session.Session
}

func New(svc Services, out io.Writer, opts ...Option) *App {
	a := &App{
		svc:          svc,
		out:          out,
		pollInterval: session.DefaultInterval,
		log:          observability.Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run reads commands from in until EOF, quit or ctx cancellation. The open chatroom
// session is closed before Run returns.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	defer a.leaveRoom()

	a.println("anonchat - type 'help' for commands")
	a.prompt()

	scanCtx, stopScan := context.WithCancel(ctx)
	defer stopScan()

	lines, scanErr := a.scan(scanCtx, in)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}

			err := a.Exec(ctx, line)
			if errors.Is(err, ErrQuit) {
				a.println("bye")
				return nil
			}
			if err != nil {
				a.printf("error: %s\n", describe(err))
			}
			a.prompt()
		}
	}
}

// scan feeds lines from in until EOF or until ctx is done. A read blocked on in keeps
// the goroutine alive until in yields or is closed.
func (a *App) scan(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		errc <- scanner.Err()
	}()

	return lines, errc
}

// Exec runs one input line.
func (a *App) Exec(ctx context.Context, line string) error {
	if a.room != nil {
		return a.execRoom(ctx, line)
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		a.help()
		return nil
	case "quit", "exit":
		return ErrQuit
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	}

	if a.user == nil {
		return fmt.Errorf("unknown command %q (sign in first)", cmd)
	}

	switch cmd {
	case "whoami":
		a.printf("%s <%s> id=%s\n", a.user.Name, a.user.Email, a.user.ID)
		return nil
	case "logout":
		a.printf("signed out %s\n", a.user.Name)
		a.user = nil
		return nil
	case "users":
		return a.listUsers(ctx)
	case "friends":
		return a.listFriends(ctx)
	case "friend":
		return a.toggleFriend(ctx, args)
	case "rooms":
		return a.listRooms(ctx)
	case "create":
		return a.createRoom(ctx, args)
	case "open":
		return a.openRoom(ctx, args)
	}

	return fmt.Errorf("unknown command %q", cmd)
}

func (a *App) register(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: register <email> <password> <name>")
	}
	user, err := a.svc.Auth.Register(ctx, strings.Join(args[2:], " "), args[0], args[1])
	if err != nil {
		return err
	}
	a.user = &user
	a.printf("welcome %s (id %s)\n", user.Name, user.ID)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: login <email> <password>")
	}
	user, err := a.svc.Auth.ValidateCredentials(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	a.user = &user
	a.printf("signed in as %s\n", user.Name)
	return nil
}

func (a *App) listUsers(ctx context.Context) error {
	users, err := a.svc.Directory.ListOthers(ctx, a.user.ID)
	if err != nil {
		return err
	}
	current, err := a.svc.Auth.GetUser(ctx, a.user.ID)
	if err != nil {
		return err
	}
	a.withOut(func(w io.Writer) { renderUsers(w, users, current) })
	return nil
}

func (a *App) listFriends(ctx context.Context) error {
	friends, err := a.svc.Directory.Friends(ctx, a.user.ID)
	if err != nil {
		return err
	}
	if len(friends) == 0 {
		a.println("no friends yet - use 'friend <id>'")
		return nil
	}
	current, err := a.svc.Auth.GetUser(ctx, a.user.ID)
	if err != nil {
		return err
	}
	a.withOut(func(w io.Writer) { renderUsers(w, friends, current) })
	return nil
}

func (a *App) toggleFriend(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: friend <user-id>")
	}
	updated, err := a.svc.Directory.ToggleFriend(ctx, a.user.ID, args[0])
	if err != nil {
		return err
	}
	if updated.IsFriend(args[0]) {
		a.printf("added %s\n", args[0])
	} else {
		a.printf("removed %s\n", args[0])
	}
	return nil
}

func (a *App) listRooms(ctx context.Context) error {
	rooms, err := a.svc.Chat.ListUserChatrooms(ctx, a.user.ID)
	if err != nil {
		return err
	}
	if len(rooms) == 0 {
		a.println("no chatrooms yet - use 'create'")
		return nil
	}
	a.withOut(func(w io.Writer) { renderRooms(w, rooms, a.user.ID) })
	return nil
}

// createRoom handles "create <name> [with <id> ...]".
func (a *App) createRoom(ctx context.Context, args []string) error {
	name, invitees := args, []string(nil)
	for i, arg := range args {
		if arg == "with" {
			name, invitees = args[:i], args[i+1:]
			break
		}
	}
	if len(name) == 0 {
		return errors.New("usage: create <name> [with <user-id> ...]")
	}

	room, err := a.svc.Chat.CreateChatroom(ctx, strings.Join(name, " "), a.user.ID, invitees)
	if err != nil {
		return err
	}
	a.printf("created %q (id %s), you are %s\n", room.Name, room.ID, room.Alias(a.user.ID))
	return nil
}

func (a *App) openRoom(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: open <chatroom-id>")
	}
	room, err := a.svc.Chat.GetChatroom(ctx, args[0])
	if err != nil {
		return err
	}
	if !room.IsParticipant(a.user.ID) {
		return domain.ErrNotAParticipant
	}

	a.mu.Lock()
	a.printed = 0
	a.mu.Unlock()

	a.printf("== %s == you are %s", room.Name, room.Alias(a.user.ID))
	if room.IsHost(a.user.ID) {
		a.printf(" (host: '/host <text>' posts as Host)")
	}
	a.println("\n'/leave' to go back, '/history' to reprint")

	a.room = session.Open(ctx, a.svc.Chat, a.user.ID, room,
		session.WithInterval(a.pollInterval),
		session.WithLogger(a.log),
		session.WithOnUpdate(a.showNew),
	)
	a.showNew(room)
	return nil
}

func (a *App) execRoom(ctx context.Context, line string) error {
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == "/leave":
		a.leaveRoom()
		return nil
	case trimmed == "/history":
		a.mu.Lock()
		a.printed = 0
		a.mu.Unlock()
		a.showNew(a.room.Chatroom())
		return nil
	case trimmed == "/quit":
		return ErrQuit
	case strings.HasPrefix(trimmed, "/host "):
		a.room.SetDraft(strings.TrimPrefix(trimmed, "/host "))
		return a.room.Submit(ctx, true)
	}

	a.room.SetDraft(line)
	return a.room.Submit(ctx, false)
}

func (a *App) leaveRoom() {
	if a.room == nil {
		return
	}
	a.room.Close()
	a.room = nil
}

// showNew prints the messages of chatroom that have not been printed yet. A shorter
// history than already printed means the store was rewritten; it is printed in full.
func (a *App) showNew(chatroom domain.Chatroom) {
	if a.user == nil {
		return
	}
	views := session.RenderMessages(chatroom, a.user.ID)

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(views) < a.printed {
		fmt.Fprintln(a.out, "-- history changed --")
		a.printed = 0
	}
	for _, v := range views[a.printed:] {
		fmt.Fprintln(a.out, formatMessage(v, a.colors))
	}
	a.printed = len(views)
}

func (a *App) prompt() {
	switch {
	case a.room != nil:
		a.printf("%s> ", a.room.Alias())
	case a.user != nil:
		a.printf("%s$ ", a.user.Name)
	default:
		a.printf("$ ")
	}
}

func (a *App) help() {
	a.println(`commands:
  register <email> <password> <name>   create an account and sign in
  login <email> <password>             sign in
  whoami | logout
  users                                everyone else, with friend status
  friends                              your friends
  friend <user-id>                     add or remove a friend
  rooms                                your chatrooms
  create <name> [with <user-id> ...]   start an anonymous chatroom
  open <chatroom-id>                   enter a chatroom
  quit`)
}

func (a *App) withOut(fn func(io.Writer)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a.out)
}

func (a *App) printf(format string, args ...any) {
	a.withOut(func(w io.Writer) { fmt.Fprintf(w, format, args...) })
}

func (a *App) println(s string) {
	a.withOut(func(w io.Writer) { fmt.Fprintln(w, s) })
}

// describe turns domain errors into text for the prompt.
func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrChatroomNotFound):
		return "that chatroom no longer exists"
	case errors.Is(err, domain.ErrNotAParticipant):
		return "you are not a participant of that chatroom"
	case errors.Is(err, domain.ErrNotHost):
		return "only the chatroom creator can post as Host"
	case errors.Is(err, domain.ErrVersionConflict):
		return "the chatroom was busy, try again"
	case errors.Is(err, domain.ErrInvalidPassword), errors.Is(err, domain.ErrUserNotFound):
		return "unknown email or wrong password"
	}
	return err.Error()
}
