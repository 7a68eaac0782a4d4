package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"anonchat/internal/cli"
	"anonchat/internal/config"
	"anonchat/internal/domain"
	"anonchat/internal/repository"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() (err error) {
	cfg := config.Load()

	backend := flag.String("backend", cfg.StoreBackend, "store backend: memory, badger, sqlite, postgres")
	collection := flag.String("collection", "all", "collection to dump: users, chatrooms or all")
	flag.Parse()

	cfg.StoreBackend = *backend
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := config.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		err = errors.Join(err, closeStore())
	}()

	return dump(ctx, os.Stdout, store, cfg.RepositoryOptions(), *collection)
}

func dump(ctx context.Context, w io.Writer, store domain.Store, opts repository.Options, collection string) error {
	switch collection {
	case "users":
		return dumpUsers(ctx, w, store, repository.NewUserRepository(store, opts))
	case "chatrooms":
		return dumpChatrooms(ctx, w, store, repository.NewChatroomRepository(store, opts))
	case "all":
		if err := dumpUsers(ctx, w, store, repository.NewUserRepository(store, opts)); err != nil {
			return err
		}
		return dumpChatrooms(ctx, w, store, repository.NewChatroomRepository(store, opts))
	}
	return fmt.Errorf("unknown collection %q", collection)
}

func printHeading(ctx context.Context, w io.Writer, store domain.Store, key string) error {
	entry, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	fmt.Fprintf(w, "\n%s (version %d, %d bytes)\n", key, entry.Version, len(entry.Value))
	return nil
}

func dumpUsers(ctx context.Context, w io.Writer, store domain.Store, repo *repository.UserRepository) error {
	if err := printHeading(ctx, w, store, domain.UsersKey); err != nil {
		return err
	}
	users, err := repo.List(ctx)
	if err != nil {
		return err
	}

	table := cli.NewTable(w, []string{"ID", "Name", "Email", "Friends", "Chatrooms", "Password"})
	for _, u := range users {
		password := "plaintext"
		if strings.HasPrefix(u.Password, "$2") {
			password = "bcrypt"
		}
		table.Append([]string{
			u.ID,
			u.Name,
			u.Email,
			strconv.Itoa(len(u.Friends)),
			strconv.Itoa(len(u.Chatrooms)),
			password,
		})
	}
	table.Render()
	return nil
}

func dumpChatrooms(ctx context.Context, w io.Writer, store domain.Store, repo *repository.ChatroomRepository) error {
	if err := printHeading(ctx, w, store, domain.ChatroomsKey); err != nil {
		return err
	}
	rooms, err := repo.List(ctx)
	if err != nil {
		return err
	}

	table := cli.NewTable(w, []string{"ID", "Name", "Created By", "Participants", "Messages", "Host Msgs", "Last Message"})
	for _, r := range rooms {
		hostMessages := 0
		for _, m := range r.Messages {
			if _, isHost := domain.ParseContent(m.Content); isHost {
				hostMessages++
			}
		}
		last := ""
		if n := len(r.Messages); n > 0 {
			last = r.Messages[n-1].SentAt().Format(time.DateTime)
		}
		table.Append([]string{
			r.ID,
			r.Name,
			r.CreatedBy,
			strconv.Itoa(len(r.Participants)),
			strconv.Itoa(len(r.Messages)),
			strconv.Itoa(hostMessages),
			last,
		})
	}
	table.Render()
	return nil
}
