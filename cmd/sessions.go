package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BhavyaNayak04/chatbot/internal/log"
	"github.com/BhavyaNayak04/chatbot/internal/session"
)

func runSessions(logger log.Logger, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: chatbot sessions <list|show|rename|delete>")
	}

	ctx := context.Background()
	_, store, cleanup, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	switch args[0] {
	case "list":
		return runSessionsList(ctx, store)
	case "show":
		if len(args) != 2 {
			return errors.New("usage: chatbot sessions show <session-id>")
		}
		return runSessionsShow(ctx, store, args[1])
	case "rename":
		if len(args) != 3 {
			return errors.New("usage: chatbot sessions rename <session-id> <title>")
		}
		return runSessionsRename(ctx, store, args[1], args[2])
	case "delete":
		if len(args) != 2 {
			return errors.New("usage: chatbot sessions delete <session-id>")
		}
		return runSessionsDelete(ctx, store, args[1])
	default:
		return fmt.Errorf("unknown sessions subcommand: %s", args[0])
	}
}

func parseSessionID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session ID %q: %w", arg, err)
	}
	return id, nil
}

func runSessionsList(ctx context.Context, store *session.Store) error {
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No saved conversations.")
		return nil
	}

	for _, s := range sessions {
		fmt.Printf("%s  %s  %s\n", s.ID, formatTime(s.CreatedAt), s.Title)
	}
	return nil
}

func runSessionsShow(ctx context.Context, store *session.Store, arg string) error {
	id, err := parseSessionID(arg)
	if err != nil {
		return err
	}

	sess, err := store.Session(ctx, id)
	if err != nil {
		return fmt.Errorf("getting session: %w", err)
	}
	messages, err := store.Messages(ctx, id)
	if err != nil {
		return fmt.Errorf("getting messages: %w", err)
	}

	fmt.Printf("Session: %s\n", sess.ID)
	fmt.Printf("Title:   %s\n", sess.Title)
	fmt.Printf("Created: %s\n", formatTime(sess.CreatedAt))
	fmt.Printf("Messages: %d\n", len(messages))
	fmt.Println()

	for _, msg := range messages {
		who := "You"
		if msg.Sender == session.SenderAssistant {
			who = "Bot"
		}
		text := msg.Text
		if len(msg.Image) > 0 {
			text = "[image] " + text
		}
		fmt.Printf("%s> %s\n\n", who, text)
	}
	return nil
}

func runSessionsRename(ctx context.Context, store *session.Store, arg, title string) error {
	id, err := parseSessionID(arg)
	if err != nil {
		return err
	}

	if err := store.RenameSession(ctx, id, title); err != nil {
		return fmt.Errorf("renaming session: %w", err)
	}
	fmt.Println("Renamed.")
	return nil
}

func runSessionsDelete(ctx context.Context, store *session.Store, arg string) error {
	id, err := parseSessionID(arg)
	if err != nil {
		return err
	}

	if err := store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	// Drop the resume pointer when it referenced the deleted session.
	if current, err := session.LoadCurrentSessionID(); err == nil && current != nil && *current == id {
		if err := session.ClearCurrentSessionID(); err != nil {
			return fmt.Errorf("clearing current session pointer: %w", err)
		}
	}

	fmt.Println("Deleted.")
	return nil
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
