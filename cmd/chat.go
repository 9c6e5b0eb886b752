package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BhavyaNayak04/chatbot/internal/chat"
	"github.com/BhavyaNayak04/chatbot/internal/gemini"
	"github.com/BhavyaNayak04/chatbot/internal/log"
	"github.com/BhavyaNayak04/chatbot/internal/session"
)

// transcriptPrinter renders view changes to the terminal. The interactive
// loop is the foreground sequence, so no locking is needed.
type transcriptPrinter struct {
	view *chat.View
}

func (p *transcriptPrinter) Inserted(i int) {
	e := p.view.Entry(i)
	switch {
	case e.Pending:
		// The loop blocks on the reply anyway; nothing useful to draw.
	case e.Sender == session.SenderAssistant:
		fmt.Printf("\nBot> %s\n\n", e.Text)
	}
}

func (p *transcriptPrinter) Removed(int) {}

func (p *transcriptPrinter) Reset() {
	for i := range p.view.Len() {
		e := p.view.Entry(i)
		if e.Pending {
			continue
		}
		who := "You"
		if e.Sender == session.SenderAssistant {
			who = "Bot"
		}
		text := e.Text
		if text == "" && len(e.Image) > 0 {
			text = "[image]"
		}
		fmt.Printf("%s> %s\n", who, text)
	}
	fmt.Println()
}

func runChat(logger log.Logger) error {
	ctx := context.Background()

	cfg, store, cleanup, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	client, err := gemini.New(ctx, cfg, logger)
	if err != nil {
		if errors.Is(err, gemini.ErrMissingAPIKey) {
			fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Please run:")
			fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		}
		return err
	}

	worker := chat.NewWorker()
	defer worker.Close()

	// Background completions queue here and are applied between prompts,
	// keeping all view and coordinator state on this goroutine.
	posts := make(chan func(), 128)
	drain := func() {
		for {
			select {
			case f := <-posts:
				f()
			default:
				return
			}
		}
	}
	settle := func() {
		done := make(chan struct{})
		worker.Submit(func() { close(done) })
		<-done
		drain()
	}

	printer := &transcriptPrinter{}
	view := chat.NewView(printer)
	printer.view = view

	coord := chat.NewCoordinator(store, worker, view, func(f func()) { posts <- f }, logger)
	coord.OnSessionCreated = func(s session.Session) {
		if err := session.SaveCurrentSessionID(s.ID); err != nil {
			logger.Warn("failed to save current session pointer", "error", err)
		}
	}
	coord.OnStoreError = func(err error) {
		fmt.Fprintf(os.Stderr, "warning: message not saved: %v\n", err)
	}

	resumeOrStart(coord, settle, logger)

	conv, err := client.StartConversation(ctx, coord.Context())
	if err != nil {
		return fmt.Errorf("starting model conversation: %w", err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You> ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		var text string
		var image []byte
		switch {
		case input == "/exit" || input == "/quit":
			fmt.Println("Goodbye!")
			return nil
		case input == "/help":
			runHelp()
			continue
		case input == "/new":
			coord.StartNewChat()
			if err := session.ClearCurrentSessionID(); err != nil {
				logger.Warn("failed to clear current session pointer", "error", err)
			}
			conv, err = client.StartConversation(ctx, coord.Context())
			if err != nil {
				return fmt.Errorf("starting model conversation: %w", err)
			}
			fmt.Printf("Bot> %s\n\n", chat.WelcomeText)
			continue
		case input == "/history":
			switched, err := pickSession(ctx, coord, store, scanner, settle)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			if switched {
				conv, err = client.StartConversation(ctx, coord.Context())
				if err != nil {
					return fmt.Errorf("starting model conversation: %w", err)
				}
			}
			continue
		case strings.HasPrefix(input, "/image "):
			path, question, _ := strings.Cut(strings.TrimSpace(strings.TrimPrefix(input, "/image ")), " ")
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: reading image: %v\n", err)
				continue
			}
			text, image = strings.TrimSpace(question), data
		case strings.HasPrefix(input, "/"):
			fmt.Fprintf(os.Stderr, "unknown command %q, try /help\n", input)
			continue
		default:
			text = input
		}

		coord.RecordUserTurn(text, image)
		coord.ShowPending()

		reply, err := conv.Send(ctx, text, image)
		if err != nil {
			logger.Error("model request failed", "error", err)
			coord.OnAssistantFailure()
		} else {
			coord.OnAssistantReply(reply)
		}
		settle()
	}

	return scanner.Err()
}

// resumeOrStart restores the previous conversation when the saved pointer
// still references a live session, and falls back to a fresh chat when it
// does not.
func resumeOrStart(coord *chat.Coordinator, settle func(), logger log.Logger) {
	id, err := session.LoadCurrentSessionID()
	if err != nil {
		logger.Warn("failed to load current session pointer", "error", err)
	}
	if id == nil {
		coord.StartNewChat()
		fmt.Printf("Bot> %s\n\n", chat.WelcomeText)
		return
	}

	var openErr error
	coord.OpenSession(*id, func(err error) { openErr = err })
	settle()

	if openErr != nil {
		if errors.Is(openErr, session.ErrSessionNotFound) {
			logger.Debug("saved session no longer exists", "session_id", *id)
			if err := session.ClearCurrentSessionID(); err != nil {
				logger.Warn("failed to clear current session pointer", "error", err)
			}
		} else {
			logger.Warn("failed to resume session", "error", openErr)
		}
		coord.StartNewChat()
		fmt.Printf("Bot> %s\n\n", chat.WelcomeText)
	}
}

// pickSession lists saved conversations and opens the one the user picks.
// Returns whether the active conversation changed.
func pickSession(ctx context.Context, coord *chat.Coordinator, store *session.Store, scanner *bufio.Scanner, settle func()) (bool, error) {
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return false, fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No saved conversations yet.")
		return false, nil
	}

	for i, s := range sessions {
		fmt.Printf("  %d. %s (%s)\n", i+1, s.Title, s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Print("Open which? ")
	if !scanner.Scan() {
		return false, nil
	}
	choice, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || choice < 1 || choice > len(sessions) {
		return false, fmt.Errorf("invalid choice")
	}

	picked := sessions[choice-1]
	var openErr error
	coord.OpenSession(picked.ID, func(err error) { openErr = err })
	settle()
	if openErr != nil {
		return false, fmt.Errorf("opening session: %w", openErr)
	}

	if err := session.SaveCurrentSessionID(picked.ID); err != nil {
		return true, fmt.Errorf("saving current session pointer: %w", err)
	}
	return true, nil
}
