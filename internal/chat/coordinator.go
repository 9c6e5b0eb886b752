// Package chat keeps the in-memory conversation consistent with the durable
// session log. The Coordinator owns the active-session state machine: a
// conversation starts Unsaved, and the first user turn creates the durable
// session before its message is written. All store access runs on a single
// background worker; results come back to the foreground via a posted
// callback and are discarded when the user has since moved to another
// conversation.
package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/BhavyaNayak04/chatbot/internal/log"
	"github.com/BhavyaNayak04/chatbot/internal/session"
)

// User-visible texts for turns the coordinator fabricates itself.
const (
	// WelcomeText opens every new conversation. It is shown but never
	// persisted.
	WelcomeText = "Hi there! How can I help you today?"

	// FailureText stands in for an assistant reply when the model
	// transport fails. It is recorded as an ordinary assistant turn.
	FailureText = "Sorry, something went wrong. Please try again."
)

// SessionStore is the durable storage surface the coordinator needs.
// *session.Store satisfies it.
type SessionStore interface {
	CreateSession(ctx context.Context, title string, createdAt time.Time) (session.Session, error)
	Session(ctx context.Context, id uuid.UUID) (session.Session, error)
	AppendMessage(ctx context.Context, sessionID uuid.UUID, sender session.Sender, text string, image []byte, timestamp time.Time) (session.Message, error)
	Messages(ctx context.Context, sessionID uuid.UUID) ([]session.Message, error)
}

// binding ties queued background jobs to one logical conversation. Its id
// starts unset for a new conversation and is assigned exactly once, by the
// worker job that durably creates the session; because all jobs run on one
// serialized worker, two rapid user turns cannot both observe the unset id.
//
// The foreground replaces the whole binding on every conversation switch,
// so a completed job can detect that its conversation is no longer current
// by comparing binding pointers.
type binding struct {
	id uuid.UUID
}

// Coordinator orchestrates the session lifecycle for one conversation slot.
// All exported methods must be called from the single foreground sequence;
// completion callbacks are delivered back to it through post.
type Coordinator struct {
	store  SessionStore
	worker *Worker
	view   *View
	post   func(func())
	logger log.Logger
	now    func() time.Time

	// OnSessionCreated, if set, is invoked on the foreground once a
	// conversation's durable session exists. Set before first use.
	OnSessionCreated func(session.Session)

	// OnStoreError, if set, receives durable write failures on the
	// foreground. The optimistic in-memory entry is kept either way.
	OnStoreError func(error)

	binding *binding
	current session.Session
	history []*genai.Content
}

// NewCoordinator returns a coordinator in the Unsaved state with an empty
// view. Call StartNewChat or OpenSession before recording turns.
func NewCoordinator(store SessionStore, worker *Worker, view *View, post func(func()), logger log.Logger) *Coordinator {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Coordinator{
		store:   store,
		worker:  worker,
		view:    view,
		post:    post,
		logger:  logger,
		now:     time.Now,
		binding: &binding{},
	}
}

// View returns the in-memory conversation view the coordinator maintains.
func (c *Coordinator) View() *View { return c.view }

// CurrentSessionID returns the active durable session id, or uuid.Nil while
// the conversation is unsaved. For a fresh conversation the id becomes
// non-nil only after the first user turn's session creation completes.
func (c *Coordinator) CurrentSessionID() uuid.UUID { return c.current.ID }

// Context returns the conversation context a model client needs to resume
// the active conversation: every recorded turn in order, the welcome and
// pending placeholder excluded. The slice must not be mutated.
func (c *Coordinator) Context() []*genai.Content { return c.history }

// StartNewChat resets to an unsaved conversation: the view holds only a
// fresh welcome turn and the model context is empty. Never performs I/O.
// An in-flight write from the previous conversation completes against its
// original session id.
func (c *Coordinator) StartNewChat() {
	c.binding = &binding{}
	c.current = session.Session{}
	c.history = nil
	c.view.Reset([]Entry{{Sender: session.SenderAssistant, Text: WelcomeText}})
	c.logger.Debug("started new chat")
}

// OpenSession switches to an existing session by loading its full message
// log and rebuilding the model context. done is invoked on the foreground
// with session.ErrSessionNotFound if the session has since been deleted, in
// which case the prior state is left fully intact. When a newer transition
// happens before the load completes, the loaded state is discarded and done
// still reports the load outcome.
func (c *Coordinator) OpenSession(id uuid.UUID, done func(error)) {
	b := c.binding
	c.worker.Submit(func() {
		ctx := context.Background()
		sess, err := c.store.Session(ctx, id)
		if err != nil {
			c.post(func() { finish(done, err) })
			return
		}
		msgs, err := c.store.Messages(ctx, id)
		if err != nil {
			c.post(func() { finish(done, err) })
			return
		}

		c.post(func() {
			if c.binding != b {
				c.logger.Debug("discarding stale session load", "session_id", id)
				finish(done, nil)
				return
			}
			c.binding = &binding{id: sess.ID}
			c.current = sess
			c.history = RebuildContext(msgs)

			entries := make([]Entry, len(msgs))
			for i, m := range msgs {
				entries[i] = Entry{Sender: m.Sender, Text: m.Text, Image: m.Image}
			}
			c.view.Reset(entries)
			c.logger.Debug("opened session", "session_id", sess.ID, "messages", len(msgs))
			finish(done, nil)
		})
	})
}

// RecordUserTurn appends a user turn to the view and model context
// immediately, then persists it in the background. For an unsaved
// conversation the backing session is created first, titled from this
// turn's text, so the message append always references a valid session.
func (c *Coordinator) RecordUserTurn(text string, image []byte) {
	c.view.Append(Entry{Sender: session.SenderUser, Text: text, Image: image})
	c.appendHistory(session.SenderUser, text, image)

	b := c.binding
	ts := c.now()
	c.worker.Submit(func() {
		ctx := context.Background()
		if b.id == uuid.Nil {
			title := session.DeriveTitle(text, len(image) > 0)
			sess, err := c.store.CreateSession(ctx, title, ts)
			if err != nil {
				c.reportStoreError(b, err)
				return
			}
			b.id = sess.ID
			c.post(func() {
				if c.binding != b {
					return
				}
				c.current = sess
				if c.OnSessionCreated != nil {
					c.OnSessionCreated(sess)
				}
			})
		}
		if _, err := c.store.AppendMessage(ctx, b.id, session.SenderUser, text, image, ts); err != nil {
			c.reportStoreError(b, err)
		}
	})
}

// RecordAssistantTurn appends an assistant turn, replacing the pending
// placeholder when one is shown, and persists it in the background. If the
// conversation is still unsaved when the write job runs (no user turn ever
// reached the store), the turn stays in-memory only.
func (c *Coordinator) RecordAssistantTurn(text string) {
	c.view.ReplacePending(Entry{Sender: session.SenderAssistant, Text: text})
	c.appendHistory(session.SenderAssistant, text, nil)

	b := c.binding
	ts := c.now()
	c.worker.Submit(func() {
		if b.id == uuid.Nil {
			c.logger.Warn("assistant turn before any saved user turn, not persisting")
			return
		}
		if _, err := c.store.AppendMessage(context.Background(), b.id, session.SenderAssistant, text, nil, ts); err != nil {
			c.reportStoreError(b, err)
		}
	})
}

// ShowPending inserts the transient loading placeholder at the tail of the
// view. No-op if already shown.
func (c *Coordinator) ShowPending() { c.view.ShowPending() }

// ClearPending removes the loading placeholder. Idempotent.
func (c *Coordinator) ClearPending() { c.view.ClearPending() }

// OnAssistantReply records a successful model reply, consuming the pending
// placeholder.
func (c *Coordinator) OnAssistantReply(text string) {
	c.RecordAssistantTurn(text)
}

// OnAssistantFailure records a user-visible failure turn in place of the
// awaited reply. The failure is an ordinary chat turn, never a blocking
// error.
func (c *Coordinator) OnAssistantFailure() {
	c.logger.Warn("model transport failed, recording failure turn")
	c.RecordAssistantTurn(FailureText)
}

func (c *Coordinator) appendHistory(sender session.Sender, text string, image []byte) {
	turn := RebuildContext([]session.Message{{Sender: sender, Text: text, Image: image}})
	c.history = append(c.history, turn...)
}

// reportStoreError delivers a durable write failure to the foreground,
// unless the conversation it belonged to is no longer current.
func (c *Coordinator) reportStoreError(b *binding, err error) {
	c.logger.Error("durable write failed", "error", err)
	c.post(func() {
		if c.binding != b {
			return
		}
		if c.OnStoreError != nil {
			c.OnStoreError(err)
		}
	})
}

func finish(done func(error), err error) {
	if done != nil {
		done(err)
	}
}
