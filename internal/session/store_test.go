package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// mockQuerier implements Querier for unit tests.
type mockQuerier struct {
	// Error configuration
	insertSessionErr      error
	selectSessionErr      error
	selectSessionsErr     error
	updateSessionTitleErr error
	deleteSessionErr      error
	insertMessageErr      error
	selectMessagesErr     error

	// Return values
	insertSessionResult  Session
	selectSessionResult  Session
	selectSessionsResult []Session
	updateAffected       int64
	deleteAffected       int64
	insertMessageID      int64
	selectMessagesResult []Message

	// Call tracking
	insertSessionCalls int
	insertMessageCalls int

	lastInsertTitle     string
	lastInsertCreatedAt time.Time
	lastInsertedMessage Message
}

func (m *mockQuerier) InsertSession(_ context.Context, title string, createdAt time.Time) (Session, error) {
	m.insertSessionCalls++
	m.lastInsertTitle = title
	m.lastInsertCreatedAt = createdAt
	if m.insertSessionErr != nil {
		return Session{}, m.insertSessionErr
	}
	return m.insertSessionResult, nil
}

func (m *mockQuerier) SelectSession(_ context.Context, _ uuid.UUID) (Session, error) {
	if m.selectSessionErr != nil {
		return Session{}, m.selectSessionErr
	}
	return m.selectSessionResult, nil
}

func (m *mockQuerier) SelectSessions(_ context.Context) ([]Session, error) {
	if m.selectSessionsErr != nil {
		return nil, m.selectSessionsErr
	}
	return m.selectSessionsResult, nil
}

func (m *mockQuerier) UpdateSessionTitle(_ context.Context, _ uuid.UUID, _ string) (int64, error) {
	if m.updateSessionTitleErr != nil {
		return 0, m.updateSessionTitleErr
	}
	return m.updateAffected, nil
}

func (m *mockQuerier) DeleteSession(_ context.Context, _ uuid.UUID) (int64, error) {
	if m.deleteSessionErr != nil {
		return 0, m.deleteSessionErr
	}
	return m.deleteAffected, nil
}

func (m *mockQuerier) InsertMessage(_ context.Context, msg Message) (int64, error) {
	m.insertMessageCalls++
	m.lastInsertedMessage = msg
	if m.insertMessageErr != nil {
		return 0, m.insertMessageErr
	}
	return m.insertMessageID, nil
}

func (m *mockQuerier) SelectMessages(_ context.Context, _ uuid.UUID) ([]Message, error) {
	if m.selectMessagesErr != nil {
		return nil, m.selectMessagesErr
	}
	return m.selectMessagesResult, nil
}

func TestStore_CreateSession(t *testing.T) {
	t.Run("returns session with assigned id", func(t *testing.T) {
		id := uuid.New()
		created := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
		q := &mockQuerier{
			insertSessionResult: Session{ID: id, Title: "Hello", CreatedAt: created},
		}
		store := NewStore(q, nil)

		sess, err := store.CreateSession(context.Background(), "Hello", created)
		if err != nil {
			t.Fatalf("CreateSession() = %v", err)
		}
		if sess.ID != id {
			t.Errorf("ID = %v, want %v", sess.ID, id)
		}
		if q.lastInsertTitle != "Hello" {
			t.Errorf("inserted title = %q, want Hello", q.lastInsertTitle)
		}
		if !q.lastInsertCreatedAt.Equal(created) {
			t.Errorf("inserted createdAt = %v, want %v", q.lastInsertCreatedAt, created)
		}
	})

	t.Run("wraps querier error", func(t *testing.T) {
		q := &mockQuerier{insertSessionErr: errors.New("disk on fire")}
		store := NewStore(q, nil)

		if _, err := store.CreateSession(context.Background(), "t", time.Now()); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestStore_Session(t *testing.T) {
	t.Run("maps no rows to ErrSessionNotFound", func(t *testing.T) {
		q := &mockQuerier{selectSessionErr: pgx.ErrNoRows}
		store := NewStore(q, nil)

		_, err := store.Session(context.Background(), uuid.New())
		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("err = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("passes through other errors", func(t *testing.T) {
		q := &mockQuerier{selectSessionErr: errors.New("connection reset")}
		store := NewStore(q, nil)

		_, err := store.Session(context.Background(), uuid.New())
		if err == nil || errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("err = %v, want plain wrapped error", err)
		}
	})
}

func TestStore_RenameSession(t *testing.T) {
	t.Run("zero rows affected means not found", func(t *testing.T) {
		q := &mockQuerier{updateAffected: 0}
		store := NewStore(q, nil)

		err := store.RenameSession(context.Background(), uuid.New(), "new title")
		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("err = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("succeeds when row updated", func(t *testing.T) {
		q := &mockQuerier{updateAffected: 1}
		store := NewStore(q, nil)

		if err := store.RenameSession(context.Background(), uuid.New(), "new title"); err != nil {
			t.Fatalf("RenameSession() = %v", err)
		}
	})
}

func TestStore_DeleteSession(t *testing.T) {
	q := &mockQuerier{deleteAffected: 0}
	store := NewStore(q, nil)

	err := store.DeleteSession(context.Background(), uuid.New())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestStore_AppendMessage(t *testing.T) {
	t.Run("returns message with assigned id", func(t *testing.T) {
		q := &mockQuerier{insertMessageID: 42}
		store := NewStore(q, nil)
		sessionID := uuid.New()
		ts := time.Now()

		msg, err := store.AppendMessage(context.Background(), sessionID, SenderUser, "Hello", nil, ts)
		if err != nil {
			t.Fatalf("AppendMessage() = %v", err)
		}
		if msg.ID != 42 {
			t.Errorf("ID = %d, want 42", msg.ID)
		}
		if msg.SessionID != sessionID || msg.Sender != SenderUser || msg.Text != "Hello" {
			t.Errorf("unexpected message %+v", msg)
		}
	})

	t.Run("rejects unknown sender", func(t *testing.T) {
		q := &mockQuerier{}
		store := NewStore(q, nil)

		_, err := store.AppendMessage(context.Background(), uuid.New(), Sender("BOT"), "x", nil, time.Now())
		if err == nil {
			t.Fatal("expected error for unknown sender")
		}
		if q.insertMessageCalls != 0 {
			t.Error("querier should not be reached for invalid sender")
		}
	})

	t.Run("maps foreign key violation to ErrInvalidSession", func(t *testing.T) {
		q := &mockQuerier{insertMessageErr: &pgconn.PgError{Code: "23503"}}
		store := NewStore(q, nil)

		_, err := store.AppendMessage(context.Background(), uuid.New(), SenderUser, "x", nil, time.Now())
		if !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("err = %v, want ErrInvalidSession", err)
		}
	})

	t.Run("preserves image payload", func(t *testing.T) {
		q := &mockQuerier{insertMessageID: 1}
		store := NewStore(q, nil)
		img := []byte{0x89, 0x50, 0x4e, 0x47}

		msg, err := store.AppendMessage(context.Background(), uuid.New(), SenderUser, "", img, time.Now())
		if err != nil {
			t.Fatalf("AppendMessage() = %v", err)
		}
		if string(msg.Image) != string(img) {
			t.Errorf("image payload altered: %v", msg.Image)
		}
		if string(q.lastInsertedMessage.Image) != string(img) {
			t.Errorf("image payload altered before insert: %v", q.lastInsertedMessage.Image)
		}
	})
}

func TestStore_Messages(t *testing.T) {
	t.Run("empty session yields empty slice", func(t *testing.T) {
		q := &mockQuerier{}
		store := NewStore(q, nil)

		msgs, err := store.Messages(context.Background(), uuid.New())
		if err != nil {
			t.Fatalf("Messages() = %v", err)
		}
		if len(msgs) != 0 {
			t.Errorf("len = %d, want 0", len(msgs))
		}
	})

	t.Run("wraps querier error", func(t *testing.T) {
		q := &mockQuerier{selectMessagesErr: errors.New("boom")}
		store := NewStore(q, nil)

		if _, err := store.Messages(context.Background(), uuid.New()); err == nil {
			t.Fatal("expected error")
		}
	})
}
