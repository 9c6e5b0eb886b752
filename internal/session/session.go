// Package session provides durable conversation persistence with PostgreSQL.
//
// A session is one durable conversation; it exists from the moment its first
// message is saved. Messages are append-only: a message is never mutated after
// it is written, and within a session messages are totally ordered by their
// timestamp with insertion order breaking ties. That order is both the display
// order and the order in which model context is rebuilt.
//
// Key operations:
//
//   - Session lifecycle: [Store.CreateSession], [Store.Session], [Store.Sessions],
//     [Store.RenameSession], [Store.DeleteSession]
//   - Message persistence: [Store.AppendMessage], [Store.Messages]
//
// # Concurrency
//
// Store is safe for concurrent use. All state lives in PostgreSQL; no shared
// Go-side state exists.
//
// # Local State
//
// [SaveCurrentSessionID] and [LoadCurrentSessionID] persist the active session
// to ~/.chatbot/current_session using atomic writes (temp file + rename) with
// file locking via [github.com/gofrs/flock].
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a message.
type Sender string

// Valid senders. Stored as-is in the sender column.
const (
	SenderUser      Sender = "USER"
	SenderAssistant Sender = "ASSISTANT"
)

// Valid reports whether s is a known sender value.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// Sentinel errors for store operations.
// These are part of the Store's public API; check with errors.Is().
var (
	// ErrSessionNotFound indicates the requested session does not exist.
	// This is a normal, recoverable condition (e.g. a stale history entry
	// referencing a deleted session), not a fatal failure.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidSession indicates a message append referenced a session
	// that does not exist. The write is rejected; durable state is
	// unchanged.
	ErrInvalidSession = errors.New("invalid session reference")
)

// Session represents one durable conversation.
type Session struct {
	ID        uuid.UUID
	Title     string
	CreatedAt time.Time
}

// Message represents a single persisted conversation message.
// ID is assigned at write time and increases monotonically across the store.
// Image, when present, is an opaque binary payload stored byte-for-byte.
type Message struct {
	ID        int64
	SessionID uuid.UUID
	Sender    Sender
	Text      string
	Image     []byte
	Timestamp time.Time
}
