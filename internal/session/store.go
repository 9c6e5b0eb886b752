package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier defines the database operations Store depends on.
// Production uses the pgx-backed implementation from NewQuerier; unit tests
// substitute a mock.
type Querier interface {
	// Session operations
	InsertSession(ctx context.Context, title string, createdAt time.Time) (Session, error)
	SelectSession(ctx context.Context, id uuid.UUID) (Session, error)
	SelectSessions(ctx context.Context) ([]Session, error)
	UpdateSessionTitle(ctx context.Context, id uuid.UUID, title string) (int64, error)
	DeleteSession(ctx context.Context, id uuid.UUID) (int64, error)

	// Message operations
	InsertMessage(ctx context.Context, m Message) (int64, error)
	SelectMessages(ctx context.Context, sessionID uuid.UUID) ([]Message, error)
}

// Store manages session and message persistence.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	q      Querier
	logger *slog.Logger
}

// NewStore creates a Store on top of the given querier.
// A nil logger falls back to slog.Default().
func NewStore(q Querier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{q: q, logger: logger}
}

// CreateSession inserts a new session row and returns it with its assigned ID.
// Newly created sessions are visible to subsequent Sessions calls.
func (s *Store) CreateSession(ctx context.Context, title string, createdAt time.Time) (Session, error) {
	sess, err := s.q.InsertSession(ctx, title, createdAt)
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Debug("created session", "id", sess.ID, "title", sess.Title)
	return sess, nil
}

// Session retrieves a session by ID.
// Returns ErrSessionNotFound if no such session exists.
func (s *Store) Session(ctx context.Context, id uuid.UUID) (Session, error) {
	sess, err := s.q.SelectSession(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
		}
		return Session{}, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return sess, nil
}

// Sessions lists all sessions ordered by creation time descending (most
// recent first). Each call produces a consistent snapshot; partially-written
// rows are never visible.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	sessions, err := s.q.SelectSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	s.logger.Debug("listed sessions", "count", len(sessions))
	return sessions, nil
}

// RenameSession updates a session's title.
// Returns ErrSessionNotFound if no such session exists.
func (s *Store) RenameSession(ctx context.Context, id uuid.UUID, title string) error {
	affected, err := s.q.UpdateSessionTitle(ctx, id, title)
	if err != nil {
		return fmt.Errorf("failed to rename session %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}

	s.logger.Debug("renamed session", "id", id, "title", title)
	return nil
}

// DeleteSession deletes a session and all its messages (CASCADE).
// Returns ErrSessionNotFound if no such session exists.
func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	affected, err := s.q.DeleteSession(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}

	s.logger.Debug("deleted session", "id", id)
	return nil
}

// AppendMessage durably appends one message to a session and returns the
// stored message with its assigned ID. The write is atomic: the message is
// either fully visible to subsequent reads or not visible at all.
//
// Returns ErrInvalidSession if sessionID does not reference an existing
// session.
func (s *Store) AppendMessage(ctx context.Context, sessionID uuid.UUID, sender Sender, text string, image []byte, timestamp time.Time) (Message, error) {
	if !sender.Valid() {
		return Message{}, fmt.Errorf("unknown sender %q", sender)
	}

	msg := Message{
		SessionID: sessionID,
		Sender:    sender,
		Text:      text,
		Image:     image,
		Timestamp: timestamp,
	}

	id, err := s.q.InsertMessage(ctx, msg)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Message{}, fmt.Errorf("session %s: %w", sessionID, ErrInvalidSession)
		}
		return Message{}, fmt.Errorf("failed to append message to session %s: %w", sessionID, err)
	}

	msg.ID = id
	s.logger.Debug("appended message",
		"session_id", sessionID,
		"message_id", id,
		"sender", sender,
		"has_image", image != nil)
	return msg, nil
}

// Messages retrieves all messages of a session ordered by timestamp ascending,
// ties broken by insertion order. A session with no messages yields an empty
// slice, not an error.
func (s *Store) Messages(ctx context.Context, sessionID uuid.UUID) ([]Message, error) {
	messages, err := s.q.SelectMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages for session %s: %w", sessionID, err)
	}

	s.logger.Debug("retrieved messages", "session_id", sessionID, "count", len(messages))
	return messages, nil
}

// isForeignKeyViolation reports whether err is a PostgreSQL foreign key
// violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// pgxQuerier implements Querier against a pgx connection pool.
type pgxQuerier struct {
	pool *pgxpool.Pool
}

// NewQuerier creates the production Querier backed by a pgx pool.
func NewQuerier(pool *pgxpool.Pool) Querier {
	return &pgxQuerier{pool: pool}
}

func (q *pgxQuerier) InsertSession(ctx context.Context, title string, createdAt time.Time) (Session, error) {
	var sess Session
	err := q.pool.QueryRow(ctx, `
		INSERT INTO sessions (title, created_at)
		VALUES ($1, $2)
		RETURNING id, title, created_at`,
		title, createdAt,
	).Scan(&sess.ID, &sess.Title, &sess.CreatedAt)
	return sess, err
}

func (q *pgxQuerier) SelectSession(ctx context.Context, id uuid.UUID) (Session, error) {
	var sess Session
	err := q.pool.QueryRow(ctx, `
		SELECT id, title, created_at
		FROM sessions
		WHERE id = $1`,
		id,
	).Scan(&sess.ID, &sess.Title, &sess.CreatedAt)
	return sess, err
}

func (q *pgxQuerier) SelectSessions(ctx context.Context) ([]Session, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, title, created_at
		FROM sessions
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (q *pgxQuerier) UpdateSessionTitle(ctx context.Context, id uuid.UUID, title string) (int64, error) {
	tag, err := q.pool.Exec(ctx, `
		UPDATE sessions
		SET title = $2
		WHERE id = $1`,
		id, title)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *pgxQuerier) DeleteSession(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.pool.Exec(ctx, `
		DELETE FROM sessions
		WHERE id = $1`,
		id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *pgxQuerier) InsertMessage(ctx context.Context, m Message) (int64, error) {
	var id int64
	err := q.pool.QueryRow(ctx, `
		INSERT INTO messages (session_id, sender, text, image, ts)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		m.SessionID, string(m.Sender), m.Text, m.Image, m.Timestamp,
	).Scan(&id)
	return id, err
}

func (q *pgxQuerier) SelectMessages(ctx context.Context, sessionID uuid.UUID) ([]Message, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, session_id, sender, text, image, ts
		FROM messages
		WHERE session_id = $1
		ORDER BY ts ASC, id ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var sender string
		if err := rows.Scan(&m.ID, &m.SessionID, &sender, &m.Text, &m.Image, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Sender = Sender(sender)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
