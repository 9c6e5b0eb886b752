package chat

import "github.com/BhavyaNayak04/chatbot/internal/session"

// Entry is one row of the in-memory conversation view. Pending marks the
// transient "assistant is composing" placeholder, which is never persisted
// and always sits at the tail of the view while present.
type Entry struct {
	Sender  session.Sender
	Text    string
	Image   []byte
	Pending bool
}

// Listener receives incremental change notifications from a View,
// sufficient to drive list rendering without rereading the whole view.
type Listener interface {
	// Inserted reports that an entry now exists at index i.
	Inserted(i int)
	// Removed reports that the entry previously at index i is gone.
	Removed(i int)
	// Reset reports that the whole view was replaced.
	Reset()
}

// View is the ordered in-memory message list shown to the user. It is
// confined to the foreground sequence that renders UI and is not safe for
// concurrent use.
type View struct {
	entries  []Entry
	listener Listener
}

// NewView returns an empty view. listener may be nil.
func NewView(listener Listener) *View {
	return &View{listener: listener}
}

// Len returns the number of entries, including a pending placeholder.
func (v *View) Len() int { return len(v.entries) }

// Entry returns the entry at index i.
func (v *View) Entry(i int) Entry { return v.entries[i] }

// Entries returns a copy of the current entries.
func (v *View) Entries() []Entry {
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

// HasPending reports whether the loading placeholder is shown.
func (v *View) HasPending() bool {
	n := len(v.entries)
	return n > 0 && v.entries[n-1].Pending
}

// Reset replaces the view wholesale.
func (v *View) Reset(entries []Entry) {
	v.entries = append(v.entries[:0:0], entries...)
	if v.listener != nil {
		v.listener.Reset()
	}
}

// Append adds an entry, keeping any pending placeholder at the tail.
func (v *View) Append(e Entry) {
	i := len(v.entries)
	if v.HasPending() {
		i--
	}
	v.entries = append(v.entries, Entry{})
	copy(v.entries[i+1:], v.entries[i:])
	v.entries[i] = e
	if v.listener != nil {
		v.listener.Inserted(i)
	}
}

// ShowPending inserts the loading placeholder at the tail. A no-op if one
// is already shown.
func (v *View) ShowPending() {
	if v.HasPending() {
		return
	}
	i := len(v.entries)
	v.entries = append(v.entries, Entry{Sender: session.SenderAssistant, Pending: true})
	if v.listener != nil {
		v.listener.Inserted(i)
	}
}

// ClearPending removes the loading placeholder. Idempotent: a no-op when
// none is shown.
func (v *View) ClearPending() {
	if !v.HasPending() {
		return
	}
	i := len(v.entries) - 1
	v.entries = v.entries[:i]
	if v.listener != nil {
		v.listener.Removed(i)
	}
}

// ReplacePending swaps the loading placeholder for a real entry at the same
// position. Falls back to Append when no placeholder is shown.
func (v *View) ReplacePending(e Entry) {
	if !v.HasPending() {
		v.Append(e)
		return
	}
	i := len(v.entries) - 1
	v.entries[i] = e
	if v.listener != nil {
		v.listener.Removed(i)
		v.listener.Inserted(i)
	}
}
