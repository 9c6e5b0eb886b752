package chat

import (
	"reflect"
	"testing"

	"google.golang.org/genai"

	"github.com/BhavyaNayak04/chatbot/internal/session"
)

func TestRebuildContext(t *testing.T) {
	t.Run("maps senders to model roles in order", func(t *testing.T) {
		msgs := []session.Message{
			{Sender: session.SenderUser, Text: "What is Go?"},
			{Sender: session.SenderAssistant, Text: "A programming language."},
			{Sender: session.SenderUser, Text: "Thanks"},
		}

		got := RebuildContext(msgs)
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}

		wantRoles := []string{string(genai.RoleUser), string(genai.RoleModel), string(genai.RoleUser)}
		for i, c := range got {
			if c.Role != wantRoles[i] {
				t.Errorf("turn %d role = %q, want %q", i, c.Role, wantRoles[i])
			}
			if len(c.Parts) != 1 || c.Parts[0].Text != msgs[i].Text {
				t.Errorf("turn %d parts = %+v", i, c.Parts)
			}
		}
	})

	t.Run("image becomes inline part on same turn", func(t *testing.T) {
		img := []byte{1, 2, 3}
		got := RebuildContext([]session.Message{
			{Sender: session.SenderUser, Text: "what is this", Image: img},
		})

		if len(got) != 1 {
			t.Fatalf("len = %d, want 1", len(got))
		}
		parts := got[0].Parts
		if len(parts) != 2 {
			t.Fatalf("parts = %d, want 2", len(parts))
		}
		if parts[0].Text != "what is this" {
			t.Errorf("text part = %q", parts[0].Text)
		}
		if parts[1].InlineData == nil || string(parts[1].InlineData.Data) != string(img) {
			t.Errorf("image part = %+v", parts[1])
		}
	})

	t.Run("empty text omitted on image only turn", func(t *testing.T) {
		got := RebuildContext([]session.Message{
			{Sender: session.SenderUser, Image: []byte{1}},
		})

		if len(got) != 1 || len(got[0].Parts) != 1 {
			t.Fatalf("got %+v, want single image part turn", got)
		}
		if got[0].Parts[0].InlineData == nil {
			t.Error("want inline data part")
		}
	})

	t.Run("message with no content is skipped", func(t *testing.T) {
		got := RebuildContext([]session.Message{
			{Sender: session.SenderUser},
			{Sender: session.SenderAssistant, Text: "hi"},
		})

		if len(got) != 1 {
			t.Fatalf("len = %d, want 1", len(got))
		}
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		msgs := []session.Message{
			{Sender: session.SenderUser, Text: "a", Image: []byte{9}},
			{Sender: session.SenderAssistant, Text: "b"},
		}

		first := RebuildContext(msgs)
		second := RebuildContext(msgs)
		if !reflect.DeepEqual(first, second) {
			t.Error("same input produced different contexts")
		}
	})

	t.Run("empty log yields empty context", func(t *testing.T) {
		if got := RebuildContext(nil); len(got) != 0 {
			t.Errorf("got %d turns, want 0", len(got))
		}
	})
}
