package chat

import (
	"google.golang.org/genai"

	"github.com/BhavyaNayak04/chatbot/internal/session"
)

// imageMIMEType is the content type recorded for stored image payloads.
// Images are persisted as PNG bytes regardless of their source format.
const imageMIMEType = "image/png"

// RebuildContext converts a stored message log into the ordered turn
// sequence a model needs to resume the conversation. USER messages map to
// the user role, ASSISTANT messages to the model role. Empty text is
// omitted; an image payload becomes an additional inline part on the same
// turn.
//
// The function is pure: it performs no I/O and the same input always yields
// the same output, so model state can be rebuilt identically after a
// restart.
func RebuildContext(msgs []session.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		if m.Sender == session.SenderAssistant {
			role = genai.RoleModel
		}

		var parts []*genai.Part
		if m.Text != "" {
			parts = append(parts, genai.NewPartFromText(m.Text))
		}
		if len(m.Image) > 0 {
			parts = append(parts, genai.NewPartFromBytes(m.Image, imageMIMEType))
		}
		if len(parts) == 0 {
			continue
		}

		contents = append(contents, &genai.Content{Role: string(role), Parts: parts})
	}
	return contents
}
