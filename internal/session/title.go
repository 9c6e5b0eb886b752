package session

import "strings"

// Title derivation constants.
const (
	// TitleMaxLength bounds a derived session title, in runes, before the
	// truncation marker is appended.
	TitleMaxLength = 30

	// titleEllipsis marks a truncated title.
	titleEllipsis = "..."

	// imageOnlyTitle is used when the first user turn carries an image but
	// no text.
	imageOnlyTitle = "Image query"
)

// DeriveTitle derives a session title from the first user turn.
// Surrounding whitespace is stripped; the remaining text is used as-is up to
// TitleMaxLength runes, with an ellipsis
// marker appended when truncated. When text is empty and the turn carried an
// image, a fixed placeholder is used instead. The full original text is not
// affected; only the title is bounded.
func DeriveTitle(text string, hasImage bool) string {
	text = strings.TrimSpace(text)
	if text == "" && hasImage {
		return imageOnlyTitle
	}

	runes := []rune(text)
	if len(runes) > TitleMaxLength {
		return string(runes[:TitleMaxLength]) + titleEllipsis
	}
	return text
}
