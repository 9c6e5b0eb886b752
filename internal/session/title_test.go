package session

import (
	"strings"
	"testing"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		hasImage bool
		want     string
	}{
		{
			name: "short text kept verbatim",
			text: "What is Go?",
			want: "What is Go?",
		},
		{
			name: "exactly thirty runes not truncated",
			text: strings.Repeat("a", 30),
			want: strings.Repeat("a", 30),
		},
		{
			name: "long text truncated with ellipsis",
			text: strings.Repeat("a", 51),
			want: strings.Repeat("a", 30) + "...",
		},
		{
			name: "truncation counts runes not bytes",
			text: strings.Repeat("世", 31),
			want: strings.Repeat("世", 30) + "...",
		},
		{
			name:     "image without text",
			text:     "",
			hasImage: true,
			want:     "Image query",
		},
		{
			name:     "image with text uses text",
			text:     "What is this?",
			hasImage: true,
			want:     "What is this?",
		},
		{
			name: "empty text without image",
			text: "",
			want: "",
		},
		{
			name: "surrounding whitespace trimmed first",
			text: "  hello  ",
			want: "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.text, tt.hasImage); got != tt.want {
				t.Errorf("DeriveTitle(%q, %v) = %q, want %q", tt.text, tt.hasImage, got, tt.want)
			}
		})
	}
}
