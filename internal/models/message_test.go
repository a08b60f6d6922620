package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_PublicMasksDeleted(t *testing.T) {
	m := &Message{
		ID:        "m1",
		Text:      "secret",
		Image:     "https://img.example/x.png",
		IsDeleted: true,
		Reactions: map[string]string{"u1": "👍"},
	}

	out := m.Public()

	assert.Equal(t, DeletedPlaceholder, out.Text)
	assert.Empty(t, out.Image)
	assert.Equal(t, "secret", m.Text, "receiver must not be mutated")

	out.Reactions["u2"] = "🔥"
	assert.Len(t, m.Reactions, 1)
}

func TestMessageDraft_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		in       MessageDraft
		wantText string
		wantType string
	}{
		{"text", MessageDraft{Text: "  hi "}, "hi", MessageTypeText},
		{"image only", MessageDraft{Image: "https://img/x.png"}, "", MessageTypeImage},
		{"explicit type kept", MessageDraft{Text: "x", MessageType: MessageTypeAudio}, "x", MessageTypeAudio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantType, got.MessageType)
		})
	}
}
