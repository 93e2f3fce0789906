package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     NewMessage
		wantErr bool
	}{
		{"text ok", NewMessage{ConversationID: "c", SenderID: "s", Kind: KindText, Content: "hi"}, false},
		{"image ok", NewMessage{ConversationID: "c", SenderID: "s", Kind: KindImage, MediaRef: "data:image/png;base64,AA=="}, false},
		{"voice ok", NewMessage{ConversationID: "c", SenderID: "s", Kind: KindVoice, MediaRef: "data:audio/webm;base64,AA=="}, false},
		{"text empty", NewMessage{ConversationID: "c", SenderID: "s", Kind: KindText}, true},
		{"text with media", NewMessage{ConversationID: "c", SenderID: "s", Kind: KindText, Content: "hi", MediaRef: "x"}, true},
		{"image without media", NewMessage{ConversationID: "c", SenderID: "s", Kind: KindImage}, true},
		{"voice with content", NewMessage{ConversationID: "c", SenderID: "s", Kind: KindVoice, Content: "hi", MediaRef: "x"}, true},
		{"unknown kind", NewMessage{ConversationID: "c", SenderID: "s", Kind: "video", MediaRef: "x"}, true},
		{"missing conversation", NewMessage{SenderID: "s", Kind: KindText, Content: "hi"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMessage) {
				t.Errorf("error %v does not wrap ErrInvalidMessage", err)
			}
		})
	}
}

func TestMessageLess(t *testing.T) {
	t0 := time.UnixMilli(1000)
	a := &Message{ID: "a", Seq: 1, CreatedAt: t0}
	b := &Message{ID: "b", Seq: 2, CreatedAt: t0}
	c := &Message{ID: "c", Seq: 0, CreatedAt: t0.Add(time.Millisecond)}

	if !a.Less(b) || b.Less(a) {
		t.Error("equal timestamps should order by Seq")
	}
	if !b.Less(c) {
		t.Error("earlier timestamp should sort first regardless of Seq")
	}
}

func TestConversationParticipants(t *testing.T) {
	c := &Conversation{ParticipantOne: "a", ParticipantTwo: "b"}
	if c.OtherParticipant("a") != "b" || c.OtherParticipant("b") != "a" {
		t.Errorf("OtherParticipant mismatch")
	}
	if !c.HasParticipant("b") || c.HasParticipant("z") {
		t.Errorf("HasParticipant mismatch")
	}
}

func TestSummaryPreview(t *testing.T) {
	hi := "hi"
	ref := "data:x"
	tests := []struct {
		last *Message
		want string
	}{
		{nil, ""},
		{&Message{Kind: KindText, Content: &hi}, "hi"},
		{&Message{Kind: KindImage, MediaRef: &ref}, "📷 Image"},
		{&Message{Kind: KindVoice, MediaRef: &ref}, "🎤 Voice"},
	}
	for _, tt := range tests {
		s := Summary{Last: tt.last}
		if got := s.Preview(); got != tt.want {
			t.Errorf("Preview() = %q, want %q", got, tt.want)
		}
	}
}

func TestAvatarWraps(t *testing.T) {
	n := AvatarCount()
	if Avatar(0) != Avatar(n) {
		t.Errorf("Avatar(%d) should wrap to Avatar(0)", n)
	}
	if Avatar(-1) != Avatar(n-1) {
		t.Errorf("negative index should wrap from the end")
	}
	if AvatarColor(3) != AvatarColor(3+n) {
		t.Errorf("AvatarColor should wrap")
	}
}
