package wire

import (
	"testing"
	"time"

	"github.com/matheus3301/chatwave/internal/model"
)

func TestCodecRoundTripMessage(t *testing.T) {
	text := "hi"
	in := &model.Message{
		ID:             "m1",
		Seq:            4,
		ConversationID: "c1",
		SenderID:       "p1",
		Kind:           model.KindText,
		Content:        &text,
		CreatedAt:      time.UnixMilli(1_700_000_000_123),
	}

	var c Codec
	b, err := c.Marshal(FromMessage(in))
	if err != nil {
		t.Fatal(err)
	}
	var out Message
	if err := c.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	got := out.Model()
	if got.ID != in.ID || got.Seq != in.Seq || got.Text() != "hi" || got.MediaRef != nil {
		t.Errorf("round trip = %+v", got)
	}
	if !got.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, in.CreatedAt)
	}
}

func TestNilReplyMeansNotFound(t *testing.T) {
	b, err := Marshal(&ProfileReply{})
	if err != nil {
		t.Fatal(err)
	}
	var reply ProfileReply
	if err := Unmarshal(b, &reply); err != nil {
		t.Fatal(err)
	}
	if reply.Profile.Model() != nil {
		t.Errorf("empty reply decoded to %+v", reply.Profile)
	}
}

func TestDeterministicEncoding(t *testing.T) {
	beacon := Beacon{ProfileID: "p1", Online: false, SentAtMs: 42}
	a, err := Marshal(beacon)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(beacon)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("encoding is not deterministic")
	}
}

func TestServiceDescCoversServer(t *testing.T) {
	if len(GatewayServiceDesc.Methods) != 14 {
		t.Errorf("methods = %d, want 14", len(GatewayServiceDesc.Methods))
	}
	seen := make(map[string]bool)
	for _, m := range GatewayServiceDesc.Methods {
		if seen[m.MethodName] {
			t.Errorf("duplicate method %s", m.MethodName)
		}
		seen[m.MethodName] = true
	}
	if FullMethod(MethodStats) != "/chatwave.v1.Gateway/Stats" {
		t.Errorf("FullMethod = %s", FullMethod(MethodStats))
	}
}
