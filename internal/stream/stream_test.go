package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matheus3301/chatwave/internal/gateway/gatewaytest"
	"github.com/matheus3301/chatwave/internal/model"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func msg(id, conv string, at time.Duration) model.Message {
	text := id
	return model.Message{ID: id, ConversationID: conv, SenderID: "a", Kind: model.KindText, Content: &text, CreatedAt: t0.Add(at)}
}

func msgIDs(ms []model.Message) []string {
	out := make([]string, len(ms))
	for i := range ms {
		out[i] = ms[i].ID
	}
	return out
}

func sameIDs(t *testing.T, got []model.Message, want ...string) {
	t.Helper()
	ids := msgIDs(got)
	if len(ids) != len(want) {
		t.Fatalf("messages = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("messages = %v, want %v", ids, want)
		}
	}
}

func TestAppendDeduplicates(t *testing.T) {
	s := New(gatewaytest.New(), nil, nil)
	s.Bind("c1")

	if !s.Append(msg("m1", "c1", 0)) {
		t.Fatal("first append rejected")
	}
	if s.Append(msg("m1", "c1", 0)) {
		t.Error("duplicate append accepted")
	}
	if !s.Append(msg("m2", "c1", time.Second)) {
		t.Fatal("second append rejected")
	}
	sameIDs(t, s.Messages(), "m1", "m2")
}

func TestAppendKeepsDeliveryOrder(t *testing.T) {
	s := New(gatewaytest.New(), nil, nil)
	s.Bind("c1")

	// Delivered out of timestamp order: appended at the tail regardless.
	s.Append(msg("late", "c1", time.Minute))
	s.Append(msg("early", "c1", 0))
	sameIDs(t, s.Messages(), "late", "early")
}

func TestAppendRejectsOtherConversation(t *testing.T) {
	s := New(gatewaytest.New(), nil, nil)
	if s.Append(msg("m1", "c1", 0)) {
		t.Error("unbound stream accepted a message")
	}
	s.Bind("c1")
	if s.Append(msg("m2", "c2", 0)) {
		t.Error("message for c2 appended into c1")
	}
	if s.Len() != 0 {
		t.Errorf("len = %d, want 0", s.Len())
	}
}

func TestLoadFetchesHistory(t *testing.T) {
	fake := gatewaytest.New()
	fake.AddMessage(msg("m1", "c1", 0))
	fake.AddMessage(msg("m2", "c1", time.Second))
	fake.AddMessage(msg("x", "c2", 0))
	s := New(fake, nil, nil)

	if err := s.Load(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}
	if s.Bound() != "c1" {
		t.Errorf("bound = %q, want c1", s.Bound())
	}
	sameIDs(t, s.Messages(), "m1", "m2")
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	fake := gatewaytest.New()
	fake.AddMessage(msg("a1", "A", 0))
	fake.AddMessage(msg("b1", "B", 0))
	s := New(fake, nil, nil)

	release := fake.Block(gatewaytest.QueryMessages)
	errc := make(chan error, 1)
	go func() { errc <- s.Load(context.Background(), "A") }()

	waitCalls(t, fake, 1)
	s.Bind("B")
	s.Append(msg("b2", "B", time.Second))
	release()

	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("Load(A) error = %v, want ErrSuperseded", err)
	}
	if s.Bound() != "B" {
		t.Errorf("bound = %q, want B", s.Bound())
	}
	sameIDs(t, s.Messages(), "b2")
}

func TestRebindSameConversationInvalidatesLoad(t *testing.T) {
	fake := gatewaytest.New()
	fake.AddMessage(msg("a1", "A", 0))
	s := New(fake, nil, nil)

	release := fake.Block(gatewaytest.QueryMessages)
	errc := make(chan error, 1)
	go func() { errc <- s.Load(context.Background(), "A") }()
	waitCalls(t, fake, 1)

	// A -> B -> A: the first load belongs to an older generation.
	s.Bind("B")
	s.Bind("A")
	release()

	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("error = %v, want ErrSuperseded", err)
	}
	if s.Len() != 0 {
		t.Errorf("stale history landed: %v", msgIDs(s.Messages()))
	}
}

func TestAppendDuringLoadIsKept(t *testing.T) {
	fake := gatewaytest.New()
	fake.AddMessage(msg("m1", "c1", 0))
	fake.AddMessage(msg("m2", "c1", time.Second))
	s := New(fake, nil, nil)
	s.Bind("c1")

	release := fake.Block(gatewaytest.QueryMessages)
	errc := make(chan error, 1)
	go func() { errc <- s.Load(context.Background(), "c1") }()
	waitCalls(t, fake, 1)

	s.Append(msg("m2", "c1", time.Second)) // also in history
	s.Append(msg("m3", "c1", 2*time.Second))
	release()

	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	sameIDs(t, s.Messages(), "m1", "m2", "m3")
}

func TestLoadFailureLeavesSequence(t *testing.T) {
	fake := gatewaytest.New()
	s := New(fake, nil, nil)
	s.Bind("c1")
	s.Append(msg("m1", "c1", 0))

	fake.Fail(gatewaytest.QueryMessages, errors.New("down"))
	if err := s.Load(context.Background(), "c1"); err == nil {
		t.Fatal("expected error")
	}
	sameIDs(t, s.Messages(), "m1")
}

func TestUnbind(t *testing.T) {
	s := New(gatewaytest.New(), nil, nil)
	s.Bind("c1")
	s.Append(msg("m1", "c1", 0))
	s.Unbind()
	if s.Bound() != "" || s.Len() != 0 {
		t.Errorf("Unbind left bound=%q len=%d", s.Bound(), s.Len())
	}
}

func waitCalls(t *testing.T, fake *gatewaytest.Fake, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for fake.Calls(gatewaytest.QueryMessages) < n {
		if time.Now().After(deadline) {
			t.Fatal("load never reached the gateway")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
