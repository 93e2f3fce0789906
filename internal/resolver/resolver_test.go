package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/matheus3301/chatwave/internal/gateway/gatewaytest"
	"github.com/matheus3301/chatwave/internal/model"
)

func TestResolveIsSymmetric(t *testing.T) {
	fake := gatewaytest.New()
	r := New(fake, nil)
	ctx := context.Background()

	ab, err := r.Resolve(ctx, "A", "B")
	if err != nil {
		t.Fatal(err)
	}
	ba, err := r.Resolve(ctx, "B", "A")
	if err != nil {
		t.Fatal(err)
	}
	if ab.ID != ba.ID {
		t.Errorf("Resolve(A,B) = %s, Resolve(B,A) = %s", ab.ID, ba.ID)
	}
	if n := len(fake.Conversations()); n != 1 {
		t.Errorf("stored conversations = %d, want 1", n)
	}
	if ab.ParticipantOne != "A" || ab.ParticipantTwo != "B" {
		t.Errorf("created as (%s,%s), want (A,B)", ab.ParticipantOne, ab.ParticipantTwo)
	}
}

func TestResolveFindsReversedOrdering(t *testing.T) {
	fake := gatewaytest.New()
	fake.AddConversation(model.Conversation{ID: "existing", ParticipantOne: "B", ParticipantTwo: "A"})

	c, err := New(fake, nil).Resolve(context.Background(), "A", "B")
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != "existing" {
		t.Errorf("id = %s, want existing", c.ID)
	}
	if n := fake.Calls(gatewaytest.InsertConversation); n != 0 {
		t.Errorf("insert calls = %d, want 0", n)
	}
}

func TestResolveRejectsInvalidPair(t *testing.T) {
	r := New(gatewaytest.New(), nil)
	for _, pair := range [][2]string{{"A", "A"}, {"", "B"}, {"A", ""}} {
		if _, err := r.Resolve(context.Background(), pair[0], pair[1]); !errors.Is(err, ErrInvalidPair) {
			t.Errorf("Resolve(%q,%q) error = %v, want ErrInvalidPair", pair[0], pair[1], err)
		}
	}
}

func TestConcurrentResolveCreatesOne(t *testing.T) {
	fake := gatewaytest.New()
	r := New(fake, nil)

	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			self, other := "A", "B"
			if i%2 == 1 {
				self, other = other, self
			}
			c, err := r.Resolve(context.Background(), self, other)
			if err != nil {
				t.Error(err)
				return
			}
			ids[i] = c.ID
		}()
	}
	wg.Wait()

	for i := range ids {
		if ids[i] != ids[0] {
			t.Fatalf("resolved to different conversations: %v", ids)
		}
	}
	if n := len(fake.Conversations()); n != 1 {
		t.Errorf("stored conversations = %d, want 1", n)
	}
	if len(r.locks) != 0 {
		t.Errorf("pair locks leaked: %d", len(r.locks))
	}
}

func TestResolveSurfacesStoreErrors(t *testing.T) {
	fake := gatewaytest.New()
	fake.Fail(gatewaytest.QueryConversation, errors.New("down"))
	if _, err := New(fake, nil).Resolve(context.Background(), "A", "B"); err == nil {
		t.Fatal("expected error")
	}
	if n := fake.Calls(gatewaytest.InsertConversation); n != 0 {
		t.Errorf("inserted despite failed lookup")
	}
}
