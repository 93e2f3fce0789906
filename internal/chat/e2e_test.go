package chat

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/chatwave/internal/bus"
	"github.com/matheus3301/chatwave/internal/gateway"
	"github.com/matheus3301/chatwave/internal/store"
)

func localGateway(t *testing.T) (*gateway.Local, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "chatwave.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	gw := gateway.NewLocal(db, bus.New(), nil)
	t.Cleanup(gw.Shutdown)
	return gw, db
}

// TestDeliverHi follows one text message from sender to an open recipient
// over the SQLite-backed gateway.
func TestDeliverHi(t *testing.T) {
	gw, db := localGateway(t)
	ctx := context.Background()

	alice, err := gw.InsertProfile(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	bob, err := gw.InsertProfile(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	carol, err := gw.InsertProfile(ctx, "carol")
	if err != nil {
		t.Fatal(err)
	}
	older, err := gw.InsertConversation(ctx, carol.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.TouchConversation(ctx, older.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	sa := New(gw, Options{})
	sb := New(gw, Options{})
	if _, err := sa.SignIn(ctx, alice.ID); err != nil {
		t.Fatal(err)
	}
	defer sa.Abort()
	if _, err := sb.SignIn(ctx, bob.ID); err != nil {
		t.Fatal(err)
	}
	defer sb.Abort()

	c, err := sa.StartConversation(ctx, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := sb.Open(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := sa.SendText(ctx, "hi"); err != nil {
		t.Fatal(err)
	}

	eventually(t, "delivery to bob", func() bool {
		msgs := sb.Messages()
		return len(msgs) == 1 && msgs[0].Text() == "hi"
	})
	eventually(t, "bob's list to show the new conversation on top", func() bool {
		list := sb.Summaries()
		return len(list) == 2 && list[0].Conversation.ID == c.ID && list[0].Preview() == "hi"
	})

	time.Sleep(50 * time.Millisecond)
	if n := len(sb.Messages()); n != 1 {
		t.Errorf("bob has %d messages, want 1", n)
	}
	if n := len(sa.Messages()); n != 1 {
		t.Errorf("alice has %d messages, want 1", n)
	}
	if p := sb.Profile(alice.ID); p == nil || !p.Online {
		t.Errorf("bob sees alice as %+v, want online", p)
	}
}

// staticActivity drops explicit activity bumps so only the insert itself
// moves a conversation.
type staticActivity struct {
	gateway.Gateway
}

func (staticActivity) UpdateConversationActivity(context.Context, string, time.Time) error {
	return nil
}

func TestInsertOrdersRecipientList(t *testing.T) {
	gw, db := localGateway(t)
	ctx := context.Background()

	alice, _ := gw.InsertProfile(ctx, "alice")
	bob, _ := gw.InsertProfile(ctx, "bob")
	carol, _ := gw.InsertProfile(ctx, "carol")
	target, err := gw.InsertConversation(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	other, err := gw.InsertConversation(ctx, carol.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.TouchConversation(ctx, target.ID, time.Now().Add(-2*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := db.TouchConversation(ctx, other.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	sa := New(staticActivity{gw}, Options{})
	sb := New(gw, Options{})
	if _, err := sa.SignIn(ctx, alice.ID); err != nil {
		t.Fatal(err)
	}
	defer sa.Abort()
	if _, err := sb.SignIn(ctx, bob.ID); err != nil {
		t.Fatal(err)
	}
	defer sb.Abort()

	if list := sb.Summaries(); len(list) != 2 || list[0].Conversation.ID != other.ID {
		t.Fatalf("bob's list before send = %+v, want carol's conversation on top", list)
	}

	if err := sa.Open(ctx, target.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := sa.SendText(ctx, "hi"); err != nil {
		t.Fatal(err)
	}

	eventually(t, "bob's list to move the older conversation on top", func() bool {
		list := sb.Summaries()
		return len(list) == 2 && list[0].Conversation.ID == target.ID && list[0].Preview() == "hi"
	})
}

func TestSignOutMarksOfflineInStore(t *testing.T) {
	gw, db := localGateway(t)
	ctx := context.Background()
	p, err := gw.InsertProfile(ctx, "dave")
	if err != nil {
		t.Fatal(err)
	}

	s := New(gw, Options{})
	if _, err := s.SignIn(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if got, _ := db.GetProfile(ctx, p.ID); !got.Online {
		t.Error("not online after SignIn")
	}
	if err := s.SignOut(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := db.GetProfile(ctx, p.ID); got.Online {
		t.Error("still online after SignOut")
	}
}
