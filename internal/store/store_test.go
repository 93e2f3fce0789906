package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/chatwave/internal/model"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustProfile(t *testing.T, db *DB, name string) *model.Profile {
	t.Helper()
	p, err := db.InsertProfile(context.Background(), name)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate; a second run must be a no-op.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 2 {
		t.Errorf("version = %d, want 2 (init + indexes)", result.Version)
	}
}

func TestProfileInsertAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	p := mustProfile(t, db, "alice")
	if p.ID == "" {
		t.Fatal("InsertProfile did not assign an id")
	}

	got, err := db.GetProfile(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Username != "alice" || got.Online {
		t.Errorf("GetProfile = %+v, want offline alice", got)
	}

	byName, err := db.GetProfileByUsername(ctx, "ALICE")
	if err != nil {
		t.Fatal(err)
	}
	if byName == nil || byName.ID != p.ID {
		t.Errorf("GetProfileByUsername is not case-insensitive: %+v", byName)
	}

	missing, err := db.GetProfile(ctx, "nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing profile, got %+v", missing)
	}
}

func TestSetProfileOnlineLastWriteWins(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := mustProfile(t, db, "bob")

	now := time.Now()
	if err := db.SetProfileOnline(ctx, p.ID, false, now); err != nil {
		t.Fatal(err)
	}
	if err := db.SetProfileOnline(ctx, p.ID, true, now.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	// Redundant call is not an error.
	if err := db.SetProfileOnline(ctx, p.ID, true, now.Add(2*time.Second)); err != nil {
		t.Fatal(err)
	}

	got, _ := db.GetProfile(ctx, p.ID)
	if !got.Online {
		t.Error("online = false, want true")
	}
	if got.LastSeen.UnixMilli() != now.Add(2*time.Second).UnixMilli() {
		t.Errorf("last_seen = %v, want %v", got.LastSeen, now.Add(2*time.Second))
	}

	err := db.SetProfileOnline(ctx, "ghost", true, now)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("SetProfileOnline(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestSetProfileAvatar(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	p := mustProfile(t, db, "carol")

	if err := db.SetProfileAvatar(ctx, p.ID, 7); err != nil {
		t.Fatal(err)
	}
	got, _ := db.GetProfile(ctx, p.ID)
	if got.AvatarIndex != 7 {
		t.Errorf("avatar_index = %d, want 7", got.AvatarIndex)
	}
}

func TestSearchProfiles(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	self := mustProfile(t, db, "anna")
	mustProfile(t, db, "Annabel")
	mustProfile(t, db, "joanne")
	mustProfile(t, db, "bob")
	mustProfile(t, db, "an_na")

	results, err := db.SearchProfiles(ctx, "ann", self.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (Annabel, joanne): %+v", len(results), results)
	}
	for _, r := range results {
		if r.ID == self.ID {
			t.Error("search returned the caller's own profile")
		}
	}

	// LIKE wildcards in the query are literal.
	results, err = db.SearchProfiles(ctx, "_", self.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Username != "an_na" {
		t.Errorf("underscore search = %+v, want only an_na", results)
	}
}

func TestConversationLookupIsOrdered(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustProfile(t, db, "a")
	b := mustProfile(t, db, "b")

	c, err := db.InsertConversation(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}

	found, err := db.FindConversation(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if found == nil || found.ID != c.ID {
		t.Fatalf("FindConversation(a,b) = %+v, want %s", found, c.ID)
	}

	reversed, err := db.FindConversation(ctx, b.ID, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reversed != nil {
		t.Errorf("FindConversation is an exact tuple lookup; got %+v for (b,a)", reversed)
	}
}

func TestListConversationsByActivity(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	self := mustProfile(t, db, "self")
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	activity := []time.Duration{0, 5 * time.Minute, -10 * time.Minute}
	ids := make([]string, len(activity))
	for i, d := range activity {
		other := mustProfile(t, db, "other")
		c, err := db.InsertConversation(ctx, other.ID, self.ID)
		if err != nil {
			t.Fatal(err)
		}
		if err := db.TouchConversation(ctx, c.ID, base.Add(d)); err != nil {
			t.Fatal(err)
		}
		ids[i] = c.ID
	}

	convs, err := db.ListConversations(ctx, self.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{ids[1], ids[0], ids[2]}
	if len(convs) != len(want) {
		t.Fatalf("got %d conversations, want %d", len(convs), len(want))
	}
	for i, c := range convs {
		if c.ID != want[i] {
			t.Errorf("convs[%d] = %s, want %s", i, c.ID, want[i])
		}
	}
}

func TestMessagesOrderAndLatest(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustProfile(t, db, "a")
	b := mustProfile(t, db, "b")
	c, _ := db.InsertConversation(ctx, a.ID, b.ID)

	latest, err := db.LatestMessage(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if latest != nil {
		t.Errorf("LatestMessage on empty conversation = %+v, want nil", latest)
	}

	texts := []string{"one", "two", "three"}
	for _, s := range texts {
		if _, err := db.InsertMessage(ctx, &model.NewMessage{ConversationID: c.ID, SenderID: a.ID, Kind: model.KindText, Content: s}); err != nil {
			t.Fatal(err)
		}
	}
	img, err := db.InsertMessage(ctx, &model.NewMessage{ConversationID: c.ID, SenderID: b.ID, Kind: model.KindImage, MediaRef: "data:image/png;base64,AA=="})
	if err != nil {
		t.Fatal(err)
	}
	if img.Content != nil || img.MediaRef == nil {
		t.Errorf("image message content/media = %v/%v", img.Content, img.MediaRef)
	}

	msgs, err := db.ListMessages(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	for i := range texts {
		if msgs[i].Text() != texts[i] {
			t.Errorf("msgs[%d] = %q, want %q", i, msgs[i].Text(), texts[i])
		}
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Less(&msgs[i-1]) {
			t.Errorf("messages out of order at %d", i)
		}
	}

	latest, err = db.LatestMessage(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.ID != img.ID {
		t.Errorf("LatestMessage = %+v, want %s", latest, img.ID)
	}
}

func TestInsertMessageValidates(t *testing.T) {
	db := testDB(t)
	_, err := db.InsertMessage(context.Background(), &model.NewMessage{ConversationID: "c", SenderID: "s", Kind: model.KindText})
	if !errors.Is(err, model.ErrInvalidMessage) {
		t.Errorf("error = %v, want ErrInvalidMessage", err)
	}
}

func TestInsertMessageRequiresConversation(t *testing.T) {
	db := testDB(t)
	a := mustProfile(t, db, "a")
	_, err := db.InsertMessage(context.Background(), &model.NewMessage{ConversationID: "missing", SenderID: a.ID, Kind: model.KindText, Content: "x"})
	if err == nil {
		t.Error("expected foreign key violation for unknown conversation")
	}
}

func TestInsertMessageBumpsActivity(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustProfile(t, db, "a")
	b := mustProfile(t, db, "b")
	c, _ := db.InsertConversation(ctx, a.ID, b.ID)
	if err := db.TouchConversation(ctx, c.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	m, err := db.InsertMessage(ctx, &model.NewMessage{ConversationID: c.ID, SenderID: a.ID, Kind: model.KindText, Content: "x"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := db.GetConversation(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.UpdatedAt.Equal(m.CreatedAt) {
		t.Errorf("UpdatedAt = %v, want message time %v", got.UpdatedAt, m.CreatedAt)
	}

	later := time.Now().Add(time.Hour).Truncate(time.Millisecond)
	if err := db.TouchConversation(ctx, c.ID, later); err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertMessage(ctx, &model.NewMessage{ConversationID: c.ID, SenderID: b.ID, Kind: model.KindText, Content: "y"}); err != nil {
		t.Fatal(err)
	}
	got, err = db.GetConversation(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want it kept at %v", got.UpdatedAt, later)
	}
}

func TestStats(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := mustProfile(t, db, "a")
	b := mustProfile(t, db, "b")
	c, _ := db.InsertConversation(ctx, a.ID, b.ID)
	if _, err := db.InsertMessage(ctx, &model.NewMessage{ConversationID: c.ID, SenderID: a.ID, Kind: model.KindText, Content: "x"}); err != nil {
		t.Fatal(err)
	}

	s, err := db.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.Profiles != 2 || s.Conversations != 1 || s.Messages != 1 {
		t.Errorf("Stats = %+v, want 2/1/1", s)
	}
}
