// Package gatewaytest provides an in-memory Gateway for tests of the
// realtime core. Failures and stalls can be injected per method.
package gatewaytest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/chatwave/internal/gateway"
	"github.com/matheus3301/chatwave/internal/model"
)

// Method names accepted by Fail, Block and Calls.
const (
	QueryConversations         = "QueryConversations"
	QueryConversation          = "QueryConversation"
	QueryProfile               = "QueryProfile"
	QueryProfileByUsername     = "QueryProfileByUsername"
	SearchProfiles             = "SearchProfiles"
	QueryLatestMessage         = "QueryLatestMessage"
	QueryMessages              = "QueryMessages"
	InsertProfile              = "InsertProfile"
	InsertConversation         = "InsertConversation"
	InsertMessage              = "InsertMessage"
	UpdateConversationActivity = "UpdateConversationActivity"
	UpdateProfileOnline        = "UpdateProfileOnline"
	UpdateProfileAvatar        = "UpdateProfileAvatar"
	SubscribeMessageInserts    = "SubscribeMessageInserts"
)

// Fake is an in-memory gateway.Gateway.
type Fake struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
	convs    []model.Conversation
	msgs     []model.Message
	seq      int64
	subs     map[*sub]struct{}

	fail  map[string]error
	block map[string]chan struct{}
	calls map[string]int

	// Now supplies timestamps for inserts and presence updates.
	Now func() time.Time
}

var _ gateway.Gateway = (*Fake)(nil)

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		profiles: make(map[string]model.Profile),
		subs:     make(map[*sub]struct{}),
		fail:     make(map[string]error),
		block:    make(map[string]chan struct{}),
		calls:    make(map[string]int),
		Now:      time.Now,
	}
}

// Fail makes every following call of method return err. A nil err clears it.
func (f *Fake) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, method)
		return
	}
	f.fail[method] = err
}

// Block stalls calls of method until the returned release func is called or
// the call's context ends.
func (f *Fake) Block(method string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.block[method] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.block[method] == ch {
				delete(f.block, method)
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many times method was invoked.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *Fake) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls[method]++
	err := f.fail[method]
	ch := f.block[method]
	f.mu.Unlock()

	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// AddProfile seeds a profile.
func (f *Fake) AddProfile(p model.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.ID] = p
}

// AddConversation seeds a conversation.
func (f *Fake) AddConversation(c model.Conversation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.convs = append(f.convs, c)
}

// AddMessage seeds a message without notifying subscribers.
func (f *Fake) AddMessage(m model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.Seq == 0 {
		f.seq++
		m.Seq = f.seq
	}
	f.msgs = append(f.msgs, m)
}

// Profile returns the stored profile, for assertions.
func (f *Fake) Profile(id string) (model.Profile, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	return p, ok
}

// Conversations returns every stored conversation, for assertions.
func (f *Fake) Conversations() []model.Conversation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Conversation(nil), f.convs...)
}

// Notify delivers m to every live subscription without storing it.
func (f *Fake) Notify(m model.Message) {
	f.mu.Lock()
	subs := make([]*sub, 0, len(f.subs))
	for s := range f.subs {
		subs = append(subs, s)
	}
	f.mu.Unlock()
	for _, s := range subs {
		s.send(m)
	}
}

// Drop ends every live subscription with err, as a lost connection would.
func (f *Fake) Drop(err error) {
	f.mu.Lock()
	subs := f.subs
	f.subs = make(map[*sub]struct{})
	f.mu.Unlock()
	for s := range subs {
		s.end(err)
	}
}

// Subscribers returns the number of live subscriptions.
func (f *Fake) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Fake) QueryConversations(ctx context.Context, participantID string) ([]model.Conversation, error) {
	if err := f.enter(ctx, QueryConversations); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Conversation
	for _, c := range f.convs {
		if c.HasParticipant(participantID) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *Fake) QueryConversation(ctx context.Context, one, two string) (*model.Conversation, error) {
	if err := f.enter(ctx, QueryConversation); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		if c.ParticipantOne == one && c.ParticipantTwo == two {
			return &c, nil
		}
	}
	return nil, nil
}

func (f *Fake) QueryProfile(ctx context.Context, id string) (*model.Profile, error) {
	if err := f.enter(ctx, QueryProfile); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *Fake) QueryProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	if err := f.enter(ctx, QueryProfileByUsername); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *model.Profile
	for _, p := range f.profiles {
		if strings.EqualFold(p.Username, username) {
			if found == nil || p.CreatedAt.Before(found.CreatedAt) {
				found = &p
			}
		}
	}
	return found, nil
}

func (f *Fake) SearchProfiles(ctx context.Context, query, excludeID string, limit int) ([]model.Profile, error) {
	if err := f.enter(ctx, SearchProfiles); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(query)
	var out []model.Profile
	for _, p := range f.profiles {
		if p.ID != excludeID && strings.Contains(strings.ToLower(p.Username), q) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Username) < strings.ToLower(out[j].Username) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) QueryLatestMessage(ctx context.Context, conversationID string) (*model.Message, error) {
	if err := f.enter(ctx, QueryLatestMessage); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.Message
	for i := range f.msgs {
		m := f.msgs[i]
		if m.ConversationID != conversationID {
			continue
		}
		if latest == nil || latest.Less(&m) {
			latest = &m
		}
	}
	return latest, nil
}

func (f *Fake) QueryMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	if err := f.enter(ctx, QueryMessages); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Message
	for _, m := range f.msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Less(&out[j]) })
	return out, nil
}

func (f *Fake) InsertProfile(ctx context.Context, username string) (*model.Profile, error) {
	if err := f.enter(ctx, InsertProfile); err != nil {
		return nil, err
	}
	now := f.Now()
	p := model.Profile{ID: uuid.NewString(), Username: username, LastSeen: now, CreatedAt: now}
	f.AddProfile(p)
	return &p, nil
}

func (f *Fake) InsertConversation(ctx context.Context, one, two string) (*model.Conversation, error) {
	if err := f.enter(ctx, InsertConversation); err != nil {
		return nil, err
	}
	now := f.Now()
	c := model.Conversation{ID: uuid.NewString(), ParticipantOne: one, ParticipantTwo: two, CreatedAt: now, UpdatedAt: now}
	f.AddConversation(c)
	return &c, nil
}

// InsertMessage stores the message and notifies every live subscription.
func (f *Fake) InsertMessage(ctx context.Context, nm *model.NewMessage) (*model.Message, error) {
	if err := f.enter(ctx, InsertMessage); err != nil {
		return nil, err
	}
	if err := nm.Validate(); err != nil {
		return nil, err
	}
	m := model.Message{
		ID:             uuid.NewString(),
		ConversationID: nm.ConversationID,
		SenderID:       nm.SenderID,
		Kind:           nm.Kind,
		CreatedAt:      f.Now(),
	}
	if nm.Content != "" {
		m.Content = &nm.Content
	}
	if nm.MediaRef != "" {
		m.MediaRef = &nm.MediaRef
	}
	f.mu.Lock()
	f.seq++
	m.Seq = f.seq
	f.msgs = append(f.msgs, m)
	f.mu.Unlock()

	f.Notify(m)
	return &m, nil
}

func (f *Fake) UpdateConversationActivity(ctx context.Context, conversationID string, at time.Time) error {
	if err := f.enter(ctx, UpdateConversationActivity); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.convs {
		if f.convs[i].ID == conversationID {
			f.convs[i].UpdatedAt = at
			return nil
		}
	}
	return fmt.Errorf("conversation %q: %w", conversationID, model.ErrNotFound)
}

func (f *Fake) UpdateProfileOnline(ctx context.Context, profileID string, online bool) error {
	if err := f.enter(ctx, UpdateProfileOnline); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[profileID]
	if !ok {
		return fmt.Errorf("profile %q: %w", profileID, model.ErrNotFound)
	}
	p.Online = online
	if now := f.Now(); now.After(p.LastSeen) {
		p.LastSeen = now
	}
	f.profiles[profileID] = p
	return nil
}

func (f *Fake) UpdateProfileAvatar(ctx context.Context, profileID string, index int) error {
	if err := f.enter(ctx, UpdateProfileAvatar); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[profileID]
	if !ok {
		return fmt.Errorf("profile %q: %w", profileID, model.ErrNotFound)
	}
	p.AvatarIndex = index
	f.profiles[profileID] = p
	return nil
}

func (f *Fake) SubscribeMessageInserts(ctx context.Context) (gateway.Subscription, error) {
	if err := f.enter(ctx, SubscribeMessageInserts); err != nil {
		return nil, err
	}
	s := &sub{msgs: make(chan model.Message, 64), done: make(chan struct{})}
	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			f.remove(s)
			s.end(nil)
		case <-s.done:
		}
	}()
	return &subscription{sub: s, fake: f}, nil
}

func (f *Fake) remove(s *sub) {
	f.mu.Lock()
	delete(f.subs, s)
	f.mu.Unlock()
}

type sub struct {
	mu     sync.Mutex
	msgs   chan model.Message
	done   chan struct{}
	err    error
	closed bool
}

func (s *sub) send(m model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.msgs <- m:
	default:
	}
}

func (s *sub) end(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.done)
}

type subscription struct {
	*sub
	fake *Fake
}

func (s *subscription) Messages() <-chan model.Message { return s.msgs }

func (s *subscription) Done() <-chan struct{} { return s.done }

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) Close() {
	s.fake.remove(s.sub)
	s.end(nil)
}
