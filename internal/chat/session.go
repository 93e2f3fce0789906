// Package chat ties the realtime core together for one signed-in user.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/matheus3301/chatwave/internal/bus"
	"github.com/matheus3301/chatwave/internal/directory"
	"github.com/matheus3301/chatwave/internal/gateway"
	"github.com/matheus3301/chatwave/internal/model"
	"github.com/matheus3301/chatwave/internal/presence"
	"github.com/matheus3301/chatwave/internal/resolver"
	"github.com/matheus3301/chatwave/internal/status"
	"github.com/matheus3301/chatwave/internal/stream"
	intsync "github.com/matheus3301/chatwave/internal/sync"
	"go.uber.org/zap"
)

var (
	// ErrNotSignedIn is returned by every operation that needs a user.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrAlreadySignedIn is returned by SignIn while a user is signed in.
	ErrAlreadySignedIn = errors.New("already signed in")

	// ErrNoConversation is returned by Send when no conversation is open.
	ErrNoConversation = errors.New("no conversation open")

	// ErrNotParticipant is returned when the user is not one of the
	// conversation's two participants.
	ErrNotParticipant = errors.New("not a participant of this conversation")
)

const (
	// MinSearchLength is the shortest query Search sends to the store.
	MinSearchLength = 2

	// SearchLimit caps search results.
	SearchLimit = 10
)

// Options configures a Session.
type Options struct {
	// Beacon carries the offline update on Abort. Optional.
	Beacon presence.Beacon
	// Bus receives status, stream and directory events. Optional.
	Bus    *bus.Bus
	Logger *zap.Logger
}

// Session holds one signed-in user's caches and the single insert
// subscription.
type Session struct {
	gw       gateway.Gateway
	presence *presence.Tracker
	dir      *directory.Directory
	stream   *stream.Stream
	disp     *intsync.Dispatcher
	resolver *resolver.Resolver
	machine  *status.Machine
	bus      *bus.Bus
	logger   *zap.Logger

	// signMu serializes SignIn, SignOut and Abort.
	signMu sync.Mutex

	mu   sync.RWMutex
	self *model.Profile
	// pending is the profile of a SignIn in flight; cancelSignIn aborts it.
	pending      string
	cancelSignIn context.CancelFunc
}

// New creates a signed-out session over gw.
func New(gw gateway.Gateway, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	machine := status.NewMachine(opts.Bus)
	st := stream.New(gw, opts.Bus, logger.Named("stream"))
	dir := directory.New(gw, opts.Bus, logger.Named("directory"))
	return &Session{
		gw:       gw,
		presence: presence.New(gw, opts.Beacon, logger.Named("presence")),
		dir:      dir,
		stream:   st,
		disp:     intsync.NewDispatcher(gw, st, dir, machine, logger.Named("dispatcher")),
		resolver: resolver.New(gw, logger.Named("resolver")),
		machine:  machine,
		bus:      opts.Bus,
		logger:   logger,
	}
}

// Register creates a new profile. It does not sign in.
func (s *Session) Register(ctx context.Context, username string) (*model.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username is required")
	}
	return s.gw.InsertProfile(ctx, username)
}

// SignInByUsername looks the profile up by username and signs it in.
func (s *Session) SignInByUsername(ctx context.Context, username string) (*model.Profile, error) {
	p, err := s.gw.QueryProfileByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("look up %q: %w", username, err)
	}
	if p == nil {
		return nil, fmt.Errorf("profile %q: %w", username, model.ErrNotFound)
	}
	return s.SignIn(ctx, p.ID)
}

// SignIn marks the profile online, opens the insert subscription and loads
// the conversation list.
func (s *Session) SignIn(ctx context.Context, profileID string) (*model.Profile, error) {
	s.signMu.Lock()
	defer s.signMu.Unlock()

	if s.Self() != nil {
		return nil, ErrAlreadySignedIn
	}
	if err := s.machine.Transition(status.SigningIn); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.pending, s.cancelSignIn = profileID, cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.pending, s.cancelSignIn = "", nil
		s.mu.Unlock()
	}()

	p, err := s.signIn(ctx, profileID)
	if err == nil && ctx.Err() != nil {
		// Aborted after the online update landed.
		s.presence.MarkOfflineBestEffort(p.ID)
		err = fmt.Errorf("sign in: %w", ctx.Err())
	}
	if err != nil {
		s.disp.Stop()
		_ = s.machine.Transition(status.SignedOut)
		return nil, err
	}

	s.mu.Lock()
	s.self = p
	s.mu.Unlock()

	if err := s.machine.Transition(status.Live); err != nil {
		return nil, err
	}
	s.logger.Info("signed in", zap.String("profile", p.ID), zap.String("username", p.Username))
	return p, nil
}

func (s *Session) signIn(ctx context.Context, profileID string) (*model.Profile, error) {
	p, err := s.gw.QueryProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("profile %q: %w", profileID, model.ErrNotFound)
	}
	if err := s.presence.MarkOnline(ctx, p.ID); err != nil {
		return nil, err
	}
	p.Online = true

	// The subscription lives until SignOut, not until ctx ends.
	if err := s.disp.Start(context.WithoutCancel(ctx), p.ID); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	if _, err := s.dir.Refresh(ctx, p.ID); err != nil {
		s.logger.Warn("initial directory refresh failed", zap.Error(err))
	}
	return p, nil
}

// SignOut closes the subscription, marks the user offline and drops every
// cache. The caches are dropped even if the offline update fails.
func (s *Session) SignOut(ctx context.Context) error {
	s.signMu.Lock()
	defer s.signMu.Unlock()

	self := s.Self()
	if self == nil {
		return ErrNotSignedIn
	}

	s.disp.Stop()
	err := s.presence.MarkOffline(ctx, self.ID)
	s.reset()
	s.logger.Info("signed out", zap.String("profile", self.ID))
	return err
}

// Abort is the teardown path for signals and panics. It sends the offline
// update best-effort and never blocks on the store. A SignIn or SignOut in
// flight is not waited for: a pending SignIn is cancelled instead.
func (s *Session) Abort() {
	if !s.signMu.TryLock() {
		s.abortInFlight()
		return
	}
	defer s.signMu.Unlock()

	self := s.Self()
	if self == nil {
		return
	}
	s.presence.MarkOfflineBestEffort(self.ID)
	s.disp.Stop()
	s.reset()
	s.logger.Info("session aborted", zap.String("profile", self.ID))
}

func (s *Session) abortInFlight() {
	s.mu.RLock()
	id, cancel := s.pending, s.cancelSignIn
	if s.self != nil {
		id = s.self.ID
	}
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if id == "" {
		return
	}
	s.presence.MarkOfflineBestEffort(id)
	s.logger.Info("session aborted during sign-in change", zap.String("profile", id))
}

func (s *Session) reset() {
	s.stream.Unbind()
	s.dir.Reset()
	s.mu.Lock()
	s.self = nil
	s.mu.Unlock()
	if err := s.machine.Transition(status.SignedOut); err != nil {
		s.logger.Debug("signed-out transition skipped", zap.Error(err))
	}
}

// Self returns a copy of the signed-in profile, or nil.
func (s *Session) Self() *model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.self == nil {
		return nil
	}
	p := *s.self
	return &p
}

func (s *Session) requireSelf() (*model.Profile, error) {
	p := s.Self()
	if p == nil {
		return nil, ErrNotSignedIn
	}
	return p, nil
}

// Status returns the session state.
func (s *Session) Status() status.State {
	return s.machine.Current()
}

// Open binds the message view to a conversation and loads its history.
// Only conversations the user takes part in can be opened.
func (s *Session) Open(ctx context.Context, conversationID string) error {
	self, err := s.requireSelf()
	if err != nil {
		return err
	}
	if err := s.requireMember(ctx, self.ID, conversationID); err != nil {
		return err
	}
	return s.open(ctx, conversationID)
}

func (s *Session) open(ctx context.Context, conversationID string) error {
	err := s.stream.Load(ctx, conversationID)
	if errors.Is(err, stream.ErrSuperseded) {
		return nil
	}
	return err
}

// StartConversation finds or creates the conversation with otherID and
// opens it.
func (s *Session) StartConversation(ctx context.Context, otherID string) (*model.Conversation, error) {
	self, err := s.requireSelf()
	if err != nil {
		return nil, err
	}
	c, err := s.resolver.Resolve(ctx, self.ID, otherID)
	if err != nil {
		return nil, err
	}
	if err := s.open(ctx, c.ID); err != nil {
		return nil, err
	}
	if _, err := s.dir.Refresh(ctx, self.ID); err != nil {
		s.logger.Warn("directory refresh failed", zap.Error(err))
	}
	return c, nil
}

// Send inserts a message into the open conversation. The stored message is
// appended right away; the later notification for it is deduplicated.
func (s *Session) Send(ctx context.Context, kind model.Kind, content, mediaRef string) (*model.Message, error) {
	self, err := s.requireSelf()
	if err != nil {
		return nil, err
	}
	convID := s.stream.Bound()
	if convID == "" {
		return nil, ErrNoConversation
	}
	if err := s.requireMember(ctx, self.ID, convID); err != nil {
		return nil, err
	}
	nm := &model.NewMessage{
		ConversationID: convID,
		SenderID:       self.ID,
		Kind:           kind,
		Content:        content,
		MediaRef:       mediaRef,
	}
	if err := nm.Validate(); err != nil {
		return nil, err
	}

	m, err := s.gw.InsertMessage(ctx, nm)
	if err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	s.stream.Append(*m)

	if err := s.gw.UpdateConversationActivity(ctx, convID, m.CreatedAt); err != nil {
		s.logger.Warn("conversation activity update failed", zap.String("conversation", convID), zap.Error(err))
	}
	if _, err := s.dir.Refresh(ctx, self.ID); err != nil {
		s.logger.Warn("directory refresh failed", zap.Error(err))
	}
	return m, nil
}

// requireMember checks the directory cache first and asks the gateway for
// conversations the cache does not know yet.
func (s *Session) requireMember(ctx context.Context, selfID, conversationID string) error {
	if sum, ok := s.dir.Summary(conversationID); ok {
		if sum.Conversation.HasParticipant(selfID) {
			return nil
		}
		return ErrNotParticipant
	}
	convs, err := s.gw.QueryConversations(ctx, selfID)
	if err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}
	for i := range convs {
		if convs[i].ID == conversationID && convs[i].HasParticipant(selfID) {
			return nil
		}
	}
	return ErrNotParticipant
}

// SendText sends a text message to the open conversation.
func (s *Session) SendText(ctx context.Context, text string) (*model.Message, error) {
	return s.Send(ctx, model.KindText, text, "")
}

// SetAvatar changes the signed-in user's avatar. The index wraps into the
// palette.
func (s *Session) SetAvatar(ctx context.Context, index int) error {
	self, err := s.requireSelf()
	if err != nil {
		return err
	}
	n := model.AvatarCount()
	index = ((index % n) + n) % n
	if err := s.gw.UpdateProfileAvatar(ctx, self.ID, index); err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	s.mu.Lock()
	if s.self != nil {
		s.self.AvatarIndex = index
	}
	s.mu.Unlock()
	if s.bus != nil {
		s.bus.Publish(bus.NewEvent(bus.KindProfileUpdated, self.ID))
	}
	return nil
}

// Search finds other users by username substring. Queries shorter than
// MinSearchLength return no results.
func (s *Session) Search(ctx context.Context, query string) ([]model.Profile, error) {
	self, err := s.requireSelf()
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSearchLength {
		return nil, nil
	}
	return s.gw.SearchProfiles(ctx, query, self.ID, SearchLimit)
}

// Reload refreshes the conversation list and the open conversation. It does
// not reopen a lost subscription.
func (s *Session) Reload(ctx context.Context) error {
	self, err := s.requireSelf()
	if err != nil {
		return err
	}
	if _, err := s.dir.Refresh(ctx, self.ID); err != nil {
		return err
	}
	if id := s.stream.Bound(); id != "" {
		if err := s.stream.Load(ctx, id); err != nil && !errors.Is(err, stream.ErrSuperseded) {
			return err
		}
	}
	return nil
}

// Summaries returns the conversation list, most recently active first.
func (s *Session) Summaries() []model.Summary {
	return s.dir.Summaries()
}

// Summary returns the list entry for one conversation.
func (s *Session) Summary(conversationID string) (model.Summary, bool) {
	return s.dir.Summary(conversationID)
}

// Messages returns the open conversation's messages.
func (s *Session) Messages() []model.Message {
	return s.stream.Messages()
}

// OpenConversation returns the id of the open conversation, or "".
func (s *Session) OpenConversation() string {
	return s.stream.Bound()
}

// CloseConversation unbinds the message view. Inserts for the closed
// conversation still update the directory.
func (s *Session) CloseConversation() {
	s.stream.Unbind()
}

// Profile returns a participant profile from the directory cache, or the
// signed-in profile for its own id.
func (s *Session) Profile(id string) *model.Profile {
	if self := s.Self(); self != nil && self.ID == id {
		return self
	}
	return s.dir.Profile(id)
}

// Live reports whether the insert feed is connected.
func (s *Session) Live() bool {
	return s.machine.Current() == status.Live
}
