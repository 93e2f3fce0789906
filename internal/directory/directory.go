// Package directory keeps the signed-in user's conversation list: each
// conversation with the other participant's profile and the latest message,
// most recently active first.
package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/matheus3301/chatwave/internal/bus"
	"github.com/matheus3301/chatwave/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the per-conversation lookups of one refresh.
const DefaultConcurrency = 8

// Source is the part of the gateway the directory reads from.
type Source interface {
	QueryConversations(ctx context.Context, participantID string) ([]model.Conversation, error)
	QueryProfile(ctx context.Context, id string) (*model.Profile, error)
	QueryLatestMessage(ctx context.Context, conversationID string) (*model.Message, error)
}

// Directory caches conversation summaries. The cache is replaced wholesale
// by each successful Refresh and left untouched by a failed one.
type Directory struct {
	src         Source
	bus         *bus.Bus
	logger      *zap.Logger
	concurrency int

	refreshMu sync.Mutex

	mu       sync.RWMutex
	ordered  []model.Summary
	byID     map[string]model.Summary
	profiles map[string]model.Profile
}

// New creates an empty directory. b may be nil.
func New(src Source, b *bus.Bus, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{
		src:         src,
		bus:         b,
		logger:      logger,
		concurrency: DefaultConcurrency,
		byID:        make(map[string]model.Summary),
		profiles:    make(map[string]model.Profile),
	}
}

// Refresh recomputes every summary for selfID and returns the sorted view.
// Refreshes run one at a time.
func (d *Directory) Refresh(ctx context.Context, selfID string) ([]model.Summary, error) {
	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	convs, err := d.src.QueryConversations(ctx, selfID)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}

	summaries := make([]model.Summary, len(convs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, c := range convs {
		g.Go(func() error {
			s, err := d.summarize(gctx, selfID, c)
			if err != nil {
				return err
			}
			summaries[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortSummaries(summaries)
	d.replace(summaries)

	if d.bus != nil {
		d.bus.Publish(bus.NewEvent(bus.KindDirectoryRefresh, len(summaries)))
	}
	d.logger.Debug("directory refreshed", zap.Int("conversations", len(summaries)))
	return d.Summaries(), nil
}

// summarize resolves one entry. A missing profile or a failed message lookup
// degrade to nil fields; a failed profile lookup fails the entry.
func (d *Directory) summarize(ctx context.Context, selfID string, c model.Conversation) (model.Summary, error) {
	s := model.Summary{Conversation: c}

	otherID := c.OtherParticipant(selfID)
	other, err := d.src.QueryProfile(ctx, otherID)
	if err != nil {
		return s, fmt.Errorf("query profile %s: %w", otherID, err)
	}
	s.Other = other

	last, err := d.src.QueryLatestMessage(ctx, c.ID)
	if err != nil {
		d.logger.Warn("latest message lookup failed",
			zap.String("conversation", c.ID), zap.Error(err))
	} else {
		s.Last = last
	}
	return s, nil
}

func sortSummaries(s []model.Summary) {
	sort.Slice(s, func(i, j int) bool {
		a, b := s[i].Conversation, s[j].Conversation
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
}

func (d *Directory) replace(summaries []model.Summary) {
	byID := make(map[string]model.Summary, len(summaries))
	profiles := make(map[string]model.Profile, len(summaries))
	for _, s := range summaries {
		byID[s.Conversation.ID] = s
		if s.Other != nil {
			profiles[s.Other.ID] = *s.Other
		}
	}

	d.mu.Lock()
	d.ordered = summaries
	d.byID = byID
	d.profiles = profiles
	d.mu.Unlock()
}

// Summaries returns a copy of the sorted view.
func (d *Directory) Summaries() []model.Summary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]model.Summary(nil), d.ordered...)
}

// Summary returns the cached entry for a conversation.
func (d *Directory) Summary(conversationID string) (model.Summary, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.byID[conversationID]
	return s, ok
}

// Profile returns a cached participant profile, or nil.
func (d *Directory) Profile(id string) *model.Profile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[id]
	if !ok {
		return nil
	}
	return &p
}

// Len returns the number of cached conversations.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.ordered)
}

// Reset drops every cached entry.
func (d *Directory) Reset() {
	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()
	d.replace(nil)
}
