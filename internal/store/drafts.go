package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rgehrsitz/quotego/internal/domain"
)

// DefaultDraftTTL is how long an unfinished draft can be resumed
const DefaultDraftTTL = 7 * 24 * time.Hour

// DraftCache keeps unfinished drafts so a session can be resumed later
type DraftCache interface {
	SaveDraft(ctx context.Context, draft *domain.QuoteDraft) error
	LoadDraft(ctx context.Context, id string) (*domain.QuoteDraft, error)
	DeleteDraft(ctx context.Context, id string) error
}

// MemoryDraftCache is a DraftCache with lazy expiry
type MemoryDraftCache struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	drafts map[string]cachedDraft
}

type cachedDraft struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryDraftCache creates a cache whose entries expire after ttl
func NewMemoryDraftCache(ttl time.Duration) *MemoryDraftCache {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &MemoryDraftCache{ttl: ttl, now: time.Now, drafts: make(map[string]cachedDraft)}
}

func (c *MemoryDraftCache) SaveDraft(ctx context.Context, draft *domain.QuoteDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft %s: %w", draft.ID, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drafts[draft.ID] = cachedDraft{data: data, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryDraftCache) LoadDraft(ctx context.Context, id string) (*domain.QuoteDraft, error) {
	c.mu.Lock()
	entry, ok := c.drafts[id]
	if ok && !c.now().Before(entry.expiresAt) {
		delete(c.drafts, id)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	return decodeDraft(id, entry.data)
}

func (c *MemoryDraftCache) DeleteDraft(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.drafts, id)
	return nil
}

func decodeDraft(id string, data []byte) (*domain.QuoteDraft, error) {
	var draft domain.QuoteDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", id, err)
	}
	if draft.Fields == nil {
		draft.Fields = make(map[string]string)
	}
	return &draft, nil
}
