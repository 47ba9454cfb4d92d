// Package dedup tracks which items were already saved so a clip is not
// sent twice. State lives behind a Store so callers choose memory or disk.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

var ErrEmptyID = errors.New("dedup: empty item id")

// Store records item ids.
type Store interface {
	Has(ctx context.Context, id string) (bool, error)
	Add(ctx context.Context, id string) error
}

// MemoryStore is a Store for tests and one-shot runs.
type MemoryStore struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: make(map[string]struct{})}
}

func (m *MemoryStore) Has(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.ids[id]
	return ok, nil
}

func (m *MemoryStore) Add(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ids == nil {
		m.ids = make(map[string]struct{})
	}
	m.ids[id] = struct{}{}
	return nil
}

// Len returns the number of recorded ids.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Service answers "was this already saved?" against a Store.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Service{store: store}
}

// ItemID derives a stable id from the parts identifying an item, usually
// the source URL and, for partial clips, the selected text.
func ItemID(parts ...string) string {
	trimmed := make([]string, len(parts))
	for i, p := range parts {
		trimmed[i] = strings.TrimSpace(p)
	}
	sum := xxhash.Sum64String(strings.Join(trimmed, "\x00"))
	return strconv.FormatUint(sum, 16)
}

func (s *Service) Seen(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}
	ok, err := s.store.Has(ctx, id)
	if err != nil {
		return false, fmt.Errorf("dedup lookup %s: %w", id, err)
	}
	return ok, nil
}

func (s *Service) Mark(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if err := s.store.Add(ctx, id); err != nil {
		return fmt.Errorf("dedup record %s: %w", id, err)
	}
	return nil
}

// Filter returns the ids not yet seen, in input order and without repeats.
func (s *Service) Filter(ctx context.Context, ids []string) ([]string, error) {
	var out []string
	batch := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := batch[id]; dup || id == "" {
			continue
		}
		batch[id] = struct{}{}

		seen, err := s.Seen(ctx, id)
		if err != nil {
			return nil, err
		}
		if !seen {
			out = append(out, id)
		}
	}
	return out, nil
}
