package recent

import (
	"context"
	"sync"
	"time"

	"github.com/cradlehq/cradle/backend/internal/domain/blueprint"
)

const (
	// Key is the storage key of the recent list.
	Key = "cradle-recent-blueprints"
	// MaxEntries is the length cap of the list.
	MaxEntries = 10
)

// Entry is one recently edited blueprint.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
	NodeCount int       `json:"nodeCount"`
	JSON      string    `json:"json,omitempty"`
}

// Store persists recent lists. owner scopes the list; "" is the shared one.
type Store interface {
	List(ctx context.Context, owner string) ([]Entry, error)
	Push(ctx context.Context, owner string, e Entry) ([]Entry, error)
	Clear(ctx context.Context, owner string) error
}

// Push returns list with e at the front. Any entry with the same id is
// removed first and the result is cut to MaxEntries. list is not modified.
func Push(list []Entry, e Entry) []Entry {
	out := make([]Entry, 0, MaxEntries)
	out = append(out, e)
	for _, existing := range list {
		if len(out) == MaxEntries {
			break
		}
		if existing.ID == e.ID {
			continue
		}
		out = append(out, existing)
	}
	return out
}

// EntryFor summarizes bp. With includeJSON the full document is embedded so
// the entry can be reopened without a server-side copy.
func EntryFor(bp blueprint.Blueprint, includeJSON bool) (Entry, error) {
	e := Entry{
		ID:        bp.ID,
		Name:      bp.Name,
		UpdatedAt: bp.UpdatedAt,
		NodeCount: len(bp.Nodes),
	}
	if includeJSON {
		data, err := blueprint.Encode(bp, blueprint.FormatJSON)
		if err != nil {
			return Entry{}, err
		}
		e.JSON = string(data)
	}
	return e, nil
}

// StorageKey is the key a list is kept under.
func StorageKey(owner string) string {
	if owner == "" {
		return Key
	}
	return Key + ":" + owner
}

// MemoryStore keeps lists in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	lists map[string][]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[string][]Entry)}
}

// List returns a copy of the owner's list.
func (s *MemoryStore) List(_ context.Context, owner string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.lists[StorageKey(owner)]...), nil
}

// Push records e and returns the new list.
func (s *MemoryStore) Push(_ context.Context, owner string, e Entry) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := StorageKey(owner)
	next := Push(s.lists[key], e)
	s.lists[key] = next
	return append([]Entry{}, next...), nil
}

// Clear drops the owner's list.
func (s *MemoryStore) Clear(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lists, StorageKey(owner))
	return nil
}
