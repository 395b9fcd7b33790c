package recent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cradlehq/cradle/backend/internal/domain/blueprint"
)

func ids(list []Entry) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.ID)
	}
	return out
}

func TestPush(t *testing.T) {
	var list []Entry
	for i := 0; i < 12; i++ {
		list = Push(list, Entry{ID: fmt.Sprintf("bp%d", i)})
	}
	require.Len(t, list, MaxEntries)
	assert.Equal(t, "bp11", list[0].ID)
	assert.Equal(t, "bp2", list[len(list)-1].ID, "oldest entries are evicted")

	list = Push(list, Entry{ID: "bp5", Name: "again"})
	assert.Len(t, list, MaxEntries)
	assert.Equal(t, "bp5", list[0].ID)
	assert.Equal(t, "again", list[0].Name)
	assert.Equal(t, 1, countOf(list, "bp5"))
}

func countOf(list []Entry, id string) int {
	n := 0
	for _, e := range list {
		if e.ID == id {
			n++
		}
	}
	return n
}

func TestPushDoesNotModifyInput(t *testing.T) {
	in := []Entry{{ID: "a"}, {ID: "b"}}
	_ = Push(in, Entry{ID: "b"})
	assert.Equal(t, []string{"a", "b"}, ids(in))
}

func TestEntryFor(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	bp := blueprint.Blueprint{
		ID: "bp_1", Name: "Launch", UpdatedAt: at,
		Nodes: []blueprint.Node{{ID: "n1", Type: "auction"}, {ID: "n2", Type: "auction"}},
	}

	e, err := EntryFor(bp, false)
	require.NoError(t, err)
	assert.Equal(t, Entry{ID: "bp_1", Name: "Launch", UpdatedAt: at, NodeCount: 2}, e)

	e, err = EntryFor(bp, true)
	require.NoError(t, err)
	assert.Contains(t, e.JSON, `"id":"bp_1"`)
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "cradle-recent-blueprints", StorageKey(""))
	assert.Equal(t, "cradle-recent-blueprints:0xabc", StorageKey("0xabc"))
}

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := NewRedisStore(RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestStores(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"redis": func(t *testing.T) Store {
			s, _ := setupRedisStore(t)
			return s
		},
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := build(t)

			list, err := s.List(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, list)

			for i := 0; i < 11; i++ {
				_, err := s.Push(ctx, "", Entry{ID: fmt.Sprintf("bp%d", i), NodeCount: i})
				require.NoError(t, err)
			}
			list, err = s.Push(ctx, "", Entry{ID: "bp3"})
			require.NoError(t, err)
			assert.Len(t, list, MaxEntries)
			assert.Equal(t, "bp3", list[0].ID)

			stored, err := s.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, ids(list), ids(stored))

			other, err := s.List(ctx, "0xabc")
			require.NoError(t, err)
			assert.Empty(t, other, "owners are isolated")

			require.NoError(t, s.Clear(ctx, ""))
			list, err = s.List(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestRedisStoreLayout(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Push(ctx, "", Entry{ID: "bp_1", Name: "One"})
	require.NoError(t, err)

	raw, err := mr.Get(Key)
	require.NoError(t, err)
	assert.Contains(t, raw, `"id":"bp_1"`)

	mr.Set(Key, "not json")
	list, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.NoError(t, store.Ping(ctx))
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr()), TTL: time.Hour})
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Push(context.Background(), "", Entry{ID: "bp_1"})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(Key))
}

func TestNewRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore(RedisOptions{URL: "://nope"})
	assert.Error(t, err)
}
