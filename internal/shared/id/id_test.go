package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	assert.NotEqual(t, id1.String(), id2.String())
	assert.Len(t, gen.GenerateString(), 26)
}

func TestTypedIDs(t *testing.T) {
	tests := []struct {
		prefix string
		mint   func() string
	}{
		{NodePrefix, NewNodeID},
		{EdgePrefix, NewEdgeID},
		{BlueprintPrefix, NewBlueprintID},
		{SessionPrefix, NewSessionID},
		{RequestPrefix, NewRequestID},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got := tt.mint()
			assert.True(t, strings.HasPrefix(got, tt.prefix+"_"), got)

			prefix, u, ok := Split(got)
			require.True(t, ok)
			assert.Equal(t, tt.prefix, prefix)
			assert.Len(t, u.String(), 26)
		})
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(NewGenerator().GenerateString()))

	for _, bad := range []string{"", "invalid", "1234567890", "zzzzzzzzzzzzzzzzzzzzzzzzzzz"} {
		assert.False(t, IsValid(bad), bad)
	}
}

func TestSplitRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"", "node", "_01HZX", "node_notaulid"} {
		_, _, ok := Split(bad)
		assert.False(t, ok, bad)
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Millisecond)
	nodeID := NewNodeID()
	after := time.Now().Add(time.Millisecond)

	ts, err := Timestamp(nodeID)
	require.NoError(t, err)
	assert.False(t, ts.Before(before.Truncate(time.Millisecond)))
	assert.False(t, ts.After(after))

	_, err = Timestamp("nope")
	assert.Error(t, err)
}

func TestGenerateBatch(t *testing.T) {
	ids := NewGenerator().GenerateBatch(100)
	require.Len(t, ids, 100)

	seen := make(map[string]bool)
	for _, u := range ids {
		assert.False(t, seen[u.String()], "duplicate %s", u)
		seen[u.String()] = true
	}
}

func TestConcurrentGeneration(t *testing.T) {
	const goroutines = 50
	const perGoroutine = 50

	var wg sync.WaitGroup
	out := make(chan string, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				out <- NewNodeID()
			}
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[string]bool)
	for s := range out {
		assert.False(t, seen[s], "duplicate %s", s)
		seen[s] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}
