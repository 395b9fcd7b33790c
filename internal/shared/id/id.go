// Package id provides ULID-based identifier generation for the blueprint backend.
//
// Identifiers are prefixed by kind so they stay readable in logs and in
// exported blueprints:
//
//	node_01J...  canvas node
//	edge_01J...  connection between two nodes
//	bp_01J...    blueprint
//	sess_01J...  editing session
//	req_01J...   HTTP request / trace span
//
// ULIDs are lexicographically sortable, so ids minted later in a session sort
// after earlier ones.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	NodePrefix      = "node"
	EdgePrefix      = "edge"
	BlueprintPrefix = "bp"
	SessionPrefix   = "sess"
	RequestPrefix   = "req"
)

// Generator mints ULIDs from a shared entropy source.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewGeneratorWithEntropy creates a generator with a caller-supplied entropy
// source, for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string.
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a "prefix_ULID" string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// GenerateBatch mints count ULIDs sharing one timestamp.
func (g *Generator) GenerateBatch(count int) []ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	ids := make([]ulid.ULID, count)
	now := ulid.Timestamp(time.Now())
	for i := range ids {
		ids[i] = ulid.MustNew(now, g.entropy)
	}
	return ids
}

// NewNodeID returns a fresh canvas node id.
func NewNodeID() string { return Default().GenerateWithPrefix(NodePrefix) }

// NewEdgeID returns a fresh edge id.
func NewEdgeID() string { return Default().GenerateWithPrefix(EdgePrefix) }

// NewBlueprintID returns a fresh blueprint id.
func NewBlueprintID() string { return Default().GenerateWithPrefix(BlueprintPrefix) }

// NewSessionID returns a fresh editing-session id.
func NewSessionID() string { return Default().GenerateWithPrefix(SessionPrefix) }

// NewRequestID returns a fresh request id.
func NewRequestID() string { return Default().GenerateWithPrefix(RequestPrefix) }

// IsValid reports whether s is a bare ULID.
func IsValid(s string) bool {
	_, err := ulid.Parse(s)
	return err == nil
}

// Parse parses a bare ULID.
func Parse(s string) (ulid.ULID, error) {
	return ulid.Parse(s)
}

// Split separates a prefixed id into its prefix and ULID parts. ok is false
// when s is not of the form "prefix_ULID".
func Split(s string) (prefix string, u ulid.ULID, ok bool) {
	i := strings.LastIndexByte(s, '_')
	if i <= 0 {
		return "", ulid.ULID{}, false
	}
	parsed, err := ulid.Parse(s[i+1:])
	if err != nil {
		return "", ulid.ULID{}, false
	}
	return s[:i], parsed, true
}

// Timestamp extracts the creation time from a bare or prefixed id.
func Timestamp(s string) (time.Time, error) {
	if _, u, ok := Split(s); ok {
		return ulid.Time(u.Time()), nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
