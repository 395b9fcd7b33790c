package registry

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/cel-go/cel"

	"github.com/cradlehq/cradle/backend/internal/shared/utils"
)

// ErrNotFound is returned when a node type is not registered.
var ErrNotFound = errors.New("node type not found")

// MaxCatalogSize bounds the number of node types the registry will hold.
const MaxCatalogSize = 1000

type compiledEntry struct {
	entry    Entry
	programs []cel.Program
}

// Manager is the node type catalog. It is written during startup and read
// concurrently by request handlers afterwards.
type Manager struct {
	mu         sync.RWMutex
	entries    map[string]*compiledEntry
	order      []string
	categories map[string]Category
	env        *cel.Env
}

// NewManager creates an empty catalog.
func NewManager() (*Manager, error) {
	env, err := cel.NewEnv(
		cel.Variable("config", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule environment: %w", err)
	}

	m := &Manager{
		entries:    make(map[string]*compiledEntry),
		categories: make(map[string]Category),
		env:        env,
	}
	m.categories[FallbackCategory] = Category{ID: FallbackCategory, Name: "Other", Icon: "box", Order: 100}
	return m, nil
}

// Default creates a catalog holding the built-in categories and node types.
func Default() (*Manager, error) {
	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	for _, c := range BuiltinCategories() {
		if err := m.RegisterCategory(c); err != nil {
			return nil, err
		}
	}
	for _, e := range BuiltinEntries() {
		if err := m.Register(e); err != nil {
			return nil, fmt.Errorf("builtin %s: %w", e.Type, err)
		}
	}
	return m, nil
}

// RegisterCategory adds or replaces a palette category.
func (m *Manager) RegisterCategory(c Category) error {
	if err := utils.ValidateCategory(c.ID, true); err != nil {
		return err
	}
	if c.Name == "" {
		c.Name = c.ID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
	return nil
}

// Register adds or replaces a node type. Its rules are compiled up front so a
// broken expression fails here rather than during validation.
func (m *Manager) Register(e Entry) error {
	if err := utils.ValidateNodeType(e.Type); err != nil {
		return err
	}
	if err := utils.ValidateName(e.Name, "name"); err != nil {
		return err
	}
	if err := utils.ValidateDescription(e.Description, "description", false); err != nil {
		return err
	}
	if e.Category == "" {
		e.Category = FallbackCategory
	}
	if err := utils.ValidateCategory(e.Category, true); err != nil {
		return err
	}
	if err := utils.ValidateTags(e.Tags); err != nil {
		return err
	}

	programs := make([]cel.Program, 0, len(e.Schema.Rules))
	for _, r := range e.Schema.Rules {
		prg, err := m.compile(r.Expr)
		if err != nil {
			return fmt.Errorf("rule %q: %w", r.Expr, err)
		}
		programs = append(programs, prg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[e.Type]; !exists {
		if len(m.entries) >= MaxCatalogSize {
			return fmt.Errorf("catalog is full (%d types)", MaxCatalogSize)
		}
		m.order = append(m.order, e.Type)
	}
	if _, ok := m.categories[e.Category]; !ok {
		m.categories[e.Category] = Category{ID: e.Category, Name: e.Category, Order: 90}
	}
	m.entries[e.Type] = &compiledEntry{entry: cloneEntry(e), programs: programs}
	return nil
}

func (m *Manager) compile(expr string) (cel.Program, error) {
	ast, iss := m.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	return m.env.Program(ast)
}

// Lookup returns the entry for nodeType, if registered.
func (m *Manager) Lookup(nodeType string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ce, ok := m.entries[nodeType]
	if !ok {
		return Entry{}, false
	}
	return cloneEntry(ce.entry), true
}

// Resolve never fails: unknown types get the generic fallback entry.
func (m *Manager) Resolve(nodeType string) Entry {
	if e, ok := m.Lookup(nodeType); ok {
		return e
	}
	return Fallback(nodeType)
}

// Get is Lookup with an error for callers that want one.
func (m *Manager) Get(nodeType string) (Entry, error) {
	e, ok := m.Lookup(nodeType)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, nodeType)
	}
	return e, nil
}

// List returns every entry in registration order.
func (m *Manager) List() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.order))
	for _, t := range m.order {
		out = append(out, cloneEntry(m.entries[t].entry))
	}
	return out
}

// ByCategory returns the entries in category, in registration order.
func (m *Manager) ByCategory(category string) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Entry{}
	for _, t := range m.order {
		if e := m.entries[t].entry; e.Category == category {
			out = append(out, cloneEntry(e))
		}
	}
	return out
}

// Categories returns the palette categories sorted by display order.
func (m *Manager) Categories() []Category {
	m.mu.RLock()
	out := make([]Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Search matches query against type, name and tags. A query containing glob
// metacharacters is matched as a pattern, anything else as a substring.
// Matching is case-insensitive.
func (m *Manager) Search(query string) []Entry {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return m.List()
	}

	glob := strings.ContainsAny(query, "*?[{")
	if glob && !doublestar.ValidatePattern(query) {
		glob = false
	}
	match := func(s string) bool {
		s = strings.ToLower(s)
		if glob {
			ok, _ := doublestar.Match(query, s)
			return ok
		}
		return strings.Contains(s, query)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Entry{}
	for _, t := range m.order {
		e := m.entries[t].entry
		if match(e.Type) || match(e.Name) || anyMatch(e.Tags, match) {
			out = append(out, cloneEntry(e))
		}
	}
	return out
}

func anyMatch(values []string, match func(string) bool) bool {
	for _, v := range values {
		if match(v) {
			return true
		}
	}
	return false
}

// ValidateConfig checks config against the schema of nodeType. Unknown types
// have no schema and always pass. The result is informational; nothing in
// the store rejects a node because of it.
func (m *Manager) ValidateConfig(nodeType string, config map[string]interface{}) []Issue {
	m.mu.RLock()
	ce, ok := m.entries[nodeType]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if config == nil {
		config = map[string]interface{}{}
	}

	var issues []Issue
	for _, f := range ce.entry.Schema.Fields {
		v, present := config[f.Key]
		if !present || v == nil {
			if f.Required {
				issues = append(issues, Issue{Field: f.Key, Message: fmt.Sprintf("%s is required", f.Label)})
			}
			continue
		}
		if msg := checkKind(f, v); msg != "" {
			issues = append(issues, Issue{Field: f.Key, Message: msg})
		}
	}

	vars := map[string]interface{}{"config": config}
	for i, prg := range ce.programs {
		rule := ce.entry.Schema.Rules[i]
		out, _, err := prg.Eval(vars)
		if err != nil {
			issues = append(issues, Issue{Message: rule.Message})
			continue
		}
		if pass, ok := out.Value().(bool); !ok || !pass {
			issues = append(issues, Issue{Message: rule.Message})
		}
	}
	return issues
}

func checkKind(f Field, v interface{}) string {
	switch f.Kind {
	case FieldNumber:
		switch v.(type) {
		case float64, float32, int, int32, int64, uint, uint32, uint64:
			return ""
		}
		return fmt.Sprintf("%s must be a number", f.Label)
	case FieldBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("%s must be true or false", f.Label)
		}
	case FieldSelect:
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("%s must be a string", f.Label)
		}
		if len(f.Options) > 0 && !contains(f.Options, s) {
			return fmt.Sprintf("%s must be one of %s", f.Label, strings.Join(f.Options, ", "))
		}
	case FieldAddress:
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("%s must be a string", f.Label)
		}
		if s == "" {
			return ""
		}
		if _, err := utils.NormalizeWallet(s); err != nil {
			return fmt.Sprintf("%s is not a valid address", f.Label)
		}
	case FieldURL:
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("%s must be a string", f.Label)
		}
		if s == "" {
			return ""
		}
		if u, err := url.Parse(s); err != nil || u.Scheme == "" {
			return fmt.Sprintf("%s is not a valid URL", f.Label)
		}
	default:
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("%s must be a string", f.Label)
		}
	}
	return ""
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// Stats summarizes the catalog.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{TotalTypes: len(m.entries), Categories: make(map[string]int)}
	for _, ce := range m.entries {
		s.Categories[ce.entry.Category]++
	}
	return s
}

func cloneEntry(e Entry) Entry {
	out := e
	out.Tags = append([]string{}, e.Tags...)
	out.Schema.Fields = append([]Field(nil), e.Schema.Fields...)
	for i := range out.Schema.Fields {
		if opts := out.Schema.Fields[i].Options; opts != nil {
			out.Schema.Fields[i].Options = append([]string(nil), opts...)
		}
	}
	out.Schema.Rules = append([]Rule(nil), e.Schema.Rules...)
	return out
}
