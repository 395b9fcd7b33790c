package blueprint

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-yaml"
	"github.com/microcosm-cc/bluemonday"

	"github.com/cradlehq/cradle/backend/internal/domain/registry"
	"github.com/cradlehq/cradle/backend/internal/shared/id"
	"github.com/cradlehq/cradle/backend/internal/shared/utils"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	// ErrUnsupportedFormat is returned for imports that are neither JSON nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported blueprint format")
	// ErrTooManyNodes is returned when a document or batch exceeds the node limit.
	ErrTooManyNodes = errors.New("too many nodes")
)

// Resolver maps a node type to its catalog entry.
type Resolver interface {
	Resolve(nodeType string) registry.Entry
}

// Parser turns untrusted documents and node batches into clean blueprint
// values: ids assigned, labels stripped of markup, configs defaulted.
type Parser struct {
	resolver  Resolver
	sanitizer *bluemonday.Policy
	newNodeID func() string
	newEdgeID func() string
}

// NewParser creates a parser. resolver may be nil, in which case empty
// labels and configs are left as they are.
func NewParser(resolver Resolver) *Parser {
	return &Parser{
		resolver:  resolver,
		sanitizer: bluemonday.StrictPolicy(),
		newNodeID: id.NewNodeID,
		newEdgeID: id.NewEdgeID,
	}
}

// Parse decodes a JSON or YAML document. The format is sniffed from the
// content, not trusted from the client.
func (p *Parser) Parse(data []byte) (Blueprint, error) {
	if err := utils.DefaultJSONValidator().ValidateSize(data); err != nil {
		return Blueprint{}, err
	}

	var bp Blueprint
	switch detectFormat(data) {
	case FormatJSON:
		if err := sonic.Unmarshal(data, &bp); err != nil {
			return Blueprint{}, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &bp); err != nil {
			return Blueprint{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return Blueprint{}, ErrUnsupportedFormat
	}

	if len(bp.Nodes) > utils.MaxNodesPerBatch {
		return Blueprint{}, fmt.Errorf("%w: %d exceeds %d", ErrTooManyNodes, len(bp.Nodes), utils.MaxNodesPerBatch)
	}
	return p.Normalize(bp), nil
}

func detectFormat(data []byte) string {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("application/json") {
			return FormatJSON
		}
		if m.Is("text/plain") {
			// YAML has no signature; any text falls through to it
			return FormatYAML
		}
	}
	return ""
}

// Normalize cleans a whole blueprint. The id is assigned when missing and
// the name falls back to DefaultName.
func (p *Parser) Normalize(bp Blueprint) Blueprint {
	if bp.ID == "" {
		bp.ID = id.NewBlueprintID()
	}
	bp.Name = p.clean(bp.Name, utils.MaxNameLength)
	if bp.Name == "" {
		bp.Name = DefaultName
	}
	bp.Nodes = p.NormalizeNodes(bp.Nodes)
	bp.Edges = p.NormalizeEdges(bp.Edges)
	return bp
}

// NormalizeNodes assigns missing ids, sanitizes labels and fills empty
// labels and configs from the catalog. The input slice is not modified.
func (p *Parser) NormalizeNodes(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		n = n.Clone()
		n.Type = strings.TrimSpace(n.Type)
		if n.ID == "" {
			n.ID = p.newNodeID()
		}
		n.Data.Label = p.clean(n.Data.Label, utils.MaxLabelLength)

		if p.resolver != nil {
			entry := p.resolver.Resolve(n.Type)
			if n.Data.Label == "" {
				n.Data.Label = entry.Name
			}
			if len(n.Data.Config) == 0 {
				n.Data.Config = entry.Schema.Defaults()
			}
		}
		out = append(out, n)
	}
	return out
}

// NormalizeEdges assigns missing edge ids. Endpoints are left unchecked.
func (p *Parser) NormalizeEdges(edges []Edge) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.ID == "" {
			e.ID = p.newEdgeID()
		}
		out = append(out, e)
	}
	return out
}

// NewNode builds a node of entry's type at pos with default config.
func (p *Parser) NewNode(entry registry.Entry, pos Position) Node {
	return Node{
		ID:       p.newNodeID(),
		Type:     entry.Type,
		Position: pos,
		Data: NodeData{
			Label:  entry.Name,
			Config: entry.Schema.Defaults(),
		},
	}
}

func (p *Parser) clean(s string, limit int) string {
	s = strings.TrimSpace(html.UnescapeString(p.sanitizer.Sanitize(s)))
	if utf8.RuneCountInString(s) > limit {
		s = string([]rune(s)[:limit])
	}
	return s
}

// Encode renders bp in format ("json" or "yaml").
func Encode(bp Blueprint, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		data, err := sonic.ConfigStd.Marshal(bp)
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON: %w", err)
		}
		return data, nil
	case FormatYAML, "yml":
		data, err := yaml.Marshal(bp)
		if err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func fallbackResolve(r Resolver, nodeType string) registry.Entry {
	if r == nil {
		return registry.Fallback(nodeType)
	}
	return r.Resolve(nodeType)
}
