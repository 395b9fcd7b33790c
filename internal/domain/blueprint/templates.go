package blueprint

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTemplate is returned for template names that do not exist.
var ErrUnknownTemplate = errors.New("unknown template")

// Template is a named starter blueprint.
type Template struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	NodeTypes   []string `json:"nodeTypes"`
	links       [][2]int
}

const columnSpacing = 280.0

var templates = map[string]Template{
	"empty": {
		ID:          "empty",
		Name:        "Blank canvas",
		Description: "Start from nothing",
		NodeTypes:   []string{},
	},
	"token-launch": {
		ID:          "token-launch",
		Name:        "Token launch",
		Description: "ERC-20 token with wallet sign-in and a frontend",
		NodeTypes:   []string{"erc20-stylus", "wallet-auth", "frontend-scaffold"},
		links:       [][2]int{{0, 2}, {1, 2}},
	},
	"nft-drop": {
		ID:          "nft-drop",
		Name:        "NFT drop",
		Description: "ERC-721 collection with IPFS metadata and a mint page",
		NodeTypes:   []string{"ipfs-storage", "erc721-stylus", "wallet-auth", "frontend-scaffold"},
		links:       [][2]int{{0, 1}, {1, 3}, {2, 3}},
	},
	"trading-agent": {
		ID:          "trading-agent",
		Name:        "Trading agent",
		Description: "Maxxit agent with an assistant and wallet sign-in",
		NodeTypes:   []string{"wallet-auth", "maxxit-agent", "ai-assistant", "frontend-scaffold"},
		links:       [][2]int{{0, 1}, {1, 3}, {2, 3}},
	},
}

// Templates lists the starter blueprints sorted by id, with "empty" first.
func Templates() []Template {
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID == "empty" || out[j].ID == "empty" {
			return out[i].ID == "empty"
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FromTemplate builds a blueprint from the named template. Nodes get fresh
// ids and their catalog defaults; edges connect them left to right. An empty
// name is the empty template.
func (p *Parser) FromTemplate(name string) (Blueprint, error) {
	if name == "" {
		name = "empty"
	}
	t, ok := templates[name]
	if !ok {
		return Blueprint{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	bp := Blueprint{Name: DefaultName, Nodes: []Node{}, Edges: []Edge{}}
	if name != "empty" {
		bp.Name = t.Name
	}

	for i, nodeType := range t.NodeTypes {
		entry := fallbackResolve(p.resolver, nodeType)
		pos := Position{X: float64(i) * columnSpacing, Y: 100}
		bp.Nodes = append(bp.Nodes, p.NewNode(entry, pos))
	}
	for _, l := range t.links {
		src, dst := bp.Nodes[l[0]], bp.Nodes[l[1]]
		bp.Edges = append(bp.Edges, Edge{ID: p.newEdgeID(), Source: src.ID, Target: dst.ID})
	}
	return p.Normalize(bp), nil
}
