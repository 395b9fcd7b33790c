package blueprint

import (
	"github.com/cradlehq/cradle/backend/internal/domain/registry"
)

// Catalog is the part of the registry validation needs.
type Catalog interface {
	Lookup(nodeType string) (registry.Entry, bool)
	ValidateConfig(nodeType string, config map[string]interface{}) []registry.Issue
}

// NodeIssue is a config problem attached to a node.
type NodeIssue struct {
	NodeID  string `json:"nodeId"`
	Type    string `json:"type"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Report describes problems in a blueprint. It is informational: the editor
// keeps working with an invalid graph.
type Report struct {
	Valid            bool        `json:"valid"`
	NodeCount        int         `json:"nodeCount"`
	EdgeCount        int         `json:"edgeCount"`
	DanglingEdges    []string    `json:"danglingEdges"`
	UnknownTypes     []string    `json:"unknownTypes"`
	DuplicateNodeIDs []string    `json:"duplicateNodeIds"`
	SelfLoops        []string    `json:"selfLoops"`
	ConfigIssues     []NodeIssue `json:"configIssues"`
}

// Validate inspects bp. cat may be nil, in which case type and config
// checks are skipped.
func Validate(bp Blueprint, cat Catalog) Report {
	r := Report{
		NodeCount:        len(bp.Nodes),
		EdgeCount:        len(bp.Edges),
		DanglingEdges:    []string{},
		UnknownTypes:     []string{},
		DuplicateNodeIDs: []string{},
		SelfLoops:        []string{},
		ConfigIssues:     []NodeIssue{},
	}

	ids := make(map[string]int, len(bp.Nodes))
	for _, n := range bp.Nodes {
		ids[n.ID]++
		if ids[n.ID] == 2 {
			r.DuplicateNodeIDs = append(r.DuplicateNodeIDs, n.ID)
		}
	}

	for _, e := range bp.Edges {
		if ids[e.Source] == 0 || ids[e.Target] == 0 {
			r.DanglingEdges = append(r.DanglingEdges, e.ID)
		}
		if e.Source == e.Target {
			r.SelfLoops = append(r.SelfLoops, e.ID)
		}
	}

	if cat != nil {
		seen := make(map[string]bool)
		for _, n := range bp.Nodes {
			if _, ok := cat.Lookup(n.Type); !ok {
				if !seen[n.Type] {
					seen[n.Type] = true
					r.UnknownTypes = append(r.UnknownTypes, n.Type)
				}
				continue
			}
			for _, is := range cat.ValidateConfig(n.Type, n.Data.Config) {
				r.ConfigIssues = append(r.ConfigIssues, NodeIssue{
					NodeID:  n.ID,
					Type:    n.Type,
					Field:   is.Field,
					Message: is.Message,
				})
			}
		}
	}

	r.Valid = len(r.DanglingEdges) == 0 &&
		len(r.UnknownTypes) == 0 &&
		len(r.DuplicateNodeIDs) == 0 &&
		len(r.ConfigIssues) == 0
	return r
}
