// Package leadsource resolves a member's lead source to its root category in
// the lead-source hierarchy.
package leadsource

import (
	"finroots_crm_backend/internal/crm/domain"

	"github.com/google/uuid"
)

// Unknown is the literal rendered when a source id is absent, unresolvable,
// or part of a malformed (cyclic) parent chain.
const Unknown = "Unknown"

// Resolver is an arena over the lead-source forest. Build once per request
// from the master list; resolution is then O(depth) per lookup.
type Resolver struct {
	nodes map[uuid.UUID]domain.LeadSourceMaster
}

// NewResolver indexes the master list.
func NewResolver(masters []domain.LeadSourceMaster) *Resolver {
	nodes := make(map[uuid.UUID]domain.LeadSourceMaster, len(masters))
	for _, n := range masters {
		nodes[n.ID] = n
	}
	return &Resolver{nodes: nodes}
}

// RootCategory walks parent links from the given source id and returns the
// root ancestor's name. A visited set guards against malformed cycles: on
// revisiting a node the walk aborts to Unknown instead of looping.
func (r *Resolver) RootCategory(sourceID *uuid.UUID) string {
	if sourceID == nil {
		return Unknown
	}

	node, ok := r.nodes[*sourceID]
	if !ok {
		return Unknown
	}

	visited := map[uuid.UUID]bool{node.ID: true}
	for node.ParentID != nil {
		parent, ok := r.nodes[*node.ParentID]
		if !ok {
			break
		}
		if visited[parent.ID] {
			return Unknown
		}
		visited[parent.ID] = true
		node = parent
	}

	return node.Name
}
