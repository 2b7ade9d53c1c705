package model

// TraversalOptions filter and bound a BFS or DFS traversal.
type TraversalOptions struct {
	MaxHops       int        `json:"max_hops"`
	RelationTypes []EdgeType `json:"relation_types,omitempty"`
	EntityTypes   []NodeType `json:"entity_types,omitempty"`
	MinConfidence float64    `json:"min_confidence"`
	Limit         int        `json:"limit"`
	ReturnPaths   bool       `json:"return_paths"`
	Direction     Direction  `json:"direction,omitempty"`
}

// DefaultTraversalOptions returns the defaults of the traversal engine.
func DefaultTraversalOptions() TraversalOptions {
	return TraversalOptions{
		MaxHops:       3,
		MinConfidence: 0,
		Limit:         100,
		Direction:     DirectionBoth,
	}
}

// VisitedNode is a node in traversal output with its hop distance from the start.
type VisitedNode struct {
	Node *Node `json:"node"`
	Hop  int   `json:"hop"`
}

// TraversalResult is the output of a BFS or DFS traversal.
type TraversalResult struct {
	StartID string         `json:"start_id"`
	Nodes   []*VisitedNode `json:"nodes"`
	Edges   []*Edge        `json:"edges"`
	Paths   []*Path        `json:"paths,omitempty"`
}

// NodeIDs returns the ids of the output nodes in visiting order.
func (r *TraversalResult) NodeIDs() []string {
	ids := make([]string, len(r.Nodes))
	for i, v := range r.Nodes {
		ids[i] = v.Node.ID
	}
	return ids
}
