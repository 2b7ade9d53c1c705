package model

// ReachQuery asks the store for distinct end nodes reachable within 1..MaxHops.
type ReachQuery struct {
	StartID         string     `json:"start_id"`
	MaxHops         int        `json:"max_hops"`
	RelationTypes   []EdgeType `json:"relation_types,omitempty"`
	EntityTypes     []NodeType `json:"entity_types,omitempty"`
	MinConfidence   float64    `json:"min_confidence"`
	PropertyFilters Metadata   `json:"property_filters,omitempty"`
	Limit           int        `json:"limit"`
}

// MultiHopOptions are the caller facing options of a multi-hop query.
type MultiHopOptions struct {
	RelationTypes []EdgeType `json:"relation_types,omitempty"`
	EntityTypes   []NodeType `json:"entity_types,omitempty"`
	MinConfidence float64    `json:"min_confidence"`
	Limit         int        `json:"limit"`
}

// HopResult is one reachable end node with a representative path.
type HopResult struct {
	Node     *Node `json:"node"`
	HopCount int   `json:"hop_count"`
	Path     *Path `json:"path"`
}

// MultiHopResult is the (cacheable) response of a multi-hop query.
type MultiHopResult struct {
	StartID string       `json:"start_id"`
	Hops    int          `json:"hops"`
	Results []*HopResult `json:"results"`
	Total   int          `json:"total"`
	Filters *ReachQuery  `json:"filters,omitempty"`
	Cached  bool         `json:"cached"`
}

// Clone returns a deep copy of the query.
func (q *ReachQuery) Clone() *ReachQuery {
	if q == nil {
		return nil
	}
	c := *q
	c.RelationTypes = append([]EdgeType(nil), q.RelationTypes...)
	c.EntityTypes = append([]NodeType(nil), q.EntityTypes...)
	c.PropertyFilters = q.PropertyFilters.Clone()
	return &c
}

// Clone returns a deep copy of the hop result.
func (h *HopResult) Clone() *HopResult {
	if h == nil {
		return nil
	}
	return &HopResult{
		Node:     h.Node.Clone(),
		HopCount: h.HopCount,
		Path:     h.Path.Clone(),
	}
}

// Clone returns a deep copy of the result, sharing nothing with r.
func (r *MultiHopResult) Clone() *MultiHopResult {
	if r == nil {
		return nil
	}
	c := *r
	if r.Results != nil {
		c.Results = make([]*HopResult, len(r.Results))
		for i, h := range r.Results {
			c.Results[i] = h.Clone()
		}
	}
	c.Filters = r.Filters.Clone()
	return &c
}
