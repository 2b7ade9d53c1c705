package model

import (
	"time"
)

// EdgeType is the relation type of an edge.
type EdgeType string

const (
	EdgeTypeBelongsTo EdgeType = "BELONGS_TO"
	EdgeTypeContains  EdgeType = "CONTAINS"
	EdgeTypeLocatedAt EdgeType = "LOCATED_AT"
	EdgeTypeCreatedBy EdgeType = "CREATED_BY"
	EdgeTypeAffects   EdgeType = "AFFECTS"
	EdgeTypeDependsOn EdgeType = "DEPENDS_ON"
)

// DefaultEdgeTypes lists the relation types known to extraction.
var DefaultEdgeTypes = []EdgeType{
	EdgeTypeBelongsTo,
	EdgeTypeContains,
	EdgeTypeLocatedAt,
	EdgeTypeCreatedBy,
	EdgeTypeAffects,
	EdgeTypeDependsOn,
}

// Edge is a directed, typed relation between two nodes.
type Edge struct {
	ID         string    `json:"id"`
	Type       EdgeType  `json:"type"`
	HeadID     string    `json:"head_id"`
	TailID     string    `json:"tail_id"`
	Confidence float64   `json:"confidence"`
	Evidence   string    `json:"evidence,omitempty"`
	Properties Metadata  `json:"properties,omitempty"`
	SourceDocs []string  `json:"source_docs,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// EdgeUpdate holds the mutable fields of an edge.
type EdgeUpdate struct {
	Confidence *float64 `json:"confidence,omitempty"`
	Evidence   *string  `json:"evidence,omitempty"`
	Properties Metadata `json:"properties,omitempty"`
}

// Apply writes the update into e.
func (u EdgeUpdate) Apply(e *Edge) {
	if u.Confidence != nil {
		e.Confidence = *u.Confidence
	}
	if u.Evidence != nil {
		e.Evidence = *u.Evidence
	}
	if len(u.Properties) > 0 {
		if e.Properties == nil {
			e.Properties = Metadata{}
		}
		for k, v := range u.Properties {
			e.Properties[k] = v
		}
	}
}

// Other returns the endpoint of e that is not nodeID.
func (e *Edge) Other(nodeID string) string {
	if e.HeadID == nodeID {
		return e.TailID
	}
	return e.HeadID
}

// Touches reports whether nodeID is one of the endpoints of e.
func (e *Edge) Touches(nodeID string) bool {
	return e.HeadID == nodeID || e.TailID == nodeID
}

// Clone copies the edge.
func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}
	c := *e
	c.Properties = e.Properties.Clone()
	c.SourceDocs = append([]string(nil), e.SourceDocs...)
	return &c
}

// Direction selects which incident edges a neighbor lookup follows.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	switch d {
	case DirectionOutgoing, DirectionIncoming, DirectionBoth:
		return true
	}
	return false
}

// NeighborQuery filters a one-hop neighbor lookup.
type NeighborQuery struct {
	Direction     Direction  `json:"direction"`
	RelationTypes []EdgeType `json:"relation_types,omitempty"`
	MinConfidence float64    `json:"min_confidence"`
	Limit         int        `json:"limit,omitempty"` // 0 means unlimited
}

// Matches reports whether e passes the type and confidence filters.
func (q NeighborQuery) Matches(e *Edge) bool {
	if e.Confidence < q.MinConfidence {
		return false
	}
	return EdgeTypeAllowed(q.RelationTypes, e.Type)
}

// Neighbor is a node adjacent to the queried node together with the connecting edge.
type Neighbor struct {
	Node      *Node     `json:"node"`
	Edge      *Edge     `json:"edge"`
	Direction Direction `json:"direction"` // outgoing if the queried node is the head
}

// EdgeTypeAllowed reports whether t passes an optional type filter.
func EdgeTypeAllowed(types []EdgeType, t EdgeType) bool {
	if len(types) == 0 {
		return true
	}
	for _, allowed := range types {
		if allowed == t {
			return true
		}
	}
	return false
}

// NodeTypeAllowed reports whether t passes an optional type filter.
func NodeTypeAllowed(types []NodeType, t NodeType) bool {
	if len(types) == 0 {
		return true
	}
	for _, allowed := range types {
		if allowed == t {
			return true
		}
	}
	return false
}
