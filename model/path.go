package model

import (
	"fmt"
	"math"
)

// MaxPathHops is the upper bound for any bounded path query.
const MaxPathHops = 10

// Path is an alternating node/edge sequence. len(Edges) == len(Nodes)-1.
// Weight is the accumulated edge cost of a weighted shortest path search and
// stays 0 for enumerated paths.
type Path struct {
	Nodes      []*Node `json:"nodes"`
	Edges      []*Edge `json:"edges"`
	Length     int     `json:"length"`
	Confidence float64 `json:"confidence"`
	Weight     float64 `json:"weight,omitempty"`
}

// NewPath builds a path and computes its length and confidence.
func NewPath(nodes []*Node, edges []*Edge) *Path {
	return &Path{
		Nodes:      nodes,
		Edges:      edges,
		Length:     len(edges),
		Confidence: PathConfidence(edges),
	}
}

// PathConfidence is the geometric mean of the edge confidences rounded to four
// decimals. An empty edge list has confidence 0.
func PathConfidence(edges []*Edge) float64 {
	if len(edges) == 0 {
		return 0
	}
	logSum := 0.0
	for _, e := range edges {
		if e.Confidence <= 0 {
			return 0
		}
		logSum += math.Log(e.Confidence)
	}
	return Round(math.Exp(logSum/float64(len(edges))), 4)
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Clone returns a deep copy of the path.
func (p *Path) Clone() *Path {
	if p == nil {
		return nil
	}
	c := *p
	c.Nodes = make([]*Node, len(p.Nodes))
	for i, n := range p.Nodes {
		c.Nodes[i] = n.Clone()
	}
	c.Edges = make([]*Edge, len(p.Edges))
	for i, e := range p.Edges {
		c.Edges[i] = e.Clone()
	}
	return &c
}

// Start returns the first node of the path.
func (p *Path) Start() *Node {
	if p == nil || len(p.Nodes) == 0 {
		return nil
	}
	return p.Nodes[0]
}

// End returns the last node of the path.
func (p *Path) End() *Node {
	if p == nil || len(p.Nodes) == 0 {
		return nil
	}
	return p.Nodes[len(p.Nodes)-1]
}

// NodeIDs returns the ids of the path nodes in order.
func (p *Path) NodeIDs() []string {
	ids := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// SourceDocs returns the union of the provenance of all nodes and edges, in
// first seen order.
func (p *Path) SourceDocs() []string {
	var docs []string
	for _, n := range p.Nodes {
		docs, _ = AddSourceDocs(docs, n.SourceDocs...)
	}
	for _, e := range p.Edges {
		docs, _ = AddSourceDocs(docs, e.SourceDocs...)
	}
	return docs
}

// Validate checks the node/edge adjacency of the path.
func (p *Path) Validate() error {
	if len(p.Nodes) == 0 {
		return fmt.Errorf("path has no nodes")
	}
	if len(p.Edges) != len(p.Nodes)-1 {
		return fmt.Errorf("path has %d nodes but %d edges", len(p.Nodes), len(p.Edges))
	}
	for i, e := range p.Edges {
		prev, next := p.Nodes[i].ID, p.Nodes[i+1].ID
		if !(e.HeadID == prev && e.TailID == next) && !(e.TailID == prev && e.HeadID == next) {
			return fmt.Errorf("edge %s does not connect %s and %s", e.ID, prev, next)
		}
	}
	return nil
}

// PathQuery asks the store to enumerate simple paths of bounded length. An
// empty TargetID enumerates paths from the source to any other node.
type PathQuery struct {
	SourceID      string     `json:"source_id"`
	TargetID      string     `json:"target_id,omitempty"`
	MinHops       int        `json:"min_hops"`
	MaxHops       int        `json:"max_hops"`
	RelationTypes []EdgeType `json:"relation_types,omitempty"`
	MinConfidence float64    `json:"min_confidence"`
	Limit         int        `json:"limit"`
}

// PathOptions are the caller facing options of the path query service.
type PathOptions struct {
	MaxHops       int        `json:"max_hops"`
	RelationTypes []EdgeType `json:"relation_types,omitempty"`
	MinConfidence float64    `json:"min_confidence"`
	Limit         int        `json:"limit"`
}

// DefaultPathOptions returns the defaults used by the path service.
func DefaultPathOptions() PathOptions {
	return PathOptions{
		MaxHops:       5,
		MinConfidence: 0,
		Limit:         10,
	}
}
