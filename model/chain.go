package model

import "time"

// EvidenceChain aggregates paths between (or from) entities into one scored bundle.
type EvidenceChain struct {
	ID              string    `json:"id"`
	StartNode       *Node     `json:"start_node"`
	EndNode         *Node     `json:"end_node,omitempty"`
	Paths           []*Path   `json:"paths"`
	TotalConfidence float64   `json:"total_confidence"`
	SourceDocs      []string  `json:"source_docs"`
	CreatedAt       time.Time `json:"created_at"`
}
