package model

// ResolveRequest is one mention to resolve against the graph.
type ResolveRequest struct {
	Name    string    `json:"name"`
	Type    *NodeType `json:"type,omitempty"`
	Context string    `json:"context,omitempty"`
	Limit   int       `json:"limit,omitempty"`
}

// CandidateMatch is a scored resolution candidate.
type CandidateMatch struct {
	NodeID         string   `json:"node_id"`
	Name           string   `json:"name"`
	Type           NodeType `json:"type"`
	NameSimilarity float64  `json:"name_similarity"`
	ContextScore   float64  `json:"context_score"`
	FinalScore     float64  `json:"final_score"`
}

// ResolveResult is the outcome of resolving a mention.
type ResolveResult struct {
	Name       string            `json:"name"`
	Type       NodeType          `json:"type"`
	IsNew      bool              `json:"is_new"`
	NodeID     string            `json:"node_id,omitempty"`
	Confidence float64           `json:"confidence"`
	Match      *CandidateMatch   `json:"match,omitempty"`
	Candidates []*CandidateMatch `json:"candidates"`
}
