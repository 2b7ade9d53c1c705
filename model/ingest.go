package model

// CandidateEntity is a raw entity produced by an extractor.
type CandidateEntity struct {
	Name        string   `json:"name"`
	Type        NodeType `json:"type"`
	Description string   `json:"description,omitempty"`
	Confidence  float64  `json:"confidence"`
	Properties  Metadata `json:"properties,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	SourceCount int      `json:"source_count"`
}

// CandidateRelation is a raw relation produced by an extractor. Head and Tail
// are entity names as they appear in the text.
type CandidateRelation struct {
	Head        string   `json:"head"`
	Type        EdgeType `json:"type"`
	Tail        string   `json:"tail"`
	Evidence    string   `json:"evidence,omitempty"`
	Confidence  float64  `json:"confidence"`
	Properties  Metadata `json:"properties,omitempty"`
	SourceCount int      `json:"source_count"`
}

// IngestResult summarizes what one document added to the graph.
type IngestResult struct {
	DocID            string   `json:"doc_id"`
	CreatedNodes     []string `json:"created_nodes"`
	MergedNodes      []string `json:"merged_nodes"`
	CreatedEdges     []string `json:"created_edges"`
	MergedEdges      []string `json:"merged_edges"`
	RejectedRelation int      `json:"rejected_relations"`
	Errors           []string `json:"errors,omitempty"`
}
