package model

// GraphStatistics are the aggregates the quality evaluator reads in one store call.
type GraphStatistics struct {
	EntityCount           int            `json:"entity_count"`
	RelationCount         int            `json:"relation_count"`
	TotalPropertyCount    int            `json:"total_property_count"`
	DescribedEntityCount  int            `json:"described_entity_count"` // description longer than 10 chars
	ValidNameCount        int            `json:"valid_name_count"`       // name length in [2,50]
	EntityConfidenceSum   float64        `json:"entity_confidence_sum"`
	RelationConfidenceSum float64        `json:"relation_confidence_sum"`
	HighConfidenceCount   int            `json:"high_confidence_count"` // nodes and edges with confidence >= 0.8
	LowConfidenceCount    int            `json:"low_confidence_count"`  // nodes and edges with confidence < 0.5
	EntityTypes           map[string]int `json:"entity_types"`
	RelationTypes         map[string]int `json:"relation_types"`
}

// AvgPropertyCount returns the mean number of properties per entity.
func (s *GraphStatistics) AvgPropertyCount() float64 {
	if s.EntityCount == 0 {
		return 0
	}
	return float64(s.TotalPropertyCount) / float64(s.EntityCount)
}

// AvgEntityConfidence returns the mean entity confidence.
func (s *GraphStatistics) AvgEntityConfidence() float64 {
	if s.EntityCount == 0 {
		return 0
	}
	return s.EntityConfidenceSum / float64(s.EntityCount)
}

// AvgRelationConfidence returns the mean relation confidence.
func (s *GraphStatistics) AvgRelationConfidence() float64 {
	if s.RelationCount == 0 {
		return 0
	}
	return s.RelationConfidenceSum / float64(s.RelationCount)
}

// TypeCount is one bucket of a type distribution.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// NodeDegree is a node with its number of incident edges.
type NodeDegree struct {
	Node   *Node `json:"node"`
	Degree int   `json:"degree"`
}

// ConfidenceBucket names used by the confidence distribution.
const (
	ConfidenceHigh    = "high"     // >= 0.9
	ConfidenceMedium  = "medium"   // >= 0.7
	ConfidenceLow     = "low"      // >= 0.5
	ConfidenceVeryLow = "very_low" // < 0.5
)

// ConfidenceBucketOf returns the bucket name of a confidence value.
func ConfidenceBucketOf(c float64) string {
	switch {
	case c >= 0.9:
		return ConfidenceHigh
	case c >= 0.7:
		return ConfidenceMedium
	case c >= 0.5:
		return ConfidenceLow
	}
	return ConfidenceVeryLow
}

// ConfidenceDistribution counts nodes and edges per confidence bucket.
type ConfidenceDistribution struct {
	Entity   map[string]int `json:"entity"`
	Relation map[string]int `json:"relation"`
}

// GraphOverview is the statistics overview of the graph.
type GraphOverview struct {
	EntityCount           int                    `json:"entity_count"`
	RelationCount         int                    `json:"relation_count"`
	EntityTypeCount       int                    `json:"entity_type_count"`
	RelationTypeCount     int                    `json:"relation_type_count"`
	Density               float64                `json:"density"`
	MaxPossibleEdges      int                    `json:"max_possible_edges"`
	ConnectedCount        int                    `json:"connected_count"`
	ConnectivityRatio     float64                `json:"connectivity_ratio"`
	AvgEntityConfidence   float64                `json:"avg_entity_confidence"`
	AvgRelationConfidence float64                `json:"avg_relation_confidence"`
	EntityTypes           []TypeCount            `json:"entity_types"`
	RelationTypes         []TypeCount            `json:"relation_types"`
	TopNodes              []*NodeDegree          `json:"top_nodes"`
	OrphanNodes           []*Node                `json:"orphan_nodes"`
	Confidence            ConfidenceDistribution `json:"confidence"`
}

// StatisticsThresholds are the cut offs the store applies while aggregating statistics.
type StatisticsThresholds struct {
	HighConfidence       float64 `json:"high_confidence"`
	LowConfidence        float64 `json:"low_confidence"`
	MinDescriptionLength int     `json:"min_description_length"`
	MinNameLength        int     `json:"min_name_length"`
	MaxNameLength        int     `json:"max_name_length"`
}

// Thresholds returns the statistics cut offs of the quality weights.
func (w QualityWeights) Thresholds() StatisticsThresholds {
	return StatisticsThresholds{
		HighConfidence:       w.HighConfidence,
		LowConfidence:        w.LowConfidence,
		MinDescriptionLength: w.MinDescriptionLength,
		MinNameLength:        w.MinNameLength,
		MaxNameLength:        w.MaxNameLength,
	}
}
