package model

import "time"

// QualityLevel is the coarse grade of a quality report.
type QualityLevel string

const (
	QualityLevelExcellent QualityLevel = "excellent"
	QualityLevelGood      QualityLevel = "good"
	QualityLevelFair      QualityLevel = "fair"
	QualityLevelPoor      QualityLevel = "poor"
)

// CompletenessScore measures how much of the graph is populated.
type CompletenessScore struct {
	Score               float64 `json:"score"`
	EntityCoverage      float64 `json:"entity_coverage"`
	RelationCoverage    float64 `json:"relation_coverage"`
	PropertyCoverage    float64 `json:"property_coverage"`
	DescriptionCoverage float64 `json:"description_coverage"`
}

// ConsistencyScore measures how uniform types and names are.
type ConsistencyScore struct {
	Score               float64 `json:"score"`
	TypeConsistency     float64 `json:"type_consistency"`
	NamingConsistency   float64 `json:"naming_consistency"`
	RelationConsistency float64 `json:"relation_consistency"`
}

// AccuracyScore measures the confidence of the stored elements.
type AccuracyScore struct {
	Score                 float64 `json:"score"`
	AvgEntityConfidence   float64 `json:"avg_entity_confidence"`
	AvgRelationConfidence float64 `json:"avg_relation_confidence"`
	HighConfidenceRatio   float64 `json:"high_confidence_ratio"`
	LowConfidenceCount    int     `json:"low_confidence_count"`
}

// QualityReport is computed on demand from live graph statistics.
type QualityReport struct {
	Completeness    CompletenessScore `json:"completeness"`
	Consistency     ConsistencyScore  `json:"consistency"`
	Accuracy        AccuracyScore     `json:"accuracy"`
	OverallScore    float64           `json:"overall_score"`
	Level           QualityLevel      `json:"level"`
	Recommendations []string          `json:"recommendations"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// ElementQuality is the score of a single node or edge.
type ElementQuality struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Score   float64            `json:"score"`
	Details map[string]float64 `json:"details"`
}
