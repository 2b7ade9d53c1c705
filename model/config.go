package model

import (
	"time"

	"github.com/siherrmann/graphreason/helper"
)

// ResolverConfig holds the weights of entity resolution.
type ResolverConfig struct {
	NameWeight      float64 `json:"name_weight"`      // weight of the name similarity
	ContextWeight   float64 `json:"context_weight"`   // weight of the context overlap
	Threshold       float64 `json:"threshold"`        // minimum final score to accept a match
	CandidateFactor int     `json:"candidate_factor"` // candidates fetched per requested candidate
	DefaultLimit    int     `json:"default_limit"`
	ContainsScore   float64 `json:"contains_score"` // name similarity when one name contains the other
	BatchWorkers    int     `json:"batch_workers"`
}

// ChainConfig holds the aggregation constants of evidence chains.
type ChainConfig struct {
	MaxPaths            int     `json:"max_paths"`
	DiversityBase       float64 `json:"diversity_base"`
	DiversityRange      float64 `json:"diversity_range"`
	DiversitySaturation int     `json:"diversity_saturation"` // number of paths giving the full bonus
}

// QualityWeights holds the weights and thresholds of the quality evaluator.
type QualityWeights struct {
	CompletenessWeight float64 `json:"completeness_weight"`
	ConsistencyWeight  float64 `json:"consistency_weight"`
	AccuracyWeight     float64 `json:"accuracy_weight"`

	CoverageWeight       float64 `json:"coverage_weight"` // weight of each of the four completeness coverages
	TargetEntityCount    int     `json:"target_entity_count"`
	TargetRelationsRatio float64 `json:"target_relations_ratio"` // relations per entity for full coverage
	TargetPropertyCount  float64 `json:"target_property_count"`
	MinDescriptionLength int     `json:"min_description_length"`

	TypeWeight         float64 `json:"type_weight"`
	NamingWeight       float64 `json:"naming_weight"`
	RelationTypeWeight float64 `json:"relation_type_weight"`
	LongTailShare      float64 `json:"long_tail_share"`
	MinNameLength      int     `json:"min_name_length"`
	MaxNameLength      int     `json:"max_name_length"`

	EntityConfidenceWeight   float64 `json:"entity_confidence_weight"`
	RelationConfidenceWeight float64 `json:"relation_confidence_weight"`
	HighConfidenceWeight     float64 `json:"high_confidence_weight"`
	HighConfidence           float64 `json:"high_confidence"`
	LowConfidence            float64 `json:"low_confidence"`

	ExcellentLevel float64 `json:"excellent_level"`
	GoodLevel      float64 `json:"good_level"`
	FairLevel      float64 `json:"fair_level"`

	Element ElementQualityWeights `json:"element"`
}

// ElementQualityWeights score single nodes and edges.
type ElementQualityWeights struct {
	NodeConfidenceWeight float64 `json:"node_confidence_weight"`
	DescriptionBonus     float64 `json:"description_bonus"`
	DegreeStep           float64 `json:"degree_step"`
	DegreeCap            float64 `json:"degree_cap"`
	NodePropertyStep     float64 `json:"node_property_step"`
	NodePropertyCap      float64 `json:"node_property_cap"`

	EdgeConfidenceWeight float64 `json:"edge_confidence_weight"`
	EvidenceBonus        float64 `json:"evidence_bonus"`
	MinEvidenceLength    int     `json:"min_evidence_length"`
	EdgePropertyStep     float64 `json:"edge_property_step"`
	EdgePropertyCap      float64 `json:"edge_property_cap"`
}

// ReasonerConfig is the tunable configuration of all reasoning services.
type ReasonerConfig struct {
	NodeTypes []NodeType `json:"node_types"`
	EdgeTypes []EdgeType `json:"edge_types"`

	MaxHops                 int     `json:"max_hops"`
	DefaultLimit            int     `json:"default_limit"`
	EntityMinConfidence     float64 `json:"entity_min_confidence"`
	RelationMinConfidence   float64 `json:"relation_min_confidence"`
	MinEdgeConfidenceWeight float64 `json:"min_edge_confidence_weight"` // confidence floor of the shortest path cost

	CacheTTL     time.Duration `json:"cache_ttl"`
	CacheBackend string        `json:"cache_backend"`
	RedisAddr    string        `json:"redis_addr,omitempty"`

	Resolver ResolverConfig `json:"resolver"`
	Chain    ChainConfig    `json:"chain"`
	Quality  QualityWeights `json:"quality"`
}

// DefaultReasonerConfig returns the default configuration
func DefaultReasonerConfig() ReasonerConfig {
	return ReasonerConfig{
		NodeTypes:               append([]NodeType(nil), DefaultNodeTypes...),
		EdgeTypes:               append([]EdgeType(nil), DefaultEdgeTypes...),
		MaxHops:                 3,
		DefaultLimit:            100,
		EntityMinConfidence:     0.5,
		RelationMinConfidence:   0.5,
		MinEdgeConfidenceWeight: 0.1,
		CacheTTL:                300 * time.Second,
		CacheBackend:            "memory",
		Resolver: ResolverConfig{
			NameWeight:      0.6,
			ContextWeight:   0.4,
			Threshold:       0.85,
			CandidateFactor: 2,
			DefaultLimit:    5,
			ContainsScore:   0.95,
			BatchWorkers:    4,
		},
		Chain: ChainConfig{
			MaxPaths:            10,
			DiversityBase:       0.7,
			DiversityRange:      0.3,
			DiversitySaturation: 5,
		},
		Quality: DefaultQualityWeights(),
	}
}

// DefaultQualityWeights returns the default quality evaluator weights.
func DefaultQualityWeights() QualityWeights {
	return QualityWeights{
		CompletenessWeight: 0.35,
		ConsistencyWeight:  0.30,
		AccuracyWeight:     0.35,

		CoverageWeight:       0.25,
		TargetEntityCount:    1000,
		TargetRelationsRatio: 2,
		TargetPropertyCount:  5,
		MinDescriptionLength: 10,

		TypeWeight:         0.4,
		NamingWeight:       0.3,
		RelationTypeWeight: 0.3,
		LongTailShare:      0.01,
		MinNameLength:      2,
		MaxNameLength:      50,

		EntityConfidenceWeight:   0.35,
		RelationConfidenceWeight: 0.35,
		HighConfidenceWeight:     0.30,
		HighConfidence:           0.8,
		LowConfidence:            0.5,

		ExcellentLevel: 0.85,
		GoodLevel:      0.70,
		FairLevel:      0.55,

		Element: ElementQualityWeights{
			NodeConfidenceWeight: 0.3,
			DescriptionBonus:     0.2,
			DegreeStep:           0.1,
			DegreeCap:            0.3,
			NodePropertyStep:     0.05,
			NodePropertyCap:      0.2,

			EdgeConfidenceWeight: 0.4,
			EvidenceBonus:        0.3,
			MinEvidenceLength:    5,
			EdgePropertyStep:     0.1,
			EdgePropertyCap:      0.3,
		},
	}
}

// Validate checks the ranges of the configuration.
func (c ReasonerConfig) Validate() error {
	if c.MaxHops < 1 || c.MaxHops > MaxPathHops {
		return helper.Invalid("max hops must be between 1 and %d, got %d", MaxPathHops, c.MaxHops)
	}
	if c.DefaultLimit < 1 || c.DefaultLimit > 1000 {
		return helper.Invalid("default limit must be between 1 and 1000, got %d", c.DefaultLimit)
	}
	for name, v := range map[string]float64{
		"similarity threshold":    c.Resolver.Threshold,
		"name weight":             c.Resolver.NameWeight,
		"context weight":          c.Resolver.ContextWeight,
		"entity min confidence":   c.EntityMinConfidence,
		"relation min confidence": c.RelationMinConfidence,
	} {
		if v < 0 || v > 1 {
			return helper.Invalid("%s must be between 0 and 1, got %v", name, v)
		}
	}
	if c.CacheTTL < 0 {
		return helper.Invalid("cache ttl must not be negative")
	}
	switch c.CacheBackend {
	case "", "memory", "redis":
	default:
		return helper.Invalid("unknown cache backend %q", c.CacheBackend)
	}
	return nil
}
