package quality

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
	"unicode/utf8"

	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
)

// StatisticsDB is the store access of the quality evaluator.
type StatisticsDB interface {
	SelectNode(ctx context.Context, id string) (*model.Node, error)
	SelectEdge(ctx context.Context, id string) (*model.Edge, error)
	SelectGraphStatistics(ctx context.Context, thresholds model.StatisticsThresholds) (*model.GraphStatistics, error)
	SelectNodeDegree(ctx context.Context, id string) (int, error)
	SelectTopNodesByDegree(ctx context.Context, limit int) ([]*model.NodeDegree, error)
	SelectOrphanNodes(ctx context.Context, limit int) ([]*model.Node, error)
	SelectConnectedCount(ctx context.Context) (int, error)
	SelectConfidenceDistribution(ctx context.Context) (*model.ConfidenceDistribution, error)
}

// Evaluator scores the quality of the whole graph and of single elements.
type Evaluator struct {
	db      StatisticsDB
	weights model.QualityWeights
	logger  *slog.Logger
}

// NewEvaluator creates a new quality evaluator
func NewEvaluator(db StatisticsDB, weights model.QualityWeights, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		db:      db,
		weights: weights,
		logger:  logger,
	}
}

// GenerateReport computes a quality report from the live graph statistics.
// An unreachable store yields a zeroed report.
func (e *Evaluator) GenerateReport(ctx context.Context) (*model.QualityReport, error) {
	stats, err := e.db.SelectGraphStatistics(ctx, e.weights.Thresholds())
	if err != nil {
		if helper.IsStoreUnavailable(err) {
			e.logger.Warn("Graph store unavailable, returning empty quality report", slog.String("error", err.Error()))
			return &model.QualityReport{
				Level:           model.QualityLevelPoor,
				Recommendations: []string{},
				GeneratedAt:     time.Now().UTC(),
			}, nil
		}
		return nil, helper.NewError("generate report", err)
	}

	report := ReportFromStatistics(stats, e.weights)
	e.logger.Debug(
		"Quality report generated",
		slog.Float64("overall_score", report.OverallScore),
		slog.String("level", string(report.Level)),
	)
	return report, nil
}

// ReportFromStatistics scores aggregated graph statistics.
func ReportFromStatistics(stats *model.GraphStatistics, w model.QualityWeights) *model.QualityReport {
	completeness := completenessOf(stats, w)
	consistency := consistencyOf(stats, w)
	accuracy := accuracyOf(stats, w)

	overall := round(clamp(
		w.CompletenessWeight*completeness.Score +
			w.ConsistencyWeight*consistency.Score +
			w.AccuracyWeight*accuracy.Score,
	))

	return &model.QualityReport{
		Completeness:    completeness,
		Consistency:     consistency,
		Accuracy:        accuracy,
		OverallScore:    overall,
		Level:           levelOf(overall, w),
		Recommendations: recommendations(completeness, consistency, accuracy, w),
		GeneratedAt:     time.Now().UTC(),
	}
}

func completenessOf(stats *model.GraphStatistics, w model.QualityWeights) model.CompletenessScore {
	if stats.EntityCount == 0 {
		return model.CompletenessScore{}
	}
	entities := float64(stats.EntityCount)

	entityCoverage := math.Min(1, entities/float64(w.TargetEntityCount))
	relationCoverage := math.Min(1, float64(stats.RelationCount)/(w.TargetRelationsRatio*entities))
	propertyCoverage := math.Min(1, stats.AvgPropertyCount()/w.TargetPropertyCount)
	descriptionCoverage := float64(stats.DescribedEntityCount) / entities

	return model.CompletenessScore{
		Score:               round(clamp(w.CoverageWeight * (entityCoverage + relationCoverage + propertyCoverage + descriptionCoverage))),
		EntityCoverage:      round(entityCoverage),
		RelationCoverage:    round(relationCoverage),
		PropertyCoverage:    round(propertyCoverage),
		DescriptionCoverage: round(descriptionCoverage),
	}
}

// significantShare is the fraction of types holding at least minShare of all
// elements.
func significantShare(counts map[string]int, minShare float64) float64 {
	if len(counts) == 0 {
		return 0
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	significant := 0
	for _, c := range counts {
		if float64(c) >= minShare*float64(total) {
			significant++
		}
	}
	return float64(significant) / float64(len(counts))
}

func consistencyOf(stats *model.GraphStatistics, w model.QualityWeights) model.ConsistencyScore {
	typeConsistency := significantShare(stats.EntityTypes, w.LongTailShare)
	relationConsistency := significantShare(stats.RelationTypes, w.LongTailShare)
	namingConsistency := 0.0
	if stats.EntityCount > 0 {
		namingConsistency = float64(stats.ValidNameCount) / float64(stats.EntityCount)
	}

	return model.ConsistencyScore{
		Score: round(clamp(
			w.TypeWeight*typeConsistency +
				w.NamingWeight*namingConsistency +
				w.RelationTypeWeight*relationConsistency,
		)),
		TypeConsistency:     round(typeConsistency),
		NamingConsistency:   round(namingConsistency),
		RelationConsistency: round(relationConsistency),
	}
}

func accuracyOf(stats *model.GraphStatistics, w model.QualityWeights) model.AccuracyScore {
	if stats.EntityCount == 0 {
		return model.AccuracyScore{LowConfidenceCount: stats.LowConfidenceCount}
	}
	highRatio := float64(stats.HighConfidenceCount) / float64(stats.EntityCount+stats.RelationCount)
	avgEntity := stats.AvgEntityConfidence()
	avgRelation := stats.AvgRelationConfidence()

	return model.AccuracyScore{
		Score: round(clamp(
			w.EntityConfidenceWeight*avgEntity +
				w.RelationConfidenceWeight*avgRelation +
				w.HighConfidenceWeight*highRatio,
		)),
		AvgEntityConfidence:   round(avgEntity),
		AvgRelationConfidence: round(avgRelation),
		HighConfidenceRatio:   round(highRatio),
		LowConfidenceCount:    stats.LowConfidenceCount,
	}
}

func levelOf(score float64, w model.QualityWeights) model.QualityLevel {
	switch {
	case score >= w.ExcellentLevel:
		return model.QualityLevelExcellent
	case score >= w.GoodLevel:
		return model.QualityLevelGood
	case score >= w.FairLevel:
		return model.QualityLevelFair
	}
	return model.QualityLevelPoor
}

func recommendations(c model.CompletenessScore, s model.ConsistencyScore, a model.AccuracyScore, w model.QualityWeights) []string {
	recs := []string{}
	if c.EntityCoverage < 0.5 {
		recs = append(recs, "Add more entities to improve the coverage of the graph")
	}
	if c.RelationCoverage < 0.5 {
		recs = append(recs, "Add relations between entities to enrich the graph structure")
	}
	if c.DescriptionCoverage < 0.5 {
		recs = append(recs, "Add descriptions to entities to make them easier to understand")
	}
	if s.NamingConsistency < 0.8 {
		recs = append(recs, fmt.Sprintf("Normalize entity names to a length between %d and %d characters", w.MinNameLength, w.MaxNameLength))
	}
	if s.TypeConsistency < 0.7 {
		recs = append(recs, "Unify the entity type classification and avoid scattered types")
	}
	if a.AvgEntityConfidence < 0.7 {
		recs = append(recs, "Review low confidence entities to improve entity extraction accuracy")
	}
	if a.AvgRelationConfidence < 0.7 {
		recs = append(recs, "Review low confidence relations to improve relation extraction accuracy")
	}
	if a.LowConfidenceCount > 0 {
		recs = append(recs, fmt.Sprintf("Found %d low confidence elements, a manual review is recommended", a.LowConfidenceCount))
	}
	if len(recs) == 0 {
		recs = append(recs, "Graph quality is good, keep monitoring and maintaining it")
	}
	return recs
}

// EvaluateEntityQuality scores a single node by confidence, description,
// degree and number of properties.
func (e *Evaluator) EvaluateEntityQuality(ctx context.Context, id string) (*model.ElementQuality, error) {
	node, err := e.db.SelectNode(ctx, id)
	if err != nil {
		return nil, helper.NewError("evaluate entity quality", err)
	}
	degree, err := e.db.SelectNodeDegree(ctx, id)
	if err != nil {
		return nil, helper.NewError("evaluate entity quality", err)
	}

	w := e.weights.Element
	hasDescription := 0.0
	if utf8.RuneCountInString(node.Description) > e.weights.MinDescriptionLength {
		hasDescription = 1
	}
	score := w.NodeConfidenceWeight*node.Confidence +
		w.DescriptionBonus*hasDescription +
		math.Min(w.DegreeCap, w.DegreeStep*float64(degree)) +
		math.Min(w.NodePropertyCap, w.NodePropertyStep*float64(len(node.Properties)))

	return &model.ElementQuality{
		ID:    node.ID,
		Name:  node.Name,
		Score: round(math.Min(1, score)),
		Details: map[string]float64{
			"confidence":      node.Confidence,
			"has_description": hasDescription,
			"relation_count":  float64(degree),
			"property_count":  float64(len(node.Properties)),
		},
	}, nil
}

// EvaluateRelationQuality scores a single edge by confidence, evidence and
// number of properties.
func (e *Evaluator) EvaluateRelationQuality(ctx context.Context, id string) (*model.ElementQuality, error) {
	edge, err := e.db.SelectEdge(ctx, id)
	if err != nil {
		return nil, helper.NewError("evaluate relation quality", err)
	}

	w := e.weights.Element
	hasEvidence := 0.0
	if utf8.RuneCountInString(edge.Evidence) > w.MinEvidenceLength {
		hasEvidence = 1
	}
	score := w.EdgeConfidenceWeight*edge.Confidence +
		w.EvidenceBonus*hasEvidence +
		math.Min(w.EdgePropertyCap, w.EdgePropertyStep*float64(len(edge.Properties)))

	return &model.ElementQuality{
		ID:    edge.ID,
		Name:  string(edge.Type),
		Score: round(math.Min(1, score)),
		Details: map[string]float64{
			"confidence":     edge.Confidence,
			"has_evidence":   hasEvidence,
			"property_count": float64(len(edge.Properties)),
		},
	}, nil
}

func clamp(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func round(v float64) float64 {
	return model.Round(v, 4)
}
