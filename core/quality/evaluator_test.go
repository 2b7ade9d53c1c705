package quality

import (
	"context"
	"testing"

	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/memgraph"
	"github.com/siherrmann/graphreason/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unavailableDB fails every aggregate read like a disconnected store.
type unavailableDB struct {
	*memgraph.Graph
}

func (u *unavailableDB) SelectGraphStatistics(ctx context.Context, thresholds model.StatisticsThresholds) (*model.GraphStatistics, error) {
	return nil, helper.NewError("select graph statistics", helper.ErrStoreUnavailable)
}

// newQualityGraph builds four nodes of which X is an orphan with a too short name.
func newQualityGraph(t *testing.T) *memgraph.Graph {
	g := memgraph.New()
	ctx := context.Background()
	for _, node := range []*model.Node{
		{ID: "acme", Name: "Acme Corp", Type: model.NodeTypeOrganization, Confidence: 0.9, Description: "A large software company", Properties: model.Metadata{"industry": "software", "size": "large"}},
		{ID: "berlin", Name: "Berlin", Type: model.NodeTypeLocation, Confidence: 0.95, Description: "Capital city of Germany", Properties: model.Metadata{"country": "DE"}},
		{ID: "widget", Name: "Widget", Type: model.NodeTypeProduct, Confidence: 0.6},
		{ID: "x", Name: "X", Type: model.NodeTypeConcept, Confidence: 0.4, Description: "short"},
	} {
		require.NoError(t, g.InsertNode(ctx, node))
	}
	for _, edge := range []*model.Edge{
		{ID: "located", HeadID: "acme", TailID: "berlin", Type: model.EdgeTypeLocatedAt, Confidence: 0.9, Evidence: "Acme is based in Berlin", Properties: model.Metadata{"since": "1999"}},
		{ID: "created", HeadID: "widget", TailID: "acme", Type: model.EdgeTypeCreatedBy, Confidence: 0.7, Evidence: "made"},
	} {
		require.NoError(t, g.InsertEdge(ctx, edge))
	}
	return g
}

func TestGenerateReport(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid call GenerateReport", func(t *testing.T) {
		evaluator := NewEvaluator(newQualityGraph(t), model.DefaultQualityWeights(), nil)

		report, err := evaluator.GenerateReport(ctx)
		require.NoError(t, err, "Expected GenerateReport to not return an error")

		assert.InDelta(t, 0.004, report.Completeness.EntityCoverage, 1e-9)
		assert.InDelta(t, 0.25, report.Completeness.RelationCoverage, 1e-9)
		assert.InDelta(t, 0.15, report.Completeness.PropertyCoverage, 1e-9)
		assert.InDelta(t, 0.5, report.Completeness.DescriptionCoverage, 1e-9)
		assert.InDelta(t, 0.226, report.Completeness.Score, 1e-9)

		assert.InDelta(t, 1.0, report.Consistency.TypeConsistency, 1e-9)
		assert.InDelta(t, 0.75, report.Consistency.NamingConsistency, 1e-9)
		assert.InDelta(t, 1.0, report.Consistency.RelationConsistency, 1e-9)
		assert.InDelta(t, 0.925, report.Consistency.Score, 1e-9)

		assert.InDelta(t, 0.7125, report.Accuracy.AvgEntityConfidence, 1e-9)
		assert.InDelta(t, 0.8, report.Accuracy.AvgRelationConfidence, 1e-9)
		assert.InDelta(t, 0.5, report.Accuracy.HighConfidenceRatio, 1e-9)
		assert.Equal(t, 1, report.Accuracy.LowConfidenceCount)
		assert.InDelta(t, 0.6794, report.Accuracy.Score, 2e-4)

		assert.InDelta(t, 0.5944, report.OverallScore, 2e-4)
		assert.Equal(t, model.QualityLevelFair, report.Level)
		assert.False(t, report.GeneratedAt.IsZero())

		require.Len(t, report.Recommendations, 4, "Expected four recommendations")
		assert.Contains(t, report.Recommendations[0], "entities")
		assert.Contains(t, report.Recommendations[1], "relations")
		assert.Contains(t, report.Recommendations[2], "names")
		assert.Contains(t, report.Recommendations[3], "Found 1 low confidence elements")
	})

	t.Run("Valid call GenerateReport on empty graph", func(t *testing.T) {
		evaluator := NewEvaluator(memgraph.New(), model.DefaultQualityWeights(), nil)

		report, err := evaluator.GenerateReport(ctx)
		require.NoError(t, err, "Expected GenerateReport to not return an error")
		assert.Equal(t, 0.0, report.Completeness.Score)
		assert.Equal(t, 0.0, report.Accuracy.Score)
		assert.Equal(t, 0.0, report.OverallScore)
		assert.Equal(t, model.QualityLevelPoor, report.Level)
		assert.NotEmpty(t, report.Recommendations)
	})

	t.Run("Store unavailable returns zeroed report", func(t *testing.T) {
		evaluator := NewEvaluator(&unavailableDB{Graph: newQualityGraph(t)}, model.DefaultQualityWeights(), nil)

		report, err := evaluator.GenerateReport(ctx)
		require.NoError(t, err, "Expected GenerateReport to degrade instead of failing")
		assert.Equal(t, 0.0, report.OverallScore)
		assert.Equal(t, model.QualityLevelPoor, report.Level)
		assert.Empty(t, report.Recommendations)
	})
}

func TestReportFromStatistics(t *testing.T) {
	weights := model.DefaultQualityWeights()

	t.Run("Type with exactly one percent counts as significant", func(t *testing.T) {
		report := ReportFromStatistics(&model.GraphStatistics{
			EntityCount:    100,
			ValidNameCount: 100,
			EntityTypes:    map[string]int{"Concept": 99, "Event": 1},
		}, weights)
		assert.Equal(t, 1.0, report.Consistency.TypeConsistency)
	})

	t.Run("Long tail type lowers consistency", func(t *testing.T) {
		report := ReportFromStatistics(&model.GraphStatistics{
			EntityCount:    1000,
			ValidNameCount: 1000,
			EntityTypes:    map[string]int{"Concept": 999, "Event": 1},
		}, weights)
		assert.Equal(t, 0.5, report.Consistency.TypeConsistency)
	})

	t.Run("Perfect graph is excellent", func(t *testing.T) {
		report := ReportFromStatistics(&model.GraphStatistics{
			EntityCount:           1000,
			RelationCount:         2000,
			TotalPropertyCount:    5000,
			DescribedEntityCount:  1000,
			ValidNameCount:        1000,
			EntityConfidenceSum:   1000,
			RelationConfidenceSum: 2000,
			HighConfidenceCount:   3000,
			EntityTypes:           map[string]int{"Concept": 1000},
			RelationTypes:         map[string]int{"AFFECTS": 2000},
		}, weights)
		assert.Equal(t, 1.0, report.OverallScore)
		assert.Equal(t, model.QualityLevelExcellent, report.Level)
		require.Len(t, report.Recommendations, 1)
		assert.Contains(t, report.Recommendations[0], "good")
	})

	t.Run("Completeness uses the configured coverage weight", func(t *testing.T) {
		stats := &model.GraphStatistics{
			EntityCount:          1000,
			RelationCount:        2000,
			TotalPropertyCount:   5000,
			DescribedEntityCount: 1000,
		}
		report := ReportFromStatistics(stats, weights)
		assert.Equal(t, 1.0, report.Completeness.Score)

		custom := model.DefaultQualityWeights()
		custom.CoverageWeight = 0.2
		report = ReportFromStatistics(stats, custom)
		assert.InDelta(t, 0.8, report.Completeness.Score, 1e-9)
	})
}

func TestEvaluateElementQuality(t *testing.T) {
	ctx := context.Background()
	evaluator := NewEvaluator(newQualityGraph(t), model.DefaultQualityWeights(), nil)

	t.Run("Valid call EvaluateEntityQuality", func(t *testing.T) {
		quality, err := evaluator.EvaluateEntityQuality(ctx, "acme")
		require.NoError(t, err, "Expected EvaluateEntityQuality to not return an error")
		assert.Equal(t, "Acme Corp", quality.Name)
		assert.InDelta(t, 0.77, quality.Score, 1e-9)
		assert.Equal(t, 2.0, quality.Details["relation_count"])
		assert.Equal(t, 1.0, quality.Details["has_description"])
	})

	t.Run("Valid call EvaluateEntityQuality for orphan", func(t *testing.T) {
		quality, err := evaluator.EvaluateEntityQuality(ctx, "x")
		require.NoError(t, err, "Expected EvaluateEntityQuality to not return an error")
		assert.InDelta(t, 0.12, quality.Score, 1e-9)
	})

	t.Run("Valid call EvaluateRelationQuality", func(t *testing.T) {
		quality, err := evaluator.EvaluateRelationQuality(ctx, "located")
		require.NoError(t, err, "Expected EvaluateRelationQuality to not return an error")
		assert.Equal(t, "LOCATED_AT", quality.Name)
		assert.InDelta(t, 0.76, quality.Score, 1e-9)

		quality, err = evaluator.EvaluateRelationQuality(ctx, "created")
		require.NoError(t, err, "Expected EvaluateRelationQuality to not return an error")
		assert.InDelta(t, 0.28, quality.Score, 1e-9)
		assert.Equal(t, 0.0, quality.Details["has_evidence"])
	})

	t.Run("Invalid call with missing element", func(t *testing.T) {
		_, err := evaluator.EvaluateEntityQuality(ctx, "missing")
		assert.ErrorIs(t, err, helper.ErrNotFound)

		_, err = evaluator.EvaluateRelationQuality(ctx, "missing")
		assert.ErrorIs(t, err, helper.ErrNotFound)
	})
}

func TestOverview(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid call Overview", func(t *testing.T) {
		evaluator := NewEvaluator(newQualityGraph(t), model.DefaultQualityWeights(), nil)

		overview, err := evaluator.Overview(ctx)
		require.NoError(t, err, "Expected Overview to not return an error")
		assert.Equal(t, 4, overview.EntityCount)
		assert.Equal(t, 2, overview.RelationCount)
		assert.Equal(t, 4, overview.EntityTypeCount)
		assert.Equal(t, 2, overview.RelationTypeCount)
		assert.Equal(t, 12, overview.MaxPossibleEdges)
		assert.InDelta(t, 0.166667, overview.Density, 1e-9)
		assert.Equal(t, 3, overview.ConnectedCount)
		assert.InDelta(t, 0.75, overview.ConnectivityRatio, 1e-9)

		require.Len(t, overview.EntityTypes, 4)
		assert.Equal(t, "Concept", overview.EntityTypes[0].Type)

		require.Len(t, overview.TopNodes, 3)
		assert.Equal(t, "acme", overview.TopNodes[0].Node.ID)
		assert.Equal(t, 2, overview.TopNodes[0].Degree)
		assert.Equal(t, "berlin", overview.TopNodes[1].Node.ID)

		require.Len(t, overview.OrphanNodes, 1)
		assert.Equal(t, "x", overview.OrphanNodes[0].ID)

		assert.Equal(t, 2, overview.Confidence.Entity[model.ConfidenceHigh])
		assert.Equal(t, 1, overview.Confidence.Entity[model.ConfidenceVeryLow])
		assert.Equal(t, 1, overview.Confidence.Relation[model.ConfidenceMedium])
	})

	t.Run("Store unavailable returns empty overview", func(t *testing.T) {
		evaluator := NewEvaluator(&unavailableDB{Graph: newQualityGraph(t)}, model.DefaultQualityWeights(), nil)

		overview, err := evaluator.Overview(ctx)
		require.NoError(t, err, "Expected Overview to degrade instead of failing")
		assert.Equal(t, 0, overview.EntityCount)
		assert.Empty(t, overview.TopNodes)
	})
}
