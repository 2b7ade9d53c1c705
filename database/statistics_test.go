package database

import (
	"context"
	"testing"

	"github.com/siherrmann/graphreason/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticsSelect(t *testing.T) {
	nodesDbHandler, edgesDbHandler, _, statisticsDbHandler := initHandlers(t)
	ctx := context.Background()

	require.NoError(t, nodesDbHandler.InsertNode(ctx, &model.Node{ID: "p", Name: "Ada Lovelace", Type: model.NodeTypePerson, Confidence: 0.95, Description: "Mathematician and writer", Properties: model.Metadata{"born": 1815, "country": "UK"}}))
	require.NoError(t, nodesDbHandler.InsertNode(ctx, &model.Node{ID: "o", Name: "Analytical Society", Type: model.NodeTypeOrganization, Confidence: 0.6}))
	require.NoError(t, nodesDbHandler.InsertNode(ctx, &model.Node{ID: "x", Name: "X", Type: model.NodeTypeConcept, Confidence: 0.3}))
	insertTestEdge(t, edgesDbHandler, "po", "p", "o", model.EdgeTypeBelongsTo, 0.85)

	t.Run("Valid call SelectGraphStatistics", func(t *testing.T) {
		stats, err := statisticsDbHandler.SelectGraphStatistics(ctx, model.DefaultQualityWeights().Thresholds())
		assert.NoError(t, err, "Expected SelectGraphStatistics to not return an error")
		require.NotNil(t, stats)
		assert.Equal(t, 3, stats.EntityCount)
		assert.Equal(t, 1, stats.RelationCount)
		assert.Equal(t, 2, stats.TotalPropertyCount)
		assert.Equal(t, 1, stats.DescribedEntityCount)
		assert.Equal(t, 2, stats.ValidNameCount, "Expected the one letter name to be invalid")
		assert.InDelta(t, 1.85, stats.EntityConfidenceSum, 1e-9)
		assert.InDelta(t, 0.85, stats.RelationConfidenceSum, 1e-9)
		assert.Equal(t, 2, stats.HighConfidenceCount)
		assert.Equal(t, 1, stats.LowConfidenceCount)
		assert.Equal(t, map[string]int{"Person": 1, "Organization": 1, "Concept": 1}, stats.EntityTypes)
		assert.Equal(t, map[string]int{"BELONGS_TO": 1}, stats.RelationTypes)
	})

	t.Run("Valid call SelectNodeDegree", func(t *testing.T) {
		degree, err := statisticsDbHandler.SelectNodeDegree(ctx, "p")
		assert.NoError(t, err)
		assert.Equal(t, 1, degree)

		degree, err = statisticsDbHandler.SelectNodeDegree(ctx, "x")
		assert.NoError(t, err)
		assert.Equal(t, 0, degree)
	})

	t.Run("Valid call SelectTopNodesByDegree", func(t *testing.T) {
		top, err := statisticsDbHandler.SelectTopNodesByDegree(ctx, 10)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, "Ada Lovelace", top[0].Node.Name, "Expected ties ordered by name")
		assert.Equal(t, 1, top[0].Degree)
	})

	t.Run("Valid call SelectOrphanNodes and SelectConnectedCount", func(t *testing.T) {
		orphans, err := statisticsDbHandler.SelectOrphanNodes(ctx, 10)
		require.NoError(t, err)
		require.Len(t, orphans, 1)
		assert.Equal(t, "x", orphans[0].ID)

		connected, err := statisticsDbHandler.SelectConnectedCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, connected)
	})

	t.Run("Valid call SelectConfidenceDistribution", func(t *testing.T) {
		distribution, err := statisticsDbHandler.SelectConfidenceDistribution(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{model.ConfidenceHigh: 1, model.ConfidenceLow: 1, model.ConfidenceVeryLow: 1}, distribution.Entity)
		assert.Equal(t, map[string]int{model.ConfidenceMedium: 1}, distribution.Relation)
	})
}
