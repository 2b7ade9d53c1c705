package memgraph

import (
	"context"
	"testing"

	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain a-b-c-d plus a shortcut a-c and a weak edge c-e
func pathGraph(t *testing.T) *Graph {
	g := New()
	addNodes(t, g, "a", "b", "c", "d", "e")
	addEdge(t, g, "ab", "a", "b", model.EdgeTypeDependsOn, 0.9)
	addEdge(t, g, "bc", "b", "c", model.EdgeTypeDependsOn, 0.8)
	addEdge(t, g, "ac", "a", "c", model.EdgeTypeAffects, 0.6)
	addEdge(t, g, "dc", "d", "c", model.EdgeTypeDependsOn, 0.7)
	addEdge(t, g, "ce", "c", "e", model.EdgeTypeDependsOn, 0.2)
	return g
}

func TestGraphSelectPaths(t *testing.T) {
	g := pathGraph(t)
	ctx := context.Background()

	t.Run("Valid call SelectPaths between two nodes", func(t *testing.T) {
		paths, err := g.SelectPaths(ctx, model.PathQuery{SourceID: "a", TargetID: "c", MaxHops: 3, Limit: 10})
		require.NoError(t, err)
		require.Len(t, paths, 2)
		assert.Equal(t, []string{"a", "c"}, paths[0].NodeIDs())
		assert.Equal(t, []string{"a", "b", "c"}, paths[1].NodeIDs())
		assert.Equal(t, 0.6, paths[0].Confidence)
		assert.Equal(t, 0.8485, paths[1].Confidence)
		for _, p := range paths {
			assert.NoError(t, p.Validate())
		}
	})

	t.Run("Valid call SelectPaths with exact hops", func(t *testing.T) {
		paths, err := g.SelectPaths(ctx, model.PathQuery{SourceID: "a", TargetID: "d", MinHops: 3, MaxHops: 3, Limit: 10})
		require.NoError(t, err)
		require.Len(t, paths, 1)
		assert.Equal(t, []string{"a", "b", "c", "d"}, paths[0].NodeIDs())
	})

	t.Run("Valid call SelectPaths with filters", func(t *testing.T) {
		paths, err := g.SelectPaths(ctx, model.PathQuery{SourceID: "a", TargetID: "c", MaxHops: 3, RelationTypes: []model.EdgeType{model.EdgeTypeDependsOn}, Limit: 10})
		require.NoError(t, err)
		require.Len(t, paths, 1)
		assert.Equal(t, []string{"a", "b", "c"}, paths[0].NodeIDs())

		paths, err = g.SelectPaths(ctx, model.PathQuery{SourceID: "a", TargetID: "e", MaxHops: 4, MinConfidence: 0.5, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, paths)
	})

	t.Run("Valid call SelectPaths without target", func(t *testing.T) {
		paths, err := g.SelectPaths(ctx, model.PathQuery{SourceID: "a", MaxHops: 1, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, paths, 2)
	})

	t.Run("Valid call SelectPaths respects limit and unknown source", func(t *testing.T) {
		paths, err := g.SelectPaths(ctx, model.PathQuery{SourceID: "a", TargetID: "c", MaxHops: 3, Limit: 1})
		require.NoError(t, err)
		assert.Len(t, paths, 1)

		paths, err = g.SelectPaths(ctx, model.PathQuery{SourceID: "zz", TargetID: "c", MaxHops: 3})
		require.NoError(t, err)
		assert.Empty(t, paths)
	})

	t.Run("Invalid call SelectPaths with hops out of range", func(t *testing.T) {
		_, err := g.SelectPaths(ctx, model.PathQuery{SourceID: "a", TargetID: "c", MaxHops: 0})
		assert.ErrorIs(t, err, helper.ErrValidation)
		_, err = g.SelectPaths(ctx, model.PathQuery{SourceID: "a", TargetID: "c", MaxHops: 11})
		assert.ErrorIs(t, err, helper.ErrValidation)
	})
}

func TestGraphSelectReachable(t *testing.T) {
	g := pathGraph(t)
	ctx := context.Background()
	_, err := g.UpdateNode(ctx, "d", model.NodeUpdate{Properties: model.Metadata{"status": "active", "tier": 2}})
	require.NoError(t, err)

	t.Run("Valid call SelectReachable", func(t *testing.T) {
		results, err := g.SelectReachable(ctx, model.ReachQuery{StartID: "a", MaxHops: 2, Limit: 10})
		require.NoError(t, err)
		ids := []string{}
		for _, r := range results {
			ids = append(ids, r.Node.ID)
			assert.Equal(t, r.HopCount, r.Path.Length)
		}
		assert.Equal(t, []string{"b", "c", "d", "e"}, ids, "Expected ordering by hop count then name")
		assert.Equal(t, []string{"a", "c", "d"}, results[2].Path.NodeIDs(), "Expected a minimal hop path")
	})

	t.Run("Valid call SelectReachable with filters", func(t *testing.T) {
		results, err := g.SelectReachable(ctx, model.ReachQuery{StartID: "a", MaxHops: 3, PropertyFilters: model.Metadata{"status": "active", "tier": 2.0}, Limit: 10})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "d", results[0].Node.ID)

		results, err = g.SelectReachable(ctx, model.ReachQuery{StartID: "a", MaxHops: 3, EntityTypes: []model.NodeType{model.NodeTypePerson}})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Invalid call SelectReachable with bad filter", func(t *testing.T) {
		_, err := g.SelectReachable(ctx, model.ReachQuery{StartID: "a", MaxHops: 2, PropertyFilters: model.Metadata{"": "x"}})
		assert.ErrorIs(t, err, helper.ErrInvalidFilter)
	})
}
