package multihop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/memgraph"
	"github.com/siherrmann/graphreason/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingDB counts store calls and optionally fails them.
type countingDB struct {
	*memgraph.Graph
	calls atomic.Int32
	err   error
}

func (c *countingDB) SelectReachable(ctx context.Context, query model.ReachQuery) ([]*model.HopResult, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.Graph.SelectReachable(ctx, query)
}

// newTestGraph builds the chain a-b-c-d-e and a weak edge a-x to a node with
// properties.
func newTestGraph(t *testing.T) *memgraph.Graph {
	g := memgraph.New()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, g.InsertNode(ctx, &model.Node{ID: id, Name: id, Type: model.NodeTypeConcept, Confidence: 0.9}))
	}
	require.NoError(t, g.InsertNode(ctx, &model.Node{ID: "x", Name: "x", Type: model.NodeTypeEvent, Confidence: 0.9, Properties: model.Metadata{"status": "active"}}))
	for _, edge := range []*model.Edge{
		{ID: "ab", HeadID: "a", TailID: "b", Type: model.EdgeTypeDependsOn, Confidence: 0.9},
		{ID: "bc", HeadID: "b", TailID: "c", Type: model.EdgeTypeDependsOn, Confidence: 0.8},
		{ID: "cd", HeadID: "c", TailID: "d", Type: model.EdgeTypeDependsOn, Confidence: 0.7},
		{ID: "de", HeadID: "d", TailID: "e", Type: model.EdgeTypeDependsOn, Confidence: 0.9},
		{ID: "ax", HeadID: "a", TailID: "x", Type: model.EdgeTypeAffects, Confidence: 0.3},
	} {
		require.NoError(t, g.InsertEdge(ctx, edge))
	}
	return g
}

func resultIDs(result *model.MultiHopResult) []string {
	ids := []string{}
	for _, r := range result.Results {
		ids = append(ids, r.Node.ID)
	}
	return ids
}

func TestQueryNHop(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid call QueryNHop", func(t *testing.T) {
		service := NewService(newTestGraph(t), nil, time.Minute, 100, nil)

		result, err := service.QueryNHop(ctx, "a", 2, model.MultiHopOptions{})
		require.NoError(t, err, "Expected QueryNHop to not return an error")
		assert.Equal(t, []string{"b", "x", "c"}, resultIDs(result), "Expected ordering by hop count then name")
		assert.Equal(t, 3, result.Total)
		assert.False(t, result.Cached)
		for _, r := range result.Results {
			assert.Equal(t, r.HopCount, r.Path.Length)
			assert.NoError(t, r.Path.Validate())
		}

		result, err = service.QueryNHop(ctx, "a", 4, model.MultiHopOptions{})
		require.NoError(t, err, "Expected QueryNHop to not return an error")
		assert.Equal(t, []string{"b", "x", "c", "d", "e"}, resultIDs(result))
	})

	t.Run("QueryNHop with filters and limit", func(t *testing.T) {
		service := NewService(newTestGraph(t), nil, time.Minute, 100, nil)

		result, err := service.QueryNHop(ctx, "a", 3, model.MultiHopOptions{MinConfidence: 0.5})
		require.NoError(t, err, "Expected QueryNHop to not return an error")
		assert.Equal(t, []string{"b", "c", "d"}, resultIDs(result))

		result, err = service.QueryNHop(ctx, "a", 3, model.MultiHopOptions{EntityTypes: []model.NodeType{model.NodeTypeEvent}})
		require.NoError(t, err, "Expected QueryNHop to not return an error")
		assert.Equal(t, []string{"x"}, resultIDs(result))

		result, err = service.QueryNHop(ctx, "a", 3, model.MultiHopOptions{Limit: 1})
		require.NoError(t, err, "Expected QueryNHop to not return an error")
		assert.Equal(t, []string{"b"}, resultIDs(result))
	})

	t.Run("Results are cached", func(t *testing.T) {
		db := &countingDB{Graph: newTestGraph(t)}
		service := NewService(db, NewMemoryCache(time.Minute), time.Minute, 100, nil)
		opts := model.MultiHopOptions{RelationTypes: []model.EdgeType{model.EdgeTypeDependsOn, model.EdgeTypeAffects}}

		first, err := service.QueryNHop(ctx, "a", 2, opts)
		require.NoError(t, err, "Expected QueryNHop to not return an error")
		opts.RelationTypes = []model.EdgeType{model.EdgeTypeAffects, model.EdgeTypeDependsOn}
		second, err := service.QueryNHop(ctx, "a", 2, opts)
		require.NoError(t, err, "Expected QueryNHop to not return an error")

		assert.Equal(t, int32(1), db.calls.Load())
		assert.True(t, second.Cached)
		assert.Equal(t, resultIDs(first), resultIDs(second))

		_, err = service.QueryNHop(ctx, "a", 3, opts)
		require.NoError(t, err)
		assert.Equal(t, int32(2), db.calls.Load(), "Expected another hop count to miss the cache")

		require.NoError(t, service.ClearCache(ctx), "Expected ClearCache to not return an error")
		_, err = service.QueryNHop(ctx, "a", 2, opts)
		require.NoError(t, err)
		assert.Equal(t, int32(3), db.calls.Load())
	})

	t.Run("Mutating a result does not change the cached one", func(t *testing.T) {
		db := &countingDB{Graph: newTestGraph(t)}
		service := NewService(db, NewMemoryCache(time.Minute), time.Minute, 100, nil)

		first, err := service.QueryNHop(ctx, "a", 2, model.MultiHopOptions{})
		require.NoError(t, err, "Expected QueryNHop to not return an error")
		first.Results[0].Node.Name = "renamed"
		first.Results[0].Path.Nodes[0].Name = "renamed"

		second, err := service.QueryNHop(ctx, "a", 2, model.MultiHopOptions{})
		require.NoError(t, err, "Expected QueryNHop to not return an error")
		assert.True(t, second.Cached)
		assert.Equal(t, int32(1), db.calls.Load())
		assert.Equal(t, "b", second.Results[0].Node.Name)
		assert.Equal(t, "a", second.Results[0].Path.Nodes[0].Name)
	})

	t.Run("Store unavailable degrades to an empty result", func(t *testing.T) {
		db := &countingDB{Graph: newTestGraph(t), err: helper.NewError("select reachable", helper.ErrStoreUnavailable)}
		service := NewService(db, nil, time.Minute, 100, nil)

		result, err := service.QueryNHop(ctx, "a", 2, model.MultiHopOptions{})
		require.NoError(t, err, "Expected QueryNHop to not return an error")
		assert.Empty(t, result.Results)
		assert.Equal(t, 0, result.Total)

		_, err = service.QueryNHop(ctx, "a", 2, model.MultiHopOptions{})
		require.NoError(t, err)
		assert.Equal(t, int32(2), db.calls.Load(), "Expected empty results to not be cached")
	})

	t.Run("Unknown start node", func(t *testing.T) {
		service := NewService(newTestGraph(t), nil, time.Minute, 100, nil)
		result, err := service.QueryNHop(ctx, "missing", 2, model.MultiHopOptions{})
		require.NoError(t, err, "Expected QueryNHop to not return an error")
		assert.Empty(t, result.Results)
	})

	t.Run("Invalid call QueryNHop", func(t *testing.T) {
		service := NewService(newTestGraph(t), nil, time.Minute, 100, nil)
		_, err := service.QueryNHop(ctx, "a", 1, model.MultiHopOptions{})
		assert.ErrorIs(t, err, helper.ErrValidation)
		_, err = service.QueryNHop(ctx, "a", 5, model.MultiHopOptions{})
		assert.ErrorIs(t, err, helper.ErrValidation)
	})
}

func TestQueryWithFilters(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid call QueryWithFilters", func(t *testing.T) {
		service := NewService(newTestGraph(t), nil, time.Minute, 100, nil)

		result, err := service.QueryWithFilters(ctx, "a", 3, model.MultiHopOptions{}, model.Metadata{"status": "active"})
		require.NoError(t, err, "Expected QueryWithFilters to not return an error")
		assert.Equal(t, []string{"x"}, resultIDs(result))

		result, err = service.QueryWithFilters(ctx, "a", 1, model.MultiHopOptions{}, nil)
		require.NoError(t, err, "Expected QueryWithFilters to not return an error")
		assert.Equal(t, []string{"b", "x"}, resultIDs(result))
	})

	t.Run("Filters are part of the cache key", func(t *testing.T) {
		db := &countingDB{Graph: newTestGraph(t)}
		service := NewService(db, nil, time.Minute, 100, nil)

		_, err := service.QueryWithFilters(ctx, "a", 3, model.MultiHopOptions{}, model.Metadata{"status": "active"})
		require.NoError(t, err)
		result, err := service.QueryWithFilters(ctx, "a", 3, model.MultiHopOptions{}, model.Metadata{"status": "inactive"})
		require.NoError(t, err)
		assert.Empty(t, result.Results)
		assert.Equal(t, int32(2), db.calls.Load())
	})

	t.Run("Invalid filters are never swallowed", func(t *testing.T) {
		db := &countingDB{Graph: newTestGraph(t)}
		service := NewService(db, nil, time.Minute, 100, nil)

		_, err := service.QueryWithFilters(ctx, "a", 2, model.MultiHopOptions{}, model.Metadata{"": "x"})
		assert.ErrorIs(t, err, helper.ErrInvalidFilter)
		_, err = service.QueryWithFilters(ctx, "a", 2, model.MultiHopOptions{}, model.Metadata{"tags": []string{"x"}})
		assert.ErrorIs(t, err, helper.ErrInvalidFilter)
		assert.Equal(t, int32(0), db.calls.Load())
	})

	t.Run("Invalid call QueryWithFilters", func(t *testing.T) {
		service := NewService(newTestGraph(t), nil, time.Minute, 100, nil)
		_, err := service.QueryWithFilters(ctx, "a", 0, model.MultiHopOptions{}, nil)
		assert.ErrorIs(t, err, helper.ErrValidation)
		_, err = service.QueryWithFilters(ctx, "a", 5, model.MultiHopOptions{}, nil)
		assert.ErrorIs(t, err, helper.ErrValidation)
	})
}

func TestQueryNHopWithRedisCache(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedisClient(t)
	db := &countingDB{Graph: newTestGraph(t)}
	service := NewService(db, NewRedisCache(client), time.Minute, 100, nil)

	first, err := service.QueryNHop(ctx, "a", 2, model.MultiHopOptions{})
	require.NoError(t, err, "Expected QueryNHop to not return an error")
	second, err := service.QueryNHop(ctx, "a", 2, model.MultiHopOptions{})
	require.NoError(t, err, "Expected QueryNHop to not return an error")

	assert.True(t, second.Cached)
	assert.Equal(t, resultIDs(first), resultIDs(second))
	assert.Equal(t, int32(1), db.calls.Load())

	mr.FastForward(2 * time.Minute)
	_, err = service.QueryNHop(ctx, "a", 2, model.MultiHopOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), db.calls.Load(), "Expected the expired entry to be recomputed")
}
