package graphreason

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/memgraph"
	"github.com/siherrmann/graphreason/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts the reachability queries reaching the store.
type countingStore struct {
	*memgraph.Graph
	reachCalls atomic.Int32
}

func (c *countingStore) SelectReachable(ctx context.Context, query model.ReachQuery) ([]*model.HopResult, error) {
	c.reachCalls.Add(1)
	return c.Graph.SelectReachable(ctx, query)
}

// initReasoner builds A -[BELONGS_TO,0.9]-> B -[DEPENDS_ON,0.8]-> C on a memgraph store.
func initReasoner(t *testing.T) (*Reasoner, *countingStore) {
	ctx := context.Background()
	store := &countingStore{Graph: memgraph.New()}
	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, store.InsertNode(ctx, &model.Node{ID: id, Name: id, Type: model.NodeTypeConcept, Confidence: 0.9}))
	}
	require.NoError(t, store.InsertEdge(ctx, &model.Edge{ID: "ab", HeadID: "A", TailID: "B", Type: model.EdgeTypeBelongsTo, Confidence: 0.9}))
	require.NoError(t, store.InsertEdge(ctx, &model.Edge{ID: "bc", HeadID: "B", TailID: "C", Type: model.EdgeTypeDependsOn, Confidence: 0.8}))

	reasoner, err := NewReasonerWithStore(store, model.DefaultReasonerConfig(), helper.DiscardLogger())
	require.NoError(t, err, "Expected NewReasonerWithStore to not return an error")
	t.Cleanup(func() { _ = reasoner.Close() })
	return reasoner, store
}

func TestNewReasoner(t *testing.T) {
	t.Run("Valid call NewMemoryReasoner", func(t *testing.T) {
		reasoner, err := NewMemoryReasoner(model.DefaultReasonerConfig())
		require.NoError(t, err, "Expected NewMemoryReasoner to not return an error")
		assert.NotNil(t, reasoner.Resolver)
		assert.NotNil(t, reasoner.Traversal)
		assert.NotNil(t, reasoner.Paths)
		assert.NotNil(t, reasoner.MultiHop)
		assert.NotNil(t, reasoner.Evidence)
		assert.NotNil(t, reasoner.Quality)
		assert.Nil(t, reasoner.Indexes)
		assert.True(t, reasoner.HealthCheck(context.Background()))
		assert.NoError(t, reasoner.Close())
	})

	t.Run("Invalid call with out of range configuration", func(t *testing.T) {
		config := model.DefaultReasonerConfig()
		config.MaxHops = 11
		_, err := NewMemoryReasoner(config)
		assert.ErrorIs(t, err, helper.ErrValidation)
	})

	t.Run("Invalid call with unreachable redis", func(t *testing.T) {
		config := model.DefaultReasonerConfig()
		config.CacheBackend = "redis"
		config.RedisAddr = "127.0.0.1:1"
		_, err := NewMemoryReasoner(config)
		assert.Error(t, err, "Expected an unreachable redis to fail the construction")
	})
}

func TestReasonerScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("Breadth first traversal records hops and edges", func(t *testing.T) {
		reasoner, _ := initReasoner(t)
		opts := model.DefaultTraversalOptions()
		opts.MaxHops = 2

		result, err := reasoner.Traverse(ctx, "A", opts)
		require.NoError(t, err, "Expected Traverse to not return an error")
		require.Len(t, result.Nodes, 3)
		for i, id := range []string{"A", "B", "C"} {
			assert.Equal(t, id, result.Nodes[i].Node.ID)
			assert.Equal(t, i, result.Nodes[i].Hop)
		}
		require.Len(t, result.Edges, 2)
		assert.Equal(t, "ab", result.Edges[0].ID)
		assert.Equal(t, "bc", result.Edges[1].ID)
	})

	t.Run("Shortest path confidence is the geometric mean", func(t *testing.T) {
		reasoner, _ := initReasoner(t)

		path, err := reasoner.ShortestPath(ctx, "A", "C", model.DefaultPathOptions())
		require.NoError(t, err, "Expected ShortestPath to not return an error")
		assert.Equal(t, []string{"A", "B", "C"}, path.NodeIDs())
		assert.Equal(t, 0.8485, path.Confidence)
	})

	t.Run("Contained name without context is new", func(t *testing.T) {
		reasoner, _ := initReasoner(t)
		require.NoError(t, reasoner.Store.InsertNode(ctx, &model.Node{ID: "ali", Name: "阿里巴巴集团", Type: model.NodeTypeOrganization, Confidence: 0.9}))

		result, err := reasoner.ResolveEntity(ctx, model.ResolveRequest{Name: "阿里巴巴"})
		require.NoError(t, err, "Expected ResolveEntity to not return an error")
		require.NotEmpty(t, result.Candidates)
		assert.Equal(t, 0.95, result.Candidates[0].NameSimilarity)
		assert.Equal(t, 0.0, result.Candidates[0].ContextScore)
		assert.InDelta(t, 0.57, result.Candidates[0].FinalScore, 1e-9)
		assert.True(t, result.IsNew)
	})

	t.Run("Exact name with matching context resolves", func(t *testing.T) {
		reasoner, _ := initReasoner(t)
		require.NoError(t, reasoner.Store.InsertNode(ctx, &model.Node{ID: "ali", Name: "阿里巴巴", Type: model.NodeTypeOrganization, Confidence: 0.9, Description: "电商 公司"}))

		result, err := reasoner.ResolveEntity(ctx, model.ResolveRequest{Name: "阿里巴巴", Context: "电商 公司"})
		require.NoError(t, err, "Expected ResolveEntity to not return an error")
		assert.False(t, result.IsNew)
		assert.Equal(t, "ali", result.NodeID)
		assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	})

	t.Run("Empty graph has a poor quality report", func(t *testing.T) {
		reasoner, err := NewReasonerWithStore(memgraph.New(), model.DefaultReasonerConfig(), helper.DiscardLogger())
		require.NoError(t, err)

		report, err := reasoner.QualityReport(ctx)
		require.NoError(t, err, "Expected QualityReport to not return an error")
		assert.Equal(t, 0.0, report.Completeness.Score)
		assert.Equal(t, 0.0, report.OverallScore)
		assert.Equal(t, model.QualityLevelPoor, report.Level)
	})

	t.Run("Repeated n-hop query is served from the cache", func(t *testing.T) {
		reasoner, store := initReasoner(t)

		result, err := reasoner.NHop(ctx, "A", 2, model.MultiHopOptions{})
		require.NoError(t, err, "Expected NHop to not return an error")
		assert.False(t, result.Cached)

		var c *model.HopResult
		for _, r := range result.Results {
			if r.Node.ID == "C" {
				c = r
			}
		}
		require.NotNil(t, c, "Expected C to be reachable")
		assert.Equal(t, 2, c.HopCount)
		assert.Equal(t, int32(1), store.reachCalls.Load())

		cached, err := reasoner.NHop(ctx, "A", 2, model.MultiHopOptions{})
		require.NoError(t, err)
		assert.True(t, cached.Cached)
		assert.Equal(t, result.Total, cached.Total)
		assert.Equal(t, int32(1), store.reachCalls.Load(), "Expected no second store call")
	})
}

func TestReasonerIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("Invalid call Ingest without extractor", func(t *testing.T) {
		reasoner, _ := initReasoner(t)
		_, err := reasoner.Ingest(ctx, "doc1", "text")
		assert.ErrorIs(t, err, helper.ErrValidation)
	})

	t.Run("Valid call Ingest clears the multi-hop cache", func(t *testing.T) {
		reasoner, store := initReasoner(t)
		reasoner.SetExtractor(func(ctx context.Context, text string) ([]*model.CandidateEntity, []*model.CandidateRelation, error) {
			return []*model.CandidateEntity{
					{Name: "C", Type: model.NodeTypeConcept, Confidence: 0.9},
					{Name: "D", Type: model.NodeTypeConcept, Confidence: 0.9},
				}, []*model.CandidateRelation{
					{Head: "C", Type: model.EdgeTypeAffects, Tail: "D", Confidence: 0.9, Evidence: "C affects D"},
				}, nil
		})

		_, err := reasoner.NHop(ctx, "A", 3, model.MultiHopOptions{})
		require.NoError(t, err)

		result, err := reasoner.Ingest(ctx, "doc1", "C affects D.")
		require.NoError(t, err, "Expected Ingest to not return an error")
		assert.Equal(t, []string{"C"}, result.MergedNodes)
		assert.Len(t, result.CreatedNodes, 1)
		assert.Len(t, result.CreatedEdges, 1)

		after, err := reasoner.NHop(ctx, "A", 3, model.MultiHopOptions{})
		require.NoError(t, err)
		assert.False(t, after.Cached)
		assert.Equal(t, int32(2), store.reachCalls.Load())
		assert.Equal(t, 3, after.Total)
	})
	t.Run("Valid call IngestFile uses the filename as document id", func(t *testing.T) {
		reasoner, store := initReasoner(t)
		reasoner.SetExtractor(func(ctx context.Context, text string) ([]*model.CandidateEntity, []*model.CandidateRelation, error) {
			return []*model.CandidateEntity{{Name: "E", Type: model.NodeTypeConcept, Confidence: 0.8}}, nil, nil
		})

		filePath := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(filePath, []byte("E exists."), 0600))

		result, err := reasoner.IngestFile(ctx, filePath)
		require.NoError(t, err, "Expected IngestFile to not return an error")
		assert.Equal(t, "notes", result.DocID)
		require.Len(t, result.CreatedNodes, 1)

		node, err := store.SelectNode(ctx, result.CreatedNodes[0])
		require.NoError(t, err)
		assert.Equal(t, []string{"notes"}, node.SourceDocs)
	})

	t.Run("Invalid call IngestFile with missing file", func(t *testing.T) {
		reasoner, _ := initReasoner(t)
		reasoner.SetExtractor(func(ctx context.Context, text string) ([]*model.CandidateEntity, []*model.CandidateRelation, error) {
			return nil, nil, nil
		})
		_, err := reasoner.IngestFile(ctx, "/non/existent/file.txt")
		assert.Error(t, err, "Expected IngestFile to return an error")
	})
}
