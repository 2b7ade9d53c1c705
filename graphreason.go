package graphreason

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/siherrmann/graphreason/core/evidence"
	"github.com/siherrmann/graphreason/core/graph"
	"github.com/siherrmann/graphreason/core/multihop"
	"github.com/siherrmann/graphreason/core/path"
	"github.com/siherrmann/graphreason/core/pipeline"
	"github.com/siherrmann/graphreason/core/quality"
	"github.com/siherrmann/graphreason/core/resolve"
	"github.com/siherrmann/graphreason/database"
	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/memgraph"
	"github.com/siherrmann/graphreason/model"
)

// Store is the full repository contract of the reasoning services. Both the
// Postgres repository and the in-process memgraph implement it.
type Store interface {
	graph.GraphDB
	resolve.NodeSearcher
	path.PathDB
	multihop.ReachDB
	evidence.ChainDB
	quality.StatisticsDB
	pipeline.GraphStore
	DeleteNode(ctx context.Context, id string) error
	DeleteEdge(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) bool
}

// Reasoner provides a unified interface to all reasoning services
type Reasoner struct {
	Config    model.ReasonerConfig
	Store     Store
	Resolver  *resolve.Resolver
	Traversal *graph.Engine
	Paths     *path.Service
	MultiHop  *multihop.Service
	Evidence  *evidence.Builder
	Quality   *quality.Evaluator
	Pipeline  *pipeline.Pipeline      // Optional, set with SetExtractor
	Indexes   *database.IndexManager // Postgres only
	// Resources
	db    *helper.Database
	redis *redis.Client
	// Logging
	log *slog.Logger
}

// NewReasoner creates a reasoner on the Postgres graph store. The tables,
// functions and managed indexes are created if missing.
func NewReasoner(dbConfig *helper.DatabaseConfiguration, config model.ReasonerConfig) (*Reasoner, error) {
	if err := config.Validate(); err != nil {
		return nil, helper.NewError("reasoner configuration", err)
	}
	logger := helper.NewLogger(os.Stdout, slog.LevelInfo)

	db := helper.NewDatabase("graphreason", dbConfig, logger)
	gateway, err := database.NewGateway(db)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("create gateway", err)
	}

	repository, err := database.NewRepository(gateway, false)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	indexes, err := database.NewIndexManager(gateway)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("create index manager", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	err = indexes.EnsureIndexes(ctx)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("ensure indexes", err)
	}

	r, err := newReasoner(repository, config, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	r.db = db
	r.Indexes = indexes
	return r, nil
}

// NewMemoryReasoner creates a reasoner on an empty in-process graph.
func NewMemoryReasoner(config model.ReasonerConfig) (*Reasoner, error) {
	if err := config.Validate(); err != nil {
		return nil, helper.NewError("reasoner configuration", err)
	}
	return newReasoner(memgraph.New(), config, helper.NewLogger(os.Stdout, slog.LevelInfo))
}

// NewReasonerWithStore creates a reasoner on any store implementation.
func NewReasonerWithStore(store Store, config model.ReasonerConfig, logger *slog.Logger) (*Reasoner, error) {
	if err := config.Validate(); err != nil {
		return nil, helper.NewError("reasoner configuration", err)
	}
	if logger == nil {
		logger = helper.NewLogger(os.Stdout, slog.LevelInfo)
	}
	return newReasoner(store, config, logger)
}

func newReasoner(store Store, config model.ReasonerConfig, logger *slog.Logger) (*Reasoner, error) {
	cache, client, err := newCache(config)
	if err != nil {
		return nil, err
	}

	engine := graph.NewEngine(store, logger, config.MinEdgeConfidenceWeight)
	resolver := resolve.NewResolver(store, config.Resolver, logger)

	logger.Info(
		"Initialized Reasoner",
		slog.String("cache_backend", config.CacheBackend),
		slog.Int("max_hops", config.MaxHops),
	)

	return &Reasoner{
		Config:    config,
		Store:     store,
		Resolver:  resolver,
		Traversal: engine,
		Paths:     path.NewService(store, engine, logger),
		MultiHop:  multihop.NewService(store, cache, config.CacheTTL, config.DefaultLimit, logger),
		Evidence:  evidence.NewBuilder(store, config.Chain, logger),
		Quality:   quality.NewEvaluator(store, config.Quality, logger),
		redis:     client,
		log:       logger,
	}, nil
}

// newCache creates the multi-hop result cache of the configured backend.
func newCache(config model.ReasonerConfig) (multihop.Cache, *redis.Client, error) {
	if config.CacheBackend != "redis" {
		return multihop.NewMemoryCache(config.CacheTTL), nil, nil
	}

	client := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, helper.NewError("connect redis cache", err)
	}
	return multihop.NewRedisCache(client), client, nil
}

// Close releases the database connection and the redis client
func (r *Reasoner) Close() error {
	var err error
	if r.redis != nil {
		err = r.redis.Close()
	}
	if r.db != nil {
		if dbErr := r.db.Close(); dbErr != nil {
			err = dbErr
		}
	}
	return err
}

// HealthCheck reports whether the graph store answers.
func (r *Reasoner) HealthCheck(ctx context.Context) bool {
	return r.Store.HealthCheck(ctx)
}

// SetExtractor sets up the ingestion pipeline with the given extraction function
func (r *Reasoner) SetExtractor(extractor pipeline.GraphExtractFunc) {
	r.Pipeline = pipeline.NewPipeline(r.Store, r.Resolver, extractor, pipeline.ConfigFromReasoner(r.Config), r.log)
}

// Ingest extracts a document into the graph. Cached multi-hop results are
// dropped afterwards since they may be stale.
func (r *Reasoner) Ingest(ctx context.Context, docID string, text string) (*model.IngestResult, error) {
	if r.Pipeline == nil {
		return nil, helper.NewError("ingest", helper.Invalid("no extractor set, use SetExtractor() first"))
	}

	result, err := r.Pipeline.Ingest(ctx, docID, text)
	if result != nil && len(result.CreatedNodes)+len(result.MergedNodes)+len(result.CreatedEdges)+len(result.MergedEdges) > 0 {
		if clearErr := r.MultiHop.ClearCache(ctx); clearErr != nil {
			r.log.Warn("Error clearing multi-hop cache", slog.String("error", clearErr.Error()))
		}
	}
	return result, err
}

// IngestFile reads a file and ingests it with the filename as document id.
func (r *Reasoner) IngestFile(ctx context.Context, filePath string) (*model.IngestResult, error) {
	doc, err := model.NewDocumentFromFile(filePath, nil)
	if err != nil {
		return nil, helper.NewError("read document", err)
	}
	return r.Ingest(ctx, doc.ID, doc.Content)
}

// ResolveEntity maps a mention to an existing node or marks it as new.
func (r *Reasoner) ResolveEntity(ctx context.Context, request model.ResolveRequest) (*model.ResolveResult, error) {
	return r.Resolver.Resolve(ctx, request)
}

// Traverse runs a breadth first traversal from a node.
func (r *Reasoner) Traverse(ctx context.Context, startID string, opts model.TraversalOptions) (*model.TraversalResult, error) {
	return r.Traversal.BFS(ctx, startID, opts)
}

// ShortestPath finds the most confident shortest path between two entities
// given by name or id.
func (r *Reasoner) ShortestPath(ctx context.Context, source, target string, opts model.PathOptions) (*model.Path, error) {
	return r.Paths.FindShortestPath(ctx, source, target, opts)
}

// AllPaths enumerates the paths between two entities given by name or id.
func (r *Reasoner) AllPaths(ctx context.Context, source, target string, opts model.PathOptions) ([]*model.Path, error) {
	return r.Paths.FindAllPaths(ctx, source, target, opts)
}

// NHop returns the entities reachable in up to n hops.
func (r *Reasoner) NHop(ctx context.Context, startID string, n int, opts model.MultiHopOptions) (*model.MultiHopResult, error) {
	return r.MultiHop.QueryNHop(ctx, startID, n, opts)
}

// EvidenceChain aggregates the paths between two nodes into an evidence chain.
func (r *Reasoner) EvidenceChain(ctx context.Context, startID, endID string, maxHops int, relationTypes []model.EdgeType) (*model.EvidenceChain, error) {
	return r.Evidence.BuildChain(ctx, startID, endID, maxHops, relationTypes)
}

// QualityReport scores the current graph.
func (r *Reasoner) QualityReport(ctx context.Context) (*model.QualityReport, error) {
	return r.Quality.GenerateReport(ctx)
}
