package evidence

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
)

// ChainDB is the store access of the evidence chain builder.
type ChainDB interface {
	SelectNode(ctx context.Context, id string) (*model.Node, error)
	SelectPaths(ctx context.Context, query model.PathQuery) ([]*model.Path, error)
}

// Builder aggregates the paths between entities into evidence chains.
type Builder struct {
	db     ChainDB
	config model.ChainConfig
	logger *slog.Logger
}

// NewBuilder creates a new evidence chain builder
func NewBuilder(db ChainDB, config model.ChainConfig, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxPaths <= 0 {
		config.MaxPaths = 10
	}
	if config.DiversitySaturation <= 0 {
		config.DiversitySaturation = 5
	}
	return &Builder{
		db:     db,
		config: config,
		logger: logger,
	}
}

// BuildChain collects up to MaxPaths paths from startID to endID, or to any
// other node if endID is empty, and scores them as one chain.
func (b *Builder) BuildChain(ctx context.Context, startID string, endID string, maxHops int, relationTypes []model.EdgeType) (*model.EvidenceChain, error) {
	if maxHops < 1 || maxHops > model.MaxPathHops {
		return nil, helper.NewError("build chain", helper.Invalid("max hops must be between 1 and %d, got %d", model.MaxPathHops, maxHops))
	}

	start, err := b.db.SelectNode(ctx, startID)
	if err != nil {
		return nil, helper.NewError("build chain", err)
	}

	chain := &model.EvidenceChain{
		ID:         uuid.New().String(),
		StartNode:  start,
		Paths:      []*model.Path{},
		SourceDocs: []string{},
		CreatedAt:  time.Now(),
	}

	if endID != "" {
		end, err := b.db.SelectNode(ctx, endID)
		if err != nil {
			if helper.IsNotFound(err) {
				b.logger.Info("End entity of evidence chain not found", slog.String("end_id", endID))
				return chain, nil
			}
			if helper.IsStoreUnavailable(err) {
				b.logger.Warn("Graph store unavailable, returning empty evidence chain", slog.String("error", err.Error()))
				return chain, nil
			}
			return nil, helper.NewError("build chain", err)
		}
		chain.EndNode = end
	}

	paths, err := b.findPaths(ctx, startID, endID, maxHops, relationTypes)
	if err != nil {
		if helper.IsStoreUnavailable(err) {
			b.logger.Warn(
				"Graph store unavailable, returning empty evidence chain",
				slog.String("start_id", startID),
				slog.String("error", err.Error()),
			)
			return chain, nil
		}
		return nil, helper.NewError("build chain", err)
	}

	chain.Paths = paths
	chain.TotalConfidence = ChainConfidence(paths, b.config)
	for _, p := range paths {
		chain.SourceDocs, _ = model.AddSourceDocs(chain.SourceDocs, p.SourceDocs()...)
	}

	b.logger.Debug(
		"Evidence chain built",
		slog.String("chain_id", chain.ID),
		slog.Int("paths", len(paths)),
		slog.Float64("confidence", chain.TotalConfidence),
	)
	return chain, nil
}

// ExtractPaths returns the candidate paths between two entities, most
// confident first.
func (b *Builder) ExtractPaths(ctx context.Context, startID string, endID string, maxHops int) ([]*model.Path, error) {
	if maxHops < 1 || maxHops > model.MaxPathHops {
		return nil, helper.NewError("extract paths", helper.Invalid("max hops must be between 1 and %d, got %d", model.MaxPathHops, maxHops))
	}
	paths, err := b.findPaths(ctx, startID, endID, maxHops, nil)
	if err != nil {
		return nil, helper.NewError("extract paths", err)
	}
	return paths, nil
}

func (b *Builder) findPaths(ctx context.Context, startID string, endID string, maxHops int, relationTypes []model.EdgeType) ([]*model.Path, error) {
	paths, err := b.db.SelectPaths(ctx, model.PathQuery{
		SourceID:      startID,
		TargetID:      endID,
		MinHops:       1,
		MaxHops:       maxHops,
		RelationTypes: relationTypes,
		Limit:         b.config.MaxPaths,
	})
	if err != nil {
		return nil, err
	}
	if len(paths) > b.config.MaxPaths {
		paths = paths[:b.config.MaxPaths]
	}

	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].Confidence > paths[j].Confidence
	})
	return paths, nil
}

// ChainConfidence is the rank weighted mean of the path confidences, paths
// given best first, scaled by a bonus for the number of corroborating paths.
func ChainConfidence(paths []*model.Path, config model.ChainConfig) float64 {
	if len(paths) == 0 {
		return 0
	}

	weightedSum, totalWeight := 0.0, 0.0
	for rank, p := range paths {
		weight := 1 / float64(rank+1)
		weightedSum += p.Confidence * weight
		totalWeight += weight
	}
	base := weightedSum / totalWeight

	diversity := math.Min(1, float64(len(paths))/float64(config.DiversitySaturation))
	confidence := base * (config.DiversityBase + config.DiversityRange*diversity)
	return math.Min(1, math.Max(0, confidence))
}

// LinkSourceDocs maps every node id and edge key (head_TYPE_tail) of the
// chain to its source documents. A non-empty docFilter keeps only the listed
// documents.
func LinkSourceDocs(chain *model.EvidenceChain, docFilter []string) map[string][]string {
	allowed := map[string]bool{}
	for _, d := range docFilter {
		allowed[d] = true
	}
	keep := func(docs []string) []string {
		if len(allowed) == 0 {
			return docs
		}
		kept := []string{}
		for _, d := range docs {
			if allowed[d] {
				kept = append(kept, d)
			}
		}
		return kept
	}

	links := map[string][]string{}
	for _, p := range chain.Paths {
		for _, n := range p.Nodes {
			links[n.ID], _ = model.AddSourceDocs(links[n.ID], keep(n.SourceDocs)...)
			if links[n.ID] == nil {
				links[n.ID] = []string{}
			}
		}
		for _, e := range p.Edges {
			key := e.HeadID + "_" + string(e.Type) + "_" + e.TailID
			links[key], _ = model.AddSourceDocs(links[key], keep(e.SourceDocs)...)
			if links[key] == nil {
				links[key] = []string{}
			}
		}
	}
	return links
}
