package path

import (
	"context"
	"log/slog"
	"sort"

	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
)

// PathDB is the store access of the path service.
type PathDB interface {
	SelectNode(ctx context.Context, id string) (*model.Node, error)
	SelectNodeByName(ctx context.Context, name string, nodeType *model.NodeType) (*model.Node, error)
	SelectPaths(ctx context.Context, query model.PathQuery) ([]*model.Path, error)
}

// ShortestPathFinder runs a weighted shortest path search.
type ShortestPathFinder interface {
	ShortestPath(ctx context.Context, sourceID, targetID string, maxHops int, relationTypes []model.EdgeType, minConfidence float64) (*model.Path, error)
}

// Service answers path queries between two entities given by name or id.
type Service struct {
	db     PathDB
	finder ShortestPathFinder
	logger *slog.Logger
}

// NewService creates a new path query service
func NewService(db PathDB, finder ShortestPathFinder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:     db,
		finder: finder,
		logger: logger,
	}
}

func validateHops(hops int) error {
	if hops < 1 || hops > model.MaxPathHops {
		return helper.Invalid("hops must be between 1 and %d, got %d", model.MaxPathHops, hops)
	}
	return nil
}

func withDefaultLimit(opts model.PathOptions) model.PathOptions {
	if opts.Limit <= 0 {
		opts.Limit = model.DefaultPathOptions().Limit
	}
	return opts
}

// ResolveEndpoint looks a node up by name first and by id second.
func (s *Service) ResolveEndpoint(ctx context.Context, ref string) (*model.Node, error) {
	node, err := s.db.SelectNodeByName(ctx, ref, nil)
	if err == nil {
		return node, nil
	}
	if !helper.IsNotFound(err) {
		return nil, err
	}

	node, err = s.db.SelectNode(ctx, ref)
	if err != nil {
		if helper.IsNotFound(err) {
			return nil, helper.NotFound("entity " + ref)
		}
		return nil, err
	}
	return node, nil
}

func (s *Service) resolveEndpoints(ctx context.Context, source, target string) (*model.Node, *model.Node, error) {
	sourceNode, err := s.ResolveEndpoint(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	targetNode, err := s.ResolveEndpoint(ctx, target)
	if err != nil {
		return nil, nil, err
	}
	return sourceNode, targetNode, nil
}

// FindShortestPath returns the cheapest path between source and target. When
// the weighted search cannot reach the store the shortest enumerated path is
// returned instead.
func (s *Service) FindShortestPath(ctx context.Context, source, target string, opts model.PathOptions) (*model.Path, error) {
	if err := validateHops(opts.MaxHops); err != nil {
		return nil, helper.NewError("find shortest path", err)
	}
	opts = withDefaultLimit(opts)

	sourceNode, targetNode, err := s.resolveEndpoints(ctx, source, target)
	if err != nil {
		return nil, helper.NewError("find shortest path", err)
	}

	path, err := s.finder.ShortestPath(ctx, sourceNode.ID, targetNode.ID, opts.MaxHops, opts.RelationTypes, opts.MinConfidence)
	if err == nil {
		return path, nil
	}
	if !helper.IsStoreUnavailable(err) {
		return nil, helper.NewError("find shortest path", err)
	}

	s.logger.Warn(
		"Weighted shortest path search failed, falling back to path enumeration",
		slog.String("source_id", sourceNode.ID),
		slog.String("target_id", targetNode.ID),
		slog.String("error", err.Error()),
	)

	paths, err := s.db.SelectPaths(ctx, model.PathQuery{
		SourceID:      sourceNode.ID,
		TargetID:      targetNode.ID,
		MinHops:       1,
		MaxHops:       opts.MaxHops,
		RelationTypes: opts.RelationTypes,
		MinConfidence: opts.MinConfidence,
		Limit:         opts.Limit,
	})
	if err != nil {
		return nil, helper.NewError("find shortest path", err)
	}

	var shortest *model.Path
	for _, p := range paths {
		if shortest == nil || p.Length < shortest.Length {
			shortest = p
		}
	}
	if shortest == nil {
		return nil, helper.NewError("find shortest path", helper.ErrPathNotFound)
	}
	return shortest, nil
}

// FindAllPaths enumerates simple paths of 1 to opts.MaxHops edges, shortest
// first.
func (s *Service) FindAllPaths(ctx context.Context, source, target string, opts model.PathOptions) ([]*model.Path, error) {
	if err := validateHops(opts.MaxHops); err != nil {
		return nil, helper.NewError("find all paths", err)
	}
	paths, err := s.enumerate(ctx, source, target, 1, opts.MaxHops, withDefaultLimit(opts))
	if err != nil {
		return nil, helper.NewError("find all paths", err)
	}
	return paths, nil
}

// FindPathsWithHops enumerates simple paths with exactly exactHops edges.
func (s *Service) FindPathsWithHops(ctx context.Context, source, target string, exactHops int, opts model.PathOptions) ([]*model.Path, error) {
	if err := validateHops(exactHops); err != nil {
		return nil, helper.NewError("find paths with hops", err)
	}
	paths, err := s.enumerate(ctx, source, target, exactHops, exactHops, withDefaultLimit(opts))
	if err != nil {
		return nil, helper.NewError("find paths with hops", err)
	}
	return paths, nil
}

func (s *Service) enumerate(ctx context.Context, source, target string, minHops, maxHops int, opts model.PathOptions) ([]*model.Path, error) {
	sourceNode, targetNode, err := s.resolveEndpoints(ctx, source, target)
	if err != nil {
		return nil, err
	}

	paths, err := s.db.SelectPaths(ctx, model.PathQuery{
		SourceID:      sourceNode.ID,
		TargetID:      targetNode.ID,
		MinHops:       minHops,
		MaxHops:       maxHops,
		RelationTypes: opts.RelationTypes,
		MinConfidence: opts.MinConfidence,
		Limit:         opts.Limit,
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].Length < paths[j].Length
	})
	if len(paths) > opts.Limit {
		paths = paths[:opts.Limit]
	}
	return paths, nil
}
