package resolve

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
	"golang.org/x/sync/errgroup"
)

// NodeSearcher is the keyword search the resolver draws candidates from.
type NodeSearcher interface {
	SelectNodesBySearch(ctx context.Context, keyword string, nodeType *model.NodeType, limit int) ([]*model.Node, error)
}

// Resolver maps entity mentions to existing graph nodes.
type Resolver struct {
	db     NodeSearcher
	config model.ResolverConfig
	logger *slog.Logger
}

// NewResolver creates a resolver with the given weights and threshold.
func NewResolver(db NodeSearcher, config model.ResolverConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if config.CandidateFactor < 1 {
		config.CandidateFactor = 2
	}
	if config.DefaultLimit < 1 {
		config.DefaultLimit = 5
	}
	if config.BatchWorkers < 1 {
		config.BatchWorkers = 1
	}
	return &Resolver{
		db:     db,
		config: config,
		logger: logger,
	}
}

// Resolve scores the keyword search candidates of a mention and accepts the
// best one if its final score reaches the threshold.
func (r *Resolver) Resolve(ctx context.Context, request model.ResolveRequest) (*model.ResolveResult, error) {
	if strings.TrimSpace(request.Name) == "" {
		return nil, helper.NewError("resolve", helper.Invalid("entity name must not be empty"))
	}

	limit := request.Limit
	if limit <= 0 {
		limit = r.config.DefaultLimit
	}

	candidates := []*model.CandidateMatch{}
	keyword := Normalize(request.Name)
	if keyword != "" {
		nodes, err := r.db.SelectNodesBySearch(ctx, keyword, request.Type, limit*r.config.CandidateFactor)
		if err != nil {
			return nil, helper.NewError("resolve", err)
		}
		candidates = r.rank(request, nodes)
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	result := &model.ResolveResult{
		Name:       request.Name,
		Candidates: candidates,
	}

	if len(candidates) > 0 && candidates[0].FinalScore >= r.config.Threshold {
		best := candidates[0]
		result.NodeID = best.NodeID
		result.Type = best.Type
		result.Confidence = best.FinalScore
		result.Match = best

		r.logger.Debug(
			"Resolved entity to existing node",
			slog.String("name", request.Name),
			slog.String("node_id", best.NodeID),
			slog.Float64("score", best.FinalScore),
		)
		return result, nil
	}

	result.IsNew = true
	result.Type = model.NodeTypeConcept
	if request.Type != nil {
		result.Type = *request.Type
	}

	r.logger.Debug(
		"Resolved entity as new",
		slog.String("name", request.Name),
		slog.Int("candidates", len(candidates)),
	)
	return result, nil
}

func (r *Resolver) rank(request model.ResolveRequest, nodes []*model.Node) []*model.CandidateMatch {
	candidates := make([]*model.CandidateMatch, 0, len(nodes))
	for _, node := range nodes {
		nameSimilarity := NameSimilarity(request.Name, node.Name, r.config.ContainsScore)
		contextScore := ContextScore(request.Context, node.Description, node.Properties.StringValues())
		candidates = append(candidates, &model.CandidateMatch{
			NodeID:         node.ID,
			Name:           node.Name,
			Type:           node.Type,
			NameSimilarity: nameSimilarity,
			ContextScore:   contextScore,
			FinalScore:     r.config.NameWeight*nameSimilarity + r.config.ContextWeight*contextScore,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FinalScore > candidates[j].FinalScore
	})
	return candidates
}

// ResolveBatch resolves every request independently, requests without a
// context use sharedContext. Results keep the input order.
func (r *Resolver) ResolveBatch(ctx context.Context, requests []model.ResolveRequest, sharedContext string) ([]*model.ResolveResult, error) {
	results := make([]*model.ResolveResult, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.BatchWorkers)
	for i, request := range requests {
		i, request := i, request
		if request.Context == "" {
			request.Context = sharedContext
		}
		g.Go(func() error {
			result, err := r.Resolve(gctx, request)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, helper.NewError("resolve batch", err)
	}
	return results, nil
}

// ResolutionAccuracy is the share of results whose node id equals the
// expected id of their name. Names missing from groundTruth are ignored.
func ResolutionAccuracy(results []*model.ResolveResult, groundTruth map[string]string) float64 {
	if len(results) == 0 || len(groundTruth) == 0 {
		return 0
	}
	correct, total := 0, 0
	for _, result := range results {
		expected, ok := groundTruth[result.Name]
		if !ok || expected == "" {
			continue
		}
		total++
		if result.NodeID == expected {
			correct++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}
