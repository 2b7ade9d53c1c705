package quality

import (
	"context"
	"log/slog"
	"sort"

	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
)

const (
	overviewTopNodes    = 10
	overviewOrphanNodes = 100
)

// Overview collects the statistics overview of the graph.
// An unreachable store yields an empty overview.
func (e *Evaluator) Overview(ctx context.Context) (*model.GraphOverview, error) {
	overview, err := e.overview(ctx)
	if err != nil {
		if helper.IsStoreUnavailable(err) {
			e.logger.Warn("Graph store unavailable, returning empty overview", slog.String("error", err.Error()))
			return emptyOverview(), nil
		}
		return nil, helper.NewError("graph overview", err)
	}
	return overview, nil
}

func (e *Evaluator) overview(ctx context.Context) (*model.GraphOverview, error) {
	stats, err := e.db.SelectGraphStatistics(ctx, e.weights.Thresholds())
	if err != nil {
		return nil, err
	}
	connected, err := e.db.SelectConnectedCount(ctx)
	if err != nil {
		return nil, err
	}
	topNodes, err := e.db.SelectTopNodesByDegree(ctx, overviewTopNodes)
	if err != nil {
		return nil, err
	}
	orphans, err := e.db.SelectOrphanNodes(ctx, overviewOrphanNodes)
	if err != nil {
		return nil, err
	}
	distribution, err := e.db.SelectConfidenceDistribution(ctx)
	if err != nil {
		return nil, err
	}

	overview := emptyOverview()
	overview.EntityCount = stats.EntityCount
	overview.RelationCount = stats.RelationCount
	overview.EntityTypeCount = len(stats.EntityTypes)
	overview.RelationTypeCount = len(stats.RelationTypes)
	overview.ConnectedCount = connected
	overview.AvgEntityConfidence = round(stats.AvgEntityConfidence())
	overview.AvgRelationConfidence = round(stats.AvgRelationConfidence())
	overview.EntityTypes = sortedTypeCounts(stats.EntityTypes)
	overview.RelationTypes = sortedTypeCounts(stats.RelationTypes)
	overview.TopNodes = topNodes
	overview.OrphanNodes = orphans
	overview.Confidence = *distribution

	if stats.EntityCount > 1 {
		overview.MaxPossibleEdges = stats.EntityCount * (stats.EntityCount - 1)
		overview.Density = model.Round(float64(stats.RelationCount)/float64(overview.MaxPossibleEdges), 6)
	}
	if stats.EntityCount > 0 {
		overview.ConnectivityRatio = round(float64(connected) / float64(stats.EntityCount))
	}
	return overview, nil
}

func emptyOverview() *model.GraphOverview {
	return &model.GraphOverview{
		EntityTypes:   []model.TypeCount{},
		RelationTypes: []model.TypeCount{},
		TopNodes:      []*model.NodeDegree{},
		OrphanNodes:   []*model.Node{},
		Confidence: model.ConfidenceDistribution{
			Entity:   map[string]int{},
			Relation: map[string]int{},
		},
	}
}

// sortedTypeCounts orders a type distribution by count descending, then by name.
func sortedTypeCounts(counts map[string]int) []model.TypeCount {
	list := make([]model.TypeCount, 0, len(counts))
	for t, c := range counts {
		list = append(list, model.TypeCount{Type: t, Count: c})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Type < list[j].Type
	})
	return list
}
