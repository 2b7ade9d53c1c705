package memgraph

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/siherrmann/graphreason/model"
)

// SelectGraphStatistics computes the aggregates of the quality report.
func (g *Graph) SelectGraphStatistics(ctx context.Context, thresholds model.StatisticsThresholds) (*model.GraphStatistics, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	stats := &model.GraphStatistics{
		EntityCount:   len(g.nodes),
		RelationCount: len(g.edges),
		EntityTypes:   map[string]int{},
		RelationTypes: map[string]int{},
	}

	for _, node := range g.nodes {
		stats.TotalPropertyCount += len(node.Properties)
		if utf8.RuneCountInString(node.Description) > thresholds.MinDescriptionLength {
			stats.DescribedEntityCount++
		}
		nameLength := utf8.RuneCountInString(node.Name)
		if nameLength >= thresholds.MinNameLength && nameLength <= thresholds.MaxNameLength {
			stats.ValidNameCount++
		}
		stats.EntityConfidenceSum += node.Confidence
		countConfidence(stats, node.Confidence, thresholds)
		stats.EntityTypes[string(node.Type)]++
	}

	for _, edge := range g.edges {
		stats.RelationConfidenceSum += edge.Confidence
		countConfidence(stats, edge.Confidence, thresholds)
		stats.RelationTypes[string(edge.Type)]++
	}

	return stats, nil
}

func countConfidence(stats *model.GraphStatistics, confidence float64, thresholds model.StatisticsThresholds) {
	if confidence >= thresholds.HighConfidence {
		stats.HighConfidenceCount++
	}
	if confidence < thresholds.LowConfidence {
		stats.LowConfidenceCount++
	}
}

// SelectNodeDegree returns the number of edges incident to a node.
func (g *Graph) SelectNodeDegree(ctx context.Context, id string) (int, error) {
	if err := g.checkContext(ctx); err != nil {
		return 0, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.adjacency[id]), nil
}

// SelectTopNodesByDegree returns the best connected nodes, ties by name.
func (g *Graph) SelectTopNodesByDegree(ctx context.Context, limit int) ([]*model.NodeDegree, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	degrees := []*model.NodeDegree{}
	for id, incident := range g.adjacency {
		if len(incident) == 0 {
			continue
		}
		degrees = append(degrees, &model.NodeDegree{Node: g.nodes[id].Clone(), Degree: len(incident)})
	}

	sort.SliceStable(degrees, func(i, j int) bool {
		a, b := degrees[i], degrees[j]
		if a.Degree != b.Degree {
			return a.Degree > b.Degree
		}
		if a.Node.Name != b.Node.Name {
			return a.Node.Name < b.Node.Name
		}
		return a.Node.ID < b.Node.ID
	})
	if limit > 0 && len(degrees) > limit {
		degrees = degrees[:limit]
	}
	return degrees, nil
}

// SelectOrphanNodes returns nodes without any incident edge.
func (g *Graph) SelectOrphanNodes(ctx context.Context, limit int) ([]*model.Node, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	orphans := []*model.Node{}
	for id, node := range g.nodes {
		if len(g.adjacency[id]) == 0 {
			orphans = append(orphans, node)
		}
	}
	sortNodesByName(orphans)
	if limit > 0 && len(orphans) > limit {
		orphans = orphans[:limit]
	}
	return cloneNodes(orphans), nil
}

// SelectConnectedCount returns the number of nodes with at least one edge.
func (g *Graph) SelectConnectedCount(ctx context.Context) (int, error) {
	if err := g.checkContext(ctx); err != nil {
		return 0, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	connected := 0
	for id := range g.nodes {
		if len(g.adjacency[id]) > 0 {
			connected++
		}
	}
	return connected, nil
}

// SelectConfidenceDistribution counts nodes and edges per confidence bucket.
func (g *Graph) SelectConfidenceDistribution(ctx context.Context) (*model.ConfidenceDistribution, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	distribution := &model.ConfidenceDistribution{
		Entity:   map[string]int{},
		Relation: map[string]int{},
	}
	for _, node := range g.nodes {
		distribution.Entity[model.ConfidenceBucketOf(node.Confidence)]++
	}
	for _, edge := range g.edges {
		distribution.Relation[model.ConfidenceBucketOf(edge.Confidence)]++
	}
	return distribution, nil
}
