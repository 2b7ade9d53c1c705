package memgraph

import (
	"context"
	"sort"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
)

// segment is a path prefix on the enumeration stack.
type segment struct {
	nodeIDs []string
	edgeIDs []string
}

func (s *segment) last() string {
	return s.nodeIDs[len(s.nodeIDs)-1]
}

func (s *segment) contains(nodeID string) bool {
	for _, id := range s.nodeIDs {
		if id == nodeID {
			return true
		}
	}
	return false
}

func (s *segment) extend(nodeID string, edgeID string) *segment {
	nodeIDs := make([]string, len(s.nodeIDs), len(s.nodeIDs)+1)
	copy(nodeIDs, s.nodeIDs)
	edgeIDs := make([]string, len(s.edgeIDs), len(s.edgeIDs)+1)
	copy(edgeIDs, s.edgeIDs)
	return &segment{
		nodeIDs: append(nodeIDs, nodeID),
		edgeIDs: append(edgeIDs, edgeID),
	}
}

// lessSegments orders by hop count, then edge ids element wise.
func lessSegments(a *segment, b *segment) bool {
	if len(a.edgeIDs) != len(b.edgeIDs) {
		return len(a.edgeIDs) < len(b.edgeIDs)
	}
	for i := range a.edgeIDs {
		if a.edgeIDs[i] != b.edgeIDs[i] {
			return a.edgeIDs[i] < b.edgeIDs[i]
		}
	}
	return false
}

// walkSegments enumerates simple paths from sourceID with at most maxHops
// edges, every edge passing the filter, using an explicit stack of path
// segments. visit is called for every non empty segment and returns whether
// the segment may be expanded further. The read lock has to be held.
func (g *Graph) walkSegments(sourceID string, maxHops int, filter model.NeighborQuery, visit func(seg *segment) bool) {
	stack := arraystack.New()
	stack.Push(&segment{nodeIDs: []string{sourceID}})

	for !stack.Empty() {
		value, _ := stack.Pop()
		seg := value.(*segment)

		depth := len(seg.edgeIDs)
		if depth > 0 && !visit(seg) {
			continue
		}
		if depth >= maxHops {
			continue
		}

		last := seg.last()
		incident := g.adjacency[last]
		for i := len(incident) - 1; i >= 0; i-- {
			edge := g.edges[incident[i]]
			if !filter.Matches(edge) {
				continue
			}
			next := edge.Other(last)
			if seg.contains(next) {
				continue
			}
			stack.Push(seg.extend(next, edge.ID))
		}
	}
}

// toPath materializes a segment. The read lock has to be held.
func (g *Graph) toPath(seg *segment) *model.Path {
	nodes := make([]*model.Node, len(seg.nodeIDs))
	for i, id := range seg.nodeIDs {
		nodes[i] = g.nodes[id].Clone()
	}
	edges := make([]*model.Edge, len(seg.edgeIDs))
	for i, id := range seg.edgeIDs {
		edges[i] = g.edges[id].Clone()
	}
	return model.NewPath(nodes, edges)
}

// SelectPaths enumerates simple paths between source and target (or from
// source to any node if TargetID is empty) with MinHops..MaxHops edges,
// ignoring edge direction. Paths are ordered by length.
func (g *Graph) SelectPaths(ctx context.Context, query model.PathQuery) ([]*model.Path, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}
	if query.MinHops <= 0 {
		query.MinHops = 1
	}
	if query.MaxHops < 1 || query.MaxHops > model.MaxPathHops || query.MinHops > query.MaxHops {
		return nil, helper.NewError("select paths", helper.Invalid("hops must satisfy 1 <= %d <= %d <= %d", query.MinHops, query.MaxHops, model.MaxPathHops))
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[query.SourceID]; !ok {
		return []*model.Path{}, nil
	}

	filter := model.NeighborQuery{RelationTypes: query.RelationTypes, MinConfidence: query.MinConfidence}
	found := []*segment{}
	g.walkSegments(query.SourceID, query.MaxHops, filter, func(seg *segment) bool {
		depth := len(seg.edgeIDs)
		if query.TargetID == "" {
			if depth >= query.MinHops {
				found = append(found, seg)
			}
			return true
		}
		if seg.last() == query.TargetID {
			if depth >= query.MinHops {
				found = append(found, seg)
			}
			return false
		}
		return true
	})

	sort.SliceStable(found, func(i, j int) bool { return lessSegments(found[i], found[j]) })
	if query.Limit > 0 && len(found) > query.Limit {
		found = found[:query.Limit]
	}

	paths := make([]*model.Path, len(found))
	for i, seg := range found {
		paths[i] = g.toPath(seg)
	}
	return paths, nil
}

// SelectReachable returns the distinct end nodes reachable from the start
// within 1..MaxHops, each with one path of minimal hop count, ordered by hop
// count then name.
func (g *Graph) SelectReachable(ctx context.Context, query model.ReachQuery) ([]*model.HopResult, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}
	if query.MaxHops < 1 || query.MaxHops > model.MaxPathHops {
		return nil, helper.NewError("select reachable", helper.Invalid("max hops must be between 1 and %d, got %d", model.MaxPathHops, query.MaxHops))
	}
	err := query.PropertyFilters.ValidateFilters()
	if err != nil {
		return nil, helper.NewError("select reachable", err)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[query.StartID]; !ok {
		return []*model.HopResult{}, nil
	}

	filter := model.NeighborQuery{RelationTypes: query.RelationTypes, MinConfidence: query.MinConfidence}
	best := map[string]*segment{}
	g.walkSegments(query.StartID, query.MaxHops, filter, func(seg *segment) bool {
		end := g.nodes[seg.last()]
		if !model.NodeTypeAllowed(query.EntityTypes, end.Type) || !end.Properties.MatchesFilters(query.PropertyFilters) {
			return true
		}
		if current, ok := best[end.ID]; !ok || lessSegments(seg, current) {
			best[end.ID] = seg
		}
		return true
	})

	results := make([]*model.HopResult, 0, len(best))
	for id, seg := range best {
		results = append(results, &model.HopResult{
			Node:     g.nodes[id].Clone(),
			HopCount: len(seg.edgeIDs),
			Path:     g.toPath(seg),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.HopCount != b.HopCount {
			return a.HopCount < b.HopCount
		}
		if a.Node.Name != b.Node.Name {
			return a.Node.Name < b.Node.Name
		}
		return a.Node.ID < b.Node.ID
	})
	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results, nil
}
