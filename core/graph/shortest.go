package graph

import (
	"context"
	"math"

	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
)

// state is a node reached with a given number of hops.
type state struct {
	nodeID string
	hops   int
}

type stateLink struct {
	prev state
	edge *model.Edge
}

type queueEntry struct {
	state state
	cost  float64
	seq   int
}

// byCostThenSequence orders queue entries by accumulated cost and breaks
// ties by discovery order.
func byCostThenSequence(a, b interface{}) int {
	x, y := a.(*queueEntry), b.(*queueEntry)
	switch {
	case x.cost < y.cost:
		return -1
	case x.cost > y.cost:
		return 1
	case x.seq < y.seq:
		return -1
	case x.seq > y.seq:
		return 1
	}
	return 0
}

// EdgeCost is the traversal cost of an edge. Confident edges are cheap.
func (e *Engine) EdgeCost(edge *model.Edge) float64 {
	return 1 / math.Max(edge.Confidence, e.minEdgeConfidenceWeight)
}

// ShortestPath finds the cheapest path with at most maxHops edges between
// two nodes, following edges in both directions. The path carries its total
// edge cost as Weight. It returns ErrPathNotFound if the nodes exist but are
// not connected within the bound.
func (e *Engine) ShortestPath(ctx context.Context, sourceID, targetID string, maxHops int, relationTypes []model.EdgeType, minConfidence float64) (*model.Path, error) {
	if maxHops < 1 || maxHops > model.MaxPathHops {
		return nil, helper.NewError("shortest path", helper.Invalid("max hops must be between 1 and %d, got %d", model.MaxPathHops, maxHops))
	}

	source, err := e.db.SelectNode(ctx, sourceID)
	if err != nil {
		return nil, helper.NewError("shortest path", err)
	}
	target, err := e.db.SelectNode(ctx, targetID)
	if err != nil {
		return nil, helper.NewError("shortest path", err)
	}
	if source.ID == target.ID {
		return model.NewPath([]*model.Node{source}, []*model.Edge{}), nil
	}

	query := model.NeighborQuery{
		Direction:     model.DirectionBoth,
		RelationTypes: relationTypes,
		MinConfidence: minConfidence,
	}

	nodes := map[string]*model.Node{source.ID: source, target.ID: target}
	start := state{nodeID: source.ID}
	dist := map[state]float64{start: 0}
	links := map[state]stateLink{}
	// fewest hops with which a node has been settled
	settled := map[string]int{}

	queue := priorityqueue.NewWith(byCostThenSequence)
	seq := 0
	queue.Enqueue(&queueEntry{state: start})

	for !queue.Empty() {
		if err := ctx.Err(); err != nil {
			return nil, helper.NewError("shortest path", err)
		}

		v, _ := queue.Dequeue()
		current := v.(*queueEntry)
		if current.cost > dist[current.state] {
			continue
		}
		if hops, ok := settled[current.state.nodeID]; ok && hops <= current.state.hops {
			continue
		}
		settled[current.state.nodeID] = current.state.hops

		if current.state.nodeID == target.ID {
			path := buildPath(nodes, links, current.state)
			path.Weight = current.cost
			return path, nil
		}
		if current.state.hops >= maxHops {
			continue
		}

		neighbors, err := e.db.SelectNeighbors(ctx, current.state.nodeID, query)
		if err != nil {
			return nil, helper.NewError("shortest path", err)
		}
		for _, neighbor := range neighbors {
			next := state{nodeID: neighbor.Node.ID, hops: current.state.hops + 1}
			cost := current.cost + e.EdgeCost(neighbor.Edge)
			if known, ok := dist[next]; ok && known <= cost {
				continue
			}
			if _, ok := nodes[neighbor.Node.ID]; !ok {
				nodes[neighbor.Node.ID] = neighbor.Node
			}
			dist[next] = cost
			links[next] = stateLink{prev: current.state, edge: neighbor.Edge}
			seq++
			queue.Enqueue(&queueEntry{state: next, cost: cost, seq: seq})
		}
	}

	return nil, helper.NewError("shortest path", helper.ErrPathNotFound)
}

func buildPath(nodes map[string]*model.Node, links map[state]stateLink, end state) *model.Path {
	pathNodes := make([]*model.Node, end.hops+1)
	pathEdges := make([]*model.Edge, end.hops)
	current := end
	for i := end.hops; i > 0; i-- {
		link := links[current]
		pathNodes[i] = nodes[current.nodeID]
		pathEdges[i-1] = link.edge
		current = link.prev
	}
	pathNodes[0] = nodes[current.nodeID]
	return model.NewPath(pathNodes, pathEdges)
}
