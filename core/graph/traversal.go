package graph

import (
	"context"
	"log/slog"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
)

// GraphDB defines the store operations the traversal engine needs.
type GraphDB interface {
	SelectNode(ctx context.Context, id string) (*model.Node, error)
	SelectNeighbors(ctx context.Context, nodeID string, query model.NeighborQuery) ([]*model.Neighbor, error)
}

// Engine runs bounded traversals and weighted shortest path searches.
type Engine struct {
	db                      GraphDB
	logger                  *slog.Logger
	minEdgeConfidenceWeight float64
}

// NewEngine creates a traversal engine. minEdgeConfidenceWeight is the
// confidence floor used for shortest path edge costs.
func NewEngine(db GraphDB, logger *slog.Logger, minEdgeConfidenceWeight float64) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if minEdgeConfidenceWeight <= 0 {
		minEdgeConfidenceWeight = 0.1
	}
	return &Engine{
		db:                      db,
		logger:                  logger,
		minEdgeConfidenceWeight: minEdgeConfidenceWeight,
	}
}

// frontierItem is a node waiting on the BFS queue or DFS stack.
type frontierItem struct {
	node  *model.Node
	hop   int
	nodes []*model.Node // path from the start, including node
	edges []*model.Edge
}

func (f *frontierItem) extend(neighbor *model.Neighbor) *frontierItem {
	nodes := make([]*model.Node, len(f.nodes), len(f.nodes)+1)
	copy(nodes, f.nodes)
	edges := make([]*model.Edge, len(f.edges), len(f.edges)+1)
	copy(edges, f.edges)
	return &frontierItem{
		node:  neighbor.Node,
		hop:   f.hop + 1,
		nodes: append(nodes, neighbor.Node),
		edges: append(edges, neighbor.Edge),
	}
}

// frontier abstracts the BFS queue and the DFS stack.
type frontier interface {
	push(item *frontierItem)
	pop() (*frontierItem, bool)
	// pushAll pushes the items so that they are popped in the given order.
	pushAll(items []*frontierItem)
}

type fifo struct{ q *linkedlistqueue.Queue }

func (f fifo) push(item *frontierItem) { f.q.Enqueue(item) }

func (f fifo) pop() (*frontierItem, bool) {
	v, ok := f.q.Dequeue()
	if !ok {
		return nil, false
	}
	return v.(*frontierItem), true
}

func (f fifo) pushAll(items []*frontierItem) {
	for _, item := range items {
		f.q.Enqueue(item)
	}
}

type lifo struct{ s *arraystack.Stack }

func (l lifo) push(item *frontierItem) { l.s.Push(item) }

func (l lifo) pop() (*frontierItem, bool) {
	v, ok := l.s.Pop()
	if !ok {
		return nil, false
	}
	return v.(*frontierItem), true
}

func (l lifo) pushAll(items []*frontierItem) {
	for i := len(items) - 1; i >= 0; i-- {
		l.s.Push(items[i])
	}
}

// BFS performs a breadth-first traversal from startID.
func (e *Engine) BFS(ctx context.Context, startID string, opts model.TraversalOptions) (*model.TraversalResult, error) {
	return e.traverse(ctx, "bfs", startID, opts, fifo{q: linkedlistqueue.New()})
}

// DFS performs a depth-first traversal from startID. Neighbors are visited in
// store order.
func (e *Engine) DFS(ctx context.Context, startID string, opts model.TraversalOptions) (*model.TraversalResult, error) {
	return e.traverse(ctx, "dfs", startID, opts, lifo{s: arraystack.New()})
}

func normalizeTraversalOptions(opts model.TraversalOptions) (model.TraversalOptions, error) {
	if opts.MaxHops < 0 || opts.MaxHops > model.MaxPathHops {
		return opts, helper.Invalid("max hops must be between 0 and %d, got %d", model.MaxPathHops, opts.MaxHops)
	}
	if opts.Limit <= 0 {
		opts.Limit = model.DefaultTraversalOptions().Limit
	}
	if opts.Direction == "" {
		opts.Direction = model.DirectionBoth
	}
	if !opts.Direction.Valid() {
		return opts, helper.Invalid("unknown direction %q", opts.Direction)
	}
	return opts, nil
}

// traverse visits nodes in frontier order. A node is marked visited when it
// is taken from the frontier. Nodes failing the entity type filter are
// expanded but not reported. An edge is reported only if both endpoints are
// in the reported nodes. If the context ends mid-traversal the nodes and
// edges collected so far are returned together with the context error.
func (e *Engine) traverse(ctx context.Context, operation string, startID string, opts model.TraversalOptions, f frontier) (*model.TraversalResult, error) {
	opts, err := normalizeTraversalOptions(opts)
	if err != nil {
		return nil, helper.NewError(operation, err)
	}

	start, err := e.db.SelectNode(ctx, startID)
	if err != nil {
		return nil, helper.NewError(operation, err)
	}

	result := &model.TraversalResult{
		StartID: startID,
		Nodes:   []*model.VisitedNode{},
		Edges:   []*model.Edge{},
	}

	visited := map[string]bool{}
	emitted := map[string]bool{}
	var stopErr error
	discovered := []*model.Edge{}
	seenEdges := map[string]bool{}
	query := model.NeighborQuery{
		Direction:     opts.Direction,
		RelationTypes: opts.RelationTypes,
		MinConfidence: opts.MinConfidence,
	}

	f.push(&frontierItem{node: start, hop: 0, nodes: []*model.Node{start}})

	for {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}

		current, ok := f.pop()
		if !ok {
			break
		}
		if visited[current.node.ID] {
			continue
		}
		visited[current.node.ID] = true

		if model.NodeTypeAllowed(opts.EntityTypes, current.node.Type) {
			result.Nodes = append(result.Nodes, &model.VisitedNode{Node: current.node, Hop: current.hop})
			emitted[current.node.ID] = true
			if opts.ReturnPaths && current.hop > 0 {
				result.Paths = append(result.Paths, model.NewPath(current.nodes, current.edges))
			}
			if len(result.Nodes) >= opts.Limit {
				break
			}
		}

		if current.hop >= opts.MaxHops {
			continue
		}

		neighbors, err := e.db.SelectNeighbors(ctx, current.node.ID, query)
		if err != nil {
			e.logger.Warn(
				"Abandoning expansion after neighbor lookup failed",
				slog.String("operation", operation),
				slog.String("node_id", current.node.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		next := []*frontierItem{}
		for _, neighbor := range neighbors {
			if visited[neighbor.Node.ID] {
				continue
			}
			if !seenEdges[neighbor.Edge.ID] {
				seenEdges[neighbor.Edge.ID] = true
				discovered = append(discovered, neighbor.Edge)
			}
			next = append(next, current.extend(neighbor))
		}
		f.pushAll(next)
	}

	for _, edge := range discovered {
		if emitted[edge.HeadID] && emitted[edge.TailID] {
			result.Edges = append(result.Edges, edge)
		}
	}

	if stopErr != nil {
		return result, helper.NewError(operation, stopErr)
	}
	return result, nil
}

// GetNeighbors returns the one-hop neighbors of a node.
func (e *Engine) GetNeighbors(ctx context.Context, nodeID string, query model.NeighborQuery) ([]*model.Neighbor, error) {
	if query.Direction == "" {
		query.Direction = model.DirectionBoth
	}
	if !query.Direction.Valid() {
		return nil, helper.NewError("get neighbors", helper.Invalid("unknown direction %q", query.Direction))
	}

	_, err := e.db.SelectNode(ctx, nodeID)
	if err != nil {
		return nil, helper.NewError("get neighbors", err)
	}

	neighbors, err := e.db.SelectNeighbors(ctx, nodeID, query)
	if err != nil {
		return nil, helper.NewError("get neighbors", err)
	}
	return neighbors, nil
}
