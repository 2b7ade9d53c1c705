// Package memgraph is an in-process graph store implementing the repository
// contracts of the database package. It backs the in-memory reasoner and the
// tests of all reasoning services.
package memgraph

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
)

// Graph is a thread safe in-memory property graph.
type Graph struct {
	mu sync.RWMutex

	nodes     map[string]*model.Node
	edges     map[string]*model.Edge
	adjacency map[string][]string // node id -> incident edge ids in insertion order
	sequence  map[string]uint64   // insertion order of nodes and edges
	next      uint64
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:     map[string]*model.Node{},
		edges:     map[string]*model.Edge{},
		adjacency: map[string][]string{},
		sequence:  map[string]uint64{},
	}
}

// HealthCheck always reports a healthy store unless the context is done.
func (g *Graph) HealthCheck(ctx context.Context) bool {
	return ctx.Err() == nil
}

func (g *Graph) checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return helper.NewError("graph store", err)
	}
	return nil
}

func (g *Graph) stamp(id string) {
	g.next++
	g.sequence[id] = g.next
}

// InsertNode stores a copy of node. A missing id is generated.
func (g *Graph) InsertNode(ctx context.Context, node *model.Node) error {
	if err := g.checkContext(ctx); err != nil {
		return err
	}
	if node == nil || strings.TrimSpace(node.Name) == "" {
		return helper.NewError("insert node", helper.Invalid("node name is required"))
	}
	if node.Confidence < 0 || node.Confidence > 1 {
		return helper.NewError("insert node", helper.Invalid("confidence %v out of range [0,1]", node.Confidence))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	if _, ok := g.nodes[node.ID]; ok {
		return helper.NewError("insert node", helper.Invalid("node %s already exists", node.ID))
	}
	if node.Type == "" {
		node.Type = model.NodeTypeConcept
	}
	if node.Properties == nil {
		node.Properties = model.Metadata{}
	}
	if node.SourceDocs == nil {
		node.SourceDocs = []string{}
	}
	now := time.Now().UTC()
	node.CreatedAt = now
	node.UpdatedAt = now

	g.nodes[node.ID] = node.Clone()
	g.stamp(node.ID)

	return nil
}

// SelectNode returns a copy of the node with the given id.
func (g *Graph) SelectNode(ctx context.Context, id string) (*model.Node, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[id]
	if !ok {
		return nil, helper.NewError("select node", helper.NotFound("node "+id))
	}
	return node.Clone(), nil
}

// SelectNodeByName returns the node with exactly the given name. With several
// matches the most confident, then the oldest, wins.
func (g *Graph) SelectNodeByName(ctx context.Context, name string, nodeType *model.NodeType) (*model.Node, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	var best *model.Node
	for _, node := range g.nodes {
		if node.Name != name {
			continue
		}
		if nodeType != nil && *nodeType != "" && node.Type != *nodeType {
			continue
		}
		if best == nil || node.Confidence > best.Confidence ||
			(node.Confidence == best.Confidence && g.sequence[node.ID] < g.sequence[best.ID]) {
			best = node
		}
	}
	if best == nil {
		return nil, helper.NewError("select node by name", helper.NotFound("node named "+name))
	}
	return best.Clone(), nil
}

// SelectNodesByType lists nodes of one type ordered by name.
func (g *Graph) SelectNodesByType(ctx context.Context, nodeType model.NodeType, limit int, offset int) ([]*model.Node, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := []*model.Node{}
	for _, node := range g.nodes {
		if node.Type == nodeType {
			nodes = append(nodes, node)
		}
	}
	sortNodesByName(nodes)

	if offset > 0 {
		if offset >= len(nodes) {
			return []*model.Node{}, nil
		}
		nodes = nodes[offset:]
	}
	if limit > 0 && len(nodes) > limit {
		nodes = nodes[:limit]
	}
	return cloneNodes(nodes), nil
}

// UpdateNode applies a partial update and returns the updated node.
func (g *Graph) UpdateNode(ctx context.Context, id string, update model.NodeUpdate) (*model.Node, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}
	if update.Confidence != nil && (*update.Confidence < 0 || *update.Confidence > 1) {
		return nil, helper.NewError("update node", helper.Invalid("confidence %v out of range [0,1]", *update.Confidence))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[id]
	if !ok {
		return nil, helper.NewError("update node", helper.NotFound("node "+id))
	}
	update.Apply(node)
	node.UpdatedAt = time.Now().UTC()

	return node.Clone(), nil
}

// LinkNodeSourceDoc adds a document id to the provenance set of a node.
func (g *Graph) LinkNodeSourceDoc(ctx context.Context, id string, docID string) (*model.Node, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[id]
	if !ok {
		return nil, helper.NewError("link node source doc", helper.NotFound("node "+id))
	}
	var changed bool
	node.SourceDocs, changed = model.AddSourceDocs(node.SourceDocs, docID)
	if changed {
		node.UpdatedAt = time.Now().UTC()
	}

	return node.Clone(), nil
}

// DeleteNode deletes a node together with all incident edges.
func (g *Graph) DeleteNode(ctx context.Context, id string) error {
	if err := g.checkContext(ctx); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return helper.NewError("delete node", helper.NotFound("node "+id))
	}
	for _, edgeID := range append([]string(nil), g.adjacency[id]...) {
		g.removeEdge(edgeID)
	}
	delete(g.nodes, id)
	delete(g.adjacency, id)
	delete(g.sequence, id)

	return nil
}

// InsertEdge stores a copy of edge. Both endpoints have to exist.
func (g *Graph) InsertEdge(ctx context.Context, edge *model.Edge) error {
	if err := g.checkContext(ctx); err != nil {
		return err
	}
	if edge == nil || edge.HeadID == "" || edge.TailID == "" {
		return helper.NewError("insert edge", helper.Invalid("edge endpoints are required"))
	}
	if edge.Type == "" {
		return helper.NewError("insert edge", helper.Invalid("edge type is required"))
	}
	if edge.Confidence < 0 || edge.Confidence > 1 {
		return helper.NewError("insert edge", helper.Invalid("confidence %v out of range [0,1]", edge.Confidence))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[edge.HeadID]; !ok {
		return helper.NewError("insert edge", helper.NotFound("head node "+edge.HeadID))
	}
	if _, ok := g.nodes[edge.TailID]; !ok {
		return helper.NewError("insert edge", helper.NotFound("tail node "+edge.TailID))
	}
	if edge.ID == "" {
		edge.ID = uuid.New().String()
	}
	if _, ok := g.edges[edge.ID]; ok {
		return helper.NewError("insert edge", helper.Invalid("edge %s already exists", edge.ID))
	}
	if edge.Properties == nil {
		edge.Properties = model.Metadata{}
	}
	if edge.SourceDocs == nil {
		edge.SourceDocs = []string{}
	}
	edge.CreatedAt = time.Now().UTC()

	g.edges[edge.ID] = edge.Clone()
	g.adjacency[edge.HeadID] = append(g.adjacency[edge.HeadID], edge.ID)
	if edge.TailID != edge.HeadID {
		g.adjacency[edge.TailID] = append(g.adjacency[edge.TailID], edge.ID)
	}
	g.stamp(edge.ID)

	return nil
}

// SelectEdge returns a copy of the edge with the given id.
func (g *Graph) SelectEdge(ctx context.Context, id string) (*model.Edge, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	edge, ok := g.edges[id]
	if !ok {
		return nil, helper.NewError("select edge", helper.NotFound("edge "+id))
	}
	return edge.Clone(), nil
}

// SelectEdgesByNode returns the edges incident to a node in the given direction.
func (g *Graph) SelectEdgesByNode(ctx context.Context, nodeID string, query model.NeighborQuery) ([]*model.Edge, error) {
	neighbors, err := g.SelectNeighbors(ctx, nodeID, query)
	if err != nil {
		return nil, helper.NewError("select edges by node", err)
	}

	edges := make([]*model.Edge, len(neighbors))
	for i, n := range neighbors {
		edges[i] = n.Edge
	}
	return edges, nil
}

// SelectEdgesBetween returns the edges from head to tail, optionally of one type.
func (g *Graph) SelectEdgesBetween(ctx context.Context, headID string, tailID string, edgeType *model.EdgeType) ([]*model.Edge, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := []*model.Edge{}
	for _, edgeID := range g.adjacency[headID] {
		edge := g.edges[edgeID]
		if edge.HeadID != headID || edge.TailID != tailID {
			continue
		}
		if edgeType != nil && *edgeType != "" && edge.Type != *edgeType {
			continue
		}
		edges = append(edges, edge.Clone())
	}
	return edges, nil
}

// SelectNeighbors returns the adjacent nodes of a node with the connecting
// edges in edge insertion order.
func (g *Graph) SelectNeighbors(ctx context.Context, nodeID string, query model.NeighborQuery) ([]*model.Neighbor, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}
	direction := query.Direction
	if direction == "" {
		direction = model.DirectionBoth
	}
	if !direction.Valid() {
		return nil, helper.NewError("select neighbors", helper.Invalid("unknown direction %q", direction))
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	neighbors := []*model.Neighbor{}
	for _, edgeID := range g.adjacency[nodeID] {
		edge := g.edges[edgeID]
		var dir model.Direction
		switch {
		case edge.HeadID == nodeID && direction != model.DirectionIncoming:
			dir = model.DirectionOutgoing
		case edge.TailID == nodeID && direction != model.DirectionOutgoing:
			dir = model.DirectionIncoming
		default:
			continue
		}
		if !query.Matches(edge) {
			continue
		}

		neighbors = append(neighbors, &model.Neighbor{
			Node:      g.nodes[edge.Other(nodeID)].Clone(),
			Edge:      edge.Clone(),
			Direction: dir,
		})
		if query.Limit > 0 && len(neighbors) >= query.Limit {
			break
		}
	}
	return neighbors, nil
}

// UpdateEdge applies a partial update and returns the updated edge.
func (g *Graph) UpdateEdge(ctx context.Context, id string, update model.EdgeUpdate) (*model.Edge, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}
	if update.Confidence != nil && (*update.Confidence < 0 || *update.Confidence > 1) {
		return nil, helper.NewError("update edge", helper.Invalid("confidence %v out of range [0,1]", *update.Confidence))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	edge, ok := g.edges[id]
	if !ok {
		return nil, helper.NewError("update edge", helper.NotFound("edge "+id))
	}
	update.Apply(edge)

	return edge.Clone(), nil
}

// LinkEdgeSourceDoc adds a document id to the provenance set of an edge.
func (g *Graph) LinkEdgeSourceDoc(ctx context.Context, id string, docID string) (*model.Edge, error) {
	if err := g.checkContext(ctx); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	edge, ok := g.edges[id]
	if !ok {
		return nil, helper.NewError("link edge source doc", helper.NotFound("edge "+id))
	}
	edge.SourceDocs, _ = model.AddSourceDocs(edge.SourceDocs, docID)

	return edge.Clone(), nil
}

// DeleteEdge deletes an edge by id.
func (g *Graph) DeleteEdge(ctx context.Context, id string) error {
	if err := g.checkContext(ctx); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.edges[id]; !ok {
		return helper.NewError("delete edge", helper.NotFound("edge "+id))
	}
	g.removeEdge(id)

	return nil
}

// removeEdge expects the write lock to be held.
func (g *Graph) removeEdge(id string) {
	edge, ok := g.edges[id]
	if !ok {
		return
	}
	g.adjacency[edge.HeadID] = removeString(g.adjacency[edge.HeadID], id)
	g.adjacency[edge.TailID] = removeString(g.adjacency[edge.TailID], id)
	delete(g.edges, id)
	delete(g.sequence, id)
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func sortNodesByName(nodes []*model.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID < nodes[j].ID
	})
}

func cloneNodes(nodes []*model.Node) []*model.Node {
	out := make([]*model.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
