package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
	loadSql "github.com/siherrmann/graphreason/sql"
)

// EdgesDBHandlerFunctions defines the interface for Edges database operations.
type EdgesDBHandlerFunctions interface {
	InsertEdge(ctx context.Context, edge *model.Edge) error
	SelectEdge(ctx context.Context, id string) (*model.Edge, error)
	SelectEdgesByNode(ctx context.Context, nodeID string, query model.NeighborQuery) ([]*model.Edge, error)
	SelectEdgesBetween(ctx context.Context, headID string, tailID string, edgeType *model.EdgeType) ([]*model.Edge, error)
	SelectNeighbors(ctx context.Context, nodeID string, query model.NeighborQuery) ([]*model.Neighbor, error)
	UpdateEdge(ctx context.Context, id string, update model.EdgeUpdate) (*model.Edge, error)
	LinkEdgeSourceDoc(ctx context.Context, id string, docID string) (*model.Edge, error)
	DeleteEdge(ctx context.Context, id string) error
}

// EdgesDBHandler handles edge-related database operations
type EdgesDBHandler struct {
	gateway GraphGateway
	logger  *slog.Logger
}

// NewEdgesDBHandler creates a new edges database handler.
// The nodes table has to exist, edges reference it.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEdgesDBHandler(gateway GraphGateway, force bool) (*EdgesDBHandler, error) {
	if gateway == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	edgesDbHandler := &EdgesDBHandler{
		gateway: gateway,
		logger:  gatewayLogger(gateway),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := loadSql.LoadEdgesSql(ctx, gateway, force)
	if err != nil {
		return nil, helper.NewError("load edges sql", err)
	}

	err = edgesDbHandler.CreateTable(ctx)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	edgesDbHandler.logger.Info("Initialized EdgesDBHandler")

	return edgesDbHandler, nil
}

// CreateTable creates the 'edges' table in the database.
// If the table already exists, it does not create it again.
func (h *EdgesDBHandler) CreateTable(ctx context.Context) error {
	_, err := h.gateway.ExecuteWrite(ctx, `SELECT init_edges();`)
	if err != nil {
		return helper.NewError("init edges", err)
	}

	h.logger.Info("Checked/created table edges")

	return nil
}

// InsertEdge inserts a new edge. Both endpoints have to exist, otherwise the
// insert fails with helper.ErrNotFound.
func (h *EdgesDBHandler) InsertEdge(ctx context.Context, edge *model.Edge) error {
	if edge == nil || edge.HeadID == "" || edge.TailID == "" {
		return helper.NewError("insert edge", helper.Invalid("edge endpoints are required"))
	}
	if edge.Type == "" {
		return helper.NewError("insert edge", helper.Invalid("edge type is required"))
	}
	if edge.Confidence < 0 || edge.Confidence > 1 {
		return helper.NewError("insert edge", helper.Invalid("confidence %v out of range [0,1]", edge.Confidence))
	}
	if edge.ID == "" {
		edge.ID = uuid.New().String()
	}

	sourceDocs, err := jsonArray(edge.SourceDocs)
	if err != nil {
		return helper.NewError("marshal source docs", err)
	}

	rows, err := h.gateway.ExecuteWrite(
		ctx,
		`SELECT edge FROM insert_edge($1, $2, $3, $4, $5, $6, $7, $8);`,
		edge.ID,
		string(edge.Type),
		edge.HeadID,
		edge.TailID,
		edge.Confidence,
		edge.Evidence,
		edge.Properties,
		sourceDocs,
	)
	if err != nil {
		return helper.NewError("insert edge", err)
	}

	inserted, err := singleEdge(rows, "edge "+edge.ID)
	if err != nil {
		return helper.NewError("scan", err)
	}
	*edge = *inserted

	return nil
}

// SelectEdge returns the edge with the given id.
func (h *EdgesDBHandler) SelectEdge(ctx context.Context, id string) (*model.Edge, error) {
	rows, err := h.gateway.ExecuteRead(ctx, `SELECT edge FROM select_edge($1);`, id)
	if err != nil {
		return nil, helper.NewError("select edge", err)
	}

	edge, err := singleEdge(rows, "edge "+id)
	if err != nil {
		return nil, helper.NewError("select edge", err)
	}
	return edge, nil
}

// SelectEdgesByNode returns the edges incident to a node in the given direction.
func (h *EdgesDBHandler) SelectEdgesByNode(ctx context.Context, nodeID string, query model.NeighborQuery) ([]*model.Edge, error) {
	direction, err := queryDirection(query)
	if err != nil {
		return nil, helper.NewError("select edges by node", err)
	}

	rows, err := h.gateway.ExecuteRead(
		ctx,
		`SELECT edge FROM select_edges_by_node($1, $2, $3, $4, $5);`,
		nodeID,
		string(direction),
		textArray(query.RelationTypes),
		query.MinConfidence,
		limitParam(query.Limit),
	)
	if err != nil {
		return nil, helper.NewError("select edges by node", err)
	}

	edges, err := edgesFromRows(rows, "edge")
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	return edges, nil
}

// SelectEdgesBetween returns the edges from head to tail, optionally of one type.
func (h *EdgesDBHandler) SelectEdgesBetween(ctx context.Context, headID string, tailID string, edgeType *model.EdgeType) ([]*model.Edge, error) {
	var typeParam interface{}
	if edgeType != nil && *edgeType != "" {
		typeParam = string(*edgeType)
	}

	rows, err := h.gateway.ExecuteRead(ctx, `SELECT edge FROM select_edges_between($1, $2, $3);`, headID, tailID, typeParam)
	if err != nil {
		return nil, helper.NewError("select edges between", err)
	}

	edges, err := edgesFromRows(rows, "edge")
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	return edges, nil
}

// SelectNeighbors returns the adjacent nodes of a node with the connecting edges.
func (h *EdgesDBHandler) SelectNeighbors(ctx context.Context, nodeID string, query model.NeighborQuery) ([]*model.Neighbor, error) {
	direction, err := queryDirection(query)
	if err != nil {
		return nil, helper.NewError("select neighbors", err)
	}

	rows, err := h.gateway.ExecuteRead(
		ctx,
		`SELECT edge, node, direction FROM select_neighbors($1, $2, $3, $4, $5);`,
		nodeID,
		string(direction),
		textArray(query.RelationTypes),
		query.MinConfidence,
		limitParam(query.Limit),
	)
	if err != nil {
		return nil, helper.NewError("select neighbors", err)
	}

	neighbors := []*model.Neighbor{}
	for _, row := range rows {
		edgeJSON, err := jsonColumn(row, "edge")
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		nodeJSON, err := jsonColumn(row, "node")
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		edge, err := edgeFromJSON(edgeJSON)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		node, err := nodeFromJSON(nodeJSON)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		dir, _ := row["direction"].(string)
		neighbors = append(neighbors, &model.Neighbor{
			Node:      node,
			Edge:      edge,
			Direction: model.Direction(dir),
		})
	}

	return neighbors, nil
}

// UpdateEdge applies a partial update. Properties are merged key by key.
func (h *EdgesDBHandler) UpdateEdge(ctx context.Context, id string, update model.EdgeUpdate) (*model.Edge, error) {
	if update.Confidence != nil && (*update.Confidence < 0 || *update.Confidence > 1) {
		return nil, helper.NewError("update edge", helper.Invalid("confidence %v out of range [0,1]", *update.Confidence))
	}

	var properties interface{}
	if len(update.Properties) > 0 {
		properties = update.Properties
	}

	rows, err := h.gateway.ExecuteWrite(
		ctx,
		`SELECT edge FROM update_edge($1, $2, $3, $4);`,
		id,
		nullFloat(update.Confidence),
		nullString(update.Evidence),
		properties,
	)
	if err != nil {
		return nil, helper.NewError("update edge", err)
	}

	edge, err := singleEdge(rows, "edge "+id)
	if err != nil {
		return nil, helper.NewError("update edge", err)
	}
	return edge, nil
}

// LinkEdgeSourceDoc adds a document id to the provenance set of an edge.
func (h *EdgesDBHandler) LinkEdgeSourceDoc(ctx context.Context, id string, docID string) (*model.Edge, error) {
	rows, err := h.gateway.ExecuteWrite(ctx, `SELECT edge FROM link_edge_source_doc($1, $2);`, id, docID)
	if err != nil {
		return nil, helper.NewError("link edge source doc", err)
	}

	edge, err := singleEdge(rows, "edge "+id)
	if err != nil {
		return nil, helper.NewError("link edge source doc", err)
	}
	return edge, nil
}

// DeleteEdge deletes an edge by id.
func (h *EdgesDBHandler) DeleteEdge(ctx context.Context, id string) error {
	rows, err := h.gateway.ExecuteWrite(ctx, `SELECT deleted FROM delete_edge($1);`, id)
	if err != nil {
		return helper.NewError("delete edge", err)
	}
	if len(rows) == 0 || intColumn(rows[0], "deleted") == 0 {
		return helper.NewError("delete edge", helper.NotFound("edge "+id))
	}
	return nil
}

func queryDirection(query model.NeighborQuery) (model.Direction, error) {
	if query.Direction == "" {
		return model.DirectionBoth, nil
	}
	if !query.Direction.Valid() {
		return "", helper.Invalid("unknown direction %q", query.Direction)
	}
	return query.Direction, nil
}

func singleEdge(rows []Row, what string) (*model.Edge, error) {
	if len(rows) == 0 {
		return nil, helper.NotFound(what)
	}
	r, err := jsonColumn(rows[0], "edge")
	if err != nil {
		return nil, err
	}
	return edgeFromJSON(r)
}

func edgesFromRows(rows []Row, column string) ([]*model.Edge, error) {
	edges := []*model.Edge{}
	for _, row := range rows {
		r, err := jsonColumn(row, column)
		if err != nil {
			return nil, err
		}
		edge, err := edgeFromJSON(r)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, nil
}
