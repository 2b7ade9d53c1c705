package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
	"github.com/siherrmann/graphreason/sql"
)

// NodesDBHandlerFunctions defines the interface for Nodes database operations.
type NodesDBHandlerFunctions interface {
	InsertNode(ctx context.Context, node *model.Node) error
	SelectNode(ctx context.Context, id string) (*model.Node, error)
	SelectNodeByName(ctx context.Context, name string, nodeType *model.NodeType) (*model.Node, error)
	SelectNodesBySearch(ctx context.Context, keyword string, nodeType *model.NodeType, limit int) ([]*model.Node, error)
	SelectNodesByType(ctx context.Context, nodeType model.NodeType, limit int, offset int) ([]*model.Node, error)
	UpdateNode(ctx context.Context, id string, update model.NodeUpdate) (*model.Node, error)
	LinkNodeSourceDoc(ctx context.Context, id string, docID string) (*model.Node, error)
	DeleteNode(ctx context.Context, id string) error
}

// NodesDBHandler handles node-related database operations
type NodesDBHandler struct {
	gateway GraphGateway
	logger  *slog.Logger
}

// NewNodesDBHandler creates a new nodes database handler.
// It loads node-related SQL functions and creates the nodes table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewNodesDBHandler(gateway GraphGateway, force bool) (*NodesDBHandler, error) {
	if gateway == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	nodesDbHandler := &NodesDBHandler{
		gateway: gateway,
		logger:  gatewayLogger(gateway),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := sql.Init(ctx, gateway)
	if err != nil {
		return nil, helper.NewError("init sql", err)
	}

	err = sql.LoadNodesSql(ctx, gateway, force)
	if err != nil {
		return nil, helper.NewError("load nodes sql", err)
	}

	err = nodesDbHandler.CreateTable(ctx)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	nodesDbHandler.logger.Info("Initialized NodesDBHandler")

	return nodesDbHandler, nil
}

// CreateTable creates the 'nodes' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *NodesDBHandler) CreateTable(ctx context.Context) error {
	_, err := h.gateway.ExecuteWrite(ctx, `SELECT init_nodes();`)
	if err != nil {
		return helper.NewError("init nodes", err)
	}

	h.logger.Info("Checked/created table nodes")

	return nil
}

// InsertNode inserts a new node. A missing id is generated, the stored
// timestamps are written back into node.
func (h *NodesDBHandler) InsertNode(ctx context.Context, node *model.Node) error {
	if node == nil || strings.TrimSpace(node.Name) == "" {
		return helper.NewError("insert node", helper.Invalid("node name is required"))
	}
	if node.Confidence < 0 || node.Confidence > 1 {
		return helper.NewError("insert node", helper.Invalid("confidence %v out of range [0,1]", node.Confidence))
	}
	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	if node.Type == "" {
		node.Type = model.NodeTypeConcept
	}

	sourceDocs, err := jsonArray(node.SourceDocs)
	if err != nil {
		return helper.NewError("marshal source docs", err)
	}

	rows, err := h.gateway.ExecuteWrite(
		ctx,
		`SELECT node FROM insert_node($1, $2, $3, $4, $5, $6, $7);`,
		node.ID,
		node.Name,
		string(node.Type),
		node.Description,
		node.Confidence,
		node.Properties,
		sourceDocs,
	)
	if err != nil {
		return helper.NewError("insert node", err)
	}

	inserted, err := singleNode(rows, "node "+node.ID)
	if err != nil {
		return helper.NewError("scan", err)
	}
	*node = *inserted

	return nil
}

// SelectNode returns the node with the given id.
func (h *NodesDBHandler) SelectNode(ctx context.Context, id string) (*model.Node, error) {
	rows, err := h.gateway.ExecuteRead(ctx, `SELECT node FROM select_node($1);`, id)
	if err != nil {
		return nil, helper.NewError("select node", err)
	}

	node, err := singleNode(rows, "node "+id)
	if err != nil {
		return nil, helper.NewError("select node", err)
	}
	return node, nil
}

// SelectNodeByName returns the node with exactly the given name, optionally
// restricted to a type.
func (h *NodesDBHandler) SelectNodeByName(ctx context.Context, name string, nodeType *model.NodeType) (*model.Node, error) {
	rows, err := h.gateway.ExecuteRead(
		ctx,
		`SELECT node FROM select_node_by_name($1, $2);`,
		name,
		nullNodeType(nodeType),
	)
	if err != nil {
		return nil, helper.NewError("select node by name", err)
	}

	node, err := singleNode(rows, "node named "+name)
	if err != nil {
		return nil, helper.NewError("select node by name", err)
	}
	return node, nil
}

// SelectNodesBySearch runs the keyword search used for entity resolution.
// The keyword is expected in normalized form. Ordering is deterministic.
func (h *NodesDBHandler) SelectNodesBySearch(ctx context.Context, keyword string, nodeType *model.NodeType, limit int) ([]*model.Node, error) {
	rows, err := h.gateway.ExecuteRead(
		ctx,
		`SELECT node FROM search_nodes($1, $2, $3);`,
		keyword,
		nullNodeType(nodeType),
		limitParam(limit),
	)
	if err != nil {
		return nil, helper.NewError("search nodes", err)
	}

	nodes, err := nodesFromRows(rows, "node")
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	return nodes, nil
}

// SelectNodesByType lists nodes of one type ordered by name.
func (h *NodesDBHandler) SelectNodesByType(ctx context.Context, nodeType model.NodeType, limit int, offset int) ([]*model.Node, error) {
	rows, err := h.gateway.ExecuteRead(
		ctx,
		`SELECT node FROM select_nodes_by_type($1, $2, $3);`,
		string(nodeType),
		limitParam(limit),
		offset,
	)
	if err != nil {
		return nil, helper.NewError("select nodes by type", err)
	}

	nodes, err := nodesFromRows(rows, "node")
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	return nodes, nil
}

// UpdateNode applies a partial update. Properties are merged key by key.
func (h *NodesDBHandler) UpdateNode(ctx context.Context, id string, update model.NodeUpdate) (*model.Node, error) {
	if update.Confidence != nil && (*update.Confidence < 0 || *update.Confidence > 1) {
		return nil, helper.NewError("update node", helper.Invalid("confidence %v out of range [0,1]", *update.Confidence))
	}

	var properties interface{}
	if len(update.Properties) > 0 {
		properties = update.Properties
	}

	rows, err := h.gateway.ExecuteWrite(
		ctx,
		`SELECT node FROM update_node($1, $2, $3, $4, $5, $6);`,
		id,
		nullString(update.Name),
		nullNodeType(update.Type),
		nullString(update.Description),
		nullFloat(update.Confidence),
		properties,
	)
	if err != nil {
		return nil, helper.NewError("update node", err)
	}

	node, err := singleNode(rows, "node "+id)
	if err != nil {
		return nil, helper.NewError("update node", err)
	}
	return node, nil
}

// LinkNodeSourceDoc adds a document id to the provenance set of a node.
func (h *NodesDBHandler) LinkNodeSourceDoc(ctx context.Context, id string, docID string) (*model.Node, error) {
	rows, err := h.gateway.ExecuteWrite(ctx, `SELECT node FROM link_node_source_doc($1, $2);`, id, docID)
	if err != nil {
		return nil, helper.NewError("link node source doc", err)
	}

	node, err := singleNode(rows, "node "+id)
	if err != nil {
		return nil, helper.NewError("link node source doc", err)
	}
	return node, nil
}

// DeleteNode deletes a node and, by cascade, all incident edges.
func (h *NodesDBHandler) DeleteNode(ctx context.Context, id string) error {
	rows, err := h.gateway.ExecuteWrite(ctx, `SELECT deleted FROM delete_node($1);`, id)
	if err != nil {
		return helper.NewError("delete node", err)
	}
	if len(rows) == 0 || intColumn(rows[0], "deleted") == 0 {
		return helper.NewError("delete node", helper.NotFound("node "+id))
	}
	return nil
}

func singleNode(rows []Row, what string) (*model.Node, error) {
	if len(rows) == 0 {
		return nil, helper.NotFound(what)
	}
	r, err := jsonColumn(rows[0], "node")
	if err != nil {
		return nil, err
	}
	return nodeFromJSON(r)
}

func nodesFromRows(rows []Row, column string) ([]*model.Node, error) {
	nodes := []*model.Node{}
	for _, row := range rows {
		r, err := jsonColumn(row, column)
		if err != nil {
			return nil, err
		}
		node, err := nodeFromJSON(r)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
