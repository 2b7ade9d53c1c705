package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
	loadSql "github.com/siherrmann/graphreason/sql"
)

// PathsDBHandlerFunctions defines the interface for path enumeration.
type PathsDBHandlerFunctions interface {
	SelectPaths(ctx context.Context, query model.PathQuery) ([]*model.Path, error)
	SelectReachable(ctx context.Context, query model.ReachQuery) ([]*model.HopResult, error)
}

// PathsDBHandler enumerates bounded simple paths with recursive queries.
type PathsDBHandler struct {
	gateway GraphGateway
	logger  *slog.Logger
}

// NewPathsDBHandler creates a new paths database handler.
// The nodes and edges tables have to exist.
func NewPathsDBHandler(gateway GraphGateway, force bool) (*PathsDBHandler, error) {
	if gateway == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := loadSql.LoadPathsSql(ctx, gateway, force)
	if err != nil {
		return nil, helper.NewError("load paths sql", err)
	}

	pathsDbHandler := &PathsDBHandler{
		gateway: gateway,
		logger:  gatewayLogger(gateway),
	}
	pathsDbHandler.logger.Info("Initialized PathsDBHandler")

	return pathsDbHandler, nil
}

// SelectPaths enumerates simple paths between source and target (or from
// source to any node if TargetID is empty) with MinHops..MaxHops edges. Every
// edge passes the type and confidence filter. Paths are ordered by length.
func (h *PathsDBHandler) SelectPaths(ctx context.Context, query model.PathQuery) ([]*model.Path, error) {
	if query.MinHops <= 0 {
		query.MinHops = 1
	}
	if query.MaxHops < 1 || query.MaxHops > model.MaxPathHops || query.MinHops > query.MaxHops {
		return nil, helper.NewError("select paths", helper.Invalid("hops must satisfy 1 <= %d <= %d <= %d", query.MinHops, query.MaxHops, model.MaxPathHops))
	}

	var target interface{}
	if query.TargetID != "" {
		target = query.TargetID
	}

	rows, err := h.gateway.ExecuteRead(
		ctx,
		`SELECT path_nodes, path_edges, hop_count FROM select_paths($1, $2, $3, $4, $5, $6, $7);`,
		query.SourceID,
		target,
		query.MinHops,
		query.MaxHops,
		textArray(query.RelationTypes),
		query.MinConfidence,
		limitParam(query.Limit),
	)
	if err != nil {
		return nil, helper.NewError("select paths", err)
	}

	paths := []*model.Path{}
	for _, row := range rows {
		path, err := pathFromRow(row)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// SelectReachable returns the distinct end nodes reachable from the start
// within 1..MaxHops, each with one path of minimal hop count. Ordered by hop
// count then name.
func (h *PathsDBHandler) SelectReachable(ctx context.Context, query model.ReachQuery) ([]*model.HopResult, error) {
	if query.MaxHops < 1 || query.MaxHops > model.MaxPathHops {
		return nil, helper.NewError("select reachable", helper.Invalid("max hops must be between 1 and %d, got %d", model.MaxPathHops, query.MaxHops))
	}
	err := query.PropertyFilters.ValidateFilters()
	if err != nil {
		return nil, helper.NewError("select reachable", err)
	}

	var filters interface{}
	if len(query.PropertyFilters) > 0 {
		filters = query.PropertyFilters
	}

	rows, err := h.gateway.ExecuteRead(
		ctx,
		`SELECT end_node, path_nodes, path_edges, hop_count FROM select_reachable($1, $2, $3, $4, $5, $6, $7);`,
		query.StartID,
		query.MaxHops,
		textArray(query.RelationTypes),
		textArray(query.EntityTypes),
		query.MinConfidence,
		filters,
		limitParam(query.Limit),
	)
	if err != nil {
		return nil, helper.NewError("select reachable", err)
	}

	results := []*model.HopResult{}
	for _, row := range rows {
		nodeJSON, err := jsonColumn(row, "end_node")
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		node, err := nodeFromJSON(nodeJSON)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		path, err := pathFromRow(row)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		results = append(results, &model.HopResult{
			Node:     node,
			HopCount: intColumn(row, "hop_count"),
			Path:     path,
		})
	}

	return results, nil
}
