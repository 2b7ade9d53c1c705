package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
	loadSql "github.com/siherrmann/graphreason/sql"
	"github.com/tidwall/gjson"
)

// StatisticsDBHandlerFunctions defines the interface for aggregate graph statistics.
type StatisticsDBHandlerFunctions interface {
	SelectGraphStatistics(ctx context.Context, thresholds model.StatisticsThresholds) (*model.GraphStatistics, error)
	SelectNodeDegree(ctx context.Context, id string) (int, error)
	SelectTopNodesByDegree(ctx context.Context, limit int) ([]*model.NodeDegree, error)
	SelectOrphanNodes(ctx context.Context, limit int) ([]*model.Node, error)
	SelectConnectedCount(ctx context.Context) (int, error)
	SelectConfidenceDistribution(ctx context.Context) (*model.ConfidenceDistribution, error)
}

// StatisticsDBHandler reads graph aggregates.
type StatisticsDBHandler struct {
	gateway GraphGateway
	logger  *slog.Logger
}

// NewStatisticsDBHandler creates a new statistics database handler.
// The nodes and edges tables have to exist.
func NewStatisticsDBHandler(gateway GraphGateway, force bool) (*StatisticsDBHandler, error) {
	if gateway == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := loadSql.LoadStatisticsSql(ctx, gateway, force)
	if err != nil {
		return nil, helper.NewError("load statistics sql", err)
	}

	statisticsDbHandler := &StatisticsDBHandler{
		gateway: gateway,
		logger:  gatewayLogger(gateway),
	}
	statisticsDbHandler.logger.Info("Initialized StatisticsDBHandler")

	return statisticsDbHandler, nil
}

// SelectGraphStatistics reads all aggregates of the quality report in one call.
func (h *StatisticsDBHandler) SelectGraphStatistics(ctx context.Context, thresholds model.StatisticsThresholds) (*model.GraphStatistics, error) {
	rows, err := h.gateway.ExecuteRead(
		ctx,
		`SELECT stats FROM graph_statistics($1, $2, $3, $4, $5);`,
		thresholds.HighConfidence,
		thresholds.LowConfidence,
		thresholds.MinDescriptionLength,
		thresholds.MinNameLength,
		thresholds.MaxNameLength,
	)
	if err != nil {
		return nil, helper.NewError("select graph statistics", err)
	}
	if len(rows) == 0 {
		return &model.GraphStatistics{EntityTypes: map[string]int{}, RelationTypes: map[string]int{}}, nil
	}

	r, err := jsonColumn(rows[0], "stats")
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return &model.GraphStatistics{
		EntityCount:           int(r.Get("entity_count").Int()),
		RelationCount:         int(r.Get("relation_count").Int()),
		TotalPropertyCount:    int(r.Get("total_property_count").Int()),
		DescribedEntityCount:  int(r.Get("described_entity_count").Int()),
		ValidNameCount:        int(r.Get("valid_name_count").Int()),
		EntityConfidenceSum:   r.Get("entity_confidence_sum").Float(),
		RelationConfidenceSum: r.Get("relation_confidence_sum").Float(),
		HighConfidenceCount:   int(r.Get("high_confidence_count").Int()),
		LowConfidenceCount:    int(r.Get("low_confidence_count").Int()),
		EntityTypes:           countsFromJSON(r.Get("entity_types")),
		RelationTypes:         countsFromJSON(r.Get("relation_types")),
	}, nil
}

// SelectNodeDegree returns the number of edges incident to a node.
func (h *StatisticsDBHandler) SelectNodeDegree(ctx context.Context, id string) (int, error) {
	rows, err := h.gateway.ExecuteRead(ctx, `SELECT degree FROM select_node_degree($1);`, id)
	if err != nil {
		return 0, helper.NewError("select node degree", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return intColumn(rows[0], "degree"), nil
}

// SelectTopNodesByDegree returns the best connected nodes.
func (h *StatisticsDBHandler) SelectTopNodesByDegree(ctx context.Context, limit int) ([]*model.NodeDegree, error) {
	rows, err := h.gateway.ExecuteRead(ctx, `SELECT node, degree FROM select_top_nodes_by_degree($1);`, limitParam(limit))
	if err != nil {
		return nil, helper.NewError("select top nodes by degree", err)
	}

	degrees := []*model.NodeDegree{}
	for _, row := range rows {
		r, err := jsonColumn(row, "node")
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		node, err := nodeFromJSON(r)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		degrees = append(degrees, &model.NodeDegree{Node: node, Degree: intColumn(row, "degree")})
	}
	return degrees, nil
}

// SelectOrphanNodes returns nodes without any incident edge.
func (h *StatisticsDBHandler) SelectOrphanNodes(ctx context.Context, limit int) ([]*model.Node, error) {
	rows, err := h.gateway.ExecuteRead(ctx, `SELECT node FROM select_orphan_nodes($1);`, limitParam(limit))
	if err != nil {
		return nil, helper.NewError("select orphan nodes", err)
	}

	nodes, err := nodesFromRows(rows, "node")
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	return nodes, nil
}

// SelectConnectedCount returns the number of nodes with at least one edge.
func (h *StatisticsDBHandler) SelectConnectedCount(ctx context.Context) (int, error) {
	rows, err := h.gateway.ExecuteRead(ctx, `SELECT connected FROM select_connected_count();`)
	if err != nil {
		return 0, helper.NewError("select connected count", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return intColumn(rows[0], "connected"), nil
}

// SelectConfidenceDistribution counts nodes and edges per confidence bucket.
func (h *StatisticsDBHandler) SelectConfidenceDistribution(ctx context.Context) (*model.ConfidenceDistribution, error) {
	rows, err := h.gateway.ExecuteRead(ctx, `SELECT kind, bucket, cnt FROM select_confidence_distribution();`)
	if err != nil {
		return nil, helper.NewError("select confidence distribution", err)
	}

	distribution := &model.ConfidenceDistribution{
		Entity:   map[string]int{},
		Relation: map[string]int{},
	}
	for _, row := range rows {
		kind, _ := row["kind"].(string)
		bucket, _ := row["bucket"].(string)
		switch kind {
		case "entity":
			distribution.Entity[bucket] = intColumn(row, "cnt")
		case "relation":
			distribution.Relation[bucket] = intColumn(row, "cnt")
		}
	}
	return distribution, nil
}

func countsFromJSON(r gjson.Result) map[string]int {
	counts := map[string]int{}
	r.ForEach(func(key, value gjson.Result) bool {
		counts[key.String()] = int(value.Int())
		return true
	})
	return counts
}
