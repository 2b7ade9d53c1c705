package database

import (
	"context"

	"github.com/siherrmann/graphreason/helper"
)

// Repository bundles all handlers sharing one gateway, so a single value
// serves every store contract of the reasoning services.
type Repository struct {
	*NodesDBHandler
	*EdgesDBHandler
	*PathsDBHandler
	*StatisticsDBHandler
	Gateway GraphGateway
}

// NewRepository creates all handlers in dependency order (nodes before edges).
func NewRepository(gateway GraphGateway, force bool) (*Repository, error) {
	nodes, err := NewNodesDBHandler(gateway, force)
	if err != nil {
		return nil, helper.NewError("create nodes handler", err)
	}
	edges, err := NewEdgesDBHandler(gateway, force)
	if err != nil {
		return nil, helper.NewError("create edges handler", err)
	}
	paths, err := NewPathsDBHandler(gateway, force)
	if err != nil {
		return nil, helper.NewError("create paths handler", err)
	}
	statistics, err := NewStatisticsDBHandler(gateway, force)
	if err != nil {
		return nil, helper.NewError("create statistics handler", err)
	}

	return &Repository{
		NodesDBHandler:      nodes,
		EdgesDBHandler:      edges,
		PathsDBHandler:      paths,
		StatisticsDBHandler: statistics,
		Gateway:             gateway,
	}, nil
}

// HealthCheck reports whether the underlying store answers.
func (r *Repository) HealthCheck(ctx context.Context) bool {
	return r.Gateway.HealthCheck(ctx)
}
