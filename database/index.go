package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/graphreason/helper"
)

// IndexInfo describes one index on the graph tables.
type IndexInfo struct {
	Name       string `json:"name"`
	Table      string `json:"table"`
	Definition string `json:"definition"`
}

// managedIndexes are the secondary indexes EnsureIndexes maintains.
var managedIndexes = map[string]string{
	"idx_nodes_properties": `CREATE INDEX IF NOT EXISTS idx_nodes_properties ON nodes USING gin (properties jsonb_path_ops);`,
	"idx_nodes_confidence": `CREATE INDEX IF NOT EXISTS idx_nodes_confidence ON nodes (confidence);`,
	"idx_edges_head_type":  `CREATE INDEX IF NOT EXISTS idx_edges_head_type ON edges (head_id, edge_type);`,
	"idx_edges_tail_type":  `CREATE INDEX IF NOT EXISTS idx_edges_tail_type ON edges (tail_id, edge_type);`,
	"idx_edges_confidence": `CREATE INDEX IF NOT EXISTS idx_edges_confidence ON edges (confidence);`,
	"idx_nodes_name_trgm":  `CREATE INDEX IF NOT EXISTS idx_nodes_name_trgm ON nodes USING gin (lower(name) gin_trgm_ops);`,
	"idx_nodes_type":       `CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes (node_type);`,
	"idx_nodes_name":       `CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes (name);`,
	"idx_edges_head":       `CREATE INDEX IF NOT EXISTS idx_edges_head ON edges (head_id);`,
	"idx_edges_tail":       `CREATE INDEX IF NOT EXISTS idx_edges_tail ON edges (tail_id);`,
	"idx_edges_type":       `CREATE INDEX IF NOT EXISTS idx_edges_type ON edges (edge_type);`,
}

// IndexManager maintains the secondary indexes of the nodes and edges tables.
type IndexManager struct {
	gateway GraphGateway
	logger  *slog.Logger
}

// NewIndexManager creates an index manager. The tables have to exist.
func NewIndexManager(gateway GraphGateway) (*IndexManager, error) {
	if gateway == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	return &IndexManager{
		gateway: gateway,
		logger:  gatewayLogger(gateway),
	}, nil
}

// EnsureIndexes creates all managed indexes that do not exist yet.
func (m *IndexManager) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	for name, statement := range managedIndexes {
		_, err := m.gateway.ExecuteWrite(ctx, statement)
		if err != nil {
			return helper.NewError(fmt.Sprintf("create index %s", name), err)
		}
	}

	m.logger.Info("Ensured graph indexes", slog.Int("count", len(managedIndexes)))

	return nil
}

// ListIndexes returns the indexes of the nodes and edges tables.
func (m *IndexManager) ListIndexes(ctx context.Context) ([]*IndexInfo, error) {
	rows, err := m.gateway.ExecuteRead(
		ctx,
		`SELECT indexname, tablename, indexdef FROM pg_indexes
		WHERE schemaname = current_schema() AND tablename IN ('nodes', 'edges')
		ORDER BY tablename, indexname;`,
	)
	if err != nil {
		return nil, helper.NewError("list indexes", err)
	}

	indexes := []*IndexInfo{}
	for _, row := range rows {
		name, _ := row["indexname"].(string)
		table, _ := row["tablename"].(string)
		definition, _ := row["indexdef"].(string)
		indexes = append(indexes, &IndexInfo{
			Name:       name,
			Table:      table,
			Definition: definition,
		})
	}
	return indexes, nil
}

// DropIndex drops a managed index. Primary keys and unknown names are rejected.
func (m *IndexManager) DropIndex(ctx context.Context, name string) error {
	if _, ok := managedIndexes[name]; !ok {
		return helper.NewError("drop index", helper.Invalid("index %q is not managed", name))
	}

	_, err := m.gateway.ExecuteWrite(ctx, fmt.Sprintf(`DROP INDEX IF EXISTS %s;`, name))
	if err != nil {
		return helper.NewError("drop index", err)
	}

	m.logger.Info("Dropped index", slog.String("name", name))

	return nil
}

// ChangeNameIndexType switches the trigram index on node names between GIN and GiST.
// indexType: "gin" or "gist"
// params: optional parameters for index creation
//   - For GiST: "siglen" (int, default 12)
func (m *IndexManager) ChangeNameIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	var createIndexSQL string

	switch indexType {
	case "gin":
		createIndexSQL = `CREATE INDEX idx_nodes_name_trgm ON nodes USING gin (lower(name) gin_trgm_ops);`

	case "gist":
		siglen := 12
		if siglenVal, ok := params["siglen"].(int); ok {
			siglen = siglenVal
		}
		if siglen < 1 || siglen > 2024 {
			return helper.NewError("change index type", helper.Invalid("siglen must be between 1 and 2024, got %d", siglen))
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_nodes_name_trgm ON nodes USING gist (lower(name) gist_trgm_ops(siglen = %d));`,
			siglen,
		)

	default:
		return helper.NewError("change index type", fmt.Errorf("unsupported index type: %s (use 'gin' or 'gist')", indexType))
	}

	// Drop existing index
	_, err := m.gateway.ExecuteWrite(ctx, `DROP INDEX IF EXISTS idx_nodes_name_trgm;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	m.logger.Info("Dropped existing name index")

	_, err = m.gateway.ExecuteWrite(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	m.logger.Info(fmt.Sprintf("Created %s name index with params: %v", indexType, params))

	return nil
}
