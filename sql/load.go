package sql

import (
	"context"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed nodes.sql
var nodesSQL string

//go:embed edges.sql
var edgesSQL string

//go:embed paths.sql
var pathsSQL string

//go:embed statistics.sql
var statisticsSQL string

// Executor runs statements against the graph store.
// database.Gateway implements it.
type Executor interface {
	ExecuteRead(ctx context.Context, query string, params ...interface{}) ([]map[string]interface{}, error)
	ExecuteWrite(ctx context.Context, query string, params ...interface{}) ([]map[string]interface{}, error)
}

// Function lists for verification
var NodesFunctions = []string{
	"init_nodes",
	"insert_node",
	"select_node",
	"select_node_by_name",
	"search_nodes",
	"select_nodes_by_type",
	"update_node",
	"link_node_source_doc",
	"delete_node",
}

var EdgesFunctions = []string{
	"init_edges",
	"insert_edge",
	"select_edge",
	"select_edges_by_node",
	"select_edges_between",
	"select_neighbors",
	"update_edge",
	"link_edge_source_doc",
	"delete_edge",
}

var PathsFunctions = []string{
	"select_paths",
	"select_reachable",
}

var StatisticsFunctions = []string{
	"graph_statistics",
	"select_node_degree",
	"select_top_nodes_by_degree",
	"select_orphan_nodes",
	"select_connected_count",
	"select_confidence_distribution",
	"confidence_bucket",
}

// Init intializes db extensions and shared helper functions
func Init(ctx context.Context, exec Executor) error {
	_, err := exec.ExecuteWrite(ctx, initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadNodesSql loads node-related SQL functions
func LoadNodesSql(ctx context.Context, exec Executor, force bool) error {
	return loadSql(ctx, exec, "nodes", nodesSQL, NodesFunctions, force)
}

// LoadEdgesSql loads edge-related SQL functions
func LoadEdgesSql(ctx context.Context, exec Executor, force bool) error {
	return loadSql(ctx, exec, "edges", edgesSQL, EdgesFunctions, force)
}

// LoadPathsSql loads path enumeration SQL functions
func LoadPathsSql(ctx context.Context, exec Executor, force bool) error {
	return loadSql(ctx, exec, "paths", pathsSQL, PathsFunctions, force)
}

// LoadStatisticsSql loads aggregate statistics SQL functions
func LoadStatisticsSql(ctx context.Context, exec Executor, force bool) error {
	return loadSql(ctx, exec, "statistics", statisticsSQL, StatisticsFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(ctx context.Context, exec Executor, force bool) error {
	if err := LoadNodesSql(ctx, exec, force); err != nil {
		return err
	}

	if err := LoadEdgesSql(ctx, exec, force); err != nil {
		return err
	}

	if err := LoadPathsSql(ctx, exec, force); err != nil {
		return err
	}

	if err := LoadStatisticsSql(ctx, exec, force); err != nil {
		return err
	}

	return nil
}

func loadSql(ctx context.Context, exec Executor, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(ctx, exec, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := exec.ExecuteWrite(ctx, script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(ctx, exec, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(ctx context.Context, exec Executor, sqlFunctions []string) (bool, error) {
	for _, f := range sqlFunctions {
		rows, err := exec.ExecuteRead(
			ctx,
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1) AS found;`,
			f,
		)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if len(rows) == 0 {
			return false, nil
		}
		if found, _ := rows[0]["found"].(bool); !found {
			log.Printf("Function %s does not exist", f)
			return false, nil
		}
	}
	return true, nil
}
