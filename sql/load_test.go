package sql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func functionExists(t *testing.T, exec *testExecutor, name string) bool {
	rows, err := exec.ExecuteRead(context.Background(), "SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1) AS found;", name)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	found, _ := rows[0]["found"].(bool)
	return found
}

func TestInit(t *testing.T) {
	db, exec := initDB(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("Initialize database extensions", func(t *testing.T) {
		err := Init(ctx, exec)
		assert.NoError(t, err)

		rows, err := exec.ExecuteRead(ctx, "SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'pg_trgm') AS found;")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, true, rows[0]["found"], "pg_trgm extension should be created")
		assert.True(t, functionExists(t, exec, "normalize_name"), "normalize_name should be created")
	})

	t.Run("Initialize database extensions is idempotent", func(t *testing.T) {
		err := Init(ctx, exec)
		assert.NoError(t, err)

		err = Init(ctx, exec)
		assert.NoError(t, err)
	})

	t.Run("Normalize name strips whitespace and punctuation", func(t *testing.T) {
		rows, err := exec.ExecuteRead(ctx, "SELECT normalize_name($1) AS normalized;", "  Acme, Corp. ")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "acmecorp", rows[0]["normalized"])
	})
}

func TestLoadSql(t *testing.T) {
	db, exec := initDB(t)
	defer db.Close()
	ctx := context.Background()

	loaders := []struct {
		name      string
		load      func(ctx context.Context, exec Executor, force bool) error
		functions []string
	}{
		{"nodes", LoadNodesSql, NodesFunctions},
		{"edges", LoadEdgesSql, EdgesFunctions},
		{"paths", LoadPathsSql, PathsFunctions},
		{"statistics", LoadStatisticsSql, StatisticsFunctions},
	}

	for _, loader := range loaders {
		t.Run("Load "+loader.name+" SQL functions", func(t *testing.T) {
			err := loader.load(ctx, exec, false)
			assert.NoError(t, err)

			for _, funcName := range loader.functions {
				assert.True(t, functionExists(t, exec, funcName), "Function %s should exist", funcName)
			}
		})

		t.Run("Load "+loader.name+" SQL is idempotent without force", func(t *testing.T) {
			err := loader.load(ctx, exec, false)
			assert.NoError(t, err)
		})

		t.Run("Load "+loader.name+" SQL with force reloads", func(t *testing.T) {
			err := loader.load(ctx, exec, true)
			assert.NoError(t, err)

			for _, funcName := range loader.functions {
				assert.True(t, functionExists(t, exec, funcName), "Function %s should exist after force reload", funcName)
			}
		})
	}
}

func TestLoadAllSql(t *testing.T) {
	db, exec := initDB(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("Load all SQL functions", func(t *testing.T) {
		err := LoadAllSql(ctx, exec, true)
		require.NoError(t, err)

		_, err = exec.ExecuteWrite(ctx, "SELECT init_nodes();")
		require.NoError(t, err)
		_, err = exec.ExecuteWrite(ctx, "SELECT init_edges();")
		require.NoError(t, err)

		rows, err := exec.ExecuteRead(ctx, "SELECT to_regclass('nodes') IS NOT NULL AS nodes_ok, to_regclass('edges') IS NOT NULL AS edges_ok;")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, true, rows[0]["nodes_ok"])
		assert.Equal(t, true, rows[0]["edges_ok"])
	})
}

func TestPathEnumeration(t *testing.T) {
	db, exec := initDB(t)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, LoadAllSql(ctx, exec, false))
	_, err := exec.ExecuteWrite(ctx, "SELECT init_nodes();")
	require.NoError(t, err)
	_, err = exec.ExecuteWrite(ctx, "SELECT init_edges();")
	require.NoError(t, err)
	_, err = exec.ExecuteWrite(ctx, "TRUNCATE nodes CASCADE;")
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := exec.ExecuteWrite(ctx, "SELECT * FROM insert_node($1, $2, 'Concept', '', 0.9, '{}', '[]');", id, "node "+id)
		require.NoError(t, err)
	}
	edges := [][3]string{{"ab", "a", "b"}, {"bc", "b", "c"}, {"ac", "a", "c"}, {"cd", "c", "d"}}
	for _, e := range edges {
		_, err := exec.ExecuteWrite(ctx, "SELECT * FROM insert_edge($1, 'DEPENDS_ON', $2, $3, 0.8, '', '{}', '[]');", e[0], e[1], e[2])
		require.NoError(t, err)
	}

	t.Run("Valid call select_paths between two nodes", func(t *testing.T) {
		rows, err := exec.ExecuteRead(ctx, "SELECT hop_count FROM select_paths('a', 'c', 1, 3, NULL, 0, 10);")
		require.NoError(t, err)
		require.Len(t, rows, 2, "Expected a direct and a two hop path")
		assert.Equal(t, int64(1), rows[0]["hop_count"])
		assert.Equal(t, int64(2), rows[1]["hop_count"])
	})

	t.Run("Valid call select_paths with exact hops", func(t *testing.T) {
		rows, err := exec.ExecuteRead(ctx, "SELECT hop_count FROM select_paths('a', 'd', 3, 3, NULL, 0, 10);")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(3), rows[0]["hop_count"])
	})

	t.Run("Valid call select_reachable keeps minimum hop count", func(t *testing.T) {
		rows, err := exec.ExecuteRead(ctx, "SELECT end_node->>'id' AS id, hop_count FROM select_reachable('a', 2, NULL, NULL, 0, NULL, 10);")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		hops := map[string]int64{}
		for _, row := range rows {
			hops[row["id"].(string)] = row["hop_count"].(int64)
		}
		assert.Equal(t, map[string]int64{"b": 1, "c": 1, "d": 2}, hops)
	})

	t.Run("Insert edge with missing endpoint fails", func(t *testing.T) {
		_, err := exec.ExecuteWrite(ctx, "SELECT * FROM insert_edge('bad', 'DEPENDS_ON', 'a', 'missing', 0.8, '', '{}', '[]');")
		assert.Error(t, err, "Expected insert_edge with a missing tail to return an error")
	})
}
