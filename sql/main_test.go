package sql

import (
	"context"
	"database/sql"
	"log"
	"testing"

	"github.com/siherrmann/graphreason/helper"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

// testExecutor runs statements directly on the connection pool.
type testExecutor struct {
	db *sql.DB
}

func (e *testExecutor) ExecuteRead(ctx context.Context, query string, params ...interface{}) ([]map[string]interface{}, error) {
	return e.query(ctx, query, params...)
}

func (e *testExecutor) ExecuteWrite(ctx context.Context, query string, params ...interface{}) ([]map[string]interface{}, error) {
	return e.query(ctx, query, params...)
}

func (e *testExecutor) query(ctx context.Context, query string, params ...interface{}) ([]map[string]interface{}, error) {
	rows, err := e.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		row := map[string]interface{}{}
		for i, column := range columns {
			row[column] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func initDB(t *testing.T) (*helper.Database, *testExecutor) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	database := helper.NewTestDatabase(dbConfig)
	exec := &testExecutor{db: database.Instance}

	err = Init(context.Background(), exec)
	require.NoError(t, err)

	return database, exec
}
