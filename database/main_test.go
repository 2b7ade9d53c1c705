package database

import (
	"context"
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

func initDB(t *testing.T) *Gateway {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	database := helper.NewTestDatabase(dbConfig)
	t.Cleanup(func() { _ = database.Close() })

	gateway, err := NewGateway(database)
	require.NoError(t, err, "Expected NewGateway to not return an error")

	return gateway
}

// initHandlers creates all handlers on a freshly truncated schema.
func initHandlers(t *testing.T) (*NodesDBHandler, *EdgesDBHandler, *PathsDBHandler, *StatisticsDBHandler) {
	gateway := initDB(t)

	nodesDbHandler, err := NewNodesDBHandler(gateway, false)
	require.NoError(t, err, "Expected NewNodesDBHandler to not return an error")
	edgesDbHandler, err := NewEdgesDBHandler(gateway, false)
	require.NoError(t, err, "Expected NewEdgesDBHandler to not return an error")
	pathsDbHandler, err := NewPathsDBHandler(gateway, false)
	require.NoError(t, err, "Expected NewPathsDBHandler to not return an error")
	statisticsDbHandler, err := NewStatisticsDBHandler(gateway, false)
	require.NoError(t, err, "Expected NewStatisticsDBHandler to not return an error")

	_, err = gateway.ExecuteWrite(context.Background(), `TRUNCATE nodes CASCADE;`)
	require.NoError(t, err, "Expected truncate to not return an error")

	return nodesDbHandler, edgesDbHandler, pathsDbHandler, statisticsDbHandler
}
