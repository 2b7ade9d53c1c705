package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/graphreason/helper"
)

// Row is one result row keyed by column name.
type Row = map[string]interface{}

// GraphGateway executes parameterized statements against the graph store.
type GraphGateway interface {
	ExecuteRead(ctx context.Context, query string, params ...interface{}) ([]Row, error)
	ExecuteWrite(ctx context.Context, query string, params ...interface{}) ([]Row, error)
	HealthCheck(ctx context.Context) bool
}

// Gateway is the Postgres GraphGateway. Reads run in read only transactions.
type Gateway struct {
	db     *helper.Database
	Logger *slog.Logger
}

// NewGateway creates a gateway over an open database.
func NewGateway(db *helper.Database) (*Gateway, error) {
	if db == nil || db.Instance == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	logger := db.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		db:     db,
		Logger: logger,
	}, nil
}

// ExecuteRead runs a query in a read only transaction and returns all rows.
func (g *Gateway) ExecuteRead(ctx context.Context, query string, params ...interface{}) ([]Row, error) {
	return g.execute(ctx, true, query, params...)
}

// ExecuteWrite runs a statement in a read write transaction and returns all rows.
func (g *Gateway) ExecuteWrite(ctx context.Context, query string, params ...interface{}) ([]Row, error) {
	return g.execute(ctx, false, query, params...)
}

// HealthCheck pings the store with a trivial query.
func (g *Gateway) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := g.ExecuteRead(ctx, `SELECT 1 AS ok;`)
	if err != nil {
		g.Logger.Warn("Graph store health check failed", slog.String("error", err.Error()))
		return false
	}
	return len(rows) == 1
}

func (g *Gateway) execute(ctx context.Context, readOnly bool, query string, params ...interface{}) ([]Row, error) {
	tx, err := g.db.Instance.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return nil, classifyError(err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, classifyError(err)
	}

	result, err := scanRows(rows)
	if err != nil {
		return nil, classifyError(err)
	}

	err = tx.Commit()
	if err != nil {
		return nil, classifyError(err)
	}

	return result, nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := []Row{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		err := rows.Scan(pointers...)
		if err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			row[column] = values[i]
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// classifyError maps driver errors onto the sentinel errors of the helper package.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", helper.ErrStoreUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", helper.ErrStoreUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			return fmt.Errorf("%w: %w", helper.ErrStoreUnavailable, err)
		}

		switch pqErr.Code {
		case "P0002", "23503":
			return fmt.Errorf("%w: %s", helper.ErrNotFound, pqErr.Message)
		case "22P02", "23514", "22023":
			return fmt.Errorf("%w: %s", helper.ErrValidation, pqErr.Message)
		}
	}

	return err
}
