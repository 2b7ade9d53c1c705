package database

import (
	"encoding/json"
	"log/slog"

	"github.com/lib/pq"
	"github.com/siherrmann/graphreason/model"
)

// textArray converts a type filter into a text[] parameter. An empty filter
// is sent as NULL, which the SQL functions read as "no filter".
func textArray[T ~string](values []T) interface{} {
	if len(values) == 0 {
		return nil
	}
	array := make([]string, len(values))
	for i, v := range values {
		array[i] = string(v)
	}
	return pq.Array(array)
}

// limitParam sends non positive limits as NULL (no limit).
func limitParam(limit int) interface{} {
	if limit <= 0 {
		return nil
	}
	return limit
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nullNodeType(t *model.NodeType) interface{} {
	if t == nil || *t == "" {
		return nil
	}
	return string(*t)
}

func jsonArray(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// gatewayLogger returns the logger of the Postgres gateway or the default logger.
func gatewayLogger(gateway GraphGateway) *slog.Logger {
	if g, ok := gateway.(*Gateway); ok && g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}
