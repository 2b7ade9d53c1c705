package database

import (
	"fmt"
	"time"

	"github.com/siherrmann/graphreason/model"
	"github.com/tidwall/gjson"
)

// jsonColumn returns the parsed JSON value of a jsonb column.
func jsonColumn(row Row, column string) (gjson.Result, error) {
	switch v := row[column].(type) {
	case []byte:
		if !gjson.ValidBytes(v) {
			return gjson.Result{}, fmt.Errorf("column %s holds invalid json", column)
		}
		return gjson.ParseBytes(v), nil
	case string:
		if !gjson.Valid(v) {
			return gjson.Result{}, fmt.Errorf("column %s holds invalid json", column)
		}
		return gjson.Parse(v), nil
	case nil:
		return gjson.Result{}, nil
	default:
		return gjson.Result{}, fmt.Errorf("column %s has unexpected type %T", column, v)
	}
}

func intColumn(row Row, column string) int {
	switch v := row[column].(type) {
	case int64:
		return int(v)
	case int32:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func nodeFromJSON(r gjson.Result) (*model.Node, error) {
	if !r.IsObject() {
		return nil, fmt.Errorf("node json is not an object")
	}

	createdAt, err := timeFromJSON(r.Get("created_at"))
	if err != nil {
		return nil, err
	}
	updatedAt, err := timeFromJSON(r.Get("updated_at"))
	if err != nil {
		return nil, err
	}

	return &model.Node{
		ID:          r.Get("id").String(),
		Name:        r.Get("name").String(),
		Type:        model.NodeType(r.Get("node_type").String()),
		Description: r.Get("description").String(),
		Confidence:  r.Get("confidence").Float(),
		Properties:  metadataFromJSON(r.Get("properties")),
		SourceDocs:  stringsFromJSON(r.Get("source_docs")),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func edgeFromJSON(r gjson.Result) (*model.Edge, error) {
	if !r.IsObject() {
		return nil, fmt.Errorf("edge json is not an object")
	}

	createdAt, err := timeFromJSON(r.Get("created_at"))
	if err != nil {
		return nil, err
	}

	return &model.Edge{
		ID:         r.Get("id").String(),
		Type:       model.EdgeType(r.Get("edge_type").String()),
		HeadID:     r.Get("head_id").String(),
		TailID:     r.Get("tail_id").String(),
		Confidence: r.Get("confidence").Float(),
		Evidence:   r.Get("evidence").String(),
		Properties: metadataFromJSON(r.Get("properties")),
		SourceDocs: stringsFromJSON(r.Get("source_docs")),
		CreatedAt:  createdAt,
	}, nil
}

func nodesFromJSON(r gjson.Result) ([]*model.Node, error) {
	nodes := []*model.Node{}
	for _, item := range r.Array() {
		node, err := nodeFromJSON(item)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func edgesFromJSON(r gjson.Result) ([]*model.Edge, error) {
	edges := []*model.Edge{}
	for _, item := range r.Array() {
		edge, err := edgeFromJSON(item)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

// pathFromRow decodes the path_nodes and path_edges columns of a path row.
func pathFromRow(row Row) (*model.Path, error) {
	nodesJSON, err := jsonColumn(row, "path_nodes")
	if err != nil {
		return nil, err
	}
	edgesJSON, err := jsonColumn(row, "path_edges")
	if err != nil {
		return nil, err
	}

	nodes, err := nodesFromJSON(nodesJSON)
	if err != nil {
		return nil, err
	}
	edges, err := edgesFromJSON(edgesJSON)
	if err != nil {
		return nil, err
	}

	path := model.NewPath(nodes, edges)
	err = path.Validate()
	if err != nil {
		return nil, err
	}
	return path, nil
}

func metadataFromJSON(r gjson.Result) model.Metadata {
	m := model.Metadata{}
	if !r.IsObject() {
		return m
	}
	r.ForEach(func(key, value gjson.Result) bool {
		m[key.String()] = value.Value()
		return true
	})
	return m
}

func stringsFromJSON(r gjson.Result) []string {
	values := []string{}
	for _, item := range r.Array() {
		values = append(values, item.String())
	}
	return values
}

func timeFromJSON(r gjson.Result) (time.Time, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, r.String())
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing timestamp %q: %w", r.String(), err)
	}
	return t, nil
}
