package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/siherrmann/graphreason/helper"
)

// Metadata is an open schema property map, stored as JSONB.
type Metadata map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return m.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

// Marshal converts Metadata to JSON bytes
func (m Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal converts JSON bytes, a JSON string or Metadata to Metadata
func (m *Metadata) Unmarshal(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case Metadata:
		*m = v
		return nil
	case map[string]interface{}:
		*m = Metadata(v)
		return nil
	case string:
		return json.Unmarshal([]byte(v), m)
	case []byte:
		return json.Unmarshal(v, m)
	}
	return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
}

// Clone returns a shallow copy of the map.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	c := make(Metadata, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// MergeMissing copies keys of other that m does not have yet.
func (m Metadata) MergeMissing(other Metadata) Metadata {
	if m == nil {
		m = Metadata{}
	}
	for k, v := range other {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
	return m
}

// StringValues returns the string typed values in key order.
func (m Metadata) StringValues() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			values = append(values, s)
		}
	}
	return values
}

// ValidateFilters checks that m can be used as an equality filter on node
// properties: non-empty keys and scalar values only.
func (m Metadata) ValidateFilters() error {
	for k, v := range m {
		if k == "" {
			return fmt.Errorf("%w: empty property key", helper.ErrInvalidFilter)
		}
		switch v.(type) {
		case string, bool, float64, float32, int, int32, int64, nil:
		default:
			return fmt.Errorf("%w: property %q has non-scalar value of type %T", helper.ErrInvalidFilter, k, v)
		}
	}
	return nil
}

// MatchesFilters reports whether every filter key is present in m with an equal value.
// Numbers are compared as float64.
func (m Metadata) MatchesFilters(filters Metadata) bool {
	for k, want := range filters {
		got, ok := m[k]
		if !ok {
			return false
		}
		if !scalarEqual(got, want) {
			return false
		}
	}
	return true
}

func scalarEqual(a, b interface{}) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return a == b
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
