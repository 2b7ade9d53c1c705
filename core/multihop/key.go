package multihop

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/siherrmann/graphreason/model"
)

// CacheKey derives a stable key from the query parameters. Type lists are
// sorted, so their order does not change the key.
func CacheKey(prefix string, entityID string, opts model.MultiHopOptions, extra map[string]interface{}) string {
	relationTypes := make([]string, len(opts.RelationTypes))
	for i, t := range opts.RelationTypes {
		relationTypes[i] = string(t)
	}
	sort.Strings(relationTypes)

	entityTypes := make([]string, len(opts.EntityTypes))
	for i, t := range opts.EntityTypes {
		entityTypes[i] = string(t)
	}
	sort.Strings(entityTypes)

	if extra == nil {
		extra = map[string]interface{}{}
	}

	// json sorts map keys
	data, _ := json.Marshal(map[string]interface{}{
		"prefix":         prefix,
		"entity_id":      entityID,
		"relation_types": relationTypes,
		"entity_types":   entityTypes,
		"min_confidence": opts.MinConfidence,
		"limit":          opts.Limit,
		"extra":          extra,
	})
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
