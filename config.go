package graphreason

import (
	"strings"

	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
)

// NewReasonerConfigFromEnv reads the reasoner configuration from KG_ prefixed
// environment variables (optionally from a .env file), starting from the defaults.
func NewReasonerConfigFromEnv() (model.ReasonerConfig, error) {
	config := model.DefaultReasonerConfig()
	if err := helper.LoadEnvFile(); err != nil {
		return config, err
	}

	nodeTypes := helper.EnvList("KG_ENTITY_TYPES", nil)
	if len(nodeTypes) > 0 {
		config.NodeTypes = make([]model.NodeType, 0, len(nodeTypes))
		for _, t := range nodeTypes {
			config.NodeTypes = append(config.NodeTypes, model.NodeType(t))
		}
	}
	edgeTypes := helper.EnvList("KG_RELATION_TYPES", nil)
	if len(edgeTypes) > 0 {
		config.EdgeTypes = make([]model.EdgeType, 0, len(edgeTypes))
		for _, t := range edgeTypes {
			config.EdgeTypes = append(config.EdgeTypes, model.EdgeType(strings.ToUpper(t)))
		}
	}

	var err error
	if config.MaxHops, err = helper.EnvInt("KG_MAX_HOPS", config.MaxHops); err != nil {
		return config, helper.NewError("reasoner configuration", err)
	}
	if config.DefaultLimit, err = helper.EnvInt("KG_DEFAULT_LIMIT", config.DefaultLimit); err != nil {
		return config, helper.NewError("reasoner configuration", err)
	}
	floats := []struct {
		key    string
		target *float64
	}{
		{"KG_SIMILARITY_THRESHOLD", &config.Resolver.Threshold},
		{"KG_NAME_WEIGHT", &config.Resolver.NameWeight},
		{"KG_CONTEXT_WEIGHT", &config.Resolver.ContextWeight},
		{"KG_ENTITY_MIN_CONFIDENCE", &config.EntityMinConfidence},
		{"KG_RELATION_MIN_CONFIDENCE", &config.RelationMinConfidence},
	}
	for _, f := range floats {
		if *f.target, err = helper.EnvFloat(f.key, *f.target); err != nil {
			return config, helper.NewError("reasoner configuration", err)
		}
	}
	if config.CacheTTL, err = helper.EnvDuration("KG_CACHE_TTL", config.CacheTTL); err != nil {
		return config, helper.NewError("reasoner configuration", err)
	}
	config.CacheBackend = strings.ToLower(helper.EnvString("KG_CACHE_BACKEND", config.CacheBackend))
	config.RedisAddr = helper.EnvString("KG_REDIS_ADDR", config.RedisAddr)

	if err := config.Validate(); err != nil {
		return config, helper.NewError("reasoner configuration", err)
	}
	return config, nil
}
