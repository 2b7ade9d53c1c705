package graphreason

import (
	"testing"
	"time"

	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReasonerConfigFromEnv(t *testing.T) {
	t.Run("Valid call with defaults", func(t *testing.T) {
		config, err := NewReasonerConfigFromEnv()
		require.NoError(t, err, "Expected NewReasonerConfigFromEnv to not return an error")
		assert.Equal(t, model.DefaultReasonerConfig(), config)
	})

	t.Run("Valid call with overrides", func(t *testing.T) {
		t.Setenv("KG_ENTITY_TYPES", "Person, Organization")
		t.Setenv("KG_RELATION_TYPES", "affects,depends_on")
		t.Setenv("KG_MAX_HOPS", "5")
		t.Setenv("KG_DEFAULT_LIMIT", "50")
		t.Setenv("KG_SIMILARITY_THRESHOLD", "0.9")
		t.Setenv("KG_ENTITY_MIN_CONFIDENCE", "0.6")
		t.Setenv("KG_CACHE_TTL", "10m")
		t.Setenv("KG_CACHE_BACKEND", "Redis")
		t.Setenv("KG_REDIS_ADDR", "localhost:6379")

		config, err := NewReasonerConfigFromEnv()
		require.NoError(t, err, "Expected NewReasonerConfigFromEnv to not return an error")
		assert.Equal(t, []model.NodeType{model.NodeTypePerson, model.NodeTypeOrganization}, config.NodeTypes)
		assert.Equal(t, []model.EdgeType{model.EdgeTypeAffects, model.EdgeTypeDependsOn}, config.EdgeTypes)
		assert.Equal(t, 5, config.MaxHops)
		assert.Equal(t, 50, config.DefaultLimit)
		assert.Equal(t, 0.9, config.Resolver.Threshold)
		assert.Equal(t, 0.6, config.EntityMinConfidence)
		assert.Equal(t, 10*time.Minute, config.CacheTTL)
		assert.Equal(t, "redis", config.CacheBackend)
		assert.Equal(t, "localhost:6379", config.RedisAddr)
	})

	t.Run("Invalid call with out of range hops", func(t *testing.T) {
		t.Setenv("KG_MAX_HOPS", "11")
		_, err := NewReasonerConfigFromEnv()
		assert.ErrorIs(t, err, helper.ErrValidation)
	})

	t.Run("Invalid call with malformed threshold", func(t *testing.T) {
		t.Setenv("KG_SIMILARITY_THRESHOLD", "high")
		_, err := NewReasonerConfigFromEnv()
		assert.ErrorIs(t, err, helper.ErrValidation)
	})
}
