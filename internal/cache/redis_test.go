package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefixedKeyCollapsesColons(t *testing.T) {
	require.Equal(t, "teamhub:ratelimit:login", prefixed("ratelimit::login"))
	require.Equal(t, "teamhub:", prefixed(""))
	require.Equal(t, "a:b:c", normalizeKey("a:::b::c"))
}

func TestNewRedisStoreRequiresAddress(t *testing.T) {
	_, err := NewRedisStore(context.Background(), RedisConfig{Address: "  "})
	require.EqualError(t, err, "redis: address is required")
}

var _ Store = (*RedisStore)(nil)
