package redis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRedisClient_UnreachableHost(t *testing.T) {
	cases := []struct {
		name   string
		config RedisConfig
	}{
		{"unknown host", RedisConfig{Host: "redis-host-that-does-not-exist.invalid", Port: 6379}},
		{"invalid port", RedisConfig{Host: "localhost", Port: 99999}},
		{"empty config", RedisConfig{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewRedisClient(&tc.config)
			require.Error(t, err)
			require.Nil(t, client)
			require.Contains(t, err.Error(), "failed to connect to Redis")
		})
	}
}

func TestNewRedisSentinelClient_EmptyMasterName(t *testing.T) {
	client, err := NewRedisSentinelClient(&RedisSentinelConfig{
		SentinelHost: "localhost",
		SentinelPort: 26379,
	})
	require.Error(t, err)
	require.Nil(t, client)
	require.Contains(t, err.Error(), "master name is required")
}

func TestNewRedisSentinelClient_UnreachableSentinel(t *testing.T) {
	client, err := NewRedisSentinelClient(&RedisSentinelConfig{
		SentinelHost: "sentinel-host-that-does-not-exist.invalid",
		SentinelPort: 26379,
		MasterName:   "mymaster",
	})
	require.Error(t, err)
	require.Nil(t, client)
	require.Contains(t, err.Error(), "failed to connect to Redis through Sentinel")
}
