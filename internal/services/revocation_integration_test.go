//go:build integration

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisRevocationStore(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	addr, err := container.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisRevocationStore(client)

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := client.TTL(ctx, revocationKeyPrefix+"jti-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
