package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupBlacklist(t *testing.T) *TokenBlacklist {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis tests in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "redis")
	require.NoError(t, err)

	client, err := Connect(ctx, endpoint)
	require.NoError(t, err)
	bl := NewTokenBlacklist(client)
	t.Cleanup(func() { _ = bl.Close() })
	return bl
}

func TestTokenBlacklist(t *testing.T) {
	bl := setupBlacklist(t)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// expired tokens need no blacklisting
	require.NoError(t, bl.Revoke(ctx, "jti-2", 0))
	revoked, err = bl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "jti-3", 50*time.Millisecond))
	assert.Eventually(t, func() bool {
		revoked, err := bl.IsRevoked(ctx, "jti-3")
		return err == nil && !revoked
	}, 5*time.Second, 50*time.Millisecond)
}

func TestConnectInvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), "not a url")
	assert.Error(t, err)
}
