// Package testutil starts the containers used by integration tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// GetRedisAddress returns the host:port of a shared Redis container,
// starting it on first use. The test is skipped when no container
// runtime is available.
func GetRedisAddress(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	redisOnce.Do(startRedis)
	if redisErr != nil {
		t.Skipf("redis container unavailable: %v", redisErr)
	}
	return redisAddr
}

func startRedis() {
	// Give generous timeout in CI environments
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379/tcp"},
		},
		Started: true,
	}
	err := testcontainers.WithWaitStrategy(
		wait.ForListeningPort("6379/tcp"),
		wait.ForLog("Ready to accept connections"),
	).Customize(&req)
	if err != nil {
		redisErr = err
		return
	}

	redisC, err := testcontainers.GenericContainer(ctx, req)
	if err != nil {
		redisErr = err
		return
	}

	endpoint, err := redisC.Endpoint(ctx, "")
	if err != nil {
		_ = redisC.Terminate(context.Background()) // best-effort cleanup
		redisErr = err
		return
	}

	// The container is shared by every test in the binary; Ryuk reaps it
	// when the process exits.
	redisAddr = endpoint
}
