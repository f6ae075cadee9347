package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Sternrassler/duoload/pkg/output/mongoout"
)

// requireDocker skips container tests in -short mode or without a Docker provider.
func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// startContainer starts req and returns host:port of the first exposed port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start %s container: %v", req.Image, err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate %s container: %v", req.Image, err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	requireDocker(t)

	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}, "6379")

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Redis container not reachable: %v", err)
	}

	return client
}

// setupMongo creates a MongoDB container and returns a fresh database.
func setupMongo(t *testing.T) *mongo.Database {
	t.Helper()
	requireDocker(t)

	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}, "27017")

	client, err := mongoout.Connect(context.Background(), "mongodb://"+addr)
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB container: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Disconnect(ctx)
	})

	return client.Database("duoload_test")
}
