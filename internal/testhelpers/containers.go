//go:build container

// Package testhelpers starts throwaway Postgres and MongoDB containers for the
// repository tests. Run them with:
//
//	go test -tags container ./...
package testhelpers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/yigit/alumnisphere/internal/app/migrations"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	postgresImage = "postgres:16-alpine"
	mongoImage    = "mongo:7"

	postgresPort nat.Port = "5432/tcp"
	mongoPort    nat.Port = "27017/tcp"
)

// endpoint returns host:port of a started container's exposed port
func endpoint(ctx context.Context, t *testing.T, c testcontainers.Container, port nat.Port) string {
	t.Helper()
	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, port)
	if err != nil {
		t.Fatalf("mapped port %s: %v", port, err)
	}
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func terminateOnCleanup(t *testing.T, c testcontainers.Container) {
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
}

// MigrationsDir locates the migrations directory at the module root
func MigrationsDir(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "migrations")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found above working directory")
		}
		dir = parent
	}
}

// StartPostgres runs a Postgres container with every migration applied and
// returns a pool connected to it
func StartPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{string(postgresPort)},
			Env: map[string]string{
				"POSTGRES_USER":     "alumni",
				"POSTGRES_PASSWORD": "alumni",
				"POSTGRES_DB":       "alumnisphere",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	terminateOnCleanup(t, c)

	dsn := fmt.Sprintf("postgres://alumni:alumni@%s/alumnisphere?sslmode=disable", endpoint(ctx, t, c, postgresPort))
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := migrations.NewMigrator(pool, zerolog.Nop()).MigrateFromDirectory(ctx, MigrationsDir(t)); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}

// StartMongo runs a MongoDB container and returns a fresh database on it
func StartMongo(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        mongoImage,
			ExposedPorts: []string{string(mongoPort)},
			WaitingFor: wait.ForLog("Waiting for connections").
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start mongo: %v", err)
	}
	terminateOnCleanup(t, c)

	client, err := mongo.Connect(options.Client().ApplyURI("mongodb://" + endpoint(ctx, t, c, mongoPort)))
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	return client.Database("alumnisphere_test")
}
