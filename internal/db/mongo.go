package db

import (
	"context"
	"fmt"
	"time"

	"github.com/yigit/alumnisphere/internal/config"
	"github.com/yigit/alumnisphere/internal/pkg/helpers"
	"github.com/yigit/alumnisphere/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoDB wraps a connected client and the application database
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewMongoDB connects to MongoDB and verifies the connection with a ping
func NewMongoDB(cfg *config.Config) (*MongoDB, error) {
	timeout := helpers.ParseDuration(cfg.Mongo.Timeout, 10*time.Second)

	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to establish mongo connection: %w", err)
	}

	logger.Info().Str("database", cfg.Mongo.Database).Msg("Connected to MongoDB")

	return &MongoDB{
		Client:   client,
		Database: client.Database(cfg.Mongo.Database),
	}, nil
}

// Ping checks that the primary is reachable
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (m *MongoDB) Close(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return nil
	}
	return m.Client.Disconnect(ctx)
}
