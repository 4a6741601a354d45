package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/duynhne/portfolio-service/config"
)

// Collection names in the logical database.
const (
	UsersCollection      = "users"
	PortfoliosCollection = "investorportfolios"
)

// Client is the process-wide handle to the document store.
// It is created once by main and injected into the repositories.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a MongoDB connection, verifies it with a ping and returns a
// handle to the configured logical database. Any failure is returned to the
// caller; nothing is left connected on error.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Client, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo connection uri is empty (set MONGO_URI)")
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout).
		SetBSONOptions(&options.BSONOptions{
			// Nested documents decode as maps so they serialize to plain JSON objects.
			DefaultDocumentM: true,
		})
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxPoolSize))
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database(cfg.Name),
	}, nil
}

// Database returns the logical database the service works against.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Ping reports whether the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

// Close disconnects the client. Calling Close twice reports the driver's
// already-disconnected error.
func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongo: %w", err)
	}
	return nil
}
