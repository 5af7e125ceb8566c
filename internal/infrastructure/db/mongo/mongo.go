package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings for the users database.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Conn is a verified connection to the users database.
type Conn struct {
	client *mongo.Client
	DB     *mongo.Database
}

// Connect dials MongoDB, pings it and selects cfg.Database.
func Connect(ctx context.Context, cfg Config) (*Conn, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout).
		SetAppName("panel-mockapi"))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Conn{client: client, DB: client.Database(cfg.Database)}, nil
}

func (c *Conn) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
