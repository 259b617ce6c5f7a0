package client

import (
	"context"
	"fmt"
	"time"

	"roomsync/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const disconnectTimeout = 10 * time.Second

// Client holds the process-wide store connections. Mongo stays nil on the
// memory backend.
type Client struct {
	Mongo *mongo.Client
}

func NewClient() *Client {
	return &Client{}
}

// MongoOptions are the driver settings every roomsync process uses. Booking
// and room writes must survive a primary failover, so writes wait for a
// majority and reads go to the primary.
func MongoOptions(uri, appName string, timeout time.Duration) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetRetryWrites(true).
		SetWriteConcern(writeconcern.Majority()).
		SetReadPreference(readpref.Primary())
	if appName != "" {
		opts.SetAppName(appName)
	}
	return opts
}

// ConnectMongo dials and pings the server before keeping the connection.
func (c *Client) ConnectMongo(ctx context.Context, uri, appName string, timeout time.Duration) error {
	mc, err := mongo.Connect(ctx, MongoOptions(uri, appName, timeout))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		_ = mc.Disconnect(context.Background())
		return fmt.Errorf("ping: %w", err)
	}
	c.Mongo = mc
	return nil
}

func (c *Client) GracefulShutdown(log *logger.Logger) {
	if c.Mongo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	if err := c.Mongo.Disconnect(ctx); err != nil {
		log.Error("Failed to disconnect from MongoDB", "error", err)
		return
	}
	c.Mongo = nil
	log.Info("Disconnected from MongoDB")
}
