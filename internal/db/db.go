package db

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Client struct {
	client   *mongo.Client
	database *mongo.Database
}

func (c *Client) Close() error {
	return c.client.Disconnect(context.TODO())
}

func (c *Client) Collection(name string) *mongo.Collection {
	return c.database.Collection(name)
}

func New(address, databaseName string) (*Client, error) {
	clientOpts := options.Client().ApplyURI(address)

	client, err := mongo.Connect(context.TODO(), clientOpts)
	if err != nil {
		return nil, err
	}
	if err = client.Ping(context.TODO(), nil); err != nil {
		return nil, err
	}
	return &Client{
		client:   client,
		database: client.Database(databaseName),
	}, nil
}
