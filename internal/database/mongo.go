package database

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/segyhp/loan-tracker/internal/config"
)

// NewMongoHandle returns a lazily connected handle to the MongoDB cluster.
func NewMongoHandle(cfg config.MongoConfig, log logrus.FieldLogger) *Handle[*mongo.Client] {
	return NewHandle("mongo", DialMongo(cfg), func(client *mongo.Client) error {
		return client.Disconnect(context.Background())
	}, log)
}

// DialMongo connects and pings the primary, so a returned client is known good.
func DialMongo(cfg config.MongoConfig) DialFunc[*mongo.Client] {
	return func(ctx context.Context) (*mongo.Client, error) {
		opts := options.Client().ApplyURI(cfg.URL)
		if cfg.Timeout > 0 {
			opts.SetConnectTimeout(cfg.Timeout).SetServerSelectionTimeout(cfg.Timeout)
		}

		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			return nil, err
		}

		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}

		return client, nil
	}
}
