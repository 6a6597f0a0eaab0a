package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/pushport/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type MongoInstance struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func (m *MongoInstance) GetCollection(collectionName string) *mongo.Collection {
	return m.Database.Collection(collectionName)
}

func (m *MongoInstance) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func ConnectPostgres(postgresConfig config.PostgresConfig) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(postgresConfig.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

func ConnectMongoDB(ctx context.Context, mongoConfig config.MongoDBConfig) (*MongoInstance, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoConfig.URI))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	instance := &MongoInstance{
		Client:   client,
		Database: client.Database(mongoConfig.Database),
	}

	instance.createIndexes(ctx)

	return instance, nil
}

func (m *MongoInstance) createIndexes(ctx context.Context) {
	indexes := map[string][]mongo.IndexModel{
		"schedules": {
			{Keys: bson.D{{Key: "rid", Value: 1}, {Key: "kind", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "records.tpl", Value: 1}}},
		},
		"service_updates": {
			{Keys: bson.D{{Key: "updateid", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "rid", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		"locations": {
			{Keys: bson.D{{Key: "updateid", Value: 1}}},
			{Keys: bson.D{{Key: "tpl", Value: 1}}},
		},
	}

	for collectionName, models := range indexes {
		_, err := m.GetCollection(collectionName).Indexes().CreateMany(ctx, models, options.CreateIndexes())
		if err != nil {
			log.Error().Err(err).Str("collection", collectionName).Msg("Creating Index")
		}
	}
}
