package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	// Create indexes
	err = createIndexes(client, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	// Files collection indexes
	filesCollection := db.Collection("files")
	fileIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "knowledge_base_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "bot_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}
	_, err := filesCollection.Indexes().CreateMany(context.Background(), fileIndexes)
	if err != nil {
		return err
	}

	// Chunks collection indexes for scope-filtered retrieval
	chunksCollection := db.Collection("chunks")
	chunkIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "file_id", Value: 1}}},
		{Keys: bson.D{{Key: "knowledge_base_id", Value: 1}}},
		{Keys: bson.D{{Key: "bot_id", Value: 1}}},
	}
	_, err = chunksCollection.Indexes().CreateMany(context.Background(), chunkIndexes)
	if err != nil {
		return err
	}

	// Knowledge bases collection indexes
	kbCollection := db.Collection("knowledge_bases")
	kbIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
	}
	_, err = kbCollection.Indexes().CreateMany(context.Background(), kbIndexes)
	if err != nil {
		return err
	}

	// Bots collection indexes
	botsCollection := db.Collection("bots")
	botIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
	}
	_, err = botsCollection.Indexes().CreateMany(context.Background(), botIndexes)
	if err != nil {
		return err
	}

	return nil
}
