package store

import (
	"context"
	"fmt"
	"mime"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps one document per object. The bucket names the collection
// and the key is the document _id.
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database

	now func() time.Time
}

// NewMongo connects to uri and pings the server before returning.
func NewMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return &MongoStore{client: client, database: client.Database(database)}, nil
}

// Put upserts the object document and returns mongodb://<db>/<bucket>/<key>.
func (s *MongoStore) Put(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error) {
	if err := validate(bucket, key); err != nil {
		return "", err
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	doc, err := mongoDocument(key, body, contentType, now().UTC())
	if err != nil {
		return "", err
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.database.Collection(bucket).ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return "", fmt.Errorf("save %s/%s: %w", bucket, key, err)
	}
	return fmt.Sprintf("mongodb://%s/%s/%s", s.database.Name(), bucket, key), nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// mongoDocument stores JSON bodies as queryable sub-documents and anything
// else as raw bytes.
func mongoDocument(key string, body []byte, contentType string, savedAt time.Time) (bson.D, error) {
	doc := bson.D{
		{Key: "_id", Value: key},
		{Key: "content_type", Value: contentType},
		{Key: "size", Value: len(body)},
		{Key: "saved_at", Value: savedAt},
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "application/json" {
		var payload bson.D
		if err := bson.UnmarshalExtJSON(body, false, &payload); err != nil {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		return append(doc, bson.E{Key: "record", Value: payload}), nil
	}
	return append(doc, bson.E{Key: "body", Value: body}), nil
}
