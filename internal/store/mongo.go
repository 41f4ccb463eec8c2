package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/i474232898/weather-records/internal/metrics"
	"github.com/i474232898/weather-records/internal/weather"
)

// MongoStore keeps one document per record. The database side assigns ids
// (ObjectID hex strings) and orders the list.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger

	now func() time.Time
}

// OpenMongo connects to uri and returns a store over database/collection.
func OpenMongo(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return NewMongoStore(client, client.Database(database).Collection(collection), logger), nil
}

// NewMongoStore wraps an existing collection.
func NewMongoStore(client *mongo.Client, coll *mongo.Collection, logger *slog.Logger) *MongoStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoStore{
		client: client,
		coll:   coll,
		logger: logger,
		// BSON datetimes carry milliseconds.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// List returns all records most recent first. A query or decode failure is
// logged and served as an empty list.
func (s *MongoStore) List(ctx context.Context) ([]weather.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		s.logger.Warn("weather collection unreadable, serving empty list", "error", err)
		metrics.ObserveDegradedList()
		return []weather.Record{}, nil
	}
	out := []weather.Record{}
	if err := cur.All(ctx, &out); err != nil {
		s.logger.Warn("weather collection undecodable, serving empty list", "error", err)
		metrics.ObserveDegradedList()
		return []weather.Record{}, nil
	}
	return out, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (weather.Record, error) {
	var rec weather.Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return weather.Record{}, ErrNotFound
	}
	if err != nil {
		return weather.Record{}, fmt.Errorf("find %q: %w", id, err)
	}
	return rec, nil
}

func (s *MongoStore) Insert(ctx context.Context, p weather.Patch) (weather.Record, error) {
	rec := weather.NewRecord(primitive.NewObjectID().Hex(), s.now(), p)
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return weather.Record{}, fmt.Errorf("insert: %w", err)
	}
	return rec, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, p weather.Patch) (weather.Record, error) {
	set := setDocument(p)
	if len(set) == 0 {
		return s.Get(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rec weather.Record
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return weather.Record{}, ErrNotFound
	}
	if err != nil {
		return weather.Record{}, fmt.Errorf("update %q: %w", id, err)
	}
	return rec, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (weather.Record, error) {
	var rec weather.Record
	err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return weather.Record{}, ErrNotFound
	}
	if err != nil {
		return weather.Record{}, fmt.Errorf("delete %q: %w", id, err)
	}
	return rec, nil
}

// setDocument lists the fields present in p as a $set document. _id is
// never part of it.
func setDocument(p weather.Patch) bson.M {
	set := bson.M{}
	if p.Date != nil {
		set["date"] = p.Date.UTC().Truncate(time.Millisecond)
	}
	f := p.Fields
	if f.Location != nil {
		set["location"] = *f.Location
	}
	if f.Country != nil {
		set["country"] = *f.Country
	}
	if f.Temperature != nil {
		set["temperature"] = *f.Temperature
	}
	if f.FeelsLike != nil {
		set["feelsLike"] = *f.FeelsLike
	}
	if f.Humidity != nil {
		set["humidity"] = *f.Humidity
	}
	if f.WindSpeed != nil {
		set["windSpeed"] = *f.WindSpeed
	}
	if f.Description != nil {
		set["description"] = *f.Description
	}
	if f.Icon != nil {
		set["icon"] = *f.Icon
	}
	if f.Forecast != nil {
		set["forecast"] = f.Forecast
	}
	return set
}
