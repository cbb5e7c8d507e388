package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shreyasmhade/QickServe/internal/domain"
)

// mongoRestaurantRepository stores each restaurant as one document with its
// categories, menu items and tables embedded, matching the shape the web
// client kept under the restaurants key.
type mongoRestaurantRepository struct {
	collection *mongo.Collection
}

func NewMongoRestaurantRepository(db *mongo.Database) RestaurantRepository {
	return &mongoRestaurantRepository{
		collection: db.Collection("restaurants"),
	}
}

func (m *mongoRestaurantRepository) List(ctx context.Context) ([]domain.Restaurant, error) {
	cursor, err := m.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	defer cursor.Close(ctx)

	restaurants := []domain.Restaurant{}
	if errAll := cursor.All(ctx, &restaurants); errAll != nil {
		return nil, fmt.Errorf("failed to decode restaurants: %w", errAll)
	}
	return restaurants, nil
}

func (m *mongoRestaurantRepository) Get(ctx context.Context, id string) (*domain.Restaurant, error) {
	var restaurant domain.Restaurant

	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&restaurant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	return &restaurant, nil
}

func (m *mongoRestaurantRepository) SaveAll(ctx context.Context, restaurants []domain.Restaurant) error {
	if _, err := m.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear restaurants: %w", err)
	}
	if len(restaurants) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(restaurants))
	for _, r := range restaurants {
		docs = append(docs, r)
	}
	if _, err := m.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert restaurants: %w", err)
	}
	return nil
}

func (m *mongoRestaurantRepository) SetTableStatus(ctx context.Context, restaurantID, tableID string, status domain.TableStatus) error {
	filter := bson.M{"_id": restaurantID, "tables.id": tableID}
	update := bson.M{
		"$set": bson.M{
			"tables.$[elem].status": status,
		},
	}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.id": tableID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update table status: %w", err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a dangling table from a dangling restaurant.
		if _, errGet := m.Get(ctx, restaurantID); errGet != nil {
			return errGet
		}
		return ErrTableNotFound
	}
	return nil
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}
