package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dmitrijs2005/sabo/internal/common"
	"github.com/dmitrijs2005/sabo/internal/server/models"
)

// MongoCollection is the collection holding documents.
const MongoCollection = "documents"

// mongoDocument is the stored shape. Items are kept as the JSON text the
// client sent so that nothing is lost to BSON conversion.
type mongoDocument struct {
	UserID    string    `bson:"userId"`
	Items     string    `bson:"items"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
	Version   int64     `bson:"version"`
}

func (d mongoDocument) model() *models.Document {
	return &models.Document{
		UserID:    d.UserID,
		Items:     json.RawMessage(d.Items),
		UpdatedAt: d.UpdatedAt,
		Version:   d.Version,
	}
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(collection *mongo.Collection) *MongoRepository {
	return &MongoRepository{collection: collection}
}

// EnsureIndexes creates the unique userId index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create documents index: %w", err)
	}
	return nil
}

func userFilter(userID string) bson.M {
	return bson.M{"userId": userID}
}

// putUpdate sets items and updatedAt on every write, the identity fields on
// insert only, and increments version. $inc on a missing field starts from
// zero, so a new document gets version 1.
func putUpdate(userID string, items json.RawMessage, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"items":     string(items),
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"userId":    userID,
			"createdAt": now,
		},
		"$inc": bson.M{
			"version": 1,
		},
	}
}

func (r *MongoRepository) Get(ctx context.Context, userID string) (*models.Document, error) {
	var doc mongoDocument
	err := r.collection.FindOne(ctx, userFilter(userID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("document %s: %w", userID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc.model(), nil
}

func (r *MongoRepository) Put(ctx context.Context, userID string, items json.RawMessage, now time.Time) (*models.Document, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc mongoDocument
	err := r.collection.FindOneAndUpdate(ctx, userFilter(userID), putUpdate(userID, items, now), opts).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("upsert document: %w", err)
	}
	return doc.model(), nil
}
