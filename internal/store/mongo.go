package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/legal-search/internal/models"
)

// MongoStore keeps document views in MongoDB.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("document_views")}
}

func (s *MongoStore) RecordView(ctx context.Context, v *models.DocumentView) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	if _, err := s.col.InsertOne(ctx, v); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

// RecentViews returns the newest views first, optionally for one document.
func (s *MongoStore) RecentViews(ctx context.Context, documentID string, limit int) ([]models.DocumentView, error) {
	filter := bson.M{}
	if documentID != "" {
		filter["document_id"] = documentID
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var views []models.DocumentView
	if err := cur.All(ctx, &views); err != nil {
		return nil, err
	}
	return views, nil
}
