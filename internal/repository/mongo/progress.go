package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"playbackengine/internal/domain"
)

type progressDoc struct {
	ID        string  `bson:"_id"`
	UserID    string  `bson:"userId"`
	ContentID string  `bson:"contentId"`
	Position  float64 `bson:"position"`
	Duration  float64 `bson:"duration"`
	UpdatedAt int64   `bson:"updatedAt"`
}

// ProgressRepository persists the last watched position per user and content
// item.
type ProgressRepository struct {
	collection *mongo.Collection
}

func NewProgressRepository(client *mongo.Client, dbName string) *ProgressRepository {
	return &ProgressRepository{collection: client.Database(dbName).Collection("watch_progress")}
}

func (r *ProgressRepository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.collection == nil {
		return nil
	}
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "updatedAt", Value: -1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

func progressDocID(userID string, contentID domain.ContentID) string {
	return fmt.Sprintf("%s:%s", userID, string(contentID))
}

func (r *ProgressRepository) Upsert(ctx context.Context, userID string, wp domain.WatchProgress) error {
	update := bson.M{
		"$set": bson.M{
			"userId":    userID,
			"contentId": string(wp.ContentID),
			"position":  wp.Position,
			"duration":  wp.Duration,
			"updatedAt": time.Now().Unix(),
		},
	}
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": progressDocID(userID, wp.ContentID)},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *ProgressRepository) Get(ctx context.Context, userID string, contentID domain.ContentID) (domain.WatchProgress, bool, error) {
	var doc progressDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": progressDocID(userID, contentID)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.WatchProgress{}, false, nil
		}
		return domain.WatchProgress{}, false, err
	}
	return domain.WatchProgress{
		ContentID: domain.ContentID(doc.ContentID),
		Position:  doc.Position,
		Duration:  doc.Duration,
	}, true, nil
}

func (r *ProgressRepository) ListRecent(ctx context.Context, userID string, limit int) ([]domain.WatchProgress, error) {
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []progressDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	progress := make([]domain.WatchProgress, 0, len(docs))
	for _, doc := range docs {
		progress = append(progress, domain.WatchProgress{
			ContentID: domain.ContentID(doc.ContentID),
			Position:  doc.Position,
			Duration:  doc.Duration,
		})
	}
	return progress, nil
}
