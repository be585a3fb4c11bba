package mongodb

import (
	"context"
	"errors"

	"github.com/intenus/preranker/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const SolutionCollectionName = "solutions"

const (
	KeySolutionId  = "solution_id"
	KeyIntentId    = "intent_id"
	KeyStatus      = "status"
	KeySubmittedAt = "submitted_at"
)

type MongoSolutionRepository struct {
	logger     *zap.Logger
	collection *mongo.Collection
}

// Compile-time type validation
var (
	_ repository.SolutionRepository = (*MongoSolutionRepository)(nil)
	_ mongoCollection               = (*MongoSolutionRepository)(nil)
)

func NewMongoSolutionRepository(logger *zap.Logger, db *mongo.Database) *MongoSolutionRepository {
	return &MongoSolutionRepository{
		logger:     logger,
		collection: db.Collection(SolutionCollectionName),
	}
}

func (m *MongoSolutionRepository) InitSchema(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: KeySolutionId, Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.M{KeyIntentId: 1},
		},
		{
			Keys: bson.M{KeyStatus: 1},
		},
		{
			Keys: bson.M{KeySubmittedAt: -1},
		},
	})

	return err
}

// Save upserts by solution id. Re-processing the same solution event after a
// restart overwrites the previous record rather than duplicating it.
func (m *MongoSolutionRepository) Save(ctx context.Context, record repository.SolutionRecord) error {
	if !record.Status.Valid() {
		return repository.ErrInvalidStatus
	}

	filter := bson.M{KeySolutionId: record.SolutionId}
	update := bson.M{"$set": record}

	_, err := m.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (m *MongoSolutionRepository) FindById(ctx context.Context, solutionId string) (repository.SolutionRecord, bool, error) {
	var record repository.SolutionRecord

	filter := bson.D{{Key: KeySolutionId, Value: solutionId}}
	if err := m.collection.FindOne(ctx, filter).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.SolutionRecord{}, false, nil
		} else {
			return repository.SolutionRecord{}, false, err
		}
	}

	return record, true, nil
}

func (m *MongoSolutionRepository) FindByIntent(ctx context.Context, intentId string) ([]repository.SolutionRecord, error) {
	filter := bson.M{KeyIntentId: intentId}

	cursor, err := m.collection.Find(ctx, filter, options.Find().SetSort(bson.M{KeySubmittedAt: 1}))
	if err != nil {
		return nil, err
	}

	var records []repository.SolutionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	return records, nil
}

func (m *MongoSolutionRepository) UpdateStatus(ctx context.Context, solutionId string, status repository.SolutionStatus) error {
	if !status.Valid() {
		return repository.ErrInvalidStatus
	}

	filter := bson.M{KeySolutionId: solutionId}
	update := bson.M{"$set": bson.M{KeyStatus: status}}

	res, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return repository.ErrSolutionNotFound
	}

	return nil
}

func (m *MongoSolutionRepository) SolutionCount(ctx context.Context) (int, error) {
	count, err := m.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, err
	}

	return int(count), nil
}
