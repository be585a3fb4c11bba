package mongodb

import (
	"context"
	"time"

	"github.com/intenus/preranker/pkg/repository"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type MongoRepository struct {
	database  *mongo.Database
	solutions *MongoSolutionRepository
}

var _ repository.Repository = (*MongoRepository)(nil)

type mongoCollection interface {
	InitSchema(ctx context.Context) error
}

func NewMongoRepository(logger *zap.Logger, db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		database:  db,
		solutions: NewMongoSolutionRepository(logger, db),
	}
}

func (m *MongoRepository) InitSchema(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	cols := []mongoCollection{m.solutions}
	for _, col := range cols {
		col := col
		group.Go(func() error {
			return col.InitSchema(ctx)
		})
	}

	return group.Wait()
}

func (m *MongoRepository) Solutions() repository.SolutionRepository {
	return m.solutions
}

func (m *MongoRepository) TestConnection() error {
	ctx, cancelFunc := context.WithTimeout(context.Background(), time.Second*10)
	defer cancelFunc()

	return m.database.Client().Ping(ctx, nil)
}
