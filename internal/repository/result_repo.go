package repository

import (
	"context"

	"feudlive/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResultRepo archives finished games in MongoDB
type ResultRepo interface {
	SaveResult(ctx context.Context, result *model.GameResult) error
	GetResult(ctx context.Context, code string) (*model.GameResult, error)
}

type resultRepo struct {
	results *mongo.Collection
}

// NewResultRepo creates a new result repository
func NewResultRepo(db *mongo.Database) ResultRepo {
	return &resultRepo{
		results: db.Collection("game_results"),
	}
}

// SaveResult upserts by session code, so a replayed game keeps its latest result
func (r *resultRepo) SaveResult(ctx context.Context, result *model.GameResult) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.results.ReplaceOne(ctx, bson.M{"code": result.Code}, result, opts)
	return err
}

func (r *resultRepo) GetResult(ctx context.Context, code string) (*model.GameResult, error) {
	var result model.GameResult
	err := r.results.FindOne(ctx, bson.M{"code": code}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
