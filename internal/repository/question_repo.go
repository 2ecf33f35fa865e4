package repository

import (
	"context"
	"errors"
	"fmt"

	"feudlive/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuestionSource hands out prepared question sets by id.
// A missing set is (nil, nil).
type QuestionSource interface {
	GetSet(ctx context.Context, id string) (*model.QuestionSet, error)
}

// QuestionRepo stores question sets in MongoDB
type QuestionRepo interface {
	QuestionSource
	SaveSet(ctx context.Context, set *model.QuestionSet) error
	ListSetIDs(ctx context.Context) ([]string, error)
}

type questionRepo struct {
	collection *mongo.Collection
}

// NewQuestionRepo creates a new question set repository
func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		collection: db.Collection("question_sets"),
	}
}

func (r *questionRepo) GetSet(ctx context.Context, id string) (*model.QuestionSet, error) {
	var set model.QuestionSet
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&set)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find question set %s: %w", id, err)
	}
	return &set, nil
}

// SaveSet upserts a set by id
func (r *questionRepo) SaveSet(ctx context.Context, set *model.QuestionSet) error {
	if set.ID == "" {
		return errors.New("question set id is required")
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": set.ID}, set, opts)
	return err
}

func (r *questionRepo) ListSetIDs(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// ChainSource asks each source in turn and returns the first set found
type ChainSource []QuestionSource

func (c ChainSource) GetSet(ctx context.Context, id string) (*model.QuestionSet, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		set, err := src.GetSet(ctx, id)
		if err != nil {
			return nil, err
		}
		if set != nil {
			return set, nil
		}
	}
	return nil, nil
}
