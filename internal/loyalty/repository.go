// Package loyalty stores each user's points balance.
package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	mongotx "eatme/pkg/db/mongo"
	"eatme/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "users"

var (
	ErrEmptyUID           = errors.New("loyalty: uid cannot be empty")
	ErrInvalidPoints      = errors.New("loyalty: points to redeem must be positive")
	ErrInsufficientPoints = errors.New("loyalty: balance is lower than the points to redeem")
)

type Repository interface {
	// Balance returns zero for users without a document.
	Balance(ctx context.Context, uid string) (int64, error)
	// Increment adds delta to the balance, creating the user document when missing.
	Increment(ctx context.Context, uid string, delta int64) error
	// Redeem takes points off the balance, failing with ErrInsufficientPoints
	// instead of going below zero.
	Redeem(ctx context.Context, uid string, points int64) error
}

type mongoRepository struct {
	collection   *mongo.Collection
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewMongoRepository(db *mongo.Database, readTimeout, writeTimeout time.Duration) Repository {
	return &mongoRepository{
		collection:   db.Collection(CollectionName),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

func (r *mongoRepository) Balance(ctx context.Context, uid string) (int64, error) {
	if uid == "" {
		return 0, ErrEmptyUID
	}
	ctx, cancel := mongotx.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	var user model.User
	err := r.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read loyalty balance for %s: %w", uid, err)
	}
	return user.Loyalty.Points, nil
}

func (r *mongoRepository) Increment(ctx context.Context, uid string, delta int64) error {
	if uid == "" {
		return ErrEmptyUID
	}
	ctx, cancel := mongotx.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	update := bson.M{
		"$inc":         bson.M{"loyalty.points": delta},
		"$setOnInsert": bson.M{"created_at": time.Now().UTC().Truncate(time.Millisecond)},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": uid}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to increment loyalty points for %s: %w", uid, err)
	}
	return nil
}

func (r *mongoRepository) Redeem(ctx context.Context, uid string, points int64) error {
	if uid == "" {
		return ErrEmptyUID
	}
	if points <= 0 {
		return ErrInvalidPoints
	}
	ctx, cancel := mongotx.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	filter := bson.M{"_id": uid, "loyalty.points": bson.M{"$gte": points}}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"loyalty.points": -points}})
	if err != nil {
		return fmt.Errorf("failed to redeem loyalty points for %s: %w", uid, err)
	}
	if result.ModifiedCount == 0 {
		return ErrInsufficientPoints
	}
	return nil
}
