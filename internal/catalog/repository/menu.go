package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalogerrors "eatme/internal/catalog/errors"
	"eatme/pkg/config"
	mongotx "eatme/pkg/db/mongo"
	"eatme/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "menu"
)

// Filter narrows menu listings. An empty Category matches every category.
type Filter struct {
	Category           string
	IncludeUnavailable bool
}

type MenuRepository interface {
	Create(ctx context.Context, item *model.MenuItem) error
	FindByID(ctx context.Context, id string) (*model.MenuItem, error)
	FindAll(ctx context.Context, filter Filter, limit int, offset int64) ([]*model.MenuItem, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	SetAvailability(ctx context.Context, id string, available bool) (*model.MenuItem, error)
	SetImageURL(ctx context.Context, id, url string) (*model.MenuItem, error)
}

type mongoMenuRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoMenuRepository(cfg *config.Config) MenuRepository {
	return &mongoMenuRepository{
		cfg:        cfg,
		collection: cfg.Client.MongoDB.Collection(CollectionName),
	}
}

func (r *mongoMenuRepository) Create(ctx context.Context, item *model.MenuItem) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	item.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to create menu item: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		item.ID = oid.Hex()
	}
	return nil
}

func (r *mongoMenuRepository) FindByID(ctx context.Context, id string) (*model.MenuItem, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", catalogerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var item model.MenuItem
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", catalogerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find menu item: %w", err)
	}
	return &item, nil
}

func (r *mongoMenuRepository) FindAll(ctx context.Context, filter Filter, limit int, offset int64) ([]*model.MenuItem, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, toBSON(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu: %w", err)
	}
	defer cursor.Close(ctx)

	items := []*model.MenuItem{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode menu items: %w", err)
	}
	return items, nil
}

func (r *mongoMenuRepository) Count(ctx context.Context, filter Filter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, toBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count menu items: %w", err)
	}
	return count, nil
}

func (r *mongoMenuRepository) SetAvailability(ctx context.Context, id string, available bool) (*model.MenuItem, error) {
	return r.update(ctx, id, bson.M{"available": available})
}

func (r *mongoMenuRepository) SetImageURL(ctx context.Context, id, url string) (*model.MenuItem, error) {
	return r.update(ctx, id, bson.M{"image_url": url})
}

func (r *mongoMenuRepository) update(ctx context.Context, id string, set bson.M) (*model.MenuItem, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", catalogerrors.ErrInvalidID, id)
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var item model.MenuItem
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": set}, opts).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", catalogerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}
	return &item, nil
}

func toBSON(f Filter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if !f.IncludeUnavailable {
		filter["available"] = true
	}
	return filter
}
