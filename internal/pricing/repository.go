package pricing

import (
	"context"
	"errors"
	"fmt"

	"eatme/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "config"

// Source reads the pricing document and streams changes to it.
type Source interface {
	// Fetch returns nil when the document does not exist.
	Fetch(ctx context.Context) (*Config, error)
	// Watch blocks, calling onChange for every change until ctx ends or the stream fails.
	// A nil config means the document was deleted.
	Watch(ctx context.Context, onChange func(*Config)) error
}

type configDocument struct {
	ID          string             `bson:"_id"`
	RatePerHour float64            `bson:"ratePerHour"`
	GuestRates  map[string]float64 `bson:"guestRates"`
}

func (d *configDocument) toConfig() *Config {
	cfg := &Config{
		RatePerHour: d.RatePerHour,
		GuestRates:  make(map[model.GuestBand]float64, len(d.GuestRates)),
	}
	for band, rate := range d.GuestRates {
		cfg.GuestRates[model.GuestBand(band)] = rate
	}
	return cfg
}

type changeEvent struct {
	OperationType string          `bson:"operationType"`
	FullDocument  *configDocument `bson:"fullDocument"`
}

type mongoSource struct {
	collection *mongo.Collection
}

func NewMongoSource(db *mongo.Database) Source {
	return &mongoSource{collection: db.Collection(CollectionName)}
}

func (s *mongoSource) Fetch(ctx context.Context) (*Config, error) {
	var doc configDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": DocumentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read pricing config: %w", err)
	}
	return doc.toConfig(), nil
}

func (s *mongoSource) Watch(ctx context.Context, onChange func(*Config)) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": DocumentID}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := s.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return fmt.Errorf("failed to open pricing change stream: %w", err)
	}
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var event changeEvent
		if err := stream.Decode(&event); err != nil {
			return fmt.Errorf("failed to decode pricing change: %w", err)
		}

		switch event.OperationType {
		case "delete":
			onChange(nil)
		case "invalidate", "drop":
			return fmt.Errorf("pricing change stream invalidated: %s", event.OperationType)
		default:
			if event.FullDocument == nil {
				onChange(nil)
				continue
			}
			onChange(event.FullDocument.toConfig())
		}
	}

	return stream.Err()
}
