// Package mongodb provides a MongoDB-backed store. Field operations map
// directly onto Mongo update operators, so history appends and counter
// increments are atomic server-side.
package mongodb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/landdiv/landflow/pkg/store"
)

const databaseName = "landflow"

type Store struct {
	client   *mongo.Client
	database *mongo.Database
}

func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Store{
		client:   client,
		database: client.Database(databaseName),
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	var doc bson.M

	err := s.database.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return store.NewNotFoundError(collection, id)
		}

		return fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}

	delete(doc, "_id")

	return decode(doc, out)
}

func (s *Store) Create(ctx context.Context, collection string, doc any) (string, error) {
	fields, err := encode(doc)
	if err != nil {
		return "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate document ID: %w", err)
	}

	fields["_id"] = id.String()
	fields["id"] = id.String()

	_, err = s.database.Collection(collection).InsertOne(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}

	return id.String(), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, ops []store.Op) error {
	update, err := buildUpdate(ops)
	if err != nil {
		return err
	}

	result, err := s.database.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update document %s/%s: %w", collection, id, err)
	}

	if result.MatchedCount == 0 {
		return store.NewNotFoundError(collection, id)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.database.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, collection string, opts store.ListOptions, out any) error {
	filter := bson.M{}

	for field, value := range opts.Filters {
		normalized, err := toJSONValue(value)
		if err != nil {
			return err
		}

		filter[field] = normalized
	}

	findOpts := options.Find()

	if opts.OrderBy != "" {
		direction := 1
		if opts.Desc {
			direction = -1
		}

		findOpts.SetSort(bson.D{{Key: opts.OrderBy, Value: direction}})
	}

	cursor, err := s.database.Collection(collection).Find(ctx, filter, findOpts)
	if err != nil {
		return fmt.Errorf("failed to list collection %s: %w", collection, err)
	}

	defer func() { _ = cursor.Close(ctx) }()

	docs := make([]bson.M, 0)

	err = cursor.All(ctx, &docs)
	if err != nil {
		return fmt.Errorf("failed to read collection %s: %w", collection, err)
	}

	for _, doc := range docs {
		delete(doc, "_id")
	}

	return decode(docs, out)
}

// buildUpdate groups field operations by Mongo update operator so one
// UpdateOne call applies the whole batch atomically.
func buildUpdate(ops []store.Op) (bson.M, error) {
	sets := bson.M{}
	pushes := bson.M{}
	incs := bson.M{}
	unsets := bson.M{}

	for _, op := range ops {
		switch op.Kind {
		case store.OpSet:
			value, err := toJSONValue(op.Value)
			if err != nil {
				return nil, err
			}

			sets[op.Field] = value
		case store.OpArrayAppend:
			value, err := toJSONValue(op.Value)
			if err != nil {
				return nil, err
			}

			pushes[op.Field] = value
		case store.OpIncrement:
			incs[op.Field] = op.Value
		case store.OpUnset:
			unsets[op.Field] = ""
		default:
			return nil, fmt.Errorf("unsupported op kind %d", op.Kind)
		}
	}

	update := bson.M{}

	if len(sets) > 0 {
		update["$set"] = sets
	}

	if len(pushes) > 0 {
		update["$push"] = pushes
	}

	if len(incs) > 0 {
		update["$inc"] = incs
	}

	if len(unsets) > 0 {
		update["$unset"] = unsets
	}

	if len(update) == 0 {
		return nil, fmt.Errorf("update requires at least one operation")
	}

	return update, nil
}

// Documents are stored in their decoded-JSON shape (times as RFC3339
// strings) so reads decode identically across backends.
func encode(doc any) (map[string]any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	var fields map[string]any

	err = json.Unmarshal(data, &fields)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document fields: %w", err)
	}

	return fields, nil
}

func decode(value, out any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal stored value: %w", err)
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("failed to decode stored value: %w", err)
	}

	return nil
}

func toJSONValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal field value: %w", err)
	}

	var out any

	err = json.Unmarshal(data, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize field value: %w", err)
	}

	return out, nil
}
