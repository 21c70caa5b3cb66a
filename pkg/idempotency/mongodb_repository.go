package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const idempotencyKeysCollection = "idempotency_keys"

// InitializeIndexes creates the idempotency_keys indexes. Call it on startup
// before serving requests.
func InitializeIndexes(ctx context.Context, db *mongo.Database) error {
	if err := NewMongoKeyRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create idempotency_keys indexes: %w", err)
	}
	return nil
}

// MongoKeyRepository implements KeyRepository using MongoDB
type MongoKeyRepository struct {
	collection *mongo.Collection
}

// NewMongoKeyRepository creates a new MongoDB-backed key repository
func NewMongoKeyRepository(db *mongo.Database) *MongoKeyRepository {
	return &MongoKeyRepository{
		collection: db.Collection(idempotencyKeysCollection),
	}
}

func keyFilter(key *IdempotencyKey) bson.M {
	return bson.M{
		"serviceId": key.ServiceID,
		"userId":    key.UserID,
		"key":       key.Key,
	}
}

// AcquireLock upserts the key. An existing key is returned untouched.
func (r *MongoKeyRepository) AcquireLock(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
	now := time.Now().UTC()
	if key.ID.IsZero() {
		key.ID = primitive.NewObjectID()
	}
	key.LockedAt = &now

	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":                key.ID,
			"key":                key.Key,
			"serviceId":          key.ServiceID,
			"userId":             key.UserID,
			"requestPath":        key.RequestPath,
			"requestMethod":      key.RequestMethod,
			"requestFingerprint": key.RequestFingerprint,
			"lockedAt":           now,
			"createdAt":          key.CreatedAt,
			"expiresAt":          key.ExpiresAt,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result IdempotencyKey
	err := r.collection.FindOneAndUpdate(ctx, keyFilter(key), update, opts).Decode(&result)
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent upsert won the insert
		err = r.collection.FindOne(ctx, keyFilter(key)).Decode(&result)
	}
	if err != nil {
		return nil, false, err
	}
	return &result, result.ID == key.ID, nil
}

// ReleaseLock unlocks an uncompleted key
func (r *MongoKeyRepository) ReleaseLock(ctx context.Context, keyID string) error {
	objID, err := primitive.ObjectIDFromHex(keyID)
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "completedAt": bson.M{"$exists": false}},
		bson.M{"$unset": bson.M{"lockedAt": ""}},
	)
	return err
}

// StoreResponse stores the final response for a completed request
func (r *MongoKeyRepository) StoreResponse(ctx context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error {
	objID, err := primitive.ObjectIDFromHex(keyID)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"responseCode":    responseCode,
			"responseBody":    responseBody,
			"responseHeaders": headers,
			"completedAt":     time.Now().UTC(),
		},
		"$unset": bson.M{"lockedAt": ""},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.New("idempotency key not found")
	}
	return nil
}

// EnsureIndexes creates the unique lookup index and the expiry TTL index
func (r *MongoKeyRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "serviceId", Value: 1},
				{Key: "userId", Value: 1},
				{Key: "key", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_service_user_key"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_ttl"),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
