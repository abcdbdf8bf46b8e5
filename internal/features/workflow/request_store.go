package workflow

import (
	"context"
	"time"

	"go-paygate/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RequestStore is the single source of truth for approval requests.
// Decisions on one request are serialized through ApplyDecision's
// compare-and-swap guard; no ordering is guaranteed across requests.
type RequestStore interface {
	Create(ctx context.Context, req *Request) error
	Get(ctx context.Context, id string) (*Request, error)
	List(ctx context.Context, filter RequestFilter) ([]Request, error)
	// ApplyDecision atomically applies a mutation to a non-terminal
	// request, guarded on the flow index observed by the caller. It
	// returns ErrStaleRequest when a concurrent decision won the race.
	ApplyDecision(ctx context.Context, id primitive.ObjectID, observedIndex int, update bson.M) (*Request, error)
	// ListStale returns non-terminal requests untouched for longer
	// than age, for the reconciliation sweep.
	ListStale(ctx context.Context, statuses []Status, age time.Duration) ([]Request, error)
}

// RequestFilter narrows List results for checker inboxes
type RequestFilter struct {
	Status    Status
	Module    string
	Requester string
	Limit     int64
}

// ErrStaleRequest signals a lost compare-and-swap; the caller reloads
// and re-evaluates against the updated flow state.
var ErrStaleRequest = &Error{Code: "STALE_REQUEST", Message: "request was modified concurrently"}

type MongoRequestStore struct {
	collection *mongo.Collection
}

func NewRequestStore(mongodb *database.MongodbDB) RequestStore {
	return &MongoRequestStore{
		collection: mongodb.DB.Collection("approval_requests"),
	}
}

func (s *MongoRequestStore) Create(ctx context.Context, req *Request) error {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	_, err := s.collection.InsertOne(ctx, req)
	return err
}

func (s *MongoRequestStore) Get(ctx context.Context, id string) (*Request, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrRequestNotFound
	}
	var req Request
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (s *MongoRequestStore) List(ctx context.Context, filter RequestFilter) ([]Request, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Module != "" {
		query["module"] = filter.Module
	}
	if filter.Requester != "" {
		query["requester_username"] = filter.Requester
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []Request
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *MongoRequestStore) ApplyDecision(ctx context.Context, id primitive.ObjectID, observedIndex int, update bson.M) (*Request, error) {
	// The filter pins the exact flow position the caller evaluated
	// against: a terminal request or one advanced by a concurrent
	// checker no longer matches, so two racing decisions can never
	// both succeed.
	filter := bson.M{
		"_id":                 id,
		"approved_date":       nil,
		"status":              bson.M{"$in": []Status{StatusPending, StatusSubmitted, StatusProcessing}},
		"next_approval_index": observedIndex,
	}

	if set, ok := update["$set"].(bson.M); ok {
		set["updated_at"] = time.Now()
	} else {
		update["$set"] = bson.M{"updated_at": time.Now()}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Request
	err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrStaleRequest
		}
		return nil, err
	}
	return &updated, nil
}

func (s *MongoRequestStore) ListStale(ctx context.Context, statuses []Status, age time.Duration) ([]Request, error) {
	cutoff := time.Now().Add(-age)
	cursor, err := s.collection.Find(ctx, bson.M{
		"status":     bson.M{"$in": statuses},
		"updated_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []Request
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}
