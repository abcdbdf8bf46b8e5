package settlement

import (
	"context"
	"time"

	"go-paygate/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SettlementRepository interface {
	Create(ctx context.Context, b *Batch) error
	FindByBatchID(ctx context.Context, batchID string) (*Batch, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Batch, int64, error)
	MarkPaid(ctx context.Context, batchID string) error
}

type SettlementRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewSettlementRepository(mongodb *database.MongodbDB) SettlementRepository {
	return &SettlementRepositoryImpl{
		Collection: mongodb.DB.Collection("settlement_batches"),
	}
}

func (r *SettlementRepositoryImpl) Create(ctx context.Context, b *Batch) error {
	b.CreatedAt = time.Now()
	if b.Status == "" {
		b.Status = StatusPending
	}
	b.NetMinor = b.GrossMinor - b.FeesMinor
	_, err := r.Collection.InsertOne(ctx, b)
	return err
}

func (r *SettlementRepositoryImpl) FindByBatchID(ctx context.Context, batchID string) (*Batch, error) {
	var b Batch
	err := r.Collection.FindOne(ctx, bson.M{"batch_id": batchID}).Decode(&b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *SettlementRepositoryImpl) List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Batch, int64, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if offset > 0 {
		opts.SetSkip(offset)
	}
	opts.SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var batches []Batch
	if err = cursor.All(ctx, &batches); err != nil {
		return nil, 0, err
	}

	total, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

func (r *SettlementRepositoryImpl) MarkPaid(ctx context.Context, batchID string) error {
	now := time.Now()
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"batch_id": batchID, "status": StatusPending},
		bson.M{"$set": bson.M{"status": StatusPaid, "settled_at": now}},
	)
	return err
}
