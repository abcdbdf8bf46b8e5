package kyc

import (
	"context"
	"time"

	"go-paygate/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type KYCRepository interface {
	Create(ctx context.Context, c *Case) error
	FindByMerchantID(ctx context.Context, merchantID string) (*Case, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Case, int64, error)
	AddDocument(ctx context.Context, merchantID string, doc Document) error
	SetStatus(ctx context.Context, merchantID, status, note string) (*Case, error)
}

type KYCRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewKYCRepository(mongodb *database.MongodbDB) KYCRepository {
	return &KYCRepositoryImpl{
		Collection: mongodb.DB.Collection("kyc_cases"),
	}
}

func (r *KYCRepositoryImpl) Create(ctx context.Context, c *Case) error {
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	if c.Status == "" {
		c.Status = StatusPendingReview
	}
	_, err := r.Collection.InsertOne(ctx, c)
	return err
}

func (r *KYCRepositoryImpl) FindByMerchantID(ctx context.Context, merchantID string) (*Case, error) {
	var c Case
	err := r.Collection.FindOne(ctx, bson.M{"merchant_id": merchantID}).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *KYCRepositoryImpl) List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Case, int64, error) {
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

	var cases []Case
	if err = cursor.All(ctx, &cases); err != nil {
		return nil, 0, err
	}

	total, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return cases, total, nil
}

func (r *KYCRepositoryImpl) AddDocument(ctx context.Context, merchantID string, doc Document) error {
	doc.UploadedAt = time.Now()
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"merchant_id": merchantID},
		bson.M{
			"$push": bson.M{"documents": doc},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

func (r *KYCRepositoryImpl) SetStatus(ctx context.Context, merchantID, status, note string) (*Case, error) {
	var c Case
	err := r.Collection.FindOneAndUpdate(ctx,
		bson.M{"merchant_id": merchantID},
		bson.M{"$set": bson.M{
			"status":     status,
			"note":       note,
			"updated_at": time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
