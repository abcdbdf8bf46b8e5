package dispute

import (
	"context"
	"fmt"
	"time"

	"go-paygate/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DisputeRepository interface {
	Create(ctx context.Context, d *Dispute) error
	FindByDisputeID(ctx context.Context, disputeID string) (*Dispute, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Dispute, int64, error)
	AttachEvidence(ctx context.Context, disputeID string, evidence []string) error
	ApplyResolution(ctx context.Context, res *Resolution) (*Dispute, error)
}

type DisputeRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewDisputeRepository(mongodb *database.MongodbDB) DisputeRepository {
	return &DisputeRepositoryImpl{
		Collection: mongodb.DB.Collection("disputes"),
	}
}

func (r *DisputeRepositoryImpl) Create(ctx context.Context, d *Dispute) error {
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()
	if d.Status == "" {
		d.Status = StatusOpen
	}
	_, err := r.Collection.InsertOne(ctx, d)
	return err
}

func (r *DisputeRepositoryImpl) FindByDisputeID(ctx context.Context, disputeID string) (*Dispute, error) {
	var d Dispute
	err := r.Collection.FindOne(ctx, bson.M{"dispute_id": disputeID}).Decode(&d)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DisputeRepositoryImpl) List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Dispute, int64, error) {
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

	var disputes []Dispute
	if err = cursor.All(ctx, &disputes); err != nil {
		return nil, 0, err
	}

	total, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return disputes, total, nil
}

func (r *DisputeRepositoryImpl) AttachEvidence(ctx context.Context, disputeID string, evidence []string) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"dispute_id": disputeID, "status": bson.M{"$ne": StatusResolved}},
		bson.M{
			"$push": bson.M{"evidence": bson.M{"$each": evidence}},
			"$set":  bson.M{"status": StatusUnderReview, "updated_at": time.Now()},
		},
	)
	return err
}

// ApplyResolution concludes the dispute. Guarded on non-resolved status
// so a replayed approval cannot resolve the same dispute twice.
func (r *DisputeRepositoryImpl) ApplyResolution(ctx context.Context, res *Resolution) (*Dispute, error) {
	now := time.Now()
	var d Dispute
	err := r.Collection.FindOneAndUpdate(ctx,
		bson.M{"dispute_id": res.DisputeID, "status": bson.M{"$ne": StatusResolved}},
		bson.M{"$set": bson.M{
			"status":      StatusResolved,
			"outcome":     res.Outcome,
			"resolved_at": now,
			"updated_at":  now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("dispute %s not found or already resolved", res.DisputeID)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
