package merchant

import (
	"context"
	"time"

	"go-paygate/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MerchantRepository interface {
	Create(ctx context.Context, m *Merchant) error
	FindByMerchantID(ctx context.Context, merchantID string) (*Merchant, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Merchant, int64, error)
	ApplyProfileUpdate(ctx context.Context, upd *ProfileUpdate) (*Merchant, error)
	SetKYCStatus(ctx context.Context, merchantID, status string) error
}

type MerchantRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewMerchantRepository(mongodb *database.MongodbDB) MerchantRepository {
	return &MerchantRepositoryImpl{
		Collection: mongodb.DB.Collection("merchants"),
	}
}

func (r *MerchantRepositoryImpl) Create(ctx context.Context, m *Merchant) error {
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()
	if m.Status == "" {
		m.Status = StatusActive
	}
	_, err := r.Collection.InsertOne(ctx, m)
	return err
}

func (r *MerchantRepositoryImpl) FindByMerchantID(ctx context.Context, merchantID string) (*Merchant, error) {
	var m Merchant
	err := r.Collection.FindOne(ctx, bson.M{"merchant_id": merchantID}).Decode(&m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MerchantRepositoryImpl) List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Merchant, int64, error) {
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

	var merchants []Merchant
	if err = cursor.All(ctx, &merchants); err != nil {
		return nil, 0, err
	}

	total, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return merchants, total, nil
}

func (r *MerchantRepositoryImpl) ApplyProfileUpdate(ctx context.Context, upd *ProfileUpdate) (*Merchant, error) {
	set := bson.M{"updated_at": time.Now()}
	if upd.LegalName != "" {
		set["legal_name"] = upd.LegalName
	}
	if upd.TradingName != "" {
		set["trading_name"] = upd.TradingName
	}
	if upd.CategoryCode != "" {
		set["category_code"] = upd.CategoryCode
	}
	if upd.SettlementAccount != (SettlementAccount{}) {
		set["settlement_account"] = upd.SettlementAccount
	}
	if upd.Status != "" {
		set["status"] = upd.Status
	}

	var m Merchant
	err := r.Collection.FindOneAndUpdate(ctx,
		bson.M{"merchant_id": upd.MerchantID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MerchantRepositoryImpl) SetKYCStatus(ctx context.Context, merchantID, status string) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"merchant_id": merchantID},
		bson.M{"$set": bson.M{"kyc_status": status, "updated_at": time.Now()}},
	)
	return err
}
