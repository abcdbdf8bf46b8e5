package transaction

import (
	"context"
	"fmt"
	"time"

	"go-paygate/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TransactionRepository interface {
	Create(ctx context.Context, t *Transaction) error
	FindByTransactionID(ctx context.Context, transactionID string) (*Transaction, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Transaction, int64, error)
	ApplyRefund(ctx context.Context, req *RefundRequest) (*Refund, error)
	ListRefunds(ctx context.Context, transactionID string) ([]Refund, error)
}

type TransactionRepositoryImpl struct {
	Transactions *mongo.Collection
	Refunds      *mongo.Collection
}

func NewTransactionRepository(mongodb *database.MongodbDB) TransactionRepository {
	return &TransactionRepositoryImpl{
		Transactions: mongodb.DB.Collection("transactions"),
		Refunds:      mongodb.DB.Collection("refunds"),
	}
}

func (r *TransactionRepositoryImpl) Create(ctx context.Context, t *Transaction) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.Status == "" {
		t.Status = StatusCaptured
	}
	_, err := r.Transactions.InsertOne(ctx, t)
	return err
}

func (r *TransactionRepositoryImpl) FindByTransactionID(ctx context.Context, transactionID string) (*Transaction, error) {
	var t Transaction
	err := r.Transactions.FindOne(ctx, bson.M{"transaction_id": transactionID}).Decode(&t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepositoryImpl) List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Transaction, int64, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if offset > 0 {
		opts.SetSkip(offset)
	}
	opts.SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.Transactions.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var txs []Transaction
	if err = cursor.All(ctx, &txs); err != nil {
		return nil, 0, err
	}

	total, err := r.Transactions.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// ApplyRefund debits the refundable balance atomically: the update is
// guarded on the remaining amount so an approved-then-replayed refund
// can never overdraw the original capture.
func (r *TransactionRepositoryImpl) ApplyRefund(ctx context.Context, req *RefundRequest) (*Refund, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("refund amount must be positive")
	}

	var t Transaction
	err := r.Transactions.FindOneAndUpdate(ctx,
		bson.M{
			"transaction_id": req.TransactionID,
			"$expr": bson.M{"$lte": bson.A{
				bson.M{"$add": bson.A{"$refunded_amount_minor", req.Amount}},
				"$amount_minor",
			}},
		},
		bson.M{"$inc": bson.M{"refunded_amount_minor": req.Amount}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("transaction %s not found or refund exceeds captured amount", req.TransactionID)
	}
	if err != nil {
		return nil, err
	}

	status := StatusPartiallyRefunded
	if t.RefundedAmountMinor >= t.AmountMinor {
		status = StatusRefunded
	}
	_, _ = r.Transactions.UpdateOne(ctx,
		bson.M{"transaction_id": req.TransactionID},
		bson.M{"$set": bson.M{"status": status}},
	)

	refund := &Refund{
		TransactionID: req.TransactionID,
		MerchantID:    t.MerchantID,
		AmountMinor:   req.Amount,
		Currency:      t.Currency,
		Reason:        req.Reason,
		CreatedAt:     time.Now(),
	}
	if _, err := r.Refunds.InsertOne(ctx, refund); err != nil {
		return nil, err
	}
	return refund, nil
}

func (r *TransactionRepositoryImpl) ListRefunds(ctx context.Context, transactionID string) ([]Refund, error) {
	cursor, err := r.Refunds.Find(ctx, bson.M{"transaction_id": transactionID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var refunds []Refund
	if err = cursor.All(ctx, &refunds); err != nil {
		return nil, err
	}
	return refunds, nil
}
