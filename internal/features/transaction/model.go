package transaction

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusCaptured          = "CAPTURED"
	StatusRefunded          = "REFUNDED"
	StatusPartiallyRefunded = "PARTIALLY_REFUNDED"
)

type Transaction struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TransactionID       string             `json:"transaction_id" bson:"transaction_id"`
	MerchantID          string             `json:"merchant_id" bson:"merchant_id"`
	AmountMinor         int64              `json:"amount_minor" bson:"amount_minor"`
	RefundedAmountMinor int64              `json:"refunded_amount_minor" bson:"refunded_amount_minor"`
	Currency            string             `json:"currency" bson:"currency"`
	Status              string             `json:"status" bson:"status"`
	Channel             string             `json:"channel" bson:"channel"` // ECOM, POS, MOTO
	CardScheme          string             `json:"card_scheme,omitempty" bson:"card_scheme,omitempty"`
	CreatedAt           time.Time          `json:"created_at" bson:"created_at"`
}

// RefundRequest is the guarded refund payload. Its amount drives
// threshold-band rule selection.
type RefundRequest struct {
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount_minor"`
	Currency      string `json:"currency"`
	Reason        string `json:"reason,omitempty"`
}

func (r RefundRequest) AmountMinor() int64 { return r.Amount }

// Refund is the persisted record of an executed refund
type Refund struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TransactionID string             `json:"transaction_id" bson:"transaction_id"`
	MerchantID    string             `json:"merchant_id" bson:"merchant_id"`
	AmountMinor   int64              `json:"amount_minor" bson:"amount_minor"`
	Currency      string             `json:"currency" bson:"currency"`
	Reason        string             `json:"reason,omitempty" bson:"reason,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}
