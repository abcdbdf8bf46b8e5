package settlement

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
)

// Batch aggregates a merchant's captured transactions for one payout
// cycle. Amounts are in minor units.
type Batch struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BatchID          string             `json:"batch_id" bson:"batch_id"`
	MerchantID       string             `json:"merchant_id" bson:"merchant_id"`
	Currency         string             `json:"currency" bson:"currency"`
	GrossMinor       int64              `json:"gross_minor" bson:"gross_minor"`
	FeesMinor        int64              `json:"fees_minor" bson:"fees_minor"`
	NetMinor         int64              `json:"net_minor" bson:"net_minor"`
	TransactionCount int                `json:"transaction_count" bson:"transaction_count"`
	Status           string             `json:"status" bson:"status"`
	SettledAt        *time.Time         `json:"settled_at,omitempty" bson:"settled_at,omitempty"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
}
