package dispute

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusOpen        = "OPEN"
	StatusUnderReview = "UNDER_REVIEW"
	StatusResolved    = "RESOLVED"
)

const (
	OutcomeMerchant   = "MERCHANT"   // dispute rejected, merchant keeps the funds
	OutcomeCardholder = "CARDHOLDER" // chargeback upheld, funds returned
)

type Dispute struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DisputeID     string             `json:"dispute_id" bson:"dispute_id"`
	TransactionID string             `json:"transaction_id" bson:"transaction_id"`
	MerchantID    string             `json:"merchant_id" bson:"merchant_id"`
	AmountMinor   int64              `json:"amount_minor" bson:"amount_minor"`
	Currency      string             `json:"currency" bson:"currency"`
	ReasonCode    string             `json:"reason_code" bson:"reason_code"`
	Status        string             `json:"status" bson:"status"`
	Outcome       string             `json:"outcome,omitempty" bson:"outcome,omitempty"`
	Evidence      []string           `json:"evidence,omitempty" bson:"evidence,omitempty"`
	ResolvedAt    *time.Time         `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// Resolution is the guarded payload concluding a dispute. The disputed
// amount drives threshold-band rule selection.
type Resolution struct {
	DisputeID string `json:"dispute_id"`
	Outcome   string `json:"outcome"`
	Note      string `json:"note,omitempty"`
	Amount    int64  `json:"amount_minor"`
}

func (r Resolution) AmountMinor() int64 { return r.Amount }
