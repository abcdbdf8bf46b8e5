package kyc

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPendingReview = "PENDING_REVIEW"
	StatusApproved      = "APPROVED"
	StatusRejected      = "REJECTED"
)

type Document struct {
	Type      string    `json:"type" bson:"type"` // e.g. CERT_OF_INCORPORATION, DIRECTOR_ID
	Reference string    `json:"reference" bson:"reference"`
	UploadedAt time.Time `json:"uploaded_at" bson:"uploaded_at"`
}

type Case struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MerchantID string             `json:"merchant_id" bson:"merchant_id"`
	Level      string             `json:"level" bson:"level"` // BASIC, ENHANCED
	Documents  []Document         `json:"documents,omitempty" bson:"documents,omitempty"`
	Status     string             `json:"status" bson:"status"`
	Note       string             `json:"note,omitempty" bson:"note,omitempty"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// StatusChange is the guarded payload moving a KYC case to a verdict
type StatusChange struct {
	MerchantID string `json:"merchant_id"`
	NewStatus  string `json:"new_status"`
	Note       string `json:"note,omitempty"`
}
