package merchant

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusActive     = "ACTIVE"
	StatusSuspended  = "SUSPENDED"
	StatusTerminated = "TERMINATED"
)

type SettlementAccount struct {
	BankName string `json:"bank_name" bson:"bank_name"`
	IBAN     string `json:"iban" bson:"iban"`
	Currency string `json:"currency" bson:"currency"`
}

type Merchant struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MerchantID        string             `json:"merchant_id" bson:"merchant_id"`
	LegalName         string             `json:"legal_name" bson:"legal_name"`
	TradingName       string             `json:"trading_name" bson:"trading_name"`
	CategoryCode      string             `json:"category_code" bson:"category_code"` // MCC
	Country           string             `json:"country" bson:"country"`
	SettlementAccount SettlementAccount  `json:"settlement_account" bson:"settlement_account"`
	Status            string             `json:"status" bson:"status"`
	KYCStatus         string             `json:"kyc_status" bson:"kyc_status"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}

// ProfileUpdate is the payload of the dual-controlled profile change.
// It carries the full proposed profile so the operation can be replayed
// verbatim once the request is approved.
type ProfileUpdate struct {
	MerchantID        string            `json:"merchant_id"`
	LegalName         string            `json:"legal_name,omitempty"`
	TradingName       string            `json:"trading_name,omitempty"`
	CategoryCode      string            `json:"category_code,omitempty"`
	SettlementAccount SettlementAccount `json:"settlement_account,omitempty"`
	Status            string            `json:"status,omitempty"`
}
