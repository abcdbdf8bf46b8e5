package role

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role maps a role name to a flat set of permission codes.
// Permission codes follow the "resource:action" convention, e.g.
// "transactions:refund:check". The wildcard "*" grants everything.
type Role struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Permissions []string           `json:"permissions" bson:"permissions"`
	IsSystem    bool               `json:"is_system" bson:"is_system"` // system roles cannot be deleted
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}
