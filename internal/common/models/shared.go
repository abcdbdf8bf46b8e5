package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionUpdate     AuditAction = "UPDATE"
	AuditActionDelete     AuditAction = "DELETE"
	AuditActionLogin      AuditAction = "LOGIN"
	AuditActionApproval   AuditAction = "APPROVAL"
	AuditActionBypass     AuditAction = "BYPASS"
	AuditActionExport     AuditAction = "EXPORT"
	AuditActionAutomation AuditAction = "AUTOMATION"
	AuditActionSettings   AuditAction = "SETTINGS"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

// AuditLog is the durable audit record written by the audit sink.
// Actor identity is captured explicitly because the workflow engine
// never reads ambient security context.
type AuditLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action     AuditAction        `bson:"action" json:"action"`
	Activity   string             `bson:"activity,omitempty" json:"activity,omitempty"`
	Module     string             `bson:"module" json:"module"`
	RecordID   string             `bson:"record_id,omitempty" json:"record_id,omitempty"`
	ActorRole  string             `bson:"actor_role" json:"actor_role"`
	ActorEmail string             `bson:"actor_email" json:"actor_email"`
	ActorName  string             `bson:"actor_name" json:"actor_name"`
	Snapshot   interface{}        `bson:"snapshot,omitempty" json:"snapshot,omitempty"`
	Changes    map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	Password  string             `bson:"password" json:"-"`
	Email     string             `bson:"email" json:"email"`
	FirstName string             `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName  string             `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Status    string             `bson:"status" json:"status"` // active, inactive, suspended
	Role      string             `bson:"role" json:"role"`     // role name, resolved to permissions at login
	LastLogin *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Log is the record written by the async zap DB writer
type Log struct {
	Message      string    `bson:"message" json:"message"`
	IpAddress    string    `bson:"ip_address" json:"ip_address"`
	Actor        string    `bson:"actor,omitempty" json:"actor,omitempty"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
