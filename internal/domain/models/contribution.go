// internal/domain/models/contribution.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contribution payment methods.
const (
	PayMethodCash     = "cash"
	PayMethodCheck    = "check"
	PayMethodTransfer = "transfer"
	PayMethodOther    = "other"
)

// Contribution statuses. Voided contributions stay in the ledger for audit
// but are excluded from totals.
const (
	ContributionRecorded = "recorded"
	ContributionVoided   = "voided"
)

// Contribution is one dues payment by a member, stored in the tenant database.
// ReceiptNo is assigned at record time and never reused.
type Contribution struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReceiptNo   string             `bson:"receipt_no" json:"receipt_no"`
	MemberID    primitive.ObjectID `bson:"member_id" json:"member_id"`
	AmountCents int64              `bson:"amount_cents" json:"amount_cents"`
	Period      string             `bson:"period" json:"period"` // e.g. "2026-08"
	Method      string             `bson:"method" json:"method"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"` // sanitized
	Status      string             `bson:"status" json:"status"`
	RecordedBy  string             `bson:"recorded_by" json:"recorded_by"` // central user ID hex
	VoidReason  string             `bson:"void_reason,omitempty" json:"void_reason,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
