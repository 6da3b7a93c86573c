// internal/domain/models/expense.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Expense is money spent by the organization, stored in the tenant database.
// RefNo is assigned at create time for receipts and report references.
type Expense struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RefNo       string             `bson:"ref_no" json:"ref_no"`
	Category    string             `bson:"category" json:"category"`
	AmountCents int64              `bson:"amount_cents" json:"amount_cents"`
	Period      string             `bson:"period" json:"period"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"` // sanitized
	RecordedBy  string             `bson:"recorded_by" json:"recorded_by"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Budget caps spending for a category within a period. Unique on
// (category, period) in each tenant database.
type Budget struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Category   string             `bson:"category" json:"category"`
	Period     string             `bson:"period" json:"period"`
	LimitCents int64              `bson:"limit_cents" json:"limit_cents"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
