// internal/domain/models/membership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership roles within an organization.
const (
	MembershipRoleAdmin     = "admin"
	MembershipRoleTreasurer = "treasurer"
	MembershipRoleMember    = "member"
)

// OrgMembership links a user in the central directory to an organization
// the user may access. Unique on (user_id, org_slug).
type OrgMembership struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    primitive.ObjectID `bson:"user_id"`
	OrgSlug   string             `bson:"org_slug"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"created_at"`
}
