// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User auth methods.
const (
	AuthMethodPassword = "password"
	AuthMethodGoogle   = "google"
)

// User is an account in the central directory. Organization access is not
// embedded here; use the org_memberships collection to discover which
// organizations a user belongs to.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"email_ci"`
	AuthMethod   string             `bson:"auth_method" json:"auth_method"` // password | google
	PasswordHash []byte             `bson:"password_hash,omitempty" json:"-"`
	GoogleSub    string             `bson:"google_sub,omitempty" json:"-"`
	IsSiteAdmin  bool               `bson:"is_site_admin,omitempty" json:"is_site_admin,omitempty"`
	Status       string             `bson:"status" json:"status"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
