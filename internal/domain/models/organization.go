// internal/domain/models/organization.go
package models

import (
	"time"
)

// Organization statuses.
const (
	OrgStatusActive   = "active"
	OrgStatusDisabled = "disabled"
)

// ConnectionConfig is the credential bundle used to reach an organization's
// isolated database. The core tenant logic treats it as opaque; only the
// provisioner interprets the fields.
type ConnectionConfig struct {
	URI      string `bson:"uri"`
	Database string `bson:"database"`
}

// IsZero reports whether the config is missing entirely.
func (c ConnectionConfig) IsZero() bool {
	return c.URI == "" && c.Database == ""
}

// Organization is a tenant record in the central directory.
// Slug is the URL-safe primary key and is immutable once created.
type Organization struct {
	Slug       string           `bson:"_id"`
	Name       string           `bson:"name"`
	NameCI     string           `bson:"name_ci"` // ← always stored
	Connection ConnectionConfig `bson:"connection"`
	Status     string           `bson:"status"`
	CreatedAt  time.Time        `bson:"created_at"`
	UpdatedAt  time.Time        `bson:"updated_at"`
}
