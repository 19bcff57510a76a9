// Package model defines the data structures used throughout the application.
//
// The structs carry three sets of tags: `json` for the HTTP layer, `db` for the
// raw-SQL SQLite store, and `gorm` for the Postgres store. Keeping one struct
// per table (instead of a DTO per layer) is fine at this size because every
// layer agrees on the same field set.
package model

import "time"

// User is the local shadow of an identity-provider account.
//
// ExternalID is the provider's subject id ("user_2abc..."). It is the upsert
// key and is UNIQUE in both stores. Email and Name are an advisory cache of the
// provider profile, refreshed on every authenticated request when the provider
// is reachable. ID is our own xid so resource foreign keys never depend on the
// provider's id format.
type User struct {
	ID         string    `json:"id"         db:"id"          gorm:"primaryKey;type:varchar(20)"`
	ExternalID string    `json:"externalId" db:"external_id" gorm:"uniqueIndex;not null"`
	Email      string    `json:"email"      db:"email"       gorm:"not null"`
	Name       string    `json:"name"       db:"name"        gorm:"not null"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// PlaceholderEmail is stored when the provider has no usable address for a
// subject (or could not be reached).
func PlaceholderEmail(externalID string) string {
	return externalID + "@temp.com"
}

// DefaultUserName is stored when the provider supplies neither a first name
// nor a username.
const DefaultUserName = "User"
